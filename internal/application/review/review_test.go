package review

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/review"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/internal/testutil"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type fixture struct {
	db     *gorm.DB
	clock  *testutil.Clock
	events *testutil.EventRecorder
	books  book.Repository
	loans  loan.Repository
	create *CreateReviewUseCase
	update *UpdateReviewUseCase
	remove *DeleteReviewUseCase
	query  *QueryReviewsUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := testutil.NewClock()
	events := &testutil.EventRecorder{}

	bookRepo := gormstore.NewBookRepository(db)
	loanRepo := gormstore.NewLoanRepository(db)
	reviewRepo := gormstore.NewReviewRepository(db)
	userRepo := gormstore.NewUserRepository(db)
	txManager := gormstore.NewTxManager(db)

	f := &fixture{
		db:     db,
		clock:  clock,
		events: events,
		books:  bookRepo,
		loans:  loanRepo,
		create: NewCreateReviewUseCase(bookRepo, loanRepo, reviewRepo, txManager, events),
		update: NewUpdateReviewUseCase(bookRepo, reviewRepo, txManager, events),
		remove: NewDeleteReviewUseCase(bookRepo, reviewRepo, txManager, events),
		query:  NewQueryReviewsUseCase(bookRepo, loanRepo, reviewRepo, userRepo),
	}
	f.create.now = clock.Func()
	f.update.now = clock.Func()
	f.remove.now = clock.Func()
	return f
}

func (f *fixture) lend(t *testing.T, userID, bookID uint) {
	t.Helper()
	require.NoError(t, f.loans.Create(context.Background(), loan.NewLoan(userID, bookID, f.clock.Now)))
}

func (f *fixture) assertStats(t *testing.T, bookID uint, average float64, count int) {
	t.Helper()
	b, err := f.books.FindByID(context.Background(), bookID)
	require.NoError(t, err)
	assert.InDelta(t, average, b.AverageRating, 1e-9)
	assert.Equal(t, count, b.ReviewCount)
}

func TestReviewAggregateScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := testutil.SeedUser(t, f.db, "alice", user.RoleUser)
	bob := testutil.SeedUser(t, f.db, "bob", user.RoleUser)
	b := testutil.SeedBook(t, f.db)
	f.lend(t, alice.ID, b.ID)
	f.lend(t, bob.ID, b.ID)

	first, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 3, Comment: "ok"})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, first.AverageRating, 1e-9)
	assert.Equal(t, 1, first.ReviewCount)
	f.assertStats(t, b.ID, 3, 1)

	_, err = f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 4})
	assert.ErrorIs(t, err, review.ErrAlreadyReviewed)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = f.create.Execute(ctx, CreateReviewRequest{UserID: bob.ID, BookID: b.ID, Rating: 5})
	require.NoError(t, err)
	f.assertStats(t, b.ID, 4.0, 2)

	updated, err := f.update.Execute(ctx, UpdateReviewRequest{ReviewID: first.Review.ID, CallerID: alice.ID, Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, "ok", updated.Review.Comment)
	f.assertStats(t, b.ID, 3.0, 2)

	assert.Equal(t, []string{event.ReviewCreated, event.ReviewCreated, event.ReviewUpdated}, f.events.Types())
}

func TestCanReviewScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := testutil.SeedUser(t, f.db, "alice", user.RoleUser)
	b := testutil.SeedBook(t, f.db)

	ok, err := f.query.CanReview(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "没有借阅记录")

	// 借阅后归还也可以评论
	l := loan.NewLoan(alice.ID, b.ID, f.clock.Now)
	require.NoError(t, f.loans.Create(ctx, l))
	require.NoError(t, l.MarkReturned(f.clock.Now.Add(time.Hour)))
	require.NoError(t, f.loans.MarkReturned(ctx, l))

	ok, err = f.query.CanReview(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 4})
	require.NoError(t, err)

	ok, err = f.query.CanReview(ctx, alice.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "已经评论过")
}

func TestCreateReview_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := testutil.SeedUser(t, f.db, "alice", user.RoleUser)
	b := testutil.SeedBook(t, f.db)

	t.Run("没有借阅过", func(t *testing.T) {
		_, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 4})
		assert.ErrorIs(t, err, review.ErrNotBorrowed)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("图书不存在", func(t *testing.T) {
		_, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: 9999, Rating: 4})
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})

	t.Run("评分校验先于数据库访问", func(t *testing.T) {
		_, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: 9999, Rating: 6})
		assert.ErrorIs(t, err, review.ErrInvalidRating)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("评论过长", func(t *testing.T) {
		f.lend(t, alice.ID, b.ID)
		_, err := f.create.Execute(ctx, CreateReviewRequest{
			UserID: alice.ID, BookID: b.ID, Rating: 4, Comment: strings.Repeat("好", 501),
		})
		assert.ErrorIs(t, err, review.ErrCommentTooLong)
		f.assertStats(t, b.ID, 0, 0)
	})
}

func TestUpdateReview_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := testutil.SeedUser(t, f.db, "alice", user.RoleUser)
	admin := testutil.SeedUser(t, f.db, "admin", user.RoleAdmin)
	b := testutil.SeedBook(t, f.db)
	f.lend(t, alice.ID, b.ID)

	res, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 4})
	require.NoError(t, err)

	_, err = f.update.Execute(ctx, UpdateReviewRequest{ReviewID: res.Review.ID, CallerID: admin.ID, Rating: 1})
	assert.ErrorIs(t, err, review.ErrNotOwner)

	_, err = f.update.Execute(ctx, UpdateReviewRequest{ReviewID: 9999, CallerID: alice.ID, Rating: 1})
	assert.ErrorIs(t, err, review.ErrReviewNotFound)

	_, err = f.update.Execute(ctx, UpdateReviewRequest{ReviewID: res.Review.ID, CallerID: alice.ID, Rating: 0})
	assert.ErrorIs(t, err, review.ErrInvalidRating)

	f.assertStats(t, b.ID, 4, 1)
}

func TestDeleteReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := testutil.SeedUser(t, f.db, "alice", user.RoleUser)
	bob := testutil.SeedUser(t, f.db, "bob", user.RoleUser)
	admin := testutil.SeedUser(t, f.db, "admin", user.RoleAdmin)
	b := testutil.SeedBook(t, f.db)
	f.lend(t, alice.ID, b.ID)
	f.lend(t, bob.ID, b.ID)

	ra, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 2})
	require.NoError(t, err)
	rb, err := f.create.Execute(ctx, CreateReviewRequest{UserID: bob.ID, BookID: b.ID, Rating: 5})
	require.NoError(t, err)

	t.Run("他人不能删除", func(t *testing.T) {
		_, err := f.remove.Execute(ctx, DeleteReviewRequest{ReviewID: ra.Review.ID, CallerID: bob.ID, CallerRole: user.RoleUser})
		assert.ErrorIs(t, err, review.ErrDeleteForbidden)
	})

	t.Run("作者删除后重算", func(t *testing.T) {
		res, err := f.remove.Execute(ctx, DeleteReviewRequest{ReviewID: ra.Review.ID, CallerID: alice.ID, CallerRole: user.RoleUser})
		require.NoError(t, err)
		assert.InDelta(t, 5.0, res.AverageRating, 1e-9)
		f.assertStats(t, b.ID, 5, 1)
	})

	t.Run("管理员删除最后一条后归零", func(t *testing.T) {
		_, err := f.remove.Execute(ctx, DeleteReviewRequest{ReviewID: rb.Review.ID, CallerID: admin.ID, CallerRole: user.RoleAdmin})
		require.NoError(t, err)
		f.assertStats(t, b.ID, 0, 0)
	})

	t.Run("删除后可以重新评论", func(t *testing.T) {
		ok, err := f.query.CanReview(ctx, alice.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestListBookReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := testutil.SeedUser(t, f.db, "alice", user.RoleUser)
	bob := testutil.SeedUser(t, f.db, "bob", user.RoleUser)
	b := testutil.SeedBook(t, f.db)
	f.lend(t, alice.ID, b.ID)
	f.lend(t, bob.ID, b.ID)

	_, err := f.create.Execute(ctx, CreateReviewRequest{UserID: alice.ID, BookID: b.ID, Rating: 3})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.create.Execute(ctx, CreateReviewRequest{UserID: bob.ID, BookID: b.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)

	reviews, err := f.query.ListBookReviews(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "bob", reviews[0].UserName)
	assert.Equal(t, "alice", reviews[1].UserName)

	_, err = f.query.ListBookReviews(ctx, 9999)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	mine, err := f.query.GetUserReview(ctx, bob.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "great", mine.Comment)
}

func TestCreateReview_ConcurrentWritersKeepAggregateExact(t *testing.T) {
	f := newFixture(t)
	b := testutil.SeedBook(t, f.db)

	ratings := []int{1, 2, 3, 4, 5, 5, 4, 3}
	userIDs := make([]uint, len(ratings))
	for i := range ratings {
		u := testutil.SeedUser(t, f.db, "reader", user.RoleUser)
		f.lend(t, u.ID, b.ID)
		userIDs[i] = u.ID
	}

	var wg sync.WaitGroup
	for i, rating := range ratings {
		wg.Add(1)
		go func(userID uint, rating int) {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(), CreateReviewRequest{UserID: userID, BookID: b.ID, Rating: rating})
			assert.NoError(t, err)
		}(userIDs[i], rating)
	}
	wg.Wait()

	f.assertStats(t, b.ID, 27.0/8.0, 8)
}
