package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/testutil"
)

func ids(books []RecommendedBook) []uint {
	out := make([]uint, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestTrending_OnlyCountsLoansInsideWindow(t *testing.T) {
	db := testutil.NewTestDB(t)
	bookRepo := gormstore.NewBookRepository(db)
	loanRepo := gormstore.NewLoanRepository(db)
	ctx := context.Background()

	clock := testutil.NewClock()
	uc := NewUseCase(bookRepo, loanRepo, nil)
	uc.now = clock.Func()

	old := testutil.SeedBook(t, db, testutil.WithTitle("Old favourite"))
	recent := testutil.SeedBook(t, db, testutil.WithTitle("New hit"))
	other := testutil.SeedBook(t, db, testutil.WithTitle("Steady"))

	// 窗口外的三次借阅
	for i := 0; i < 3; i++ {
		u := testutil.SeedUser(t, db, "reader", user.RoleUser)
		require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(u.ID, old.ID, clock.Now.Add(-31*24*time.Hour))))
	}
	// 窗口内:recent两次,other一次
	for i := 0; i < 2; i++ {
		u := testutil.SeedUser(t, db, "reader", user.RoleUser)
		require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(u.ID, recent.ID, clock.Now.Add(-time.Duration(i+1)*24*time.Hour))))
	}
	u := testutil.SeedUser(t, db, "reader", user.RoleUser)
	require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(u.ID, other.ID, clock.Now.Add(-29*24*time.Hour))))

	trending, err := uc.Trending(ctx)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, []uint{recent.ID, other.ID}, ids(trending))
	assert.Equal(t, int64(2), trending[0].RecentLoanCount)
	assert.Equal(t, int64(1), trending[1].RecentLoanCount)
}

func TestTopRated(t *testing.T) {
	db := testutil.NewTestDB(t)
	bookRepo := gormstore.NewBookRepository(db)
	uc := NewUseCase(bookRepo, gormstore.NewLoanRepository(db), nil)
	ctx := context.Background()

	a := testutil.SeedBook(t, db)
	b := testutil.SeedBook(t, db)
	c := testutil.SeedBook(t, db)
	d := testutil.SeedBook(t, db)
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, a.ID, 4.5, 2))
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, b.ID, 4.5, 7))
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, c.ID, 5.0, 1)) // 评论数不够
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, d.ID, 3.9, 9)) // 分数不够

	top, err := uc.TopRated(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, a.ID}, ids(top))
}

func TestPopularFor(t *testing.T) {
	db := testutil.NewTestDB(t)
	bookRepo := gormstore.NewBookRepository(db)
	loanRepo := gormstore.NewLoanRepository(db)
	uc := NewUseCase(bookRepo, loanRepo, nil)
	ctx := context.Background()

	mystery1 := testutil.SeedBook(t, db, testutil.WithGenre(book.GenreMystery))
	mystery2 := testutil.SeedBook(t, db, testutil.WithGenre(book.GenreMystery))
	fantasy := testutil.SeedBook(t, db, testutil.WithGenre(book.GenreFantasy))
	fiction := make([]*book.Book, 5)
	for i := range fiction {
		fiction[i] = testutil.SeedBook(t, db, testutil.WithGenre(book.GenreFiction))
	}
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, mystery2.ID, 4, 2))
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, fiction[4].ID, 5, 3))
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, fiction[3].ID, 4.5, 3))

	reader := testutil.SeedUser(t, db, "reader", user.RoleUser)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(reader.ID, mystery1.ID, now)))
	require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(reader.ID, mystery2.ID, now.Add(time.Hour))))
	require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(reader.ID, fantasy.ID, now.Add(2*time.Hour))))

	t.Run("匿名用户看全站热门", func(t *testing.T) {
		popular, err := uc.PopularFor(ctx, 0)
		require.NoError(t, err)
		require.Len(t, popular, Limit)
		// 没有借出副本时分数即平均分
		assert.Equal(t, []uint{fiction[4].ID, fiction[3].ID, mystery2.ID}, ids(popular)[:3])
	})

	t.Run("偏好分类优先,再用热门补齐", func(t *testing.T) {
		popular, err := uc.PopularFor(ctx, reader.ID)
		require.NoError(t, err)
		require.Len(t, popular, Limit)

		got := ids(popular)
		// Mystery借了两次排第一,分类内按分数排序;Fantasy其次;剩余3个位置由全站热门补齐
		assert.Equal(t, []uint{mystery2.ID, mystery1.ID, fantasy.ID}, got[:3])
		assert.Equal(t, []uint{fiction[4].ID, fiction[3].ID}, got[3:5])
		assert.NotContains(t, got[3:], mystery2.ID)
	})

	t.Run("没有借阅历史等同匿名", func(t *testing.T) {
		newcomer := testutil.SeedUser(t, db, "newcomer", user.RoleUser)
		anonymous, err := uc.PopularFor(ctx, 0)
		require.NoError(t, err)
		personal, err := uc.PopularFor(ctx, newcomer.ID)
		require.NoError(t, err)
		assert.Equal(t, ids(anonymous), ids(personal))
	})
}

func TestRecommendationCache(t *testing.T) {
	db := testutil.NewTestDB(t)
	bookRepo := gormstore.NewBookRepository(db)
	loanRepo := gormstore.NewLoanRepository(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	uc := NewUseCase(bookRepo, loanRepo, redis.NewRecommendationCache(client, 5*time.Minute))

	a := testutil.SeedBook(t, db)
	b := testutil.SeedBook(t, db)
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, a.ID, 4.5, 2))

	first, err := uc.TopRated(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids(first))

	// 缓存有效期内看不到新数据
	require.NoError(t, bookRepo.UpdateRatingStats(ctx, b.ID, 5, 4))
	cached, err := uc.TopRated(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(cached))
	assert.Equal(t, first[0].Title, cached[0].Title)

	mr.FastForward(6 * time.Minute)
	fresh, err := uc.TopRated(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, a.ID}, ids(fresh))

	// 个性化结果不写缓存
	reader := testutil.SeedUser(t, db, "reader", user.RoleUser)
	require.NoError(t, loanRepo.Create(ctx, loan.NewLoan(reader.ID, a.ID, time.Now().UTC())))
	_, err = uc.PopularFor(ctx, reader.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists("library:cache:popular"))
}
