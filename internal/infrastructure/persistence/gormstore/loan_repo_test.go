package gormstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/internal/testutil"
)

func TestLoanRepository_OneActiveLoanPerUserBook(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := gormstore.NewLoanRepository(db)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, "alice", "user")
	b := testutil.SeedBook(t, db, testutil.WithCopies(3))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first := loan.NewLoan(u.ID, b.ID, now)
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, loan.NewLoan(u.ID, b.ID, now))
	assert.ErrorIs(t, err, loan.ErrAlreadyOnLoan)

	// 归还后释放唯一键,可以再借
	require.NoError(t, first.MarkReturned(now.Add(time.Hour)))
	require.NoError(t, repo.MarkReturned(ctx, first))
	require.NoError(t, repo.Create(ctx, loan.NewLoan(u.ID, b.ID, now.Add(2*time.Hour))))

	loans, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.True(t, loans[0].IsActive())
	assert.Equal(t, loan.StatusReturned, loans[1].Status)
	require.NotNil(t, loans[1].ReturnDate)
	assert.True(t, loans[1].ReturnDate.Equal(now.Add(time.Hour)))
}

func TestLoanRepository_MarkReturnedTwice(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := gormstore.NewLoanRepository(db)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, "alice", "user")
	b := testutil.SeedBook(t, db)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	l := loan.NewLoan(u.ID, b.ID, now)
	require.NoError(t, repo.Create(ctx, l))

	// 两份快照模拟并发归还
	a, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	c, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)

	require.NoError(t, a.MarkReturned(now))
	require.NoError(t, repo.MarkReturned(ctx, a))

	require.NoError(t, c.MarkReturned(now))
	assert.ErrorIs(t, repo.MarkReturned(ctx, c), loan.ErrAlreadyReturned)
}

func TestLoanRepository_Queries(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := gormstore.NewLoanRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice", "user")
	bob := testutil.SeedUser(t, db, "bob", "user")
	b1 := testutil.SeedBook(t, db, testutil.WithCopies(5))
	b2 := testutil.SeedBook(t, db, testutil.WithCopies(5))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	old := loan.NewLoan(alice.ID, b1.ID, now.Add(-20*24*time.Hour))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, loan.NewLoan(bob.ID, b1.ID, now.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, loan.NewLoan(alice.ID, b2.ID, now)))

	t.Run("ListAll按借出时间倒序", func(t *testing.T) {
		loans, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, loans, 3)
		assert.Equal(t, b2.ID, loans[0].BookID)
		assert.Equal(t, old.ID, loans[2].ID)
	})

	t.Run("FindActive", func(t *testing.T) {
		l, err := repo.FindActive(ctx, bob.ID, b1.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, l.UserID)

		_, err = repo.FindActive(ctx, bob.ID, b2.ID)
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	})

	t.Run("ExistsForUserBook", func(t *testing.T) {
		ok, err := repo.ExistsForUserBook(ctx, alice.ID, b1.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsForUserBook(ctx, bob.ID, b2.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ListOverdue", func(t *testing.T) {
		loans, err := repo.ListOverdue(ctx, now)
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, old.ID, loans[0].ID)
		assert.Equal(t, loan.StatusOverdue, loans[0].DisplayStatus(now))
	})

	t.Run("CountActiveByBook", func(t *testing.T) {
		n, err := repo.CountActiveByBook(ctx, b1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("CountIssuedSince只统计窗口内", func(t *testing.T) {
		counts, err := repo.CountIssuedSince(ctx, now.Add(-7*24*time.Hour), 10)
		require.NoError(t, err)
		assert.Equal(t, []loan.BookCount{
			{BookID: b1.ID, Count: 1},
			{BookID: b2.ID, Count: 1},
		}, counts)

		counts, err = repo.CountIssuedSince(ctx, now.Add(-30*24*time.Hour), 1)
		require.NoError(t, err)
		assert.Equal(t, []loan.BookCount{{BookID: b1.ID, Count: 2}}, counts)
	})
}

func TestLoanRepository_ConcurrentLastCopy(t *testing.T) {
	db := testutil.NewTestDB(t)
	books := gormstore.NewBookRepository(db)
	loans := gormstore.NewLoanRepository(db)
	txManager := gormstore.NewTxManager(db)

	b := testutil.SeedBook(t, db, testutil.WithCopies(1))
	const borrowers = 8
	userIDs := make([]uint, borrowers)
	for i := range userIDs {
		userIDs[i] = testutil.SeedUser(t, db, "reader", "user").ID
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		succeeded   int
		unavailable int
	)
	for _, uid := range userIDs {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			err := txManager.Transaction(context.Background(), func(ctx context.Context) error {
				if _, err := books.LockByID(ctx, b.ID); err != nil {
					return err
				}
				if err := books.IncrCopiesOnLoan(ctx, b.ID); err != nil {
					return err
				}
				return loans.Create(ctx, loan.NewLoan(uid, b.ID, time.Now().UTC()))
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, book.ErrUnavailable):
				unavailable++
			}
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, borrowers-1, unavailable)

	found, err := books.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.CopiesOnLoan)

	n, err := loans.CountActiveByBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLoanRepository_TransactionRollback(t *testing.T) {
	db := testutil.NewTestDB(t)
	books := gormstore.NewBookRepository(db)
	loans := gormstore.NewLoanRepository(db)
	txManager := gormstore.NewTxManager(db)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, "alice", "user")
	b := testutil.SeedBook(t, db, testutil.WithCopies(2))
	require.NoError(t, loans.Create(ctx, loan.NewLoan(u.ID, b.ID, time.Now().UTC())))

	// 第二次借同一本书在插入时失败,计数的自增必须一起回滚
	err := txManager.Transaction(ctx, func(ctx context.Context) error {
		if err := books.IncrCopiesOnLoan(ctx, b.ID); err != nil {
			return err
		}
		return loans.Create(ctx, loan.NewLoan(u.ID, b.ID, time.Now().UTC()))
	})
	assert.ErrorIs(t, err, loan.ErrAlreadyOnLoan)

	found, err := books.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.CopiesOnLoan)
}
