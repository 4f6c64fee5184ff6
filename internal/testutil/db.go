// Package testutil 测试用的数据库和数据构造工具
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
)

// NewTestDB 每个测试独立的内存SQLite库,已完成迁移
// 单连接:事务内外的查询都排队在同一个连接上
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gormstore.Open(config.DriverSQLite, dsn, gormlogger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, gormstore.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// Clock 可控时钟,注入到用例的now字段
type Clock struct {
	Now time.Time
}

// NewClock 固定起点,截断到秒避免存储精度差异
func NewClock() *Clock {
	return &Clock{Now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Func() func() time.Time {
	return func() time.Time { return c.Now }
}

func (c *Clock) Advance(d time.Duration) {
	c.Now = c.Now.Add(d)
}

// SeedUser 直接写库创建用户
func SeedUser(t testing.TB, db *gorm.DB, name string, role user.Role) *user.User {
	t.Helper()

	email := fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
	u, err := user.NewUser(name, email, role, "", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, gormstore.NewUserRepository(db).Create(context.Background(), u))
	return u
}

// BookOption 调整种子图书字段
type BookOption func(d *book.Details)

func WithCopies(n int) BookOption {
	return func(d *book.Details) { d.Copies = n }
}

func WithGenre(g book.Genre) BookOption {
	return func(d *book.Details) { d.Genre = g }
}

func WithTitle(title string) BookOption {
	return func(d *book.Details) { d.Title = title }
}

func WithAuthor(author string) BookOption {
	return func(d *book.Details) { d.Author = author }
}

var isbnSeq atomic.Int64

// SeedBook 直接写库创建图书,ISBN自动生成
func SeedBook(t testing.TB, db *gorm.DB, opts ...BookOption) *book.Book {
	t.Helper()

	d := book.Details{
		ISBN:            fmt.Sprintf("%d", 9780000000000+isbnSeq.Add(1)),
		Title:           "The Pragmatic Programmer",
		Author:          "Andrew Hunt",
		Publisher:       "Addison-Wesley",
		PublicationYear: 1999,
		Description:     "From journeyman to master",
		Genre:           book.GenreNonFiction,
		Copies:          1,
	}
	for _, opt := range opts {
		opt(&d)
	}

	b, err := book.NewBook(d, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, gormstore.NewBookRepository(db).Create(context.Background(), b))
	return b
}
