package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/application/recommendation"
	appreview "github.com/xiebiao/library/internal/application/review"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
	"github.com/xiebiao/library/internal/testutil"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/ratelimit"
	"github.com/xiebiao/library/pkg/validator"
)

var registerOnce sync.Once

type server struct {
	t      *testing.T
	engine *gin.Engine
	jwt    *jwt.Manager
	events *testutil.EventRecorder
	seed   func(opts ...testutil.BookOption) *book.Book
	users  map[string]*user.User
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registerOnce.Do(func() {
		require.NoError(t, validator.Register(book.GenreNames()))
	})

	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Authorization"},
			MaxAge:       time.Hour,
		},
	}

	bookRepo := gormstore.NewBookRepository(db)
	loanRepo := gormstore.NewLoanRepository(db)
	reviewRepo := gormstore.NewReviewRepository(db)
	userRepo := gormstore.NewUserRepository(db)
	wishlistRepo := gormstore.NewWishlistRepository(db)
	txManager := gormstore.NewTxManager(db)
	sessions := redis.NewSessionStore(client)
	events := &testutil.EventRecorder{}
	var publisher event.Publisher = events

	bookService := book.NewService(bookRepo)
	userService := user.NewService(userRepo)
	manager := jwt.NewManager("test-secret", "library", time.Hour, 24*time.Hour)

	h := router.Handlers{
		Book: handler.NewBookHandler(
			appbook.NewAddBookUseCase(bookService),
			appbook.NewGetBookUseCase(bookService),
			appbook.NewListBooksUseCase(bookService),
			appbook.NewUpdateBookUseCase(bookService),
			appbook.NewDeleteBookUseCase(bookRepo, loanRepo, txManager),
		),
		Loan: handler.NewLoanHandler(
			apploan.NewBorrowUseCase(bookRepo, loanRepo, txManager, publisher),
			apploan.NewReturnUseCase(bookRepo, loanRepo, txManager, publisher),
			apploan.NewListLoansUseCase(loanRepo, bookRepo, userRepo),
		),
		Review: handler.NewReviewHandler(
			appreview.NewCreateReviewUseCase(bookRepo, loanRepo, reviewRepo, txManager, publisher),
			appreview.NewUpdateReviewUseCase(bookRepo, reviewRepo, txManager, publisher),
			appreview.NewDeleteReviewUseCase(bookRepo, reviewRepo, txManager, publisher),
			appreview.NewQueryReviewsUseCase(bookRepo, loanRepo, reviewRepo, userRepo),
		),
		Recommendation: handler.NewRecommendationHandler(
			recommendation.NewUseCase(bookRepo, loanRepo, redis.NewRecommendationCache(client, time.Minute)),
		),
		User: handler.NewUserHandler(
			appuser.NewProfileUseCase(userService),
			appuser.NewWishlistUseCase(wishlistRepo, bookRepo),
			appuser.NewLogoutUseCase(sessions),
		),
	}
	auth := middleware.NewAuthMiddleware(manager, sessions)

	return &server{
		t:      t,
		engine: router.New(cfg, h, auth, limiter),
		jwt:    manager,
		events: events,
		seed: func(opts ...testutil.BookOption) *book.Book {
			return testutil.SeedBook(t, db, opts...)
		},
		users: map[string]*user.User{
			"alice": testutil.SeedUser(t, db, "alice", user.RoleUser),
			"bob":   testutil.SeedUser(t, db, "bob", user.RoleUser),
			"admin": testutil.SeedUser(t, db, "admin", user.RoleAdmin),
		},
	}
}

func (s *server) token(name string) string {
	u := s.users[name]
	pair, err := s.jwt.GenerateToken(u.ID, u.Name, string(u.Role))
	require.NoError(s.t, err)
	return pair.AccessToken
}

// do 发请求,as为空表示匿名
func (s *server) do(method, path, as string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestPing(t *testing.T) {
	s := newServer(t, nil)
	w, env := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuth(t *testing.T) {
	s := newServer(t, nil)

	t.Run("缺少Token", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/loans/my", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("无效Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/my", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("非管理员", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/v1/loans", "alice", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, _ = s.do(http.MethodGet, "/api/v1/users/all", "alice", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, _ = s.do(http.MethodGet, "/api/v1/users/all", "admin", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("登出后Token失效", func(t *testing.T) {
		token := s.token("bob")
		call := func(method, path string) int {
			req := httptest.NewRequest(method, path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/users/profile"))
		assert.Equal(t, http.StatusOK, call(http.MethodPost, "/api/v1/users/logout"))
		assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/v1/users/profile"))
	})
}

func TestBooksAPI(t *testing.T) {
	s := newServer(t, nil)

	req := map[string]interface{}{
		"isbn":             "978-0-441-17271-9",
		"title":            "Dune",
		"author":           "Frank Herbert",
		"publisher":        "Chilton Books",
		"publication_year": 1965,
		"genre":            "Science Fiction",
		"description":      "Spice, sand and politics",
		"copies":           2,
	}

	w, _ := s.do(http.MethodPost, "/api/v1/books", "alice", req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/books", "admin", req)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	created := decode[appbook.BookView](t, env)
	assert.Equal(t, 2, created.AvailableCopies)

	w, env = s.do(http.MethodPost, "/api/v1/books", "admin", req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotZero(t, env.Code)

	bad := map[string]interface{}{}
	for k, v := range req {
		bad[k] = v
	}
	bad["genre"] = "Poetry"
	bad["isbn"] = "9780000000001"
	w, _ = s.do(http.MethodPost, "/api/v1/books", "admin", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/books/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dune", decode[appbook.BookView](t, env).Title)

	w, _ = s.do(http.MethodGet, "/api/v1/books/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/books/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/books/search?query=herbert", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]appbook.BookView](t, env), 1)

	w, env = s.do(http.MethodGet, "/api/v1/books?page=1&page_size=10&genre=Science%20Fiction", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		List  []appbook.BookView `json:"list"`
		Total int64              `json:"total"`
	}](t, env)
	assert.Equal(t, int64(1), page.Total)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", created.ID), "admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoanAndReviewFlow(t *testing.T) {
	s := newServer(t, nil)
	b := s.seed(testutil.WithTitle("Emma"), testutil.WithCopies(1))

	// 未借阅不能评论
	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/reviews/can-review/%d", b.ID), "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[map[string]bool](t, env)["can_review"])

	w, _ = s.do(http.MethodPost, "/api/v1/reviews", "alice", map[string]interface{}{"book_id": b.ID, "rating": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// alice借走最后一本
	w, env = s.do(http.MethodPost, "/api/v1/loans", "alice", map[string]interface{}{"book_id": b.ID})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	l := decode[apploan.LoanView](t, env)
	assert.Equal(t, "active", l.Status)

	w, _ = s.do(http.MethodPost, "/api/v1/loans", "bob", map[string]interface{}{"book_id": b.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	// bob不能替alice还书
	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/loans/%d/return", l.ID), "bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodPut, fmt.Sprintf("/api/v1/loans/%d/return", l.ID), "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "returned", decode[apploan.LoanView](t, env).Status)

	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/loans/%d/return", l.ID), "alice", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/loans/my", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]apploan.LoanView](t, env), 1)

	// 评论
	w, env = s.do(http.MethodPost, "/api/v1/reviews", "alice", map[string]interface{}{"book_id": b.ID, "rating": 4, "comment": "lovely"})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	res := decode[appreview.WriteResult](t, env)
	assert.Equal(t, 4.0, res.AverageRating)
	assert.Equal(t, 1, res.ReviewCount)

	w, _ = s.do(http.MethodPost, "/api/v1/reviews", "alice", map[string]interface{}{"book_id": b.ID, "rating": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/v1/reviews/%d", res.Review.ID), "bob", map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodPut, fmt.Sprintf("/api/v1/reviews/%d", res.Review.ID), "alice", map[string]interface{}{"rating": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode[appreview.WriteResult](t, env).AverageRating)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/reviews/book/%d", b.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviews := decode[[]appreview.ReviewView](t, env)
	require.Len(t, reviews, 1)
	assert.Equal(t, "lovely", reviews[0].Comment)
	assert.Equal(t, "alice", reviews[0].UserName)

	w, env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", res.Review.ID), "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[appreview.WriteResult](t, env).ReviewCount)

	assert.Equal(t, []string{event.LoanBorrowed, event.LoanReturned, event.ReviewCreated, event.ReviewUpdated, event.ReviewDeleted}, s.events.Types())
}

func TestWishlistAPI(t *testing.T) {
	s := newServer(t, nil)
	b := s.seed()

	w, _ := s.do(http.MethodPost, "/api/v1/users/wishlist", "alice", map[string]interface{}{"book_id": b.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/users/wishlist", "alice", map[string]interface{}{"book_id": b.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/wishlist/check/%d", b.ID), "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[map[string]bool](t, env)["in_wishlist"])

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/wishlist/%d", b.ID), "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/wishlist/%d", b.ID), "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationsAPI(t *testing.T) {
	s := newServer(t, nil)
	s.seed()

	for _, path := range []string{"popular", "trending", "top-rated"} {
		w, env := s.do(http.MethodGet, "/api/v1/recommendations/"+path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Zero(t, env.Code, path)
	}

	// 登录用户的Token是可选的
	w, _ := s.do(http.MethodGet, "/api/v1/recommendations/popular", "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewWithIdleTTL(0.001, 2, 0)
	t.Cleanup(limiter.Stop)
	s := newServer(t, limiter)
	b := s.seed()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := s.do(http.MethodPost, "/api/v1/users/wishlist", "bob", map[string]interface{}{"book_id": b.ID})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusConflict, http.StatusTooManyRequests}, codes)

	// 其他用户不受影响
	w, _ := s.do(http.MethodPost, "/api/v1/users/wishlist", "alice", map[string]interface{}{"book_id": b.ID})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCORS(t *testing.T) {
	s := newServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
