// Package recommendation 只读的推荐查询:偏好分类热门、近期借阅排行、高分图书
package recommendation

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	bookapp "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const (
	// Limit 每个推荐列表的条数
	Limit = 6
	// TrendingWindow 近期借阅排行的统计窗口
	TrendingWindow = 30 * 24 * time.Hour

	TopRatedMinAverage = 4.0
	TopRatedMinCount   = 2

	tracerName = "library.recommendation"

	keyPopular  = "popular"
	keyTrending = "trending"
	keyTopRated = "top_rated"
)

// Cache 推荐结果缓存,未命中和故障都返回false
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
}

// RecommendedBook 推荐项
type RecommendedBook struct {
	bookapp.BookView
	Score           float64 `json:"score"`
	RecentLoanCount int64   `json:"recent_loan_count,omitempty"` // 仅Trending
}

// UseCase 推荐查询用例
type UseCase struct {
	bookRepo book.Repository
	loanRepo loan.Repository
	cache    Cache
	now      func() time.Time
}

// NewUseCase cache为nil时不缓存
func NewUseCase(bookRepo book.Repository, loanRepo loan.Repository, cache Cache) *UseCase {
	return &UseCase{
		bookRepo: bookRepo,
		loanRepo: loanRepo,
		cache:    cache,
		now:      time.Now,
	}
}

// PopularFor 按用户偏好推荐,userID为0表示匿名
// 1. 从借阅历史统计分类频次,频次降序,相同频次按首次出现顺序(借阅时间倒序)
// 2. 偏好分类中的图书按(分类排名, 分数, 评论数)排序取前6
// 3. 不足6本时用全站热门补齐,排除已选
// 个性化结果不缓存
func (uc *UseCase) PopularFor(ctx context.Context, userID uint) (res []RecommendedBook, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "PopularFor", attribute.Int64("user.id", int64(userID)))
	defer func() { tracing.End(span, err) }()

	var genres []book.Genre
	if userID != 0 {
		genres, err = uc.preferredGenres(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	if len(genres) == 0 {
		return uc.cached(ctx, keyPopular, func() ([]RecommendedBook, error) {
			books, err := uc.bookRepo.ListMostPopular(ctx, nil, Limit)
			if err != nil {
				return nil, err
			}
			return toRecommended(books), nil
		})
	}

	candidates, err := uc.bookRepo.ListByGenres(ctx, genres)
	if err != nil {
		return nil, err
	}
	rank := make(map[book.Genre]int, len(genres))
	for i, g := range genres {
		rank[g] = i
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if rank[a.Genre] != rank[b.Genre] {
			return rank[a.Genre] < rank[b.Genre]
		}
		if sa, sb := a.PopularityScore(), b.PopularityScore(); sa != sb {
			return sa > sb
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.ID < b.ID
	})
	if len(candidates) > Limit {
		candidates = candidates[:Limit]
	}

	if remaining := Limit - len(candidates); remaining > 0 {
		exclude := make([]uint, len(candidates))
		for i, b := range candidates {
			exclude[i] = b.ID
		}
		fill, err := uc.bookRepo.ListMostPopular(ctx, exclude, remaining)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, fill...)
	}
	return toRecommended(candidates), nil
}

func (uc *UseCase) preferredGenres(ctx context.Context, userID uint) ([]book.Genre, error) {
	loans, err := uc.loanRepo.ListByUser(ctx, userID)
	if err != nil || len(loans) == 0 {
		return nil, err
	}

	ids := make([]uint, len(loans))
	for i, l := range loans {
		ids[i] = l.BookID
	}
	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	genreOf := make(map[uint]book.Genre, len(books))
	for _, b := range books {
		genreOf[b.ID] = b.Genre
	}

	// 已删除的图书不参与统计
	var order []book.Genre
	counts := map[book.Genre]int{}
	for _, l := range loans {
		g, ok := genreOf[l.BookID]
		if !ok {
			continue
		}
		if counts[g] == 0 {
			order = append(order, g)
		}
		counts[g]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order, nil
}

// Trending 近30天借阅次数最多的6本,次数降序
func (uc *UseCase) Trending(ctx context.Context) (res []RecommendedBook, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Trending")
	defer func() { tracing.End(span, err) }()

	return uc.cached(ctx, keyTrending, func() ([]RecommendedBook, error) {
		since := uc.now().UTC().Add(-TrendingWindow)
		counts, err := uc.loanRepo.CountIssuedSince(ctx, since, Limit)
		if err != nil {
			return nil, err
		}

		ids := make([]uint, len(counts))
		for i, c := range counts {
			ids[i] = c.BookID
		}
		books, err := uc.bookRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]*book.Book, len(books))
		for _, b := range books {
			byID[b.ID] = b
		}

		out := make([]RecommendedBook, 0, len(counts))
		for _, c := range counts {
			b, ok := byID[c.BookID]
			if !ok {
				continue
			}
			out = append(out, RecommendedBook{
				BookView:        bookapp.NewBookView(b),
				Score:           b.PopularityScore(),
				RecentLoanCount: c.Count,
			})
		}
		return out, nil
	})
}

// TopRated 平均分>=4且评论数>=2,按(平均分, 评论数)降序
func (uc *UseCase) TopRated(ctx context.Context) (res []RecommendedBook, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "TopRated")
	defer func() { tracing.End(span, err) }()

	return uc.cached(ctx, keyTopRated, func() ([]RecommendedBook, error) {
		books, err := uc.bookRepo.ListTopRated(ctx, TopRatedMinAverage, TopRatedMinCount, Limit)
		if err != nil {
			return nil, err
		}
		return toRecommended(books), nil
	})
}

// cached 先查缓存,未命中时查询并回填(空结果也缓存)
func (uc *UseCase) cached(ctx context.Context, key string, load func() ([]RecommendedBook, error)) ([]RecommendedBook, error) {
	if uc.cache != nil {
		var hit []RecommendedBook
		if uc.cache.Get(ctx, key, &hit) {
			metrics.RecordCache(key, "hit")
			return hit, nil
		}
		metrics.RecordCache(key, "miss")
	}

	res, err := load()
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.Set(ctx, key, res)
	}
	return res, nil
}

func toRecommended(books []*book.Book) []RecommendedBook {
	out := make([]RecommendedBook, len(books))
	for i, b := range books {
		out[i] = RecommendedBook{
			BookView: bookapp.NewBookView(b),
			Score:    b.PopularityScore(),
		}
	}
	return out
}
