package book

import (
	"strings"
	"time"

	"github.com/xiebiao/library/pkg/validator"
)

// Genre 图书分类(固定列表)
type Genre string

const (
	GenreFiction        Genre = "Fiction"
	GenreNonFiction     Genre = "Non-Fiction"
	GenreScienceFiction Genre = "Science Fiction"
	GenreFantasy        Genre = "Fantasy"
	GenreMystery        Genre = "Mystery"
	GenreBiography      Genre = "Biography"
)

// Genres 所有合法分类
var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScienceFiction,
	GenreFantasy,
	GenreMystery,
	GenreBiography,
}

// GenreNames 分类名列表(注册校验规则用)
func GenreNames() []string {
	names := make([]string, len(Genres))
	for i, g := range Genres {
		names[i] = string(g)
	}
	return names
}

// Valid 是否为合法分类
func (g Genre) Valid() bool {
	for _, v := range Genres {
		if v == g {
			return true
		}
	}
	return false
}

// DefaultCoverImage 未上传封面时的默认文件名
const DefaultCoverImage = "default-book-cover.jpg"

// Book 图书聚合根
// 不变量:
// 1. 0 <= CopiesOnLoan <= Copies, Copies >= 1
// 2. AverageRating/ReviewCount 是该书当前全部评论的精确均值/数量,只由评论聚合重算写入
// 3. CoverImage/PDFFile只是文件名,文件内容由外部存储负责
type Book struct {
	ID              uint
	ISBN            string
	Title           string
	Author          string
	Publisher       string
	PublicationYear int
	Genre           Genre
	Description     string
	CoverImage      string
	PDFFile         string
	Copies          int // 馆藏总数
	CopiesOnLoan    int // 借出中的数量
	AverageRating   float64
	ReviewCount     int
	AddedOn         time.Time
	UpdatedAt       time.Time
}

// Details 图书的描述性字段(新增/修改共用)
type Details struct {
	ISBN            string
	Title           string
	Author          string
	Publisher       string
	PublicationYear int
	Genre           Genre
	Description     string
	CoverImage      string
	PDFFile         string
	Copies          int
}

// NewBook 创建图书(工厂方法)
// copies为0时按1处理;聚合字段从0开始
func NewBook(d Details, now time.Time) (*Book, error) {
	if d.Copies == 0 {
		d.Copies = 1
	}
	if err := d.validate(now); err != nil {
		return nil, err
	}

	cover := strings.TrimSpace(d.CoverImage)
	if cover == "" {
		cover = DefaultCoverImage
	}

	return &Book{
		ISBN:            validator.NormalizeISBN(d.ISBN),
		Title:           strings.TrimSpace(d.Title),
		Author:          strings.TrimSpace(d.Author),
		Publisher:       strings.TrimSpace(d.Publisher),
		PublicationYear: d.PublicationYear,
		Genre:           d.Genre,
		Description:     strings.TrimSpace(d.Description),
		CoverImage:      cover,
		PDFFile:         strings.TrimSpace(d.PDFFile),
		Copies:          d.Copies,
		AddedOn:         now,
		UpdatedAt:       now,
	}, nil
}

func (d Details) validate(now time.Time) error {
	if !validator.IsISBN(d.ISBN) {
		return ErrInvalidISBN
	}
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Author) == "" ||
		strings.TrimSpace(d.Publisher) == "" || strings.TrimSpace(d.Description) == "" {
		return ErrMissingField
	}
	if d.PublicationYear < 1 || d.PublicationYear > now.Year()+1 {
		return ErrInvalidYear
	}
	if !d.Genre.Valid() {
		return ErrInvalidGenre
	}
	if d.Copies < 1 {
		return ErrInvalidCopies
	}
	return nil
}

// Available 是否还有可借副本
func (b *Book) Available() bool {
	return b.CopiesOnLoan < b.Copies
}

// AvailableCopies 可借副本数
func (b *Book) AvailableCopies() int {
	if n := b.Copies - b.CopiesOnLoan; n > 0 {
		return n
	}
	return 0
}

// PopularityScore 推荐排序分数 = 平均分 + 2 * 借出率
func (b *Book) PopularityScore() float64 {
	copies := b.Copies
	if copies < 1 {
		copies = 1
	}
	return b.AverageRating + 2*float64(b.CopiesOnLoan)/float64(copies)
}

// Revise 修改描述性字段和馆藏数量
// 1. ISBN可以修改(唯一性由仓储保证)
// 2. Copies不能少于当前借出数
// 3. 空的封面文件名保持原值
func (b *Book) Revise(d Details, now time.Time) error {
	if err := d.validate(now); err != nil {
		return err
	}
	if d.Copies < b.CopiesOnLoan {
		return ErrCopiesBelowOnLoan
	}

	b.ISBN = validator.NormalizeISBN(d.ISBN)
	b.Title = strings.TrimSpace(d.Title)
	b.Author = strings.TrimSpace(d.Author)
	b.Publisher = strings.TrimSpace(d.Publisher)
	b.PublicationYear = d.PublicationYear
	b.Genre = d.Genre
	b.Description = strings.TrimSpace(d.Description)
	if c := strings.TrimSpace(d.CoverImage); c != "" {
		b.CoverImage = c
	}
	if p := strings.TrimSpace(d.PDFFile); p != "" {
		b.PDFFile = p
	}
	b.Copies = d.Copies
	b.UpdatedAt = now
	return nil
}

// Details 当前描述性字段(用于部分更新时合并)
func (b *Book) Details() Details {
	return Details{
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Genre:           b.Genre,
		Description:     b.Description,
		CoverImage:      b.CoverImage,
		PDFFile:         b.PDFFile,
		Copies:          b.Copies,
	}
}
