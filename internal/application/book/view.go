package book

import (
	"time"

	"github.com/xiebiao/library/internal/domain/book"
)

// BookView 图书响应DTO
// available/available_copies是读时计算的派生字段
type BookView struct {
	ID              uint      `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       string    `json:"publisher"`
	PublicationYear int       `json:"publication_year"`
	Genre           string    `json:"genre"`
	Description     string    `json:"description"`
	CoverImage      string    `json:"cover_image"`
	PDFFile         string    `json:"pdf_file,omitempty"`
	Copies          int       `json:"copies"`
	CopiesOnLoan    int       `json:"copies_on_loan"`
	Available       bool      `json:"available"`
	AvailableCopies int       `json:"available_copies"`
	AverageRating   float64   `json:"average_rating"`
	ReviewCount     int       `json:"review_count"`
	AddedOn         time.Time `json:"added_on"`
}

// NewBookView 实体转DTO
func NewBookView(b *book.Book) BookView {
	return BookView{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Genre:           string(b.Genre),
		Description:     b.Description,
		CoverImage:      b.CoverImage,
		PDFFile:         b.PDFFile,
		Copies:          b.Copies,
		CopiesOnLoan:    b.CopiesOnLoan,
		Available:       b.Available(),
		AvailableCopies: b.AvailableCopies(),
		AverageRating:   b.AverageRating,
		ReviewCount:     b.ReviewCount,
		AddedOn:         b.AddedOn,
	}
}

// NewBookViews 批量转换
func NewBookViews(books []*book.Book) []BookView {
	views := make([]BookView, len(books))
	for i, b := range books {
		views[i] = NewBookView(b)
	}
	return views
}

// BookDetailsInput 新增/修改图书的输入
type BookDetailsInput struct {
	ISBN            string
	Title           string
	Author          string
	Publisher       string
	PublicationYear int
	Genre           string
	Description     string
	CoverImage      string
	PDFFile         string
	Copies          int
}

func (in BookDetailsInput) toDetails() book.Details {
	return book.Details{
		ISBN:            in.ISBN,
		Title:           in.Title,
		Author:          in.Author,
		Publisher:       in.Publisher,
		PublicationYear: in.PublicationYear,
		Genre:           book.Genre(in.Genre),
		Description:     in.Description,
		CoverImage:      in.CoverImage,
		PDFFile:         in.PDFFile,
		Copies:          in.Copies,
	}
}
