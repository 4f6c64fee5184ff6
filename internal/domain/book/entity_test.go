package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func validDetails() Details {
	return Details{
		ISBN:            "978-0-306-40615-7",
		Title:           "The Left Hand of Darkness",
		Author:          "Ursula K. Le Guin",
		Publisher:       "Ace",
		PublicationYear: 1969,
		Genre:           GenreScienceFiction,
		Description:     "Genly Ai on Gethen",
	}
}

func TestNewBook(t *testing.T) {
	t.Run("默认值", func(t *testing.T) {
		b, err := NewBook(validDetails(), now)
		require.NoError(t, err)

		assert.Equal(t, "9780306406157", b.ISBN)
		assert.Equal(t, 1, b.Copies)
		assert.Equal(t, 0, b.CopiesOnLoan)
		assert.Equal(t, DefaultCoverImage, b.CoverImage)
		assert.Zero(t, b.AverageRating)
		assert.Zero(t, b.ReviewCount)
		assert.Equal(t, now, b.AddedOn)
	})

	cases := []struct {
		name   string
		mutate func(*Details)
		want   error
	}{
		{"ISBN非法", func(d *Details) { d.ISBN = "123" }, ErrInvalidISBN},
		{"缺少书名", func(d *Details) { d.Title = "  " }, ErrMissingField},
		{"缺少简介", func(d *Details) { d.Description = "" }, ErrMissingField},
		{"年份在未来", func(d *Details) { d.PublicationYear = now.Year() + 5 }, ErrInvalidYear},
		{"分类不在列表中", func(d *Details) { d.Genre = "Poetry" }, ErrInvalidGenre},
		{"副本数为负", func(d *Details) { d.Copies = -1 }, ErrInvalidCopies},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDetails()
			tc.mutate(&d)
			_, err := NewBook(d, now)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBook_Availability(t *testing.T) {
	b := &Book{Copies: 2, CopiesOnLoan: 1}
	assert.True(t, b.Available())
	assert.Equal(t, 1, b.AvailableCopies())

	b.CopiesOnLoan = 2
	assert.False(t, b.Available())
	assert.Equal(t, 0, b.AvailableCopies())
}

func TestBook_PopularityScore(t *testing.T) {
	assert.InDelta(t, 4.0+2*0.5, (&Book{AverageRating: 4, Copies: 4, CopiesOnLoan: 2}).PopularityScore(), 1e-9)
	// copies为0时按1计算
	assert.InDelta(t, 2.0, (&Book{Copies: 0, CopiesOnLoan: 1}).PopularityScore(), 1e-9)
}

func TestBook_Revise(t *testing.T) {
	b, err := NewBook(validDetails(), now)
	require.NoError(t, err)
	b.CopiesOnLoan = 1
	b.AverageRating = 4.5

	t.Run("副本数不能低于借出数", func(t *testing.T) {
		d := b.Details()
		d.Copies = 0
		assert.ErrorIs(t, b.Revise(d, now), ErrInvalidCopies)
	})

	t.Run("修改后聚合字段不变", func(t *testing.T) {
		d := b.Details()
		d.Title = "New Title"
		d.Copies = 3
		d.CoverImage = ""
		require.NoError(t, b.Revise(d, now.Add(time.Hour)))

		assert.Equal(t, "New Title", b.Title)
		assert.Equal(t, 3, b.Copies)
		assert.Equal(t, DefaultCoverImage, b.CoverImage)
		assert.Equal(t, 1, b.CopiesOnLoan)
		assert.Equal(t, 4.5, b.AverageRating)
	})
}

func TestBook_ReviseBelowOnLoan(t *testing.T) {
	b, err := NewBook(validDetails(), now)
	require.NoError(t, err)
	b.Copies = 3
	b.CopiesOnLoan = 2

	d := b.Details()
	d.Copies = 1
	assert.ErrorIs(t, b.Revise(d, now), ErrCopiesBelowOnLoan)
}

func TestGenre(t *testing.T) {
	assert.True(t, GenreMystery.Valid())
	assert.False(t, Genre("mystery").Valid())
	assert.Len(t, GenreNames(), 6)
}
