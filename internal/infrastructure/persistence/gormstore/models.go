package gormstore

import (
	"time"
)

// UserModel 用户表
// 与domain/user.User分离,仓储负责两者转换
type UserModel struct {
	ID            uint      `gorm:"primaryKey"`
	Name          string    `gorm:"size:50;not null;comment:姓名"`
	Email         string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Role          string    `gorm:"size:16;not null;default:user;comment:角色(user/admin)"`
	ContactNumber string    `gorm:"size:32;comment:联系电话"`
	RegisteredOn  time.Time `gorm:"index;comment:注册时间"`
	UpdatedAt     time.Time `gorm:"comment:更新时间"`
}

func (UserModel) TableName() string {
	return "users"
}

// BookModel 图书表
// 1. copies_on_loan只通过条件UPDATE修改(见IncrCopiesOnLoan)
// 2. average_rating/review_count只由评论重算写入
type BookModel struct {
	ID              uint      `gorm:"primaryKey"`
	ISBN            string    `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title           string    `gorm:"index:idx_book_search;size:200;not null;comment:书名"`
	Author          string    `gorm:"index:idx_book_search;size:100;not null;comment:作者"`
	Publisher       string    `gorm:"size:100;not null;comment:出版社"`
	PublicationYear int       `gorm:"not null;comment:出版年份"`
	Genre           string    `gorm:"index;size:32;not null;comment:分类"`
	Description     string    `gorm:"type:text;comment:简介"`
	CoverImage      string    `gorm:"size:255;default:default-book-cover.jpg;comment:封面文件名"`
	PDFFile         string    `gorm:"column:pdf_file;size:255;comment:PDF文件名"`
	Copies          int       `gorm:"not null;default:1;comment:馆藏数量"`
	CopiesOnLoan    int       `gorm:"not null;default:0;comment:借出数量"`
	AverageRating   float64   `gorm:"not null;default:0;comment:平均评分"`
	ReviewCount     int       `gorm:"not null;default:0;comment:评论数"`
	AddedOn         time.Time `gorm:"index;comment:入库时间"`
	UpdatedAt       time.Time `gorm:"comment:更新时间"`
}

func (BookModel) TableName() string {
	return "books"
}

// LoanModel 借阅表
// active_key在借阅未归还时为"用户ID:图书ID",归还后置NULL;
// 唯一索引允许多个NULL,从而保证每个(用户,图书)最多一条active记录
type LoanModel struct {
	ID         uint       `gorm:"primaryKey"`
	UserID     uint       `gorm:"index;not null;comment:借阅人"`
	BookID     uint       `gorm:"index;not null;comment:图书"`
	IssueDate  time.Time  `gorm:"index;not null;comment:借出时间"`
	DueDate    time.Time  `gorm:"index;not null;comment:到期时间"`
	ReturnDate *time.Time `gorm:"comment:归还时间"`
	Status     string     `gorm:"index;size:16;not null;default:active;comment:状态(active/returned)"`
	ActiveKey  *string    `gorm:"uniqueIndex;size:64;comment:未归还唯一键"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (LoanModel) TableName() string {
	return "loans"
}

// ReviewModel 评论表,(user_id, book_id)唯一
type ReviewModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_book;not null;comment:评论人"`
	BookID    uint      `gorm:"uniqueIndex:idx_review_user_book;index;not null;comment:图书"`
	Rating    int       `gorm:"not null;comment:评分1-5"`
	Comment   string    `gorm:"size:500;comment:评论内容"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (ReviewModel) TableName() string {
	return "reviews"
}

// WishlistModel 心愿单,(user_id, book_id)唯一
type WishlistModel struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex:idx_wishlist_user_book;not null"`
	BookID    uint `gorm:"uniqueIndex:idx_wishlist_user_book;index;not null"`
	CreatedAt time.Time
}

func (WishlistModel) TableName() string {
	return "wishlist_items"
}
