// Package dto HTTP层请求结构,binding tag由gin在绑定时校验
package dto

// BookRequest 新增/修改图书
// book_isbn和genre是pkg/validator注册的自定义规则
type BookRequest struct {
	ISBN            string `json:"isbn" binding:"required,book_isbn" example:"9780441172719"`
	Title           string `json:"title" binding:"required,max=200" example:"Dune"`
	Author          string `json:"author" binding:"required,max=100" example:"Frank Herbert"`
	Publisher       string `json:"publisher" binding:"required,max=100" example:"Chilton Books"`
	PublicationYear int    `json:"publication_year" binding:"required,min=1" example:"1965"`
	Genre           string `json:"genre" binding:"required,genre" example:"Science Fiction"`
	Description     string `json:"description" binding:"required,max=5000" example:"Spice, sand and politics"`
	CoverImage      string `json:"cover_image" binding:"max=255" example:"dune.jpg"`
	PDFFile         string `json:"pdf_file" binding:"max=255"`
	Copies          int    `json:"copies" binding:"min=0,max=10000" example:"3"` // 0按1处理
}

// ListBooksQuery 列表查询参数
type ListBooksQuery struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0"`
	Keyword  string `form:"keyword" binding:"max=100"`
	Genre    string `form:"genre"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=newest title rating"`
}

// SearchQuery 搜索参数
type SearchQuery struct {
	Query string `form:"query" binding:"required,max=100"`
}
