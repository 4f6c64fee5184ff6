package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	ErrBookNotFound      = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")
	ErrISBNDuplicate     = apperrors.New(apperrors.ErrCodeISBNDuplicate, "ISBN号已存在")
	ErrInvalidISBN       = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")
	ErrMissingField      = apperrors.New(apperrors.ErrCodeInvalidParams, "书名、作者、出版社、简介不能为空")
	ErrInvalidYear       = apperrors.New(apperrors.ErrCodeInvalidParams, "出版年份不正确")
	ErrInvalidGenre      = apperrors.New(apperrors.ErrCodeInvalidParams, "不支持的图书分类")
	ErrInvalidCopies     = apperrors.New(apperrors.ErrCodeInvalidParams, "馆藏数量至少为1")
	ErrCopiesBelowOnLoan = apperrors.New(apperrors.ErrCodeInvalidParams, "馆藏数量不能少于已借出数量")

	// ErrUnavailable 所有副本都已借出
	ErrUnavailable = apperrors.New(apperrors.ErrCodeUnavailable, "该书暂无可借副本")

	// ErrBookOnLoan 仍有未归还的借阅,不能删除
	ErrBookOnLoan = apperrors.New(apperrors.ErrCodeBookOnLoan, "该书仍有未归还的借阅,不能删除")
)
