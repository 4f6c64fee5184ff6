package user

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	ErrUserNotFound  = apperrors.ErrUserNotFound
	ErrEmailExists   = apperrors.New(apperrors.ErrCodeEmailDuplicate, "邮箱已被注册")
	ErrInvalidEmail  = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	ErrInvalidName   = apperrors.New(apperrors.ErrCodeInvalidParams, "姓名长度应为2-50个字符")
	ErrInWishlist    = apperrors.New(apperrors.ErrCodeInWishlist, "该书已在心愿单中")
	ErrNotInWishlist = apperrors.New(apperrors.ErrCodeNotInWishlist, "该书不在心愿单中")
)
