package review

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	ErrReviewNotFound   = apperrors.New(apperrors.ErrCodeReviewNotFound, "评论不存在")
	ErrAlreadyReviewed  = apperrors.New(apperrors.ErrCodeAlreadyReviewed, "你已经评论过这本书")
	ErrNotBorrowed      = apperrors.New(apperrors.ErrCodeNotBorrowed, "借阅过该书才能评论")
	ErrNotOwner         = apperrors.New(apperrors.ErrCodeForbidden, "只能修改自己的评论")
	ErrDeleteForbidden  = apperrors.New(apperrors.ErrCodeForbidden, "无权删除该评论")
	ErrInvalidRating    = apperrors.New(apperrors.ErrCodeInvalidParams, "评分必须是1到5之间的整数")
	ErrCommentTooLong   = apperrors.New(apperrors.ErrCodeInvalidParams, "评论不能超过500个字符")
)
