package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := toUserModel(u)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return user.ErrEmailExists
		}
		return apperrors.Wrap(err, "创建用户失败")
	}
	u.ID = model.ID
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, userQueryError(err)
	}
	return toUserEntity(&model), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, userQueryError(err)
	}
	return toUserEntity(&model), nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) ([]*user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []UserModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询用户失败")
	}
	return toUserEntities(models), nil
}

func (r *userRepository) List(ctx context.Context) ([]*user.User, error) {
	var models []UserModel
	err := getDB(ctx, r.db).
		Order("registered_on DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询用户列表失败")
	}
	return toUserEntities(models), nil
}

func userQueryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.ErrUserNotFound
	}
	return apperrors.Wrap(err, "查询用户失败")
}

func toUserModel(u *user.User) *UserModel {
	return &UserModel{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		ContactNumber: u.ContactNumber,
		RegisteredOn:  u.RegisteredOn.UTC(),
		UpdatedAt:     u.UpdatedAt.UTC(),
	}
}

func toUserEntity(m *UserModel) *user.User {
	return &user.User{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Role:          user.ParseRole(m.Role),
		ContactNumber: m.ContactNumber,
		RegisteredOn:  m.RegisteredOn.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toUserEntities(models []UserModel) []*user.User {
	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = toUserEntity(&models[i])
	}
	return users
}
