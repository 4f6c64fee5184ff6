package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

// Context中的身份信息key
const (
	ctxUserID      = "user_id"
	ctxUserName    = "user_name"
	ctxRole        = "role"
	ctxToken       = "token"
	ctxTokenExpiry = "token_expiry"
)

// RevocationChecker Token黑名单查询
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// Token由身份方签发,携带 {user_id, name, role};本服务只校验
// 1. 从Header提取Token
// 2. 检查黑名单(已登出)
// 3. 校验签名和有效期
// 4. 将身份信息注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	revocation RevocationChecker
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, revocation RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		revocation: revocation,
	}
}

// RequireAuth 要求登录
//
//	authorized := v1.Group("/loans")
//	authorized.Use(authMiddleware.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := m.verify(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		setIdentity(c, token, claims)
		c.Next()
	}
}

// OptionalAuth 有合法Token则注入身份,没有或无效都按匿名继续
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := m.verify(c.Request.Context(), token); err == nil {
				setIdentity(c, token, claims)
			}
		}
		c.Next()
	}
}

// RequireAdmin 必须在RequireAuth之后使用
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetRole(c).IsAdmin() {
			response.Error(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) verify(ctx context.Context, token string) (*jwt.Claims, error) {
	if m.revocation != nil {
		revoked, err := m.revocation.IsRevoked(ctx, token)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperrors.ErrTokenRevoked
		}
	}
	return m.jwtManager.ParseToken(token)
}

// bearerToken 格式:Authorization: Bearer <token>
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setIdentity(c *gin.Context, token string, claims *jwt.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserName, claims.Name)
	c.Set(ctxRole, user.ParseRole(claims.Role))
	c.Set(ctxToken, token)
	if claims.ExpiresAt != nil {
		c.Set(ctxTokenExpiry, claims.ExpiresAt.Time)
	}
}

// GetUserID 当前用户ID,匿名为0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetRole 当前用户角色,匿名按普通用户
func GetRole(c *gin.Context) user.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(user.Role); ok {
			return role
		}
	}
	return user.RoleUser
}

// GetToken 当前请求携带的Token(登出时加入黑名单)
func GetToken(c *gin.Context) (string, time.Time) {
	return c.GetString(ctxToken), c.GetTime(ctxTokenExpiry)
}
