package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	now := time.Now()

	t.Run("邮箱统一小写", func(t *testing.T) {
		u, err := NewUser(" Ada Lovelace ", "Ada@Example.COM", RoleAdmin, "555-0100", now)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", u.Name)
		assert.Equal(t, "ada@example.com", u.Email)
		assert.True(t, u.Role.IsAdmin())
	})

	t.Run("未知角色按普通用户", func(t *testing.T) {
		u, err := NewUser("Bob", "bob@example.com", Role("root"), "", now)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, u.Role)
	})

	t.Run("非法输入", func(t *testing.T) {
		_, err := NewUser("B", "bob@example.com", RoleUser, "", now)
		assert.ErrorIs(t, err, ErrInvalidName)

		_, err = NewUser("Bob", "not-an-email", RoleUser, "", now)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""))
}
