package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

func TestNewBackend_RequiresEmail(t *testing.T) {
	_, err := NewBackend(Config{})
	assert.Error(t, err)
}

func TestBackend_LoginMintsToken(t *testing.T) {
	b, err := NewBackend(Config{
		Email:     "dev@vitrinnea.com",
		Roles:     []string{"super_admin"},
		Countries: []string{"SV", "GT"},
	})
	require.NoError(t, err)

	res, err := b.Login(context.Background(), ports.Credentials{Email: "dev@vitrinnea.com", Password: "anything"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "dev@vitrinnea.com", res.User.Email)
	assert.Equal(t, "SV", res.User.PrimaryCountry)
	assert.True(t, res.User.HasRole("super_admin"))
}

func TestBackend_LoginRejectsEmptyPassword(t *testing.T) {
	b, err := NewBackend(Config{Email: "dev@vitrinnea.com"})
	require.NoError(t, err)

	_, err = b.Login(context.Background(), ports.Credentials{Email: "dev@vitrinnea.com"})
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestBackend_RefreshRotatesToken(t *testing.T) {
	b, err := NewBackend(Config{Email: "dev@vitrinnea.com"})
	require.NoError(t, err)

	first, err := b.Login(context.Background(), ports.Credentials{Email: "dev@vitrinnea.com", Password: "pw"})
	require.NoError(t, err)
	second, err := b.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestBackend_MeReturnsCopy(t *testing.T) {
	b, err := NewBackend(Config{Email: "dev@vitrinnea.com", Countries: []string{"SV", "GT"}})
	require.NoError(t, err)

	u, err := b.Me(context.Background())
	require.NoError(t, err)
	u.AllowedCountries[0] = "XX"

	again, err := b.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SV", again.AllowedCountries[0])
}

func TestBackend_DefaultsApplied(t *testing.T) {
	b, err := NewBackend(Config{Email: "dev@vitrinnea.com"})
	require.NoError(t, err)

	u, err := b.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dev Operator", u.Name)
	assert.Equal(t, []string{"SV"}, u.AllowedCountries)
}
