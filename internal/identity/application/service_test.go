package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmono/storefront/internal/identity/application"
	"github.com/shopmono/storefront/internal/identity/domain"
	identitymem "github.com/shopmono/storefront/internal/identity/infrastructure/memory"
)

func newService() *application.Service {
	return application.NewService(identitymem.NewRepository(), []byte("test-secret"))
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "secret123"},
		{"blank email", "  ", "secret123"},
		{"short password", "a@b.com", "123"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.password, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "secret123", "Shopper")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Shopper@Example.com", "secret456", "")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "shopper@example.com", "secret123", "Shopper")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "shopper@example.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "secret123", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "shopper@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := newService()
	other := application.NewService(identitymem.NewRepository(), []byte("other-secret"))
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "secret123", "")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "shopper@example.com", "secret123")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}
