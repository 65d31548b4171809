package server

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyzss/matchmaker-ai/internal/config"
)

func newTestUserService(t *testing.T) (*UserService, *fakeUserStore) {
	t.Helper()

	t.Setenv("BCRYPT_COST", "4")
	pc, err := config.NewPasswordConfig()
	require.NoError(t, err)

	store := newFakeUserStore()
	return NewUserService(store, pc), store
}

func TestUserService_RegisterThenLogin(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Recruiter", "recruiter@example.com", "long-enough-password")
	require.NoError(t, err)
	require.NotNil(t, store.users["recruiter@example.com"])
	assert.NotEqual(t, "long-enough-password", registered.PasswordHash, "password must be stored hashed")
	assert.True(t, strings.HasPrefix(registered.PasswordHash, "$2"), "expected a bcrypt hash")

	// The exact password that was registered must log in.
	user, err := svc.Login(ctx, "recruiter@example.com", "long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestUserService_LoginWrongPassword(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Recruiter", "recruiter@example.com", "long-enough-password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "recruiter@example.com", "wrong-password-entirely")
	var invalid *ErrInvalidCredentials
	assert.ErrorAs(t, err, &invalid)

	// Passing the stored hash as the password must not log in either.
	_, err = svc.Login(ctx, "recruiter@example.com", mustHash(t, svc, "long-enough-password"))
	assert.Error(t, err)
}

func TestUserService_LoginUnknownEmail(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever-password")
	var invalid *ErrInvalidCredentials
	assert.ErrorAs(t, err, &invalid)
}

// mustHash produces a raw bcrypt string for tests.
func mustHash(t *testing.T, svc *UserService, pw string) string {
	t.Helper()
	hash, err := svc.passwordConfig.HashPassword(pw)
	require.NoError(t, err)
	return hash
}
