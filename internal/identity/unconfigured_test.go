package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredProvider(t *testing.T) {
	ctx := context.Background()
	provider := NewUnconfiguredProvider(nil)

	_, err := provider.SignUp(ctx, "mika@example.com", "password", "Mika")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = provider.SignIn(ctx, "mika@example.com", "password")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, provider.SignOut(ctx), ErrNotConfigured)
	assert.ErrorIs(t, provider.ResetPassword(ctx, "mika@example.com"), ErrNotConfigured)
	_, err = provider.VerifyEmail(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, ErrNotConfigured.Error(), "Authentication is not configured")

	events, cancel := provider.Subscribe(ctx)
	event := <-events
	assert.Equal(t, EventSignedOut, event.Type)
	assert.Nil(t, event.Session)

	cancel()
	_, ok := <-events
	require.False(t, ok)
}
