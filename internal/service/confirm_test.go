package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

func TestConfirmService_Confirm(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", false)
	env.seedUser(t, "bob", "pw", false)

	token, err := env.confirm.Token("ALICE@example.com")
	require.NoError(t, err)

	u, err := env.confirm.Confirm(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.IsVerified)

	bob, err := env.repo.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, bob.IsVerified)

	_, err = env.confirm.Confirm(ctx, token)
	require.NoError(t, err)

	env.tasks.Wait()
	assert.Equal(t, []string{EventUserVerified}, env.events.types())
}

func TestConfirmService_Confirm_Failures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", false)

	issued := time.Now()
	fresh, err := tokens.NewConfirmToken(env.confirm.Secret, "alice@example.com", issued, time.Hour)
	require.NoError(t, err)
	foreign, err := tokens.NewConfirmToken([]byte("other-secret"), "alice@example.com", issued, time.Hour)
	require.NoError(t, err)
	unknown, err := tokens.NewConfirmToken(env.confirm.Secret, "nobody@example.com", issued, time.Hour)
	require.NoError(t, err)
	stale, err := tokens.NewConfirmToken(env.confirm.Secret, "alice@example.com", issued.Add(-61*time.Minute), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "garbage", token: "not-a-token", want: ErrVerificationFailed},
		{name: "wrong key", token: foreign, want: ErrVerificationFailed},
		{name: "too old", token: stale, want: ErrVerificationFailed},
		{name: "unknown email", token: unknown, want: ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.confirm.Confirm(ctx, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	late := *env.confirm
	late.Now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = late.Confirm(ctx, fresh)
	assert.ErrorIs(t, err, ErrConfirmFailed)

	early := *env.confirm
	early.Now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = early.Confirm(ctx, fresh)
	require.NoError(t, err)
}

func TestConfirmService_Resend(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", false)
	env.seedUser(t, "bob", "pw", true)

	env.confirm.Resend(ctx, "nobody@example.com")
	env.confirm.Resend(ctx, "bob@example.com")
	env.confirm.Resend(ctx, "")
	env.confirm.Resend(ctx, " Alice@Example.com")
	env.tasks.Wait()

	msgs := env.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice@example.com", msgs[0].To)
}

func TestConfirmService_Link(t *testing.T) {
	t.Parallel()

	s := &ConfirmService{BaseURL: "https://shop.example/"}
	assert.Equal(t, "https://shop.example/api/user/confirm/abc.def", s.Link("abc.def"))
}
