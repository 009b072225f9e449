package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

func TestAuthSignUpAndSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.auth.SignUp(ctx, SignUpInput{
		Email:       "  Parent@Example.com ",
		Password:    "correct horse",
		DisplayName: "Sam",
		Role:        "parent",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "parent@example.com", session.User.Email)

	identity, err := env.auth.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: session.User.ID, Role: models.RoleParent}, identity)

	again, err := env.auth.SignIn(ctx, SignInInput{Email: "PARENT@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, again.Token)

	// Signing in again retires the previous token.
	identity, err = env.auth.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.False(t, identity.Authenticated())

	me, err := env.auth.Me(ctx, models.Identity{UserID: again.User.ID, Role: models.RoleParent})
	require.NoError(t, err)
	assert.Equal(t, "Sam", me.DisplayName)

	require.NoError(t, env.auth.SignOut(ctx, again.Token))
	identity, err = env.auth.Resolve(ctx, again.Token)
	require.NoError(t, err)
	assert.False(t, identity.Authenticated())
}

func TestAuthSignUpRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := SignUpInput{Email: "t@example.com", Password: "long-enough", DisplayName: "T", Role: "therapist"}
	_, err := env.auth.SignUp(ctx, valid)
	require.NoError(t, err)

	_, err = env.auth.SignUp(ctx, valid)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	privileged := valid
	privileged.Email = "a@example.com"
	privileged.Role = "platform_admin"
	_, err = env.auth.SignUp(ctx, privileged)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	bogus := valid
	bogus.Email = "b@example.com"
	bogus.Role = "wizard"
	_, err = env.auth.SignUp(ctx, bogus)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	short := valid
	short.Email = "c@example.com"
	short.Password = "short"
	_, err = env.auth.SignUp(ctx, short)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestAuthSignInRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.SignUp(ctx, SignUpInput{Email: "p@example.com", Password: "long-enough", DisplayName: "P", Role: "parent"})
	require.NoError(t, err)

	_, err = env.auth.SignIn(ctx, SignInInput{Email: "p@example.com", Password: "wrong-password"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = env.auth.SignIn(ctx, SignInInput{Email: "nobody@example.com", Password: "long-enough"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = env.auth.Me(ctx, models.Identity{})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestProvisionAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.ProvisionAdmin(ctx, "Ops@MindfulKids.app", "long-enough", "Ops")
	require.NoError(t, err)
	assert.Equal(t, models.RolePlatformAdmin, user.Role)
	assert.Equal(t, "ops@mindfulkids.app", user.Email)

	session, err := env.auth.SignIn(ctx, SignInInput{Email: "ops@mindfulkids.app", Password: "long-enough"})
	require.NoError(t, err)
	identity, err := env.auth.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())

	_, err = env.auth.ProvisionAdmin(ctx, "ops@mindfulkids.app", "long-enough", "Ops")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}
