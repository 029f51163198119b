package services

import (
	"context"
	"testing"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(first, last, nick, pin string) RegisterInput {
	return RegisterInput{
		FirstName: first,
		LastName:  last,
		Nickname:  nick,
		Phone:     "+39 333 0000000",
		BirthDate: "1990-04-12",
		PIN:       pin,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := repositories.NewMemoryStore().Players()
	svc := NewAuthService(repo)
	ctx := context.Background()

	p, err := svc.Register(ctx, registerInput("Mario", "Rossi", "Supermario", "1234"))
	require.NoError(t, err)
	assert.Equal(t, models.AccountOperator, p.AccountRole)
	assert.Equal(t, models.TierReserve, p.Tier)
	assert.NotEmpty(t, p.PINHash)
	assert.NotEqual(t, "1234", p.PINHash)
	require.NotNil(t, p.BirthDate)

	_, err = svc.Register(ctx, registerInput("MARIO", "rossi", "", "5555"))
	assert.ErrorIs(t, err, ErrUsernameConflict)

	byName, err := svc.Login(ctx, models.Credentials{Username: " Mario.ROSSI ", PIN: "1234"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	byNick, err := svc.Login(ctx, models.Credentials{Username: "supermario", PIN: "1234"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, byNick.ID)

	_, err = svc.Login(ctx, models.Credentials{Username: "mario.rossi", PIN: "0000"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.Credentials{Username: "nobody", PIN: "1234"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(repositories.NewMemoryStore().Players())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("Mario", "Rossi", "", "12a4"))
	assert.ErrorIs(t, err, ErrInvalidPIN)

	_, err = svc.Register(ctx, registerInput("", "Rossi", "", "1234"))
	assert.ErrorIs(t, err, ErrNameRequired)

	in := registerInput("Mario", "Rossi", "", "1234")
	in.BirthDate = "12/04/1990"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestLoginBlockedAccount(t *testing.T) {
	repo := repositories.NewMemoryStore().Players()
	svc := NewAuthService(repo)
	ctx := context.Background()

	p, err := svc.Register(ctx, registerInput("Bloccato", "Utente", "", "1111"))
	require.NoError(t, err)
	p.Blocked = true
	require.NoError(t, repo.Update(ctx, p))

	_, err = svc.Login(ctx, models.Credentials{Username: "bloccato.utente", PIN: "1111"})
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestChangePIN(t *testing.T) {
	svc := NewAuthService(repositories.NewMemoryStore().Players())
	ctx := context.Background()
	p, err := svc.Register(ctx, registerInput("Anna", "Neri", "", "1234"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePIN(ctx, p.ID, "0000", "4321"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePIN(ctx, p.ID, "1234", "43"), ErrInvalidPIN)
	assert.ErrorIs(t, svc.ChangePIN(ctx, 999, "1234", "4321"), ErrPlayerNotFound)
	require.NoError(t, svc.ChangePIN(ctx, p.ID, "1234", "4321"))

	_, err = svc.Login(ctx, models.Credentials{Username: "anna.neri", PIN: "4321"})
	require.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	svc := NewAuthService(repositories.NewMemoryStore().Players())
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "4444")
	require.NoError(t, err)
	assert.Equal(t, models.AccountAdmin, admin.AccountRole)

	again, err := svc.EnsureAdmin(ctx, "9999")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	logged, err := svc.Login(ctx, models.Credentials{Username: "admin", PIN: "4444"})
	require.NoError(t, err)
	assert.True(t, logged.AccountRole.Can(models.PermCloseMatch))

	_, err = svc.EnsureAdmin(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidPIN)
}
