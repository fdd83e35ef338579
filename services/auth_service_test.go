package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/repositories"
)

type fakeUserRepo struct {
	users  map[string]models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	if _, ok := r.users[u.Username]; ok {
		return repositories.ErrUsernameConflict
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.Username] = *u
	return nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func TestSignup(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	user, err := svc.Signup(context.Background(), SignupInput{
		Username: "fan42",
		Password: "long-enough-pw",
		FullName: "Avid Fan",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	// The stored hash verifies against the original password.
	stored := repo.users["fan42"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("long-enough-pw")))
}

func TestSignupRejects(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), SignupInput{Username: "", Password: "long-enough-pw", FullName: "X"})
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = svc.Signup(context.Background(), SignupInput{Username: "x", Password: "short", FullName: "X"})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	in := SignupInput{Username: "fan42", Password: "long-enough-pw", FullName: "Avid Fan"}
	_, err := svc.Signup(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	_, err := svc.Signup(context.Background(), SignupInput{
		Username: "fan42", Password: "long-enough-pw", FullName: "Avid Fan",
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), LoginInput{Username: "fan42", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.Equal(t, "fan42", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Login(context.Background(), LoginInput{Username: "fan42", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "long-enough-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
