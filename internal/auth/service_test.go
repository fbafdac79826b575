package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborhealth/harbor-backend/internal/repository"
)

type fakeUsers struct {
	byEmail map[string]*repository.User
	byID    map[string]*repository.User
	created []*repository.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail: make(map[string]*repository.User),
		byID:    make(map[string]*repository.User),
	}
}

func (f *fakeUsers) Create(ctx context.Context, user *repository.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) List(ctx context.Context) ([]*repository.User, error) { return nil, nil }

func (f *fakeUsers) ListTherapists(ctx context.Context) ([]*repository.User, error) {
	return nil, nil
}

func (f *fakeUsers) GetTherapistByEmail(ctx context.Context, email string) (*repository.User, error) {
	u := f.byEmail[email]
	if u == nil || u.Role != repository.RoleTherapist {
		return nil, nil
	}
	return u, nil
}

func (f *fakeUsers) ListClients(ctx context.Context, therapistID string) ([]*repository.User, error) {
	return nil, nil
}

func (f *fakeUsers) LinkClient(ctx context.Context, therapistID, clientID string) error {
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id string) error { return nil }

func newTestService(users *fakeUsers) *Service {
	return NewService(users, NewJWTService("test-secret", "harbor-test"))
}

func TestSignupAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc := newTestService(users)

	pair, err := svc.Signup(context.Background(), SignupRequest{
		Email:     "Dana@Example.com",
		Password:  "Sup3rsecret",
		FirstName: "Dana",
		LastName:  "Reyes",
		Role:      repository.RoleTherapist,
	})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "dana@example.com", pair.User.Email)
	assert.NotEqual(t, "Sup3rsecret", pair.User.PasswordHash)

	login, err := svc.Login(context.Background(), "dana@example.com", "Sup3rsecret")
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, login.User.ID)

	_, err = svc.Login(context.Background(), "dana@example.com", "wrongpass1A")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	svc := newTestService(users)

	req := SignupRequest{
		Email:    "dana@example.com",
		Password: "Sup3rsecret",
		Role:     repository.RoleTherapist,
	}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestSignupClientLinksTherapist(t *testing.T) {
	users := newFakeUsers()
	svc := newTestService(users)

	therapist, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "therapist@example.com",
		Password: "Sup3rsecret",
		Role:     repository.RoleTherapist,
	})
	require.NoError(t, err)

	client, err := svc.Signup(context.Background(), SignupRequest{
		Email:          "client@example.com",
		Password:       "Sup3rsecret",
		Role:           repository.RoleClient,
		TherapistEmail: "therapist@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, client.User.TherapistID)
	assert.Equal(t, therapist.User.ID, *client.User.TherapistID)
}

func TestSignupUnknownTherapist(t *testing.T) {
	svc := newTestService(newFakeUsers())

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:          "client@example.com",
		Password:       "Sup3rsecret",
		Role:           repository.RoleClient,
		TherapistEmail: "nobody@example.com",
	})
	assert.ErrorIs(t, err, ErrTherapistNotFound)
}

func TestSignupRejectsWeakPasswordAndBadRole(t *testing.T) {
	svc := newTestService(newFakeUsers())

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "a@example.com",
		Password: "short",
		Role:     repository.RoleClient,
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Signup(context.Background(), SignupRequest{
		Email:    "a@example.com",
		Password: "alllowercase1",
		Role:     repository.RoleClient,
	})
	assert.ErrorIs(t, err, ErrPasswordTooWeak)

	_, err = svc.Signup(context.Background(), SignupRequest{
		Email:    "a@example.com",
		Password: "Sup3rsecret",
		Role:     repository.RoleAdmin,
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRefresh(t *testing.T) {
	users := newFakeUsers()
	svc := newTestService(users)

	pair, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "dana@example.com",
		Password: "Sup3rsecret",
		Role:     repository.RoleTherapist,
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, refreshed.User.ID)

	// Access tokens cannot be used as refresh tokens.
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRoundTrip(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", "harbor-test")

	access, refresh, err := jwtSvc.GenerateTokenPair("u1", "a@example.com", repository.RoleClient)
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, repository.RoleClient, claims.Role)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, time.Minute)

	_, err = jwtSvc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Wrong secret fails verification.
	other := NewJWTService("other-secret", "harbor-test")
	_, err = other.ValidateAccessToken(access)
	assert.Error(t, err)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("abc"))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
}
