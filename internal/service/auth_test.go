package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/eventhub/internal/config"
	"github.com/iliyamo/eventhub/internal/model"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
		Social: config.SocialConfig{
			GoogleClientID:     "google-id",
			GoogleClientSecret: "google-secret",
			GitHubID:           "demo-github-id",
			GitHubSecret:       "demo-github-secret",
		},
	}
}

func newAuthService() *AuthService {
	return NewAuthService(testConfig(), repository.NewMemoryUserRepo(), repository.NewMemoryTokenRepo(), zap.NewNop())
}

func TestRegister(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	s, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: " Ada@Example.com", Password: "Secret123", Role: "organizer"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.User.Email)
	assert.Equal(t, model.RoleOrganizer, s.User.Role)
	assert.NotEmpty(t, s.Refresh.Raw)

	id, err := utils.ParseAccessToken("test-secret", s.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.Identity{UserID: s.User.ID, Email: "ada@example.com", Name: "Ada", Role: model.RoleOrganizer}, id)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ada 2", Email: "ADA@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestRegister_DefaultsToUserRole(t *testing.T) {
	s, err := newAuthService().Register(context.Background(), RegisterInput{Name: "Bo", Email: "bo@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, s.User.Role)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "Secret123"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "Secret123"}},
		{"short password", RegisterInput{Name: "A", Email: "a@example.com", Password: "Sec1"}},
		{"no digit", RegisterInput{Name: "A", Email: "a@example.com", Password: "SecretPass"}},
		{"no upper", RegisterInput{Name: "A", Email: "a@example.com", Password: "secret123"}},
		{"admin self-registration", RegisterInput{Name: "A", Email: "a@example.com", Password: "Secret123", Role: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newAuthService().Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, repository.ErrValidation)
		})
	}
}

func TestAuthenticate_Credentials(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)

	s, err := svc.Authenticate(ctx, CredentialsSignIn{Email: "ADA@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.User.Email)

	_, err = svc.Authenticate(ctx, CredentialsSignIn{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, CredentialsSignIn{Email: "nobody@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, CredentialsSignIn{Email: "ada@example.com"})
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestAuthenticate_SocialCreatesAndLinks(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	first, err := svc.Authenticate(ctx, SocialSignIn{Provider: "google", Email: "Sam@Example.com", Name: "Sam", Image: "https://img/sam.png"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, first.User.Role)
	assert.Equal(t, model.ProviderGoogle, first.User.Provider)
	assert.Equal(t, model.SocialPasswordHash, first.User.PasswordHash)

	again, err := svc.Authenticate(ctx, SocialSignIn{Provider: "google", Email: "sam@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID, "same email links to the same account")

	// Social accounts have no usable password.
	_, err = svc.Authenticate(ctx, CredentialsSignIn{Email: "sam@example.com", Password: model.SocialPasswordHash})
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
}

func TestAuthenticate_SocialLinksExistingCredentialsAccount(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123", Role: "organizer"})
	require.NoError(t, err)

	s, err := svc.Authenticate(ctx, SocialSignIn{Provider: "google", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, s.User.ID)
	assert.Equal(t, model.RoleOrganizer, s.User.Role)
}

func TestAuthenticate_SocialProviderDisabled(t *testing.T) {
	svc := newAuthService()
	// GitHub credentials are demo placeholders in testConfig.
	_, err := svc.Authenticate(context.Background(), SocialSignIn{Provider: "github", Email: "x@example.com"})
	assert.ErrorIs(t, err, repository.ErrValidation)

	_, err = svc.Authenticate(context.Background(), SocialSignIn{Provider: "myspace", Email: "x@example.com"})
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"google"}, newAuthService().Providers())

	cfg := testConfig()
	cfg.Social = config.SocialConfig{}
	none := NewAuthService(cfg, repository.NewMemoryUserRepo(), repository.NewMemoryTokenRepo(), zap.NewNop())
	assert.Empty(t, none.Providers())
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	s, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, s.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, s.Refresh.Raw, next.Refresh.Raw)
	assert.Equal(t, s.User.ID, next.User.ID)

	_, err = svc.Refresh(ctx, s.Refresh.Raw)
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials, "old token is revoked")

	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, repository.ErrValidation)
}

// GatedTokenStore holds every ValidateRefresh caller until Gate is released,
// so concurrent callers all see the token as valid.
type GatedTokenStore struct {
	repository.TokenStore
	Gate *sync.WaitGroup
}

func (m *GatedTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	id, err := m.TokenStore.ValidateRefresh(ctx, tokenHash)
	if m.Gate != nil {
		m.Gate.Done()
		m.Gate.Wait()
	}
	return id, err
}

func TestRefresh_ConcurrentReuseRotatesOnce(t *testing.T) {
	tokens := &GatedTokenStore{TokenStore: repository.NewMemoryTokenRepo()}
	svc := NewAuthService(testConfig(), repository.NewMemoryUserRepo(), tokens, zap.NewNop())
	ctx := context.Background()
	s, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)

	const callers = 2
	tokens.Gate = &sync.WaitGroup{}
	tokens.Gate.Add(callers)

	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, s.Refresh.Raw)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
		rejected++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
}

func TestLogout(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	s1, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)
	s2, err := svc.Authenticate(ctx, CredentialsSignIn{Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "", s1.Refresh.Raw))
	_, err = svc.Refresh(ctx, s1.Refresh.Raw)
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	assert.ErrorIs(t, svc.Logout(ctx, "", s1.Refresh.Raw), repository.ErrInvalidCredentials)

	// Bearer-only logout revokes every remaining session.
	require.NoError(t, svc.Logout(ctx, s2.User.ID, ""))
	_, err = svc.Refresh(ctx, s2.Refresh.Raw)
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)

	assert.ErrorIs(t, svc.Logout(ctx, "", ""), repository.ErrValidation)
}

func TestUserLookup(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	s, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)

	u, err := svc.User(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)

	_, err = svc.User(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
