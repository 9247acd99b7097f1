// Package service holds the application logic between the HTTP handlers
// and the stores: authentication, event management and booking intake.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/eventhub/internal/config"
	"github.com/iliyamo/eventhub/internal/model"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/utils"
)

// SignIn is one of the accepted sign-in methods: CredentialsSignIn or
// SocialSignIn.  The set is closed; the unexported method keeps other
// packages from adding variants.
type SignIn interface {
	signIn()
}

// CredentialsSignIn authenticates with email and password.
type CredentialsSignIn struct {
	Email    string
	Password string
}

// SocialSignIn carries an identity already verified by a social provider.
type SocialSignIn struct {
	Provider string
	Email    string
	Name     string
	Image    string
}

func (CredentialsSignIn) signIn() {}
func (SocialSignIn) signIn()      {}

// Session is what a successful sign-in, registration or refresh returns.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// RegisterInput is the self-service registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthService owns accounts and tokens.
type AuthService struct {
	cfg    config.Config
	users  repository.UserStore
	tokens repository.TokenStore
	log    *zap.Logger
}

func NewAuthService(cfg config.Config, users repository.UserStore, tokens repository.TokenStore, log *zap.Logger) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens, log: log}
}

// Register validates the form, creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	role := strings.ToLower(strings.TrimSpace(in.Role))

	var problems []string
	if name == "" {
		problems = append(problems, "name is required")
	}
	if !utils.ValidEmail(email) {
		problems = append(problems, "invalid email format")
	}
	if !utils.StrongPassword(in.Password) {
		problems = append(problems, "password must be at least 8 characters with uppercase, lowercase and a number")
	}
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleOrganizer:
	default:
		problems = append(problems, "role must be user or organizer")
	}
	if len(problems) > 0 {
		return Session{}, fmt.Errorf("%s: %w", strings.Join(problems, "; "), repository.ErrValidation)
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Provider:     model.ProviderCredentials,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return Session{}, fmt.Errorf("user with this email already exists: %w", repository.ErrAlreadyExists)
		}
		return Session{}, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return s.issue(ctx, u)
}

// Authenticate resolves a sign-in attempt to a user and issues tokens.
func (s *AuthService) Authenticate(ctx context.Context, in SignIn) (Session, error) {
	var (
		u   model.User
		err error
	)
	switch v := in.(type) {
	case CredentialsSignIn:
		u, err = s.credentials(ctx, v)
	case SocialSignIn:
		u, err = s.social(ctx, v)
	default:
		err = fmt.Errorf("unsupported sign-in method: %w", repository.ErrValidation)
	}
	if err != nil {
		return Session{}, err
	}
	return s.issue(ctx, u)
}

func (s *AuthService) credentials(ctx context.Context, in CredentialsSignIn) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return model.User{}, fmt.Errorf("email and password are required: %w", repository.ErrValidation)
	}
	u, ok, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if !ok || !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return model.User{}, fmt.Errorf("invalid email or password: %w", repository.ErrInvalidCredentials)
	}
	return u, nil
}

// social links an existing account by email or creates a new user one.
func (s *AuthService) social(ctx context.Context, in SocialSignIn) (model.User, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if !s.providerEnabled(provider) {
		return model.User{}, fmt.Errorf("provider %q is not enabled: %w", in.Provider, repository.ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !utils.ValidEmail(email) {
		return model.User{}, fmt.Errorf("provider returned no usable email: %w", repository.ErrValidation)
	}

	if u, ok, err := s.users.GetByEmail(ctx, email); err != nil {
		return model.User{}, err
	} else if ok {
		return u, nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}
	u, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: model.SocialPasswordHash,
		Name:         name,
		Role:         model.RoleUser,
		Provider:     provider,
		Image:        in.Image,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		// Lost a race with a concurrent first sign-in; the account exists now.
		u, _, err = s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return model.User{}, err
	}
	s.log.Info("social account created", zap.String("user_id", u.ID), zap.String("provider", provider))
	return u, nil
}

func (s *AuthService) providerEnabled(p string) bool {
	switch p {
	case model.ProviderGoogle:
		return s.cfg.Social.GoogleEnabled()
	case model.ProviderGitHub:
		return s.cfg.Social.GitHubEnabled()
	}
	return false
}

// Providers lists the social providers that can be used right now.
func (s *AuthService) Providers() []string {
	out := []string{}
	if s.cfg.Social.GoogleEnabled() {
		out = append(out, model.ProviderGoogle)
	}
	if s.cfg.Social.GitHubEnabled() {
		out = append(out, model.ProviderGitHub)
	}
	return out
}

// Refresh validates the raw refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, fmt.Errorf("refresh token required: %w", repository.ErrValidation)
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, fmt.Errorf("invalid refresh token: %w", repository.ErrInvalidCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	// Two refreshes racing on one token both pass ValidateRefresh; only the
	// one that revokes it gets a new pair.
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, fmt.Errorf("invalid refresh token: %w", repository.ErrInvalidCredentials)
		}
		return Session{}, err
	}
	u, ok, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, fmt.Errorf("invalid refresh token: %w", repository.ErrInvalidCredentials)
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token, or every token of userID when raw is
// empty.  At least one of the two must be set.
func (s *AuthService) Logout(ctx context.Context, userID, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case raw != "":
		hash := utils.HashRefreshRaw(raw)
		_, err := s.tokens.ValidateRefresh(ctx, hash)
		if err == nil {
			err = s.tokens.RevokeByHash(ctx, hash)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("invalid refresh token: %w", repository.ErrInvalidCredentials)
		}
		return err
	case userID != "":
		return s.tokens.RevokeAllForUser(ctx, userID)
	}
	return fmt.Errorf("provide Authorization header or refreshToken: %w", repository.ErrValidation)
}

// User returns the account with the given id.
func (s *AuthService) User(ctx context.Context, id string) (model.User, error) {
	u, ok, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, utils.Identity{
		UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
	}, s.cfg.AccessTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("save refresh token: %w", err)
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}
