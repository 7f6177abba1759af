package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
	"github.com/nkiryanov/metalrezerv/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

var errNoAccessToken = errors.New("access token not found in request")

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher if not set
	Hasher PasswordHasher

	// Header to read access token from and its auth scheme
	AccessHeaderName string
	AccessAuthScheme string
}

type AuthService struct {
	hasher PasswordHasher
	tokens *tokenmanager.TokenManager
	users  repository.UserRepo

	accessHeaderName string
	accessAuthScheme string
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, users repository.UserRepo) (*AuthService, error) {
	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}
	if cfg.AccessHeaderName == "" {
		cfg.AccessHeaderName = defaultAccessHeaderName
	}
	if cfg.AccessAuthScheme == "" {
		cfg.AccessAuthScheme = defaultAccessAuthScheme
	}

	return &AuthService{
		hasher:           cfg.Hasher,
		tokens:           tokens,
		users:            users,
		accessHeaderName: cfg.AccessHeaderName,
		accessAuthScheme: cfg.AccessAuthScheme,
	}, nil
}

// Register customer or executor and return access token
// Admins are not registered this way
func (s *AuthService) Register(ctx context.Context, email string, password string, role string) (models.IssuedToken, error) {
	if role != models.RoleCustomer && role != models.RoleExecutor {
		return models.IssuedToken{}, apperrors.InvalidInput("Role must be customer or executor")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.users.CreateUser(ctx, strings.ToLower(email), hash, role)
	if err != nil {
		return models.IssuedToken{}, err
	}

	token, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return token, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.IssuedToken, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.IssuedToken{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.IssuedToken{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.IssuedToken{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return token, nil
}

// Set access token to response header
func (s *AuthService) SetAccessToResponse(w http.ResponseWriter, token models.IssuedToken) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+token.Value)
}

// Read access token from request and return its user
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)
	access, ok := strings.CutPrefix(header, s.accessAuthScheme+" ")
	if !ok || access == "" {
		return models.User{}, errNoAccessToken
	}

	userID, err := s.tokens.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	return s.users.GetUserByID(ctx, userID)
}
