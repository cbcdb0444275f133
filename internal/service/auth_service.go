package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"listingboard/internal/apperr"
	"listingboard/internal/config"
	"listingboard/internal/logging"
	"listingboard/internal/metrics"
	"listingboard/internal/models"
	"listingboard/internal/repository"
)

const (
	BcryptCost      = 12
	MinSecretLength = 20
)

const invalidCredentials = "Invalid email or password"

type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error)
	VerifyToken(token string) (*models.TokenClaims, error)
}

type authService struct {
	userRepo   repository.UserRepository
	cfg        *config.Config
	bcryptCost int
	now        func() time.Time
	compare    func(hash, password []byte) error

	// dummyHash is compared against on unknown emails so both login
	// failures cost one bcrypt comparison.
	dummyHash func() []byte
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	s := &authService{
		userRepo:   userRepo,
		cfg:        cfg,
		bcryptCost: BcryptCost,
		now:        time.Now,
		compare:    bcrypt.CompareHashAndPassword,
	}
	s.dummyHash = sync.OnceValue(func() []byte {
		hash, err := bcrypt.GenerateFromPassword([]byte("unknown-user-placeholder"), s.bcryptCost)
		if err != nil {
			logging.Error().Err(err).Msg("generate placeholder hash")
		}
		return hash
	})
	return s
}

type tokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (s *authService) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Password = strings.TrimSpace(in.Password)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	// No user is stored while tokens cannot be signed.
	if _, err := s.secret(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.New(apperr.Conflict, "Email already registered")
	case err != nil && !apperr.Is(err, apperr.NotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("user registered")

	return &models.AuthResult{User: user, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.secret(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			_ = s.compare(s.dummyHash(), []byte(in.Password))
			metrics.RecordAuthFailure("unknown_email")
			return nil, apperr.New(apperr.Unauthorized, invalidCredentials)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		metrics.RecordAuthFailure("wrong_password")
		return nil, apperr.New(apperr.Unauthorized, invalidCredentials)
	}

	token, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResult{User: user, Token: token}, nil
}

func (s *authService) VerifyToken(tokenString string) (*models.TokenClaims, error) {
	secret, err := s.secret()
	if err != nil {
		return nil, err
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		metrics.RecordAuthFailure("invalid_token")
		return nil, apperr.Wrap(apperr.Unauthorized, "Invalid or expired token", err)
	}

	if claims.UserID <= 0 || claims.Email == "" {
		metrics.RecordAuthFailure("invalid_claims")
		return nil, apperr.New(apperr.Unauthorized, "Invalid or expired token")
	}

	return &models.TokenClaims{UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *authService) sign(user *models.User) (string, error) {
	secret, err := s.secret()
	if err != nil {
		return "", err
	}

	ttl := s.cfg.TokenDuration
	if ttl <= 0 {
		ttl = config.MinTokenDuration
	}

	now := s.now()
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// secret reads the signing key from the live config on every call.
func (s *authService) secret() ([]byte, error) {
	key := s.cfg.JWTSecretKey
	if len(key) < MinSecretLength {
		logging.Error().Int("length", len(key)).Msg("JWT_SECRET_KEY is missing or too short")
		return nil, apperr.Wrap(apperr.ServerMisconfigured, "Server configuration error",
			errors.New("signing secret missing or shorter than 20 characters"))
	}
	return []byte(key), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
