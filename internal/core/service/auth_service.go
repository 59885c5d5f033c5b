package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/port"
)

// maxOTPAttempts is how many wrong codes an email may submit before its
// pending OTP is discarded.
const maxOTPAttempts = 5

type AuthService struct {
	db       port.DatabaseRepository
	cache    port.CacheRepository
	hasher   port.PasswordHasher
	tokens   port.TokenIssuer
	notifier port.Notifier
	otpTTL   time.Duration
	newOTP   func() (string, error)
	log      zerolog.Logger
}

func NewAuthService(db port.DatabaseRepository, cache port.CacheRepository, hasher port.PasswordHasher,
	tokens port.TokenIssuer, notifier port.Notifier, otpTTL time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		db:       db,
		cache:    cache,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		otpTTL:   otpTTL,
		newOTP:   randomOTP,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	ShopName string
	Location string
}

// Session is what a successful login or OTP verification returns.
type Session struct {
	User  domain.User
	Token string
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, domain.Validation("name, email, password are required")
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}
	if !req.Role.Valid() {
		return nil, domain.Validation("unknown role %q", req.Role)
	}

	existing, err := s.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		ShopName:     req.ShopName,
		Location:     req.Location,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidEmail
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrIncorrectPassword
	}
	return s.session(*user)
}

// SendOTP stores a fresh 6-digit code for a registered email and queues it
// for delivery.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user by email: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user not found with this email", domain.ErrNotFound)
	}

	otp, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.cache.SaveOTP(ctx, email, otp, s.otpTTL); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	if err := s.notifier.SendOTP(ctx, email, otp); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("failed to queue otp email")
	}
	return nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || otp == "" {
		return nil, domain.ErrInvalidOTP
	}
	ok, err := s.cache.ConsumeOTP(ctx, email, otp, maxOTPAttempts)
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found with this email", domain.ErrNotFound)
	}
	return s.session(*user)
}

func (s *AuthService) session(user domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
