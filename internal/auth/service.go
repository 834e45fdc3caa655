package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dsdroute/dsdroute-backend/pkg/auth"
	"github.com/dsdroute/dsdroute-backend/pkg/config"
	"github.com/dsdroute/dsdroute-backend/pkg/db"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
	"github.com/dsdroute/dsdroute-backend/pkg/security"
)

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service exposes authentication operations.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
}

type service struct {
	users    usersRepository
	limiter  rateLimiter
	jwtCfg   config.JWTConfig
	limitCfg config.AuthRateLimitConfig
	logg     *logger.Logger
	clock    func() time.Time
}

// NewService builds the auth service.
func NewService(users usersRepository, limiter rateLimiter, jwtCfg config.JWTConfig, limitCfg config.AuthRateLimitConfig, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		users:    users,
		limiter:  limiter,
		jwtCfg:   jwtCfg,
		limitCfg: limitCfg,
		logg:     logg,
		clock:    time.Now,
	}, nil
}

// LoginInput carries the credentials plus the caller IP for rate limiting.
type LoginInput struct {
	Email    string
	Password string
	RemoteIP string
}

// LoginResult is the signed token plus the authenticated identity.
type LoginResult struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if err := s.checkRateLimits(ctx, email, input.RemoteIP); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.clock()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to stamp last login")
	}

	return &LoginResult{
		Token:     token,
		User:      user,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
	}, nil
}

// checkRateLimits applies per-email and per-IP fixed windows. A missing
// limiter (tests, workers) disables the check rather than failing login.
func (s *service) checkRateLimits(ctx context.Context, email, remoteIP string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email, int64(s.limitCfg.LoginEmailLimit), s.limitCfg.LoginWindow)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "login rate limit check failed, allowing request")
		}
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}

	if remoteIP == "" {
		return nil
	}
	allowed, _, err = s.limiter.FixedWindowAllow(ctx, "login:ip:"+remoteIP, int64(s.limitCfg.LoginIPLimit), s.limitCfg.LoginWindow)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "login rate limit check failed, allowing request")
		}
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}
	return nil
}
