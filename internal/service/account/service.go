package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/entity"
	repo "github.com/birkolabs/vitrin/internal/repository/user"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/account")

const minPasswordLen = 6

// Service encapsulates registration, authentication and the admin
// approval workflow.
type Service struct {
	repo     *repo.Repository
	logger   *zap.Logger
	secret   []byte
	tokenTTL time.Duration
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		logger:   p.Logger,
		secret:   []byte(p.Config.Auth.JWTSecret),
		tokenTTL: p.Config.Auth.TokenTTL,
	}
}

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a new unapproved account. Validation happens here,
// before anything touches the store.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Register")
	defer span.End()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, errorbank.BadRequest("a valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, errorbank.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if in.Name == "" {
		return nil, errorbank.BadRequest("name is required")
	}
	if in.Phone == "" {
		return nil, errorbank.BadRequest("phone is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash failed")
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	user := &entity.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Phone:    in.Phone,
		Role:     entity.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, errorbank.Conflict("email already registered")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create account", errorbank.WithCause(err))
	}

	user.Password = ""
	return user, nil
}

// Login authenticates an approved account and issues a session token.
// Wrong email, wrong password and unapproved account all return the
// same bad-credentials error so the endpoint doesn't leak which one
// it was; approval has its own message since the SPA surfaces it.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", errorbank.BadRequest("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", errorbank.BadRequest("invalid email or password")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, "", errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", errorbank.BadRequest("invalid email or password")
	}
	if !user.IsApproved {
		return nil, "", errorbank.BadRequest("account is awaiting approval")
	}

	token, err := s.issueToken(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		return nil, "", errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}

	user.Password = ""
	return user, token, nil
}

// ParseToken validates a session token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errorbank.BadRequest("invalid token", errorbank.WithCause(err))
	}
	return claims, nil
}

func (s *Service) issueToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ListAll returns every account without password hashes.
func (s *Service) ListAll(ctx context.Context) ([]entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.ListAll")
	defer span.End()

	users, err := s.repo.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load accounts", errorbank.WithCause(err))
	}
	return users, nil
}

// ListPending returns accounts awaiting approval.
func (s *Service) ListPending(ctx context.Context) ([]entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.ListPending")
	defer span.End()

	users, err := s.repo.ListPending(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load pending accounts", errorbank.WithCause(err))
	}
	return users, nil
}

// ListApproved returns approved accounts.
func (s *Service) ListApproved(ctx context.Context) ([]entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.ListApproved")
	defer span.End()

	users, err := s.repo.ListApproved(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load approved accounts", errorbank.WithCause(err))
	}
	return users, nil
}

// Approve marks an account as approved and returns the updated row.
func (s *Service) Approve(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Approve", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := s.repo.Approve(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to approve account", errorbank.WithCause(err))
	}
	return user, nil
}

// Reject removes an account entirely (approved or not) and returns a
// snapshot of the deleted row.
func (s *Service) Reject(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Reject", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := s.repo.Reject(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to reject account", errorbank.WithCause(err))
	}
	return user, nil
}

// UpdateRole changes an account's role after validating it.
func (s *Service) UpdateRole(ctx context.Context, id int64, role string) error {
	ctx, span := serviceTracer.Start(ctx, "AccountService.UpdateRole", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if !entity.ValidRole(role) {
		return errorbank.BadRequest(fmt.Sprintf("invalid role: %s", role))
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update role", errorbank.WithCause(err))
	}
	return nil
}
