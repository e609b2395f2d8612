package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gecr-dev/campus-api/internal/models"
	"github.com/gecr-dev/campus-api/pkg/config"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type studentCredentialReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

type facultyCredentialReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Faculty, error)
}

// AuthService issues and validates access tokens for both roles.
type AuthService struct {
	students  studentCredentialReader
	faculty   facultyCredentialReader
	cfg       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs AuthService.
func NewAuthService(students studentCredentialReader, faculty facultyCredentialReader, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{students: students, faculty: faculty, cfg: cfg, validator: validate, logger: logger}
}

// Login checks the credentials for the requested role and issues a
// signed token. Lookup failures and password mismatches collapse into
// the same error so the response does not leak which emails exist.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	var (
		id, name, hash string
		active         = true
	)
	switch req.Role {
	case models.RoleStudent:
		student, err := s.students.FindByEmail(ctx, req.Email)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
		}
		id, name, hash, active = student.ID, student.Name, student.PasswordHash, student.Active
	case models.RoleFaculty:
		faculty, err := s.faculty.FindByEmail(ctx, req.Email)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
		}
		id, name, hash = faculty.ID, faculty.Name, faculty.PasswordHash
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if !active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	token, expiresIn, err := s.issue(id, req.Role, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	s.logger.Info("login succeeded",
		zap.String("user_id", id),
		zap.String("role", string(req.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		UserID:      id,
		Role:        req.Role,
		Name:        name,
	}, nil
}

func (s *AuthService) issue(userID string, role models.UserRole, name string) (string, int64, error) {
	now := time.Now().UTC()
	expiration := s.cfg.Expiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	claims := models.JWTClaims{
		UserID: userID,
		Role:   role,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(expiration.Seconds()), nil
}

// ValidateToken parses and verifies a signed access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
