package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/models"
	"skyroute-backend/pkg/logger"
)

type OperatorStore interface {
	Create(ctx context.Context, o *models.Operator) error
	Get(ctx context.Context, id int) (*models.Operator, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

type LoginLogStore interface {
	CreateLoginLog(ctx context.Context, operatorID int, ipAddress, userAgent string) (int, error)
	UpdateLogoutTimeByOperator(ctx context.Context, operatorID int) error
}

// TokenManager is satisfied by *auth.JWTManager.
type TokenManager interface {
	GenerateToken(op *models.Operator) (string, error)
	ValidateToken(token string) (*auth.Claims, error)
	TTL() time.Duration
}

type LoginResult struct {
	Token     string           `json:"-"`
	Operator  *models.Operator `json:"operator"`
	ExpiresAt time.Time        `json:"expires_at"`
}

type OperatorService struct {
	Repo      OperatorStore
	LoginLogs LoginLogStore
	Tokens    TokenManager

	validate *validator.Validate
	log      logger.Logger
}

func NewOperatorService(repo OperatorStore, loginLogs LoginLogStore, tokens TokenManager, log logger.Logger) *OperatorService {
	return &OperatorService{
		Repo:      repo,
		LoginLogs: loginLogs,
		Tokens:    tokens,
		validate:  newValidator(),
		log:       log,
	}
}

func invalidCredentials() error {
	return &Error{Kind: ErrUnauthorized, Msg: "invalid username or password"}
}

// Login checks the password and issues a session token.
func (s *OperatorService) Login(ctx context.Context, req *models.LoginRequest, ipAddress, userAgent string) (*LoginResult, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	op, err := s.Repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, storeError("failed to load operator", err)
	}
	if op == nil || !auth.VerifyPassword(op.PasswordHash, req.Password) {
		return nil, invalidCredentials()
	}
	if !op.IsActive {
		return nil, &Error{Kind: ErrUnauthorized, Msg: "account is disabled"}
	}

	token, err := s.Tokens.GenerateToken(op)
	if err != nil {
		return nil, err
	}

	if _, err := s.LoginLogs.CreateLoginLog(ctx, op.ID, ipAddress, userAgent); err != nil {
		s.log.Warn("failed to record login", "operator", op.Username, "error", err)
	}

	s.log.Info("operator logged in", "operator", op.Username, "ip", ipAddress)
	return &LoginResult{Token: token, Operator: op, ExpiresAt: time.Now().Add(s.Tokens.TTL())}, nil
}

// Logout records the end of the operator's latest login.
func (s *OperatorService) Logout(ctx context.Context, sess *auth.Session) {
	if !sess.Valid() {
		return
	}
	if err := s.LoginLogs.UpdateLogoutTimeByOperator(ctx, sess.OperatorID); err != nil {
		s.log.Warn("failed to record logout", "operator", sess.Username, "error", err)
		return
	}
	s.log.Info("operator logged out", "operator", sess.Username)
}

// Authenticate turns a session token into a Session. The operator is
// re-read so a disabled account loses access immediately.
func (s *OperatorService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	if token == "" {
		return nil, unauthorized()
	}

	claims, err := s.Tokens.ValidateToken(token)
	if err != nil {
		return nil, &Error{Kind: ErrUnauthorized, Err: err}
	}

	op, err := s.Repo.Get(ctx, claims.OperatorID)
	if err != nil {
		return nil, storeError("failed to load operator", err)
	}
	if op == nil || !op.IsActive {
		return nil, unauthorized()
	}
	return auth.NewSession(op), nil
}

// CreateOperator adds a login. Used by the operator add command.
func (s *OperatorService) CreateOperator(ctx context.Context, req *models.CreateOperatorRequest) (*models.Operator, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Initials = strings.ToUpper(strings.TrimSpace(req.Initials))
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	display := strings.TrimSpace(req.DisplayName)
	if display == "" {
		display = req.Username
	}

	op := &models.Operator{
		Username:     req.Username,
		DisplayName:  display,
		Initials:     req.Initials,
		PasswordHash: hash,
	}
	if err := s.Repo.Create(ctx, op); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, validationf("username %q already exists", req.Username)
		}
		return nil, storeError("failed to create operator", err)
	}
	return op, nil
}
