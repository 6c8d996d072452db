package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"skyroute-backend/internal/config"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/timeutil"
)

// Claims is the payload of the session cookie token.
type Claims struct {
	OperatorID int    `json:"operator_id"`
	Username   string `json:"username"`
	Initials   string `json:"initials"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Session.Secret),
		issuer: cfg.Session.Issuer,
		ttl:    time.Duration(cfg.Session.ExpirationHours) * time.Hour,
	}
}

// TTL is how long an issued token stays valid.
func (j *JWTManager) TTL() time.Duration {
	return j.ttl
}

// GenerateToken signs a session token for an operator
func (j *JWTManager) GenerateToken(op *models.Operator) (string, error) {
	now := timeutil.Now()

	claims := &Claims{
		OperatorID: op.ID,
		Username:   op.Username,
		Initials:   op.Initials,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken verifies a session token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
