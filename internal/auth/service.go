package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims identifies a quote subscriber and the trading group whose markup it
// receives.
type Claims struct {
	Group string `json:"group,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	issuer    string
	secret    []byte
	ttl       time.Duration
	adminHash []byte
}

func NewService(issuer string, secret []byte, ttl time.Duration, adminPasswordHash string) *Service {
	return &Service{issuer: issuer, secret: secret, ttl: ttl, adminHash: []byte(adminPasswordHash)}
}

// IssueClientToken signs a token binding subject to a trading group.
func (s *Service) IssueClientToken(subject, group string) (string, error) {
	subject = strings.TrimSpace(subject)
	group = strings.TrimSpace(group)
	if subject == "" || group == "" {
		return "", errors.New("subject and group_id required")
	}
	return s.signToken(subject, group, RoleClient)
}

func (s *Service) AdminLogin(password string) (string, error) {
	if len(s.adminHash) == 0 || password == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.signToken("admin", "", RoleAdmin)
}

func (s *Service) signToken(subject, group, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Group: group,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) ParseToken(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Issuer != s.issuer {
		return Claims{}, errors.New("invalid issuer")
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("invalid subject")
	}
	switch claims.Role {
	case RoleClient:
		if claims.Group == "" {
			return Claims{}, errors.New("invalid group")
		}
	case RoleAdmin:
	default:
		return Claims{}, errors.New("invalid role")
	}
	return claims, nil
}
