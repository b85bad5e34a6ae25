package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

var ErrInvalidToken = errors.New("invalid or missing access token")

// Scope is the request-scoped authorization context the query layer filters
// by: an employee sees their own records, an admin sees all. It replaces any
// ambient session state.
type Scope struct {
	EmployeeID string
	Role       Role
}

func (s Scope) Admin() bool {
	return s.Role == RoleAdmin
}

// ScopeFromContext extracts the authorization scope from the verified JWT
// claims placed on the request context by the jwtauth middleware.
func ScopeFromContext(ctx context.Context) (Scope, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	roleStr, ok := claims["role"].(string)
	if !ok || roleStr == "" {
		return Scope{}, ErrInvalidToken
	}
	role := Role(roleStr)
	if role != RoleAdmin && role != RoleEmployee {
		return Scope{}, ErrInvalidToken
	}

	employeeID, _ := claims["employee_id"].(string)
	if role == RoleEmployee && employeeID == "" {
		return Scope{}, ErrInvalidToken
	}

	return Scope{EmployeeID: employeeID, Role: role}, nil
}

type Service interface {
	GenerateAccessToken(employeeID string, role Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(employeeID string, role Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"employee_id": employeeID,
		"role":        string(role),
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}
