package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicore/patient-registry/internal/model"
)

// TokenValidator verifies bearer tokens issued by the external identity
// service and extracts the acting user. Token issuance lives outside this
// API; only validation happens here.
type TokenValidator interface {
	ValidateToken(token string) (*model.Actor, error)
}

type jwtValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) TokenValidator {
	return &jwtValidator{secret: []byte(secret)}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (v *jwtValidator) ValidateToken(tokenString string) (*model.Actor, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id claim: %w", err)
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role claim: %q", claims.Role)
	}

	return &model.Actor{
		ID:        userID,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
		Role:      role,
	}, nil
}

// GenerateToken signs an actor into a token. Used by tests and local
// tooling; production tokens come from the identity service.
func GenerateToken(secret string, actor *model.Actor) (string, error) {
	claims := &tokenClaims{
		UserID:    actor.ID.String(),
		FirstName: actor.FirstName,
		LastName:  actor.LastName,
		Email:     actor.Email,
		Role:      string(actor.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
