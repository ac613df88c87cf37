package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity the platform's REST layer embeds in connection
// tokens. This service only verifies tokens; issuing them is the REST
// layer's job.
type Claims struct {
	UserID string
	Role   string
	Name   string
}

type Service struct {
	secret []byte
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// Enabled reports whether a signing secret is configured. Without one,
// handshake tokens are ignored entirely.
func (s *Service) Enabled() bool {
	return len(s.secret) > 0
}

func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, _ := (*claims)["userId"].(string)
	if userID == "" {
		return nil, fmt.Errorf("missing userId claim")
	}
	role, _ := (*claims)["role"].(string)
	name, _ := (*claims)["name"].(string)

	return &Claims{UserID: userID, Role: role, Name: name}, nil
}
