package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Tokens identify operators of the call-control routes; the voice webhook
// itself is unauthenticated and never sees these.
type Claims struct {
	jwt.RegisteredClaims

	OperatorID string    `json:"operator_id"`
	TokenType  TokenType `json:"token_type"`
}
