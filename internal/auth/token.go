// Package auth は認証トークンの発行・検証とユーザー認証サービスを提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// TokenIssuer は認証トークンの発行・検証を行う。
// HS256で署名したJWTを使用する。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// TokenClaims は検証済みトークンから取り出した主体情報。
type TokenClaims struct {
	UserID string
	Role   model.Role
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue はユーザーの認証トークンを発行する。
func (t *TokenIssuer) Issue(userID string, role model.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、主体情報を返す。
// 署名不正・期限切れ・形式不正はすべてAuthTokenエラーとして返す。
func (t *TokenIssuer) Verify(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr,
		func(token *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, model.NewAuthTokenError(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.NewAuthTokenError(fmt.Errorf("unexpected claims type"))
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, model.NewAuthTokenError(fmt.Errorf("missing subject claim"))
	}

	return &TokenClaims{
		UserID: sub,
		Role:   model.Role(role),
	}, nil
}
