// Package auth 会话令牌。
// 开发用桩服务器签发与校验客户端携带的Bearer令牌。
package auth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wfunc/slot-client/internal/errors"
)

// SessionClaims 会话令牌Claims
type SessionClaims struct {
	SessionID string `json:"session_id"`
	GameID    string `json:"game_id"`
	jwt.RegisteredClaims
}

// TokenManager 令牌管理器
type TokenManager struct {
	secretKey string
	expiry    time.Duration
}

// NewTokenManager 创建令牌管理器
func NewTokenManager(secretKey string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: secretKey,
		expiry:    expiry,
	}
}

// Issue 为会话签发令牌
func (m *TokenManager) Issue(sessionID, gameID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		SessionID: sessionID,
		GameID:    gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "slot-client",
			Subject:   sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrAuthentication)
	}
	return signed, nil
}

// Validate 校验令牌并返回Claims
func (m *TokenManager) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New(errors.ErrTokenInvalid)
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(err, errors.ErrTokenExpired)
		}
		return nil, errors.Wrap(err, errors.ErrTokenInvalid)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New(errors.ErrTokenInvalid)
	}

	return claims, nil
}
