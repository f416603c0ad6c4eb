package blogboot

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const tokenIssuer = "blogboot"

type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

func (c *Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer signs and verifies HS256 access and refresh tokens. The two
// kinds use separate secrets so one can never stand in for the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 30 * time.Hour
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *TokenIssuer) GenerateTokens(userId string, role string) (TokenPair, error) {
	accessToken, err := i.generateJwtToken(userId, role, i.accessTTL, i.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := i.generateJwtToken(userId, role, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (i *TokenIssuer) generateJwtToken(userId string, role string, duration time.Duration, secretKey []byte) (string, error) {
	now := i.now()
	claims := &Claims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			Id:        uuid.New().String(),
			IssuedAt:  now.Unix(),
			Issuer:    tokenIssuer,
			Subject:   userId,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func (i *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	return parseJwtToken(tokenString, i.accessSecret)
}

func (i *TokenIssuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	return parseJwtToken(tokenString, i.refreshSecret)
}

func parseJwtToken(tokenString string, secretKey []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("bearer token is invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("bearer token has no subject")
	}
	return claims, nil
}
