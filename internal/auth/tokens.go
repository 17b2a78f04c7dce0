package auth

import (
	"DevHabit/internal/config"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AccessTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenProvider signs HS256 access tokens and mints opaque refresh tokens.
type TokenProvider struct {
	cfg       config.AuthConfig
	key       []byte
	clockFunc func() time.Time
}

func NewTokenProvider(cfg config.AuthConfig) (*TokenProvider, error) {
	if !cfg.JWT.CanIssue() {
		return nil, errors.New("token issuance requires HS256 with a secret")
	}
	return &TokenProvider{cfg: cfg, key: []byte(cfg.JWT.HMACSecret), clockFunc: time.Now}, nil
}

// Create issues a token pair for identityID.
func (p *TokenProvider) Create(identityID, email string) (AccessTokens, error) {
	access, err := p.accessToken(identityID, email)
	if err != nil {
		return AccessTokens{}, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return AccessTokens{}, err
	}
	return AccessTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshExpiry is when a refresh token minted now stops being accepted.
func (p *TokenProvider) RefreshExpiry() time.Time {
	return p.clockFunc().UTC().Add(p.cfg.RefreshTokenTTL)
}

func (p *TokenProvider) accessToken(identityID, email string) (string, error) {
	now := p.clockFunc()
	claims := map[string]any{
		"iss":   p.cfg.JWT.Issuer,
		"aud":   p.cfg.JWT.Audience,
		"sub":   identityID,
		"email": email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(p.cfg.AccessTokenTTL).Unix(),
	}
	header, err := encodeSegment(map[string]any{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payload, err := encodeSegment(claims)
	if err != nil {
		return "", err
	}
	signingInput := header + "." + payload
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signHS256(p.key, signingInput)), nil
}

func encodeSegment(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode jwt segment: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
