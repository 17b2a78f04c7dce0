package auth

import (
	"DevHabit/internal/config"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"
)

type contextKey string

const claimsContextKey contextKey = "jwt_claims"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token is expired")
)

// Claims is the decoded JWT payload.
type Claims map[string]any

// Subject is the identity id the token was issued for.
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

func (c Claims) Email() string {
	email, _ := c["email"].(string)
	return email
}

// Validator checks signature, issuer, audience and time claims of bearer tokens.
type Validator struct {
	cfg       config.JWTConfig
	alg       string
	rsaKey    *rsa.PublicKey
	ecdsaKey  *ecdsa.PublicKey
	hmacKey   []byte
	clockFunc func() time.Time
}

func NewValidator(cfg config.JWTConfig) (*Validator, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("jwt audience is required")
	}
	alg := strings.ToUpper(strings.TrimSpace(cfg.ValidationType))

	v := &Validator{cfg: cfg, alg: alg, clockFunc: time.Now}
	switch alg {
	case "HS256":
		if cfg.HMACSecret == "" {
			return nil, errors.New("jwt hmac secret is required for HS256")
		}
		v.hmacKey = []byte(cfg.HMACSecret)
	case "RS256", "ES256":
		pub, err := loadPublicKey(cfg)
		if err != nil {
			return nil, err
		}
		if err := v.setPublicKey(pub); err != nil {
			return nil, err
		}
	case "":
		return nil, errors.New("jwt validation type is required")
	default:
		return nil, fmt.Errorf("unsupported jwt validation type: %s", cfg.ValidationType)
	}
	return v, nil
}

func (v *Validator) setPublicKey(pub any) error {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		if v.alg != "RS256" {
			return errors.New("jwt public key is RSA but validation type is " + v.alg)
		}
		v.rsaKey = key
	case *ecdsa.PublicKey:
		if v.alg != "ES256" {
			return errors.New("jwt public key is ECDSA but validation type is " + v.alg)
		}
		v.ecdsaKey = key
	default:
		return errors.New("unsupported jwt public key type")
	}
	return nil
}

// Validate parses a compact JWT and returns its claims.
// Failures wrap ErrInvalidToken or ErrTokenExpired.
func (v *Validator) Validate(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed", ErrInvalidToken)
	}

	var header struct {
		Alg string `json:"alg"`
	}
	if err := decodeSegment(parts[0], &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidToken, err)
	}
	if !strings.EqualFold(header.Alg, v.alg) {
		return nil, fmt.Errorf("%w: unexpected alg %q", ErrInvalidToken, header.Alg)
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature encoding", ErrInvalidToken)
	}
	if err := v.verify(parts[0]+"."+parts[1], signature); err != nil {
		return nil, err
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrInvalidToken, err)
	}
	if err := v.checkClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(Claims)
	return claims, ok
}

func (v *Validator) verify(signingInput string, signature []byte) error {
	bad := fmt.Errorf("%w: signature", ErrInvalidToken)
	hash := sha256.Sum256([]byte(signingInput))
	switch v.alg {
	case "HS256":
		if !hmac.Equal(signHS256(v.hmacKey, signingInput), signature) {
			return bad
		}
	case "RS256":
		if rsa.VerifyPKCS1v15(v.rsaKey, crypto.SHA256, hash[:], signature) != nil {
			return bad
		}
	case "ES256":
		if len(signature) != 64 {
			return bad
		}
		r := new(big.Int).SetBytes(signature[:32])
		s := new(big.Int).SetBytes(signature[32:])
		if !ecdsa.Verify(v.ecdsaKey, hash[:], r, s) {
			return bad
		}
	}
	return nil
}

func (v *Validator) checkClaims(claims Claims) error {
	now := v.clockFunc().Unix()
	skew := max(v.cfg.ClockSkewSec, 0)

	if iss, _ := claims["iss"].(string); iss != v.cfg.Issuer {
		return fmt.Errorf("%w: issuer", ErrInvalidToken)
	}
	if !audienceMatches(claims["aud"], v.cfg.Audience) {
		return fmt.Errorf("%w: audience", ErrInvalidToken)
	}
	if claims.Subject() == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}

	exp, err := numericClaim(claims, "exp", true)
	if err != nil {
		return err
	}
	if now > exp+skew {
		return ErrTokenExpired
	}
	// nbf and iat are optional
	if nbf, err := numericClaim(claims, "nbf", false); err != nil {
		return err
	} else if nbf != 0 && now+skew < nbf {
		return fmt.Errorf("%w: not valid yet", ErrInvalidToken)
	}
	if iat, err := numericClaim(claims, "iat", false); err != nil {
		return err
	} else if iat > now+skew {
		return fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	}
	return nil
}

func signHS256(key []byte, signingInput string) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(signingInput))
	return mac.Sum(nil)
}

func decodeSegment(segment string, out any) error {
	payload, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

func numericClaim(claims Claims, key string, required bool) (int64, error) {
	raw, ok := claims[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("%w: claim %s is required", ErrInvalidToken, key)
		}
		return 0, nil
	}
	switch n := raw.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: claim %s", ErrInvalidToken, key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: claim %s", ErrInvalidToken, key)
	}
}

func audienceMatches(raw any, expected string) bool {
	switch aud := raw.(type) {
	case string:
		return aud == expected
	case []any:
		for _, item := range aud {
			if s, ok := item.(string); ok && s == expected {
				return true
			}
		}
	}
	return false
}

func loadPublicKey(cfg config.JWTConfig) (any, error) {
	keyPEM := strings.TrimSpace(cfg.PublicKeyPEM)
	if keyPEM == "" && cfg.PublicKeyPath != "" {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		keyPEM = string(data)
	}
	if keyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}

	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, errors.New("invalid jwt public key pem")
	}
	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		return cert.PublicKey, nil
	}
	return nil, errors.New("unsupported jwt public key format")
}
