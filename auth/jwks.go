package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// VerifierConfig controls token validation for the JWKS-backed verifier.
type VerifierConfig struct {
	// Issuer is the expected token issuer. Required.
	Issuer string
	// Audience, when non-empty, is enforced against the token's aud claim.
	Audience string
	// AllowedAlgs restricts acceptable signing algorithms. Defaults to RS256.
	AllowedAlgs []string
	// Leeway is applied to time-based claims. Defaults to 60s.
	Leeway time.Duration
	// JWKSURL overrides OIDC discovery of the jwks_uri when set.
	JWKSURL string
}

func (c *VerifierConfig) applyDefaults() {
	if len(c.AllowedAlgs) == 0 {
		c.AllowedAlgs = []string{"RS256"}
	}
	if c.Leeway == 0 {
		c.Leeway = 60 * time.Second
	}
}

// Verifier validates signed bearer tokens against an auto-refreshing JWKS.
// It implements Authenticator.
type Verifier struct {
	cfg     VerifierConfig
	keyfunc jwt.Keyfunc
}

// NewVerifier constructs a Verifier. When cfg.JWKSURL is empty the jwks_uri
// is obtained via OIDC discovery against cfg.Issuer.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	cfg.applyDefaults()

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery failed: %w", err)
		}
		var meta struct {
			JwksURI string `json:"jwks_uri"`
		}
		if err := provider.Claims(&meta); err != nil {
			return nil, fmt.Errorf("invalid discovery metadata: %w", err)
		}
		if meta.JwksURI == "" {
			return nil, errors.New("discovery metadata missing jwks_uri")
		}
		jwksURL = meta.JwksURI
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return &Verifier{cfg: cfg, keyfunc: kf.Keyfunc}, nil
}

// CheckAuthentication implements Authenticator. The returned UserInfo
// exposes the token subject and raw claims.
func (v *Verifier) CheckAuthentication(ctx context.Context, tok string) (UserInfo, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithLeeway(v.cfg.Leeway),
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	parsed, err := parser.Parse(tok, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: token parse/verify failed: %v", ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims shape", ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrUnauthorized)
	}
	return &tokenUserInfo{sub: sub, claims: claims}, nil
}

type tokenUserInfo struct {
	sub    string
	claims map[string]any
}

func (u *tokenUserInfo) UserID() string { return u.sub }

func (u *tokenUserInfo) Claims(ref any) error {
	b, err := json.Marshal(u.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}
