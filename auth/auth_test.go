package auth

import "testing"

func TestStaticUserInfo_ClaimsRoundTrip(t *testing.T) {
	u := &StaticUserInfo{
		Subject: "user-1",
		ClaimsMap: map[string]any{
			"sub":   "user-1",
			"email": "ada@example.com",
			"admin": true,
		},
	}
	if u.UserID() != "user-1" {
		t.Fatalf("unexpected user id: %q", u.UserID())
	}

	var claims struct {
		Email string `json:"email"`
		Admin bool   `json:"admin"`
	}
	if err := u.Claims(&claims); err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if claims.Email != "ada@example.com" || !claims.Admin {
		t.Fatalf("claims not carried: %+v", claims)
	}
}

func TestVerifierConfig_Defaults(t *testing.T) {
	cfg := VerifierConfig{Issuer: "https://issuer.example.com"}
	cfg.applyDefaults()
	if len(cfg.AllowedAlgs) != 1 || cfg.AllowedAlgs[0] != "RS256" {
		t.Fatalf("unexpected algs: %v", cfg.AllowedAlgs)
	}
	if cfg.Leeway == 0 {
		t.Fatalf("leeway default not applied")
	}
}
