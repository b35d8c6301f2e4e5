package middleware

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier checks ID tokens issued by an OpenID provider such as
// Firebase Auth (issuer https://securetoken.google.com/<project>).
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %s: %w", issuer, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: audience})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	var extra struct {
		Email  string `json:"email"`
		Role   string `json:"role"`
		UserID string `json:"user_id"`
	}
	if err := tok.Claims(&extra); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	claims := &Claims{UserID: extra.UserID, Email: extra.Email, Role: extra.Role}
	if claims.UserID == "" {
		claims.UserID = tok.Subject
	}
	if claims.UserID == "" {
		return nil, ErrNoUserID
	}
	return claims, nil
}
