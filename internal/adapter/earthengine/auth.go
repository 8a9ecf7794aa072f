package earthengine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
)

// Scope is the OAuth scope the imagery platform requires.
const Scope = "https://www.googleapis.com/auth/earthengine"

// Auth modes. Service-account is the deployed path; adc picks up ambient
// default credentials for local development; emulator sends a fixed bearer
// token for use against a local fake platform.
const (
	AuthModeServiceAccount = "service-account"
	AuthModeADC            = "adc"
	AuthModeEmulator       = "emulator"
)

// Credentials resolves an OAuth2 token source for the platform. keyJSON is
// the service-account key and is ignored in adc mode.
func Credentials(ctx context.Context, mode string, keyJSON []byte) (oauth2.TokenSource, error) {
	switch mode {
	case AuthModeServiceAccount:
		jwtCfg, err := google.JWTConfigFromJSON(keyJSON, Scope)
		if err != nil {
			return nil, &domain.AuthError{Mode: mode, Err: fmt.Errorf("parse service account key: %w", err)}
		}
		return jwtCfg.TokenSource(ctx), nil
	case AuthModeADC:
		ts, err := google.DefaultTokenSource(ctx, Scope)
		if err != nil {
			return nil, &domain.AuthError{Mode: mode, Err: err}
		}
		return ts, nil
	case AuthModeEmulator:
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "emulator"}), nil
	default:
		return nil, &domain.AuthError{Mode: mode, Err: errors.New("unknown auth mode")}
	}
}

// Probe forces one token fetch so credential problems fail at startup
// instead of on the first user request.
func Probe(ts oauth2.TokenSource, mode string) error {
	tok, err := ts.Token()
	if err != nil {
		return &domain.AuthError{Mode: mode, Err: err}
	}
	if !tok.Valid() {
		return &domain.AuthError{Mode: mode, Err: errors.New("token source returned an expired token")}
	}
	return nil
}
