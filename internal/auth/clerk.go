package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKeyUserID struct{}
type ctxKeyClaims struct{}

// TokenClaims carries the profile fields Clerk embeds in its session
// tokens. Used for first-request profile provisioning.
type TokenClaims struct {
	Subject  string
	Email    string
	Username string
	Avatar   string
}

// ClerkVerifier validates Clerk session JWTs (RS256) against the
// instance JWKS endpoint and stashes the subject id on the request
// context.
type ClerkVerifier struct {
	JWKSURL  string
	Issuer   string
	Audience string

	cache jwksCache
}

func (v *ClerkVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected method: %v", token.Header["alg"])
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token missing kid")
	}
	if k, ok := v.cache.get(kid); ok {
		return k, nil
	}
	set, err := fetchJWKS(v.JWKSURL)
	if err != nil {
		return nil, err
	}
	for _, j := range set.Keys {
		if j.Kid == kid {
			k, err := decodeJWKToRSA(j)
			if err != nil {
				return nil, err
			}
			v.cache.set(kid, k)
			return k, nil
		}
	}
	return nil, errors.New("no verification key for kid")
}

// Verify parses and validates a raw token, returning its claims.
func (v *ClerkVerifier) Verify(tok string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithIssuer(v.Issuer), jwt.WithValidMethods([]string{"RS256"})}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	parsed, err := jwt.Parse(tok, v.keyFunc, opts...)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	tc := &TokenClaims{}
	tc.Subject, _ = claims["sub"].(string)
	if tc.Subject == "" {
		return nil, errors.New("token missing sub")
	}
	tc.Email, _ = claims["email"].(string)
	tc.Username, _ = claims["username"].(string)
	tc.Avatar, _ = claims["image_url"].(string)
	return tc, nil
}

func (v *ClerkVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tok string
		authz := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			tok = strings.TrimSpace(authz[len("bearer "):])
		} else if cookie, err := r.Cookie("__session"); err == nil {
			// Clerk's browser session cookie.
			tok = cookie.Value
		}
		if tok == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		claims, err := v.Verify(tok)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID{}, claims.Subject)
		ctx = context.WithValue(ctx, ctxKeyClaims{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated subject id, or "" when the request
// was not authenticated.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID{}).(string); ok {
		return v
	}
	return ""
}

// Claims returns the full token claims when present.
func Claims(ctx context.Context) *TokenClaims {
	if v, ok := ctx.Value(ctxKeyClaims{}).(*TokenClaims); ok {
		return v
	}
	return nil
}

// WithUser injects an authenticated subject into ctx. Test hook.
func WithUser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, id)
}
