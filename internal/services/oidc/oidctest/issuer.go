// Package oidctest runs an in-process token issuer for tests
package oidctest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const keyID = "test-key"

// Issuer signs ID tokens and serves the matching key set
type Issuer struct {
	Server   *httptest.Server
	Issuer   string
	Audience string
	key      jwk.Key
}

// Claims are the identity claims placed in a token
type Claims struct {
	Subject string
	Email   string
	Name    string
	// TTL defaults to one hour; negative values produce an expired token
	TTL time.Duration
}

// NewIssuer starts an issuer whose JWKS is served at JWKSURL(). It is closed with the test.
func NewIssuer(t *testing.T) *Issuer {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	key, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to build jwk: %v", err)
	}
	_ = key.Set(jwk.KeyIDKey, keyID)
	_ = key.Set(jwk.AlgorithmKey, jwa.RS256)

	pub, err := key.PublicKey()
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	_ = pub.Set(jwk.KeyIDKey, keyID)
	_ = pub.Set(jwk.AlgorithmKey, jwa.RS256)
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatalf("failed to build key set: %v", err)
	}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to marshal key set: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	return &Issuer{
		Server:   server,
		Issuer:   server.URL,
		Audience: "test-client",
		key:      key,
	}
}

// JWKSURL is where the public key set is served
func (i *Issuer) JWKSURL() string {
	return i.Server.URL + "/.well-known/jwks.json"
}

// Sign returns a signed ID token for the claims
func (i *Issuer) Sign(t *testing.T, claims Claims) string {
	t.Helper()

	ttl := claims.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now()
	issuedAt := now
	if ttl < 0 {
		issuedAt = now.Add(2 * ttl)
	}

	builder := jwt.NewBuilder().
		Issuer(i.Issuer).
		Subject(claims.Subject).
		Audience([]string{i.Audience}).
		IssuedAt(issuedAt).
		Expiration(now.Add(ttl))
	if claims.Email != "" {
		builder = builder.Claim("email", claims.Email)
	}
	if claims.Name != "" {
		builder = builder.Claim("name", claims.Name)
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, i.key))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}
