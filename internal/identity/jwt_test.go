package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func baseClaims() tokenClaims {
	return tokenClaims{
		Email: "ops@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-123",
			Issuer:    "https://issuer.example.com",
			Audience:  jwt.ClaimStrings{"remitdesk"},
			IssuedAt:  jwt.NewNumericDate(fixedNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
	}
}

func signHS256(t *testing.T, claims tokenClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_HS256(t *testing.T) {
	v, err := NewJWTVerifier(Options{
		Secret:   "s3cret",
		Issuer:   "https://issuer.example.com",
		Audience: "remitdesk",
		Now:      fixedClock,
	})
	require.NoError(t, err)

	claims := baseClaims()
	admin := true
	role := "bank"
	claims.Admin = &admin
	claims.Role = &role

	got, err := v.VerifyToken(context.Background(), signHS256(t, claims, "s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "uid-123", got.UID)
	assert.Equal(t, "ops@example.com", got.Email)
	require.NotNil(t, got.Admin)
	assert.True(t, *got.Admin)
	assert.Nil(t, got.Bank)
	require.NotNil(t, got.Role)
	assert.Equal(t, "bank", *got.Role)
}

func TestJWTVerifier_PrefersUserIDOverSubject(t *testing.T) {
	v, err := NewJWTVerifier(Options{Secret: "k", Now: fixedClock})
	require.NoError(t, err)

	claims := baseClaims()
	claims.UserID = "firebase-uid"

	got, err := v.VerifyToken(context.Background(), signHS256(t, claims, "k"))
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", got.UID)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier(Options{
		Secret:   "s3cret",
		Issuer:   "https://issuer.example.com",
		Audience: "remitdesk",
		Now:      fixedClock,
	})
	require.NoError(t, err)

	expired := baseClaims()
	expired.ExpiresAt = jwt.NewNumericDate(fixedNow.Add(-time.Second))

	wrongIssuer := baseClaims()
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := baseClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noExpiry := baseClaims()
	noExpiry.ExpiresAt = nil

	noSubject := baseClaims()
	noSubject.Subject = ""

	tests := map[string]string{
		"garbage":        "not-a-jwt",
		"wrong secret":   signHS256(t, baseClaims(), "other"),
		"expired":        signHS256(t, expired, "s3cret"),
		"wrong issuer":   signHS256(t, wrongIssuer, "s3cret"),
		"wrong audience": signHS256(t, wrongAudience, "s3cret"),
		"no expiry":      signHS256(t, noExpiry, "s3cret"),
		"no subject":     signHS256(t, noSubject, "s3cret"),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(context.Background(), token)
			assert.Error(t, err)
		})
	}
}

func TestNewJWTVerifier_RequiresKeySource(t *testing.T) {
	_, err := NewJWTVerifier(Options{})
	assert.ErrorIs(t, err, ErrNoKeySource)
}

type rsaFixture struct {
	key     *rsa.PrivateKey
	certPEM string
}

func newRSAFixture(t *testing.T) rsaFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken"},
		NotBefore:    fixedNow.Add(-24 * time.Hour),
		NotAfter:     fixedNow.Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return rsaFixture{key: key, certPEM: string(block)}
}

func (f rsaFixture) sign(t *testing.T, kid string, claims tokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier_RS256WithCachedCertificates(t *testing.T) {
	fixture := newRSAFixture(t)

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
		_ = json.NewEncoder(w).Encode(map[string]string{"k1": fixture.certPEM})
	}))
	defer srv.Close()

	now := fixedNow
	v, err := NewJWTVerifier(Options{
		CertsURL:   srv.URL,
		HTTPClient: srv.Client(),
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	claims := baseClaims()
	claims.ExpiresAt = jwt.NewNumericDate(fixedNow.Add(2 * time.Hour))
	token := fixture.sign(t, "k1", claims)

	for i := 0; i < 3; i++ {
		got, err := v.VerifyToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "uid-123", got.UID)
	}
	assert.Equal(t, int32(1), fetches.Load())

	now = fixedNow.Add(11 * time.Minute)
	_, err = v.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())

	_, err = v.VerifyToken(context.Background(), fixture.sign(t, "unknown", claims))
	assert.Error(t, err)
}

func TestJWTVerifier_RejectsHMACWhenOnlyCertsConfigured(t *testing.T) {
	v, err := NewJWTVerifier(Options{CertsURL: "http://127.0.0.1:0/unused", Now: fixedClock})
	require.NoError(t, err)

	_, err = v.VerifyToken(context.Background(), signHS256(t, baseClaims(), "s3cret"))
	assert.Error(t, err)
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 600*time.Second, maxAge("public, max-age=600"))
	assert.Equal(t, defaultCertTTL, maxAge("no-cache"))
	assert.Equal(t, defaultCertTTL, maxAge("max-age=abc"))
	assert.Equal(t, defaultCertTTL, maxAge(""))
}
