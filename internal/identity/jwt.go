package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vanshika/remitdesk/internal/auth"
)

// ErrNoKeySource indicates neither a shared secret nor a certificate URL was configured.
var ErrNoKeySource = errors.New("identity: either a shared secret or a certificate URL is required")

// Options configures a JWTVerifier.
type Options struct {
	// Secret enables HS256 verification with a shared key.
	Secret string
	// CertsURL enables RS256 verification against a JSON map of key id to PEM certificate.
	CertsURL string
	Issuer   string
	Audience string
	Leeway   time.Duration

	HTTPClient *http.Client
	Now        func() time.Time
}

// JWTVerifier verifies identity-provider bearer tokens and extracts the claim bag.
type JWTVerifier struct {
	secret   []byte
	certs    *certSource
	issuer   string
	audience string
	leeway   time.Duration
	nowFn    func() time.Time
}

var _ auth.TokenVerifier = (*JWTVerifier)(nil)

// NewJWTVerifier builds a verifier from opts. When both key sources are set,
// the token's alg header picks which one applies.
func NewJWTVerifier(opts Options) (*JWTVerifier, error) {
	if opts.Secret == "" && opts.CertsURL == "" {
		return nil, ErrNoKeySource
	}

	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	v := &JWTVerifier{
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
		nowFn:    nowFn,
	}
	if opts.Secret != "" {
		v.secret = []byte(opts.Secret)
	}
	if opts.CertsURL != "" {
		client := opts.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: 10 * time.Second}
		}
		v.certs = newCertSource(opts.CertsURL, client, nowFn)
	}
	return v, nil
}

type tokenClaims struct {
	UserID string  `json:"user_id,omitempty"`
	Email  string  `json:"email,omitempty"`
	Admin  *bool   `json:"admin,omitempty"`
	Bank   *bool   `json:"bank,omitempty"`
	Role   *string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// VerifyToken checks the signature, expiry, issuer and audience of token.
func (v *JWTVerifier) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	parser := jwt.NewParser(v.parserOptions()...)

	var claims tokenClaims
	if _, err := parser.ParseWithClaims(token, &claims, v.keyFunc(ctx)); err != nil {
		return auth.Claims{}, fmt.Errorf("verify token: %w", err)
	}

	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return auth.Claims{}, errors.New("verify token: token carries no subject")
	}

	return auth.Claims{
		UID:   uid,
		Email: claims.Email,
		Admin: claims.Admin,
		Bank:  claims.Bank,
		Role:  claims.Role,
	}, nil
}

func (v *JWTVerifier) parserOptions() []jwt.ParserOption {
	var methods []string
	if v.secret != nil {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if v.certs != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.nowFn),
	}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	return opts
}

func (v *JWTVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.secret == nil {
				return nil, errors.New("hmac tokens are not accepted")
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.certs == nil {
				return nil, errors.New("rsa tokens are not accepted")
			}
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token header has no kid")
			}
			return v.certs.key(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
	}
}
