package auth_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/remitdesk/internal/auth"
	mock_auth "github.com/vanshika/remitdesk/internal/auth/mocks"
)

func newGate(t *testing.T, verifier auth.TokenVerifier, lists auth.AllowLists) *auth.Gate {
	t.Helper()
	return auth.NewGate(verifier, lists, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// capture records whether the protected handler ran and which principal it saw.
type capture struct {
	called    bool
	principal auth.Principal
}

func (c *capture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.principal, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestGate_StatusMatrix(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		claims     auth.Claims
		verifyErr  error
		expectCall bool
		wantAdmin  int
		wantBank   int
	}{
		{
			name:      "missing header",
			header:    "",
			wantAdmin: http.StatusUnauthorized,
			wantBank:  http.StatusUnauthorized,
		},
		{
			name:      "wrong scheme",
			header:    "Basic abc",
			wantAdmin: http.StatusUnauthorized,
			wantBank:  http.StatusUnauthorized,
		},
		{
			name:      "empty bearer",
			header:    "Bearer ",
			wantAdmin: http.StatusUnauthorized,
			wantBank:  http.StatusUnauthorized,
		},
		{
			name:       "verification failure",
			header:     "Bearer bad-token",
			verifyErr:  errors.New("signature mismatch"),
			expectCall: true,
			wantAdmin:  http.StatusUnauthorized,
			wantBank:   http.StatusUnauthorized,
		},
		{
			name:       "neither admin nor bank",
			header:     "Bearer client-token",
			claims:     auth.Claims{UID: "client", Role: auth.String(auth.RoleClient)},
			expectCall: true,
			wantAdmin:  http.StatusForbidden,
			wantBank:   http.StatusForbidden,
		},
		{
			name:       "bank only",
			header:     "Bearer bank-token",
			claims:     auth.Claims{UID: "auditor", Bank: auth.Bool(true)},
			expectCall: true,
			wantAdmin:  http.StatusForbidden,
			wantBank:   http.StatusNoContent,
		},
		{
			name:       "admin passes both",
			header:     "Bearer admin-token",
			claims:     auth.Claims{UID: "root", Admin: auth.Bool(true)},
			expectCall: true,
			wantAdmin:  http.StatusNoContent,
			wantBank:   http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			verifier := mock_auth.NewMockTokenVerifier(ctrl)
			if tt.expectCall {
				verifier.EXPECT().
					VerifyToken(gomock.Any(), gomock.Any()).
					Return(tt.claims, tt.verifyErr).
					Times(2)
			}
			gate := newGate(t, verifier, auth.AllowLists{})

			for _, variant := range []struct {
				name string
				wrap func(http.Handler) http.Handler
				want int
			}{
				{name: "admin", wrap: gate.RequireAdmin, want: tt.wantAdmin},
				{name: "bank", wrap: gate.RequireBank, want: tt.wantBank},
			} {
				c := &capture{}
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
				rec := httptest.NewRecorder()

				variant.wrap(c.handler()).ServeHTTP(rec, req)

				assert.Equal(t, variant.want, rec.Code, "%s gate", variant.name)
				assert.Equal(t, variant.want == http.StatusNoContent, c.called, "%s gate handler call", variant.name)
			}
		})
	}
}

func TestGate_AttachesPrincipal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verifier := mock_auth.NewMockTokenVerifier(ctrl)
	verifier.EXPECT().
		VerifyToken(gomock.Any(), "listed-token").
		Return(auth.Claims{UID: "listed", Email: "ops@example.com"}, nil)

	gate := newGate(t, verifier, auth.NewAllowLists(nil, []string{"listed"}))

	c := &capture{}
	req := httptest.NewRequest(http.MethodGet, "/bank/transactions", nil)
	req.Header.Set("Authorization", "Bearer listed-token")
	rec := httptest.NewRecorder()

	gate.RequireBank(c.handler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, c.called)
	assert.Equal(t, auth.Principal{UID: "listed", Email: "ops@example.com", IsBank: true}, c.principal)
}

func TestGate_AdminAllowListPassesBankGate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verifier := mock_auth.NewMockTokenVerifier(ctrl)
	verifier.EXPECT().VerifyToken(gomock.Any(), "tok").Return(auth.Claims{UID: "boss"}, nil)

	gate := newGate(t, verifier, auth.NewAllowLists([]string{"boss"}, nil))

	c := &capture{}
	req := httptest.NewRequest(http.MethodGet, "/bank/transactions", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	gate.RequireBank(c.handler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, c.principal.IsAdmin)
	assert.True(t, c.principal.IsBank)
}

func TestBearerToken(t *testing.T) {
	token, err := auth.BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Bearer", "bearer abc", "Bearer a b", "Token abc"} {
		_, err := auth.BearerToken(header)
		assert.ErrorIs(t, err, auth.ErrUnauthorized, "header %q", header)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: signature mismatch", auth.ErrInvalidToken), http.StatusUnauthorized},
		{fmt.Errorf("%w: uid %q", auth.ErrForbidden, "client"), http.StatusForbidden},
		{errors.New("anything else"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, auth.StatusCode(tt.err), tt.err.Error())
	}
}

func TestGate_ForbiddenBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mock_auth.NewMockTokenVerifier(ctrl)
	verifier.EXPECT().VerifyToken(gomock.Any(), "client-token").
		Return(auth.Claims{UID: "client", Role: auth.String(auth.RoleClient)}, nil)

	var c capture
	gate := newGate(t, verifier, auth.AllowLists{})
	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("Authorization", "Bearer client-token")
	rec := httptest.NewRecorder()
	gate.RequireAdmin(c.handler()).ServeHTTP(rec, req)

	assert.False(t, c.called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden: Admin access required"}`, rec.Body.String())
}
