package auth

import "context"

// Principal is the effective authorization of one request.
type Principal struct {
	UID     string `json:"uid"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
	IsBank  bool   `json:"isBank"`
	Role    string `json:"role,omitempty"`
}

// Resolve computes role membership from a claim bag and the configured allow-lists.
//
// Legacy boolean claims (admin, bank) and the string role claim are checked with
// OR semantics: tokens from either issuance path are honoured. An admin is
// always bank-authorized. The reported role prefers the explicit role claim and
// otherwise falls back to the legacy flags.
func Resolve(claims Claims, lists AllowLists) Principal {
	role := ""
	if claims.Role != nil {
		role = *claims.Role
	}
	legacyAdmin := claims.Admin != nil && *claims.Admin
	legacyBank := claims.Bank != nil && *claims.Bank

	isAdmin := legacyAdmin || role == RoleAdmin || lists.IsAdmin(claims.UID)
	isBank := legacyBank || role == RoleBank || lists.IsBank(claims.UID) || isAdmin

	if claims.Role == nil {
		switch {
		case legacyAdmin:
			role = RoleAdmin
		case legacyBank:
			role = RoleBank
		}
	}

	return Principal{
		UID:     claims.UID,
		Email:   claims.Email,
		IsAdmin: isAdmin,
		IsBank:  isBank,
		Role:    role,
	}
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached by a gate, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
