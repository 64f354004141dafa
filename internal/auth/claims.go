package auth

import (
	"context"
	"errors"
	"strings"
)

// Role names carried by the string role claim.
const (
	RoleAdmin  = "admin"
	RoleBank   = "bank"
	RoleClient = "client"
)

var (
	// ErrUnauthorized means the request carried no usable bearer credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken means the credential was present but could not be verified.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden means the verified identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// Claims is the verified claim bag of an identity token. Optional claims are
// pointers so that "absent" and "false" stay distinguishable.
type Claims struct {
	UID   string
	Email string
	Admin *bool
	Bank  *bool
	Role  *string
}

// TokenVerifier verifies a bearer token with the identity provider.
//
//go:generate mockgen -destination=mocks/mock_verifier.go -package=mock_auth -source=claims.go TokenVerifier
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (Claims, error)
}

// AllowLists holds the statically configured UIDs granted a role regardless of
// their claims. The zero value grants nothing.
type AllowLists struct {
	admin map[string]struct{}
	bank  map[string]struct{}
}

// NewAllowLists builds immutable allow-lists from UID slices.
func NewAllowLists(adminUIDs, bankUIDs []string) AllowLists {
	return AllowLists{
		admin: toSet(adminUIDs),
		bank:  toSet(bankUIDs),
	}
}

// IsAdmin reports whether uid is on the admin allow-list.
func (l AllowLists) IsAdmin(uid string) bool {
	_, ok := l.admin[uid]
	return ok && uid != ""
}

// IsBank reports whether uid is on the bank allow-list.
func (l AllowLists) IsBank(uid string) bool {
	_, ok := l.bank[uid]
	return ok && uid != ""
}

// ParseUIDList splits a comma-separated UID list, trimming entries and dropping blanks.
func ParseUIDList(csv string) []string {
	if csv == "" {
		return nil
	}
	var uids []string
	for _, part := range strings.Split(csv, ",") {
		uid := strings.TrimSpace(part)
		if uid == "" {
			continue
		}
		uids = append(uids, uid)
	}
	return uids
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// Bool returns a pointer to a literal boolean claim value.
func Bool(v bool) *bool { return &v }

// String returns a pointer to a literal string claim value.
func String(v string) *string { return &v }
