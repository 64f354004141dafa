package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	lists := NewAllowLists([]string{"admin-uid"}, []string{"bank-uid"})

	tests := []struct {
		name      string
		claims    Claims
		wantAdmin bool
		wantBank  bool
		wantRole  string
	}{
		{
			name:      "legacy admin flag",
			claims:    Claims{UID: "u1", Admin: Bool(true)},
			wantAdmin: true,
			wantBank:  true,
			wantRole:  RoleAdmin,
		},
		{
			name:      "role admin",
			claims:    Claims{UID: "u1", Role: String(RoleAdmin)},
			wantAdmin: true,
			wantBank:  true,
			wantRole:  RoleAdmin,
		},
		{
			name:      "admin allow-list",
			claims:    Claims{UID: "admin-uid"},
			wantAdmin: true,
			wantBank:  true,
		},
		{
			name:     "legacy bank flag",
			claims:   Claims{UID: "u2", Bank: Bool(true)},
			wantBank: true,
			wantRole: RoleBank,
		},
		{
			name:     "role bank",
			claims:   Claims{UID: "u2", Role: String(RoleBank)},
			wantBank: true,
			wantRole: RoleBank,
		},
		{
			name:     "bank allow-list",
			claims:   Claims{UID: "bank-uid"},
			wantBank: true,
		},
		{
			name:     "client role",
			claims:   Claims{UID: "u3", Role: String(RoleClient)},
			wantRole: RoleClient,
		},
		{
			name:   "no claims",
			claims: Claims{UID: "u4"},
		},
		{
			name:   "explicit false flags",
			claims: Claims{UID: "u5", Admin: Bool(false), Bank: Bool(false)},
		},
		{
			name:      "explicit role wins over legacy flag in output",
			claims:    Claims{UID: "u6", Admin: Bool(true), Role: String(RoleBank)},
			wantAdmin: true,
			wantBank:  true,
			wantRole:  RoleBank,
		},
		{
			name:      "legacy admin and bank flags synthesize admin",
			claims:    Claims{UID: "u7", Admin: Bool(true), Bank: Bool(true)},
			wantAdmin: true,
			wantBank:  true,
			wantRole:  RoleAdmin,
		},
		{
			name:      "client role still admin via legacy flag",
			claims:    Claims{UID: "u8", Admin: Bool(true), Role: String(RoleClient)},
			wantAdmin: true,
			wantBank:  true,
			wantRole:  RoleClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.claims, lists)
			assert.Equal(t, tt.wantAdmin, got.IsAdmin, "isAdmin")
			assert.Equal(t, tt.wantBank, got.IsBank, "isBank")
			assert.Equal(t, tt.wantRole, got.Role, "role")
			assert.Equal(t, tt.claims.UID, got.UID)
		})
	}
}

func TestResolve_DoesNotMutateClaims(t *testing.T) {
	admin := true
	claims := Claims{UID: "u1", Email: "a@example.com", Admin: &admin}

	_ = Resolve(claims, AllowLists{})

	require.NotNil(t, claims.Admin)
	assert.True(t, *claims.Admin)
	assert.Nil(t, claims.Bank)
	assert.Nil(t, claims.Role)
}

func TestResolve_EmptyUIDNeverMatchesAllowList(t *testing.T) {
	lists := NewAllowLists([]string{""}, []string{""})
	got := Resolve(Claims{}, lists)
	assert.False(t, got.IsAdmin)
	assert.False(t, got.IsBank)
}

func TestParseUIDList(t *testing.T) {
	assert.Nil(t, ParseUIDList(""))
	assert.Equal(t, []string{"a", "b", "c"}, ParseUIDList(" a, b ,,c ,"))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UID: "u1", IsAdmin: true})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.UID)
	assert.True(t, p.IsAdmin)
}
