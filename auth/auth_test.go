package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-jwt-secret"

func TestIssueAndVerifyAccessToken(t *testing.T) {
	signed, err := IssueAccessToken("gate-7", RoleScanner, secret, time.Hour)
	require.NoError(t, err)

	subject, ok := VerifyAccessToken(signed, secret, RoleScanner)
	assert.True(t, ok)
	assert.Equal(t, "gate-7", subject)
}

func TestVerifyAccessTokenRoleList(t *testing.T) {
	signed, err := IssueAccessToken("gate-7", RoleScanner, secret, time.Hour)
	require.NoError(t, err)

	_, ok := VerifyAccessToken(signed, secret, RoleAdmin)
	assert.False(t, ok)

	subject, ok := VerifyAccessToken(signed, secret, RoleAdmin, RoleScanner)
	assert.True(t, ok)
	assert.Equal(t, "gate-7", subject)
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	signed, err := IssueAccessToken("gate-7", RoleScanner, secret, time.Hour)
	require.NoError(t, err)

	_, ok := VerifyAccessToken(signed, "another-secret", RoleScanner)
	assert.False(t, ok)
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	signed, err := IssueAccessToken("gate-7", RoleScanner, secret, -time.Minute)
	require.NoError(t, err)

	_, ok := VerifyAccessToken(signed, secret, RoleScanner)
	assert.False(t, ok)
}

func TestVerifyAccessTokenGarbage(t *testing.T) {
	_, ok := VerifyAccessToken("not-a-token", secret, RoleScanner)
	assert.False(t, ok)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleScanner))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("root"))
}

func TestBearerToken(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", BearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(r))
}
