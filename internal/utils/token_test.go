package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := IssueToken("user-1", "org_admin")
	require.NoError(t, err)

	claims, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "org_admin", claims.UserType)
}

func TestParseToken_RejectsBadSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok, err := IssueToken("user-1", "candidate")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "different-secret")
	_, err = ParseToken(tok)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnauthorized))
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := IssueToken("user-1", "candidate")
	require.Error(t, err)
}
