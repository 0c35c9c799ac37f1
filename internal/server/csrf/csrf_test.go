package csrf

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer(Config{Secret: []byte("test-secret-key"), TTL: 15 * time.Minute})
	require.NoError(t, err)
	return i
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer(Config{TTL: time.Minute})
	assert.Error(t, err)

	_, err = NewIssuer(Config{Secret: []byte("s")})
	assert.Error(t, err)
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	i := newTestIssuer(t)

	token, expiresIn, err := i.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(900), expiresIn)

	assert.NoError(t, i.Verify(token))

	// Каждый токен уникален
	other, _, err := i.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestIssuer_Verify_Expired(t *testing.T) {
	i := newTestIssuer(t)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	i.now = func() time.Time { return now }

	token, _, err := i.Issue()
	require.NoError(t, err)

	i.now = func() time.Time { return now.Add(16 * time.Minute) }
	assert.ErrorIs(t, i.Verify(token), ErrExpiredToken)
}

func TestIssuer_Verify_Invalid(t *testing.T) {
	i := newTestIssuer(t)

	otherIssuer, err := NewIssuer(Config{Secret: []byte("another-secret"), TTL: time.Minute})
	require.NoError(t, err)
	foreign, _, err := otherIssuer.Issue()
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "signed with another secret", token: foreign},
		{name: "unsigned", token: noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, i.Verify(tt.token), ErrInvalidToken)
		})
	}
}
