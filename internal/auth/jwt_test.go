package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	m := NewManager(testSecret, "esl-game-lab", time.Hour)

	token, err := m.Issue("teacher-42")
	require.NoError(t, err)

	subject, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher-42", subject)
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager(testSecret, "esl-game-lab", time.Hour)
	valid, err := m.Issue("teacher-42")
	require.NoError(t, err)

	expired := NewManager(testSecret, "esl-game-lab", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("teacher-42")
	require.NoError(t, err)

	otherIssuer, err := NewManager(testSecret, "someone-else", time.Hour).Issue("teacher-42")
	require.NoError(t, err)

	otherSecret, err := NewManager("ffffffffffffffffffffffffffffffff", "esl-game-lab", time.Hour).Issue("teacher-42")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "teacher-42", Issuer: "esl-game-lab"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: expiredToken},
		{name: "wrong issuer", token: otherIssuer},
		{name: "wrong secret", token: otherSecret},
		{name: "alg none", token: none},
		{name: "tampered", token: valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	_, err := NewManager(testSecret, "esl-game-lab", time.Hour).Issue("")
	assert.Error(t, err)
}
