package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "very-secret-secret"

func TestHashPassword(t *testing.T) {
	hash, err := HashPasswordWithCost("cheetohDeadbolt123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "cheetohDeadbolt123", hash)

	assert.True(t, CheckPassword("cheetohDeadbolt123", hash))
	assert.False(t, CheckPassword("cheetohDeadbolt124", hash))
	assert.False(t, CheckPassword("cheetohDeadbolt123", "not-a-bcrypt-hash"))
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	first, err := HashPasswordWithCost("same-password", 4)
	require.NoError(t, err)
	second, err := HashPasswordWithCost("same-password", 4)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, "", 0)
	assert.Equal(t, DefaultTokenTTL, m.TTL())

	token, err := m.Issue(42, "user", "alice")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager(testSecret, "", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue(1, "user", "bob")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager(testSecret, "", 0).Issue(1, "user", "bob")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret", "", 0).Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := NewTokenManager(testSecret, "someone-else", 0).Issue(1, "user", "bob")
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "", 0).Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "", 0).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager(testSecret, "", 0).Parse("not.a.token")
	assert.Error(t, err)
}

func TestMissingSecret(t *testing.T) {
	m := NewTokenManager("", "", 0)

	_, err := m.Issue(1, "user", "bob")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = m.Parse("whatever")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestGetBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", wantToken: "abc"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "ApiKey abc", wantErr: true},
		{name: "scheme only", header: "Bearer", wantErr: true},
		{name: "blank token", header: "Bearer   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set("Authorization", tt.header)
			}
			token, err := GetBearerToken(headers)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingBearer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}
