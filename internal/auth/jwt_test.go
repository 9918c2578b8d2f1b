package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier(Config{Secret: "s3cret", Issuer: "vitingo"})

	token, err := v.Issue(entity.User{ID: "u-9", Name: "Deniz", Role: " FINANS "}, time.Hour)
	require.NoError(t, err)

	user, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-9", user.ID)
	assert.Equal(t, "Deniz", user.Name)
	assert.True(t, user.HasCapability(entity.CapabilityFinanceApprove))
	assert.True(t, user.HasCapability(entity.CapabilityClosingEdit))
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(Config{Secret: "s3cret", Issuer: "vitingo"})

	expired, err := v.Issue(entity.User{ID: "u-1"}, -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewVerifier(Config{Secret: "s3cret", Issuer: "other"}).Issue(entity.User{ID: "u-1"}, time.Hour)
	require.NoError(t, err)

	wrongKey, err := NewVerifier(Config{Secret: "nope", Issuer: "vitingo"}).Issue(entity.User{ID: "u-1"}, time.Hour)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "Admin"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "abc.def.ghi", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"issuer", otherIssuer, ErrInvalidToken},
		{"signature", wrongKey, ErrInvalidToken},
		{"no user id", noUser, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifier_UnknownRole(t *testing.T) {
	v := NewVerifier(Config{Secret: "k"})
	token, err := v.Issue(entity.User{ID: "u-1", Role: "Satış"}, time.Hour)
	require.NoError(t, err)

	user, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, []entity.Capability{entity.CapabilityClosingEdit}, user.Capabilities)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.ok {
			assert.NoError(t, err, tt.header)
			assert.Equal(t, tt.want, got)
		} else {
			assert.ErrorIs(t, err, ErrMissingToken, tt.header)
		}
	}
}
