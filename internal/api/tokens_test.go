package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back-sos/sos-bdd/pkg/store"
)

func TestTokenRoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer(nil, nil)
	require.NoError(t, err)

	token, err := ti.Issue("aluno-1")
	require.NoError(t, err)

	sub, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "aluno-1", sub)
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	a, err := NewTokenIssuer([]byte("a"), nil)
	require.NoError(t, err)
	b, err := NewTokenIssuer([]byte("b"), nil)
	require.NoError(t, err)

	token, err := a.Issue("aluno-1")
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.Error(t, err)
}

func TestTokenExpiresWithSimulatedClock(t *testing.T) {
	clk := store.NewClock()
	ti, err := NewTokenIssuer([]byte("k"), clk.Now)
	require.NoError(t, err)

	token, err := ti.Issue("aluno-1")
	require.NoError(t, err)

	clk.Advance(tokenTTL + time.Minute)
	_, err = ti.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenWithoutSubjectRejected(t *testing.T) {
	ti, err := NewTokenIssuer([]byte("k"), nil)
	require.NoError(t, err)

	token, err := ti.Issue("")
	require.NoError(t, err)
	_, err = ti.Verify(token)
	assert.Error(t, err)
}

func TestTokenAlgNoneRejected(t *testing.T) {
	ti, err := NewTokenIssuer([]byte("k"), nil)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:  tokenIssuer,
		Subject: "aluno-1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ti.Verify(unsigned)
	assert.Error(t, err)
}
