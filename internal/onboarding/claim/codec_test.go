package claim

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueRedeem_RoundTrip(t *testing.T) {
	c := NewCodec(testSecret, "onboarding.claim")
	tok, err := c.Issue("code-123")
	require.NoError(t, err)

	code, err := c.Redeem(tok)
	require.NoError(t, err)
	assert.Equal(t, "code-123", code)
}

func TestRedeem_ExpiredTokenFails(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued

	c := NewCodec(testSecret, "onboarding.claim", WithClock(func() time.Time { return now }))
	tok, err := c.Issue("code-123")
	require.NoError(t, err)

	// Still valid one second before the cutoff.
	now = issued.Add(DefaultMaxAge - time.Second)
	_, err = c.Redeem(tok)
	require.NoError(t, err)

	// Valid signature, too old.
	now = issued.Add(DefaultMaxAge + time.Second)
	_, err = c.Redeem(tok)
	assert.ErrorIs(t, err, ErrInvalidClaim)
}

func TestRedeem_TamperedTokenNeverLeaksCode(t *testing.T) {
	c := NewCodec(testSecret, "onboarding.claim")
	tok, err := c.Issue("code-123")
	require.NoError(t, err)

	// Flip one character at every position; no variant may redeem.
	for i := 0; i < len(tok); i++ {
		b := []byte(tok)
		b[i] = flipBase64Char(b[i])
		code, err := c.Redeem(string(b))
		assert.ErrorIs(t, err, ErrInvalidClaim, "position %d", i)
		assert.Empty(t, code, "position %d", i)
	}
}

const b64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// flipBase64Char inverts the top bit of the symbol's 6-bit value. The top
// bit is always decoded (padding discards low bits only), so the mutated
// token always differs semantically from the original. Separators become
// alphabet characters, which breaks the token structure instead.
func flipBase64Char(c byte) byte {
	idx := strings.IndexByte(b64url, c)
	if idx < 0 {
		return 'A'
	}
	return b64url[idx^32]
}

func TestRedeem_WrongPurposeFails(t *testing.T) {
	// Same secret, different purpose: a verify-email token must not open
	// the claim door.
	verify := NewCodec(testSecret, "onboarding.verify")
	claims := NewCodec(testSecret, "onboarding.claim")

	tok, err := verify.Issue("code-123")
	require.NoError(t, err)

	_, err = claims.Redeem(tok)
	assert.ErrorIs(t, err, ErrInvalidClaim)
}

func TestRedeem_GarbageFails(t *testing.T) {
	c := NewCodec(testSecret, "onboarding.claim")
	for _, tok := range []string{"", "not-a-token", strings.Repeat("x", 300)} {
		_, err := c.Redeem(tok)
		assert.ErrorIs(t, err, ErrInvalidClaim)
	}
}
