package secrets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundtrip(t *testing.T) {
	plaintext := []byte("the inventory archive")

	sealed, err := Seal(plaintext, "correct horse")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.False(t, bytes.Contains(sealed, plaintext), "payload must not appear in the sealed bytes")

	out, err := Open(sealed, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "right")
	require.NoError(t, err)

	_, err = Open(sealed, "wrong")
	assert.ErrorIs(t, err, ErrBadPassphrase)
}

func TestOpenTamperedPayload(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "pw")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = Open(sealed, "pw")
	assert.ErrorIs(t, err, ErrBadPassphrase)
}

func TestOpenNotSealed(t *testing.T) {
	_, err := Open([]byte("PK\x03\x04 plain zip bytes"), "pw")
	assert.ErrorIs(t, err, ErrBadFormat)

	_, err = Open(nil, "pw")
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestSealUniquePerCall(t *testing.T) {
	a, err := Seal([]byte("same"), "pw")
	require.NoError(t, err)
	b, err := Seal([]byte("same"), "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt and nonce every call")
}
