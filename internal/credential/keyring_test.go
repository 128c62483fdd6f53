package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := opener
	opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { opener = prev })
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	require.NoError(t, Set(SessionTokenKey, "tok-1"))
	got, err := Get(SessionTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, Delete(SessionTokenKey))
	_, err = Get(SessionTokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, Delete(SessionTokenKey), "deleting twice is fine")
}

func TestSessionTokenPrefersEnv(t *testing.T) {
	useArrayKeyring(t)
	require.NoError(t, Set(SessionTokenKey, "stored"))

	tok, err := SessionToken("from-env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)

	tok, err = SessionToken("")
	require.NoError(t, err)
	assert.Equal(t, "stored", tok)
}

func TestSessionTokenMissing(t *testing.T) {
	useArrayKeyring(t)

	tok, err := SessionToken("")
	require.NoError(t, err)
	assert.Empty(t, tok)
}
