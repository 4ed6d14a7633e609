package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	cypherText, err := Encrypt(EncryptOpts{
		PlainText:  testMnemonic,
		Passphrase: "hunter2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, cypherText)
	assert.NotEqual(t, testMnemonic, cypherText)

	plainText, err := Decrypt(DecryptOpts{
		CypherText: cypherText,
		Passphrase: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, plainText)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	cypherText, err := Encrypt(EncryptOpts{
		PlainText:  testMnemonic,
		Passphrase: "hunter2",
	})
	require.NoError(t, err)

	_, err = Decrypt(DecryptOpts{
		CypherText: cypherText,
		Passphrase: "*******",
	})
	assert.Error(t, err)
}

func TestEncryptDecryptBadOpts(t *testing.T) {
	t.Run("empty plaintext", func(t *testing.T) {
		_, err := Encrypt(EncryptOpts{Passphrase: "hunter2"})
		assert.ErrorIs(t, err, ErrNullPlainText)
	})
	t.Run("empty passphrase", func(t *testing.T) {
		_, err := Encrypt(EncryptOpts{PlainText: "secret"})
		assert.ErrorIs(t, err, ErrNullPassphrase)
	})
	t.Run("malformed cyphertext", func(t *testing.T) {
		_, err := Decrypt(DecryptOpts{
			CypherText: "not base64!!",
			Passphrase: "hunter2",
		})
		assert.ErrorIs(t, err, ErrInvalidCypherText)
	})
}
