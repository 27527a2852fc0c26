package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	km := newTestKM(t)
	did, err := km.GenerateKeyPair(`alice`)
	require.NoError(t, err)

	pub := base58.Decode(did.Verkey)
	require.Len(t, pub, ed25519.PublicKeySize)
	require.Equal(t, base58.Encode(pub[:didBytes]), did.Id)
	require.Equal(t, `alice`, did.Label)

	other, err := km.GenerateKeyPair(`alice`)
	require.NoError(t, err)
	require.NotEqual(t, did.Verkey, other.Verkey)
}

func TestImportSeed(t *testing.T) {
	km := newTestKM(t)
	did, err := km.GenerateKeyPair(`alice`)
	require.NoError(t, err)

	seed, err := km.Seed(did.Verkey)
	require.NoError(t, err)

	restored := newTestKM(t)
	again, err := restored.ImportSeed(seed, `alice`)
	require.NoError(t, err)
	require.Equal(t, did, again)

	_, err = restored.ImportSeed([]byte(`short`), `x`)
	require.ErrorIs(t, err, domain.ErrKeyManagement)
}

func TestSignVerify(t *testing.T) {
	km := newTestKM(t)
	did, err := km.GenerateKeyPair(`signer`)
	require.NoError(t, err)

	data := []byte(`signed data`)
	sig, err := km.Sign(did.Verkey, data)
	require.NoError(t, err)

	// verification does not require the private key
	ok, err := newTestKM(t).Verify(data, sig, did.Verkey)
	require.NoError(t, err)
	require.True(t, ok)

	sig[3] ^= 0x01
	ok, err = km.Verify(data, sig, did.Verkey)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = km.Verify(data, sig[:10], did.Verkey)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = km.Verify(data, sig, `bad`)
	require.ErrorIs(t, err, domain.ErrKeyManagement)

	_, err = km.Sign(`unknown`, data)
	require.ErrorIs(t, err, domain.ErrKeyManagement)
}

func TestCurveConversion(t *testing.T) {
	pub, prv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	curvePub, err := publicKeyToCurve(pub)
	require.NoError(t, err)
	require.Len(t, curvePub, curve25519KeySize)

	// both conversions must describe the same curve25519 key pair
	enc := newEncryptor()
	sealed, err := enc.SealBox([]byte(`ping`), curvePub)
	require.NoError(t, err)
	msg, err := enc.SealBoxOpen(sealed, curvePub, privateKeyToCurve(prv))
	require.NoError(t, err)
	require.Equal(t, `ping`, string(msg))

	_, err = publicKeyToCurve([]byte{1, 2, 3})
	require.Error(t, err)
}
