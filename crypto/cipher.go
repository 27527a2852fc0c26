//go:build sodium

package crypto

import (
	"fmt"

	chacha "github.com/GoKillers/libsodium-go/crypto/aead/chacha20poly1305ietf"
	"github.com/GoKillers/libsodium-go/cryptobox"
	"github.com/YasiruR/didcomm-envelope/domain/services"
)

// encryptor delegates to libsodium (requires cgo and libsodium headers)
type encryptor struct{}

func newEncryptor() services.Encryptor {
	return &encryptor{}
}

func (e *encryptor) Box(payload, nonce, peerPubKey, mySecKey []byte) (encMsg []byte, err error) {
	if len(nonce) != boxNonceSize {
		return nil, fmt.Errorf(`invalid nonce length %d`, len(nonce))
	}

	encMsg, code := cryptobox.CryptoBoxEasy(payload, nonce, peerPubKey, mySecKey)
	if code != 0 {
		return nil, fmt.Errorf(`crypto box failed with exit code %d`, code)
	}
	return encMsg, nil
}

func (e *encryptor) BoxOpen(cipher, nonce, peerPubKey, mySecKey []byte) (msg []byte, err error) {
	if len(nonce) != boxNonceSize {
		return nil, fmt.Errorf(`invalid nonce length %d`, len(nonce))
	}

	msg, code := cryptobox.CryptoBoxOpenEasy(cipher, nonce, peerPubKey, mySecKey)
	if code != 0 {
		return nil, fmt.Errorf(`crypto box open failed with exit code %d`, code)
	}
	return msg, nil
}

func (e *encryptor) SealBox(payload, peerPubKey []byte) (encMsg []byte, err error) {
	encMsg, code := cryptobox.CryptoBoxSeal(payload, peerPubKey)
	if code != 0 {
		return nil, fmt.Errorf(`sealed box failed with exit code %d`, code)
	}
	return encMsg, nil
}

func (e *encryptor) SealBoxOpen(cipher, peerPubKey, mySecKey []byte) (msg []byte, err error) {
	msg, code := cryptobox.CryptoBoxSealOpen(cipher, peerPubKey, mySecKey)
	if code != 0 {
		return nil, fmt.Errorf(`sealed box open failed with exit code %d`, code)
	}
	return msg, nil
}

func (e *encryptor) EncryptDetached(msg, aad, nonce, key []byte) (cipher, mac []byte, err error) {
	if len(nonce) != chacha.NonceBytes || len(key) != chacha.KeyBytes {
		return nil, nil, fmt.Errorf(`invalid nonce or key length`)
	}

	var convertedIv [chacha.NonceBytes]byte
	copy(convertedIv[:], nonce)

	var convertedCek [chacha.KeyBytes]byte
	copy(convertedCek[:], key)

	cipher, mac = chacha.EncryptDetached(msg, aad, &convertedIv, &convertedCek)
	return cipher, mac, nil
}

func (e *encryptor) DecryptDetached(cipher, mac, aad, nonce, key []byte) (msg []byte, err error) {
	if len(nonce) != chacha.NonceBytes || len(key) != chacha.KeyBytes {
		return nil, fmt.Errorf(`invalid nonce or key length`)
	}

	var convertedIv [chacha.NonceBytes]byte
	copy(convertedIv[:], nonce)

	var convertedCek [chacha.KeyBytes]byte
	copy(convertedCek[:], key)

	msg, err = chacha.DecryptDetached(cipher, mac, aad, &convertedIv, &convertedCek)
	if err != nil {
		return nil, err
	}

	return msg, nil
}
