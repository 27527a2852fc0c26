//go:build !sodium

package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/YasiruR/didcomm-envelope/domain/services"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"
)

// encryptor implements the primitives in pure go. Build with the 'sodium'
// tag to use libsodium instead.
type encryptor struct{}

func newEncryptor() services.Encryptor {
	return &encryptor{}
}

func (e *encryptor) Box(payload, nonce, peerPubKey, mySecKey []byte) (encMsg []byte, err error) {
	pub, sec, n, err := boxParams(peerPubKey, mySecKey, nonce)
	if err != nil {
		return nil, err
	}

	return box.Seal(nil, payload, n, pub, sec), nil
}

func (e *encryptor) BoxOpen(cipher, nonce, peerPubKey, mySecKey []byte) (msg []byte, err error) {
	pub, sec, n, err := boxParams(peerPubKey, mySecKey, nonce)
	if err != nil {
		return nil, err
	}

	msg, ok := box.Open(nil, cipher, n, pub, sec)
	if !ok {
		return nil, fmt.Errorf(`crypto box authentication failed`)
	}
	return msg, nil
}

func (e *encryptor) SealBox(payload, peerPubKey []byte) (encMsg []byte, err error) {
	if len(peerPubKey) != curve25519KeySize {
		return nil, fmt.Errorf(`invalid public key length %d`, len(peerPubKey))
	}

	var pub [curve25519KeySize]byte
	copy(pub[:], peerPubKey)
	return box.SealAnonymous(nil, payload, &pub, rand.Reader)
}

func (e *encryptor) SealBoxOpen(cipher, peerPubKey, mySecKey []byte) (msg []byte, err error) {
	if len(peerPubKey) != curve25519KeySize || len(mySecKey) != curve25519KeySize {
		return nil, fmt.Errorf(`invalid key length`)
	}

	var pub, sec [curve25519KeySize]byte
	copy(pub[:], peerPubKey)
	copy(sec[:], mySecKey)

	msg, ok := box.OpenAnonymous(nil, cipher, &pub, &sec)
	if !ok {
		return nil, fmt.Errorf(`sealed box authentication failed`)
	}
	return msg, nil
}

func (e *encryptor) EncryptDetached(msg, aad, nonce, key []byte) (cipher, mac []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, fmt.Errorf(`initializing chacha20poly1305 failed - %v`, err)
	}

	if len(nonce) != aead.NonceSize() {
		return nil, nil, fmt.Errorf(`invalid nonce length %d`, len(nonce))
	}

	sealed := aead.Seal(nil, nonce, msg, aad)
	tagStart := len(sealed) - aead.Overhead()
	return sealed[:tagStart], sealed[tagStart:], nil
}

func (e *encryptor) DecryptDetached(cipher, mac, aad, nonce, key []byte) (msg []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf(`initializing chacha20poly1305 failed - %v`, err)
	}

	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf(`invalid nonce length %d`, len(nonce))
	}

	sealed := make([]byte, 0, len(cipher)+len(mac))
	sealed = append(sealed, cipher...)
	sealed = append(sealed, mac...)
	return aead.Open(nil, nonce, sealed, aad)
}

func boxParams(peerPubKey, mySecKey, nonce []byte) (pub, sec *[curve25519KeySize]byte, n *[boxNonceSize]byte, err error) {
	if len(peerPubKey) != curve25519KeySize || len(mySecKey) != curve25519KeySize {
		return nil, nil, nil, fmt.Errorf(`invalid key length`)
	}

	if len(nonce) != boxNonceSize {
		return nil, nil, nil, fmt.Errorf(`invalid nonce length %d`, len(nonce))
	}

	pub, sec, n = new([curve25519KeySize]byte), new([curve25519KeySize]byte), new([boxNonceSize]byte)
	copy(pub[:], peerPubKey)
	copy(sec[:], mySecKey)
	copy(n[:], nonce)
	return pub, sec, n, nil
}
