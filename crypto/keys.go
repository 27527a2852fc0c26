package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"sync"

	"filippo.io/edwards25519"
	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/btcsuite/btcutil/base58"
	"github.com/tryfix/log"
)

const (
	boxNonceSize      = 24
	curve25519KeySize = 32
	didBytes          = 16
)

type keys struct {
	label    string
	did      string
	verkey   string
	pub      ed25519.PublicKey
	prv      ed25519.PrivateKey
	curvePub []byte
	curvePrv []byte
}

// KeyManager is an in-memory wallet of ed25519 key pairs addressed by their
// base58 verkeys. Encryption uses the curve25519 forms of the same keys.
type KeyManager struct {
	keyStore *sync.Map // key: verkey
	enc      services.Encryptor
	log      log.Logger
}

func NewKeyManager(logger log.Logger) *KeyManager {
	return &KeyManager{keyStore: &sync.Map{}, enc: newEncryptor(), log: logger}
}

// GenerateKeyPair creates a fresh key pair and an indy style DID derived
// from the first 16 bytes of the verkey
func (k *KeyManager) GenerateKeyPair(label string) (models.DID, error) {
	_, prvKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return models.DID{}, &domain.KeyManagementError{Op: `generate`, Err: err}
	}

	return k.store(label, prvKey)
}

// ImportSeed restores a key pair from its 32 byte ed25519 seed
func (k *KeyManager) ImportSeed(seed []byte, label string) (models.DID, error) {
	if len(seed) != ed25519.SeedSize {
		return models.DID{}, &domain.KeyManagementError{Op: `import`, Err: fmt.Errorf(`invalid seed length %d`, len(seed))}
	}

	return k.store(label, ed25519.NewKeyFromSeed(seed))
}

// Seed exports the seed of a stored key pair
func (k *KeyManager) Seed(verkey string) ([]byte, error) {
	kp, err := k.keyPair(verkey)
	if err != nil {
		return nil, &domain.KeyManagementError{Op: `export`, Err: err}
	}
	return kp.prv.Seed(), nil
}

func (k *KeyManager) store(label string, prvKey ed25519.PrivateKey) (models.DID, error) {
	pubKey := prvKey.Public().(ed25519.PublicKey)
	curvePub, err := publicKeyToCurve(pubKey)
	if err != nil {
		return models.DID{}, &domain.KeyManagementError{Op: `generate`, Err: err}
	}

	kp := &keys{
		label:    label,
		did:      base58.Encode(pubKey[:didBytes]),
		verkey:   base58.Encode(pubKey),
		pub:      pubKey,
		prv:      prvKey,
		curvePub: curvePub,
		curvePrv: privateKeyToCurve(prvKey),
	}

	k.keyStore.Store(kp.verkey, kp)
	k.log.Trace(fmt.Sprintf(`key pair stored (label: %s, verkey: %s)`, label, kp.verkey))
	return models.DID{Id: kp.did, Verkey: kp.verkey, Label: label}, nil
}

func (k *KeyManager) keyPair(verkey string) (*keys, error) {
	val, ok := k.keyStore.Load(verkey)
	if !ok {
		return nil, fmt.Errorf(`no key pair found for verkey %s`, verkey)
	}
	return val.(*keys), nil
}

func (k *KeyManager) Sign(verkey string, payload []byte) ([]byte, error) {
	kp, err := k.keyPair(verkey)
	if err != nil {
		return nil, &domain.KeyManagementError{Op: `sign`, Err: err}
	}
	return ed25519.Sign(kp.prv, payload), nil
}

// Verify returns false without an error for a well formed signature which does not match
func (k *KeyManager) Verify(payload, signature []byte, signerVerkey string) (bool, error) {
	pubKey := base58.Decode(signerVerkey)
	if len(pubKey) != ed25519.PublicKeySize {
		return false, &domain.KeyManagementError{Op: `verify`, Err: fmt.Errorf(`invalid signer verkey %s`, signerVerkey)}
	}

	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}

	return ed25519.Verify(pubKey, payload, signature), nil
}

// publicKeyToCurve converts an ed25519 public key to its birationally
// equivalent montgomery form
func publicKeyToCurve(pubKey []byte) ([]byte, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf(`invalid ed25519 public key length %d`, len(pubKey))
	}

	p, err := new(edwards25519.Point).SetBytes(pubKey)
	if err != nil {
		return nil, fmt.Errorf(`invalid ed25519 public key - %v`, err)
	}
	return p.BytesMontgomery(), nil
}

func privateKeyToCurve(prvKey ed25519.PrivateKey) []byte {
	h := sha512.Sum512(prvKey.Seed())
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	return h[:curve25519KeySize]
}
