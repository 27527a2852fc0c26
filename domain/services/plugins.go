package services

import (
	"context"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain/models"
)

/* dependencies */

// KeyManager is the wallet capability consumed by the core. It owns all key
// material; the core only refers to keys by their verkeys.
type KeyManager interface {
	GenerateKeyPair(label string) (models.DID, error)
	// PackMessage anoncrypts when senderVerkey is empty
	PackMessage(plaintext []byte, recipientVerkeys []string, senderVerkey string) ([]byte, error)
	UnpackMessage(packed []byte) (models.UnpackedMessage, error)
	Sign(verkey string, payload []byte) ([]byte, error)
	Verify(payload, signature []byte, signerVerkey string) (bool, error)
}

// Encryptor exposes the primitives a key manager builds envelopes from. Keys
// are curve25519 keys.
type Encryptor interface {
	Box(payload, nonce, peerPubKey, mySecKey []byte) (encMsg []byte, err error)
	BoxOpen(cipher, nonce, peerPubKey, mySecKey []byte) (msg []byte, err error)
	SealBox(payload, peerPubKey []byte) (encMsg []byte, err error)
	SealBoxOpen(cipher, peerPubKey, mySecKey []byte) (msg []byte, err error)
	EncryptDetached(msg, aad, nonce, key []byte) (cipher, mac []byte, err error)
	DecryptDetached(cipher, mac, aad, nonce, key []byte) (msg []byte, err error)
}

// Mailbox is the store-and-forward relay capability
type Mailbox interface {
	// CreateMailbox returns the service endpoint which delivers into the mailbox
	CreateMailbox(ctx context.Context, id string) (endpoint string, err error)
	// WaitForMessage blocks until a message arrives, the timeout elapses
	// (domain.ErrTimeout) or the context is cancelled
	WaitForMessage(ctx context.Context, id string, timeout time.Duration) ([]byte, error)
	// Subscribe streams messages until the context is cancelled. The stream
	// can be restarted by subscribing again.
	Subscribe(ctx context.Context, id string) (<-chan models.InboundMessage, error)
	StoreMessage(ctx context.Context, id string, data []byte) error
	// Requeue returns a message taken from the mailbox but never consumed to
	// the head of the queue
	Requeue(ctx context.Context, id string, msg models.InboundMessage) error
}

type ConnectionStore interface {
	StoreConnection(ctx context.Context, conn models.Connection) error
	Connection(ctx context.Context, myDid, theirDid string) (models.Connection, error)
	UpdateMetadata(ctx context.Context, myDid, theirDid string, metadata map[string]string) (models.Connection, error)
}

type DIDDocStore interface {
	StoreDIDDoc(ctx context.Context, did string, doc models.DIDDoc) error
	DIDDoc(ctx context.Context, did string) (models.DIDDoc, error)
}
