package services

import (
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
)

/* core services */

// Packer turns plaintext into packed messages and back. An empty senderKey
// results in anoncrypt.
type Packer interface {
	Pack(plaintext []byte, recipientKeys []string, senderKey string) ([]byte, error)
	Unpack(packed []byte) (models.UnpackedMessage, error)
}

type Decoder interface {
	ResolveAndDecode(raw []byte) (messages.Message, error)
}

type RoutingEncryptor interface {
	Encrypt(message []byte, to string, routingKeys []string) ([]byte, error)
}

type DIDUtils interface {
	CreateDIDDoc(did models.DID, endpoint string) models.DIDDoc
	ResolveDestination(doc models.DIDDoc) (models.Destination, error)
}

type OutOfBand interface {
	Create(label string, did models.DID, endpoint string, routingKeys []string) messages.Invitation
	Encode(inv messages.Invitation) (url string, err error)
	Parse(rawUrl string) (messages.Invitation, error)
}

type Discoverer interface {
	Disclose(q messages.Query) messages.Disclose
}
