package models

import "time"

// UnpackedMessage is the result of decrypting a packed message. SenderVerkey
// is empty when the envelope was anoncrypted.
type UnpackedMessage struct {
	Message         []byte
	SenderVerkey    string
	RecipientVerkey string
}

func (u UnpackedMessage) Anonymous() bool {
	return u.SenderVerkey == ``
}

type InboundMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// Connection is the pairwise relationship established by a successful exchange
type Connection struct {
	MyDID    string            `json:"myDid"`
	TheirDID string            `json:"theirDid"`
	Label    string            `json:"label"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (c Connection) Key() string {
	return ConnectionKey(c.MyDID, c.TheirDID)
}

func ConnectionKey(myDid, theirDid string) string {
	return myDid + `|` + theirDid
}
