package messages

import (
	"encoding/json"
	"fmt"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/google/uuid"
)

// Header holds the fields common to every protocol message. Kind specific
// structs embed it so that the fields are flattened on the wire.
type Header struct {
	Type   string  `json:"@type"`
	Id     string  `json:"@id"`
	Thread *Thread `json:"~thread,omitempty"`
}

// Thread reference: https://github.com/hyperledger/aries-rfcs/tree/main/concepts/0008-message-id-and-threading
type Thread struct {
	ThId           string         `json:"thid"`
	PThId          string         `json:"pthid,omitempty"`
	SenderOrder    *int           `json:"sender_order,omitempty"`
	ReceivedOrders map[string]int `json:"received_orders,omitempty"`
}

func (h Header) Head() Header { return h }

// ThreadId returns the thread id, which defaults to the message id when no
// thread decorator is present.
func (h Header) ThreadId() string {
	if h.Thread != nil && h.Thread.ThId != `` {
		return h.Thread.ThId
	}
	return h.Id
}

// Message is implemented only by the kinds declared in this package.
type Message interface {
	Head() Header
	Kind() string
	isMessage()
}

func newHeader(typ string) Header {
	return Header{Type: typ, Id: uuid.New().String()}
}

// ParseHeader decodes only the common header without touching kind specific fields.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, fmt.Errorf(`%w - %v`, domain.ErrNotAnEnvelope, err)
	}

	if h.Type == `` {
		return Header{}, fmt.Errorf(`%w - missing @type`, domain.ErrNotAnEnvelope)
	}

	if h.Id == `` {
		return Header{}, fmt.Errorf(`%w - missing @id`, domain.ErrNotAnEnvelope)
	}

	return h, nil
}

// Encode serializes the message with its canonical type
func Encode(msg Message) ([]byte, error) {
	byts, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf(`marshalling %s message failed - %v`, msg.Kind(), err)
	}
	return byts, nil
}

func decodeAs[T Message](data []byte, types TypeSet) (T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf(`unmarshalling %s failed - %w`, msg.Kind(), err)
	}

	if !types.Accepts(msg.Head().Type) {
		var empty T
		return empty, fmt.Errorf(`type '%s' is not accepted as %s`, msg.Head().Type, msg.Kind())
	}

	return msg, nil
}
