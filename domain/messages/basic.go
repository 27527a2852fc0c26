package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BasicMessage reference: https://github.com/hyperledger/aries-rfcs/tree/main/features/0095-basic-message
type BasicMessage struct {
	Header
	SentTime Time   `json:"sent_time"`
	Content  string `json:"content"`
}

func NewBasicMessage(content string) BasicMessage {
	return BasicMessage{Header: newHeader(BasicMessageTypes.Canonical), SentTime: Now(), Content: content}
}

func (BasicMessage) Kind() string { return KindBasicMessage }
func (BasicMessage) isMessage()    {}

func DecodeBasicMessage(data []byte) (Message, error) {
	return decodeAs[BasicMessage](data, BasicMessageTypes)
}

// Forward wraps a packed message for one routing hop. Msg holds the packed
// envelope as a JSON object, or as a base64 string when the payload is not JSON.
type Forward struct {
	Header
	To  string          `json:"to"`
	Msg json.RawMessage `json:"msg"`
}

func NewForward(to string, packed []byte) (Forward, error) {
	fwd := Forward{Header: newHeader(ForwardTypes.Canonical), To: to}
	if trimmed := bytes.TrimSpace(packed); len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		fwd.Msg = append(json.RawMessage(nil), packed...)
		return fwd, nil
	}

	// []byte is encoded as a base64 string
	raw, err := json.Marshal(packed)
	if err != nil {
		return Forward{}, fmt.Errorf(`encoding forwarded payload failed - %v`, err)
	}
	fwd.Msg = raw
	return fwd, nil
}

// Payload returns the forwarded packed message in the same form it was wrapped
func (f Forward) Payload() ([]byte, error) {
	if len(f.Msg) > 0 && f.Msg[0] == '"' {
		var byts []byte
		if err := json.Unmarshal(f.Msg, &byts); err != nil {
			return nil, fmt.Errorf(`decoding forwarded payload failed - %v`, err)
		}
		return byts, nil
	}
	return []byte(f.Msg), nil
}

func (Forward) Kind() string { return KindForward }
func (Forward) isMessage()    {}

func DecodeForward(data []byte) (Message, error) {
	return decodeAs[Forward](data, ForwardTypes)
}
