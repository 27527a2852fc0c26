package messages

import (
	"github.com/YasiruR/didcomm-envelope/domain/models"
)

// Invitation reference: https://github.com/hyperledger/aries-rfcs/tree/main/features/0160-connection-protocol#0-invitation-to-connect
type Invitation struct {
	Header
	Label           string   `json:"label"`
	DID             string   `json:"did,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ImageUrl        string   `json:"imageUrl,omitempty"`
}

func NewInvitation(label string) Invitation {
	return Invitation{Header: newHeader(InvitationTypes.Canonical), Label: label}
}

func (Invitation) Kind() string { return KindInvitation }
func (Invitation) isMessage()    {}

// Connection carries the proposed DID and DID doc of one side of an exchange
type Connection struct {
	DID    string        `json:"DID"`
	DIDDoc models.DIDDoc `json:"DIDDoc"`
}

// ExchangeRequest reference: https://github.com/hyperledger/aries-rfcs/tree/main/features/0023-did-exchange#request-message-example
type ExchangeRequest struct {
	Header
	Label      string     `json:"label"`
	Connection Connection `json:"connection"`
}

// NewExchangeRequest threads the request under the invitation as the parent thread
func NewExchangeRequest(label, invId string, conn Connection) ExchangeRequest {
	h := newHeader(ExchangeRequestTypes.Canonical)
	h.Thread = &Thread{ThId: h.Id, PThId: invId}
	return ExchangeRequest{Header: h, Label: label, Connection: conn}
}

func (ExchangeRequest) Kind() string { return KindExchangeRequest }
func (ExchangeRequest) isMessage()    {}

// ExchangeResponse is the unsigned response whose canonical bytes are signed
// into a SignedExchangeResponse.
type ExchangeResponse struct {
	Header
	Connection Connection `json:"connection"`
}

// NewExchangeResponse must be threaded with the id of the corresponding request
func NewExchangeResponse(reqId string, conn Connection) ExchangeResponse {
	h := newHeader(ExchangeResponseTypes.Canonical)
	h.Thread = &Thread{ThId: reqId}
	return ExchangeResponse{Header: h, Connection: conn}
}

func (ExchangeResponse) Kind() string { return KindExchangeResponse }
func (ExchangeResponse) isMessage()    {}

// ConnectionSignature reference: https://github.com/hyperledger/aries-rfcs/tree/main/features/0234-signature-decorator
type ConnectionSignature struct {
	Type       string `json:"@type"`
	Signature  string `json:"signature"`
	SignedData string `json:"sig_data"`
	Signer     string `json:"signer"`
}

type SignedExchangeResponse struct {
	Header
	ConnectionSig ConnectionSignature `json:"connection~sig"`
}

func NewSignedExchangeResponse(res ExchangeResponse, sig ConnectionSignature) SignedExchangeResponse {
	h := newHeader(SignedExchangeResponseTypes.Canonical)
	h.Id = res.Id
	h.Thread = res.Thread
	return SignedExchangeResponse{Header: h, ConnectionSig: sig}
}

func (SignedExchangeResponse) Kind() string { return KindSignedExchangeResponse }
func (SignedExchangeResponse) isMessage()    {}

// Ack concludes an exchange (complete) or acknowledges any threaded message
type Ack struct {
	Header
	Status string `json:"status,omitempty"`
}

func NewAck(thId, pthId string) Ack {
	h := newHeader(AckTypes.Canonical)
	h.Thread = &Thread{ThId: thId, PThId: pthId}
	return Ack{Header: h, Status: `OK`}
}

func (Ack) Kind() string { return KindAck }
func (Ack) isMessage()    {}

func DecodeInvitation(data []byte) (Message, error) {
	return decodeAs[Invitation](data, InvitationTypes)
}

func DecodeExchangeRequest(data []byte) (Message, error) {
	return decodeAs[ExchangeRequest](data, ExchangeRequestTypes)
}

func DecodeExchangeResponse(data []byte) (Message, error) {
	return decodeAs[ExchangeResponse](data, ExchangeResponseTypes)
}

func DecodeSignedExchangeResponse(data []byte) (Message, error) {
	return decodeAs[SignedExchangeResponse](data, SignedExchangeResponseTypes)
}

func DecodeAck(data []byte) (Message, error) {
	return decodeAs[Ack](data, AckTypes)
}
