package registry

import (
	"encoding/json"
	"testing"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/stretchr/testify/require"
)

func sampleConnection() messages.Connection {
	return messages.Connection{
		DID: `7Xi2bnnJfD4ZUk8DgrPJXS`,
		DIDDoc: models.DIDDoc{
			Context: []string{domain.DIDContextV1},
			Id:      `7Xi2bnnJfD4ZUk8DgrPJXS`,
			PublicKey: []models.PublicKey{{
				Id:         `7Xi2bnnJfD4ZUk8DgrPJXS#1`,
				Type:       domain.KeyTypEd25519,
				Controller: `7Xi2bnnJfD4ZUk8DgrPJXS`,
				Specifier:  `GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL`,
			}},
			Service: []models.Service{{
				Id:              `7Xi2bnnJfD4ZUk8DgrPJXS;indy`,
				Type:            domain.ServcIndyAgent,
				RecipientKeys:   []string{`GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL`},
				ServiceEndpoint: `https://relay.example.com/mb-1`,
			}},
		},
	}
}

// samples returns one instance per built-in kind
func samples(t *testing.T) map[string]messages.Message {
	inv := messages.NewInvitation(`alice`)
	inv.RecipientKeys = []string{`GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL`}
	inv.ServiceEndpoint = `https://relay.example.com/mb-A`

	req := messages.NewExchangeRequest(`bob`, inv.Id, sampleConnection())
	res := messages.NewExchangeResponse(req.Id, sampleConnection())
	signed := messages.NewSignedExchangeResponse(res, messages.ConnectionSignature{
		Type:       domain.SigTypEd25519,
		Signature:  `c2lnbmF0dXJl`,
		SignedData: `ZGF0YQ==`,
		Signer:     `GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL`,
	})

	fwd, err := messages.NewForward(`GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL`, []byte(`{"protected":"abc"}`))
	require.NoError(t, err)

	query := messages.NewQuery(`https://didcomm.org/*`, `all protocols`)
	return map[string]messages.Message{
		messages.KindBasicMessage:           messages.NewBasicMessage(`hi there`),
		messages.KindInvitation:             inv,
		messages.KindExchangeRequest:        req,
		messages.KindExchangeResponse:       res,
		messages.KindSignedExchangeResponse: signed,
		messages.KindAck:                    messages.NewAck(req.Id, inv.Id),
		messages.KindForward:                fwd,
		messages.KindQuery:                  query,
		messages.KindDisclose: messages.NewDisclose(query.Id, []messages.Protocol{
			{PId: `https://didcomm.org/connections/1.0`, Roles: []string{`inviter`, `invitee`}},
		}),
	}
}

// withType returns a copy of the message carrying another accepted type URI
func withType(msg messages.Message, typ string) messages.Message {
	switch m := msg.(type) {
	case messages.BasicMessage:
		m.Type = typ
		return m
	case messages.Invitation:
		m.Type = typ
		return m
	case messages.ExchangeRequest:
		m.Type = typ
		return m
	case messages.ExchangeResponse:
		m.Type = typ
		return m
	case messages.SignedExchangeResponse:
		m.Type = typ
		return m
	case messages.Ack:
		m.Type = typ
		return m
	case messages.Forward:
		m.Type = typ
		return m
	case messages.Query:
		m.Type = typ
		return m
	case messages.Disclose:
		m.Type = typ
		return m
	}
	return msg
}

func TestDefault_decodesAllTypes(t *testing.T) {
	reg := Default()
	msgs := samples(t)
	require.Len(t, reg.Kinds(), len(msgs))

	for kind, msg := range msgs {
		uris := reg.Types(kind)
		require.NotEmpty(t, uris, kind)

		canonical, ok := reg.Canonical(kind)
		require.True(t, ok)
		require.Equal(t, canonical, msg.Head().Type, `encoders must use the canonical type`)

		for _, uri := range uris {
			original := withType(msg, uri)
			data, err := messages.Encode(original)
			require.NoError(t, err)

			decoded, err := reg.ResolveAndDecode(data)
			require.NoError(t, err, uri)
			require.Equal(t, kind, decoded.Kind())
			require.Equal(t, original, decoded, uri)
		}
	}
}

func TestResolveAndDecode_unknownType(t *testing.T) {
	_, err := Default().ResolveAndDecode([]byte(`{"@type":"urn:unregistered:1.0","@id":"msg-42"}`))
	require.ErrorIs(t, err, domain.ErrUnknownMessageType)

	var unknownErr *UnknownTypeError
	require.ErrorAs(t, err, &unknownErr)
	require.Equal(t, `msg-42`, unknownErr.Header.Id)
	require.Equal(t, `urn:unregistered:1.0`, unknownErr.Header.Type)
}

func TestResolveAndDecode_notAnEnvelope(t *testing.T) {
	reg := Default()
	for _, raw := range []string{
		`not json`,
		`{"@id":"1"}`,
		`{"@type":"https://didcomm.org/basicmessage/1.0/message"}`,
		`[1,2,3]`,
	} {
		_, err := reg.ResolveAndDecode([]byte(raw))
		require.ErrorIs(t, err, domain.ErrNotAnEnvelope, raw)
	}
}

func TestResolveAndDecode_malformedKind(t *testing.T) {
	reg := Default()

	_, err := reg.ResolveAndDecode([]byte(`{"@type":"https://didcomm.org/basicmessage/1.0/message","@id":"1","content":5}`))
	require.ErrorIs(t, err, domain.ErrFailedToParseMessage)

	_, err = reg.ResolveAndDecode([]byte(`{"@type":"https://didcomm.org/basicmessage/1.0/message","@id":"1","sent_time":"yesterday","content":"x"}`))
	require.ErrorIs(t, err, domain.ErrFailedToParseMessage)
	require.ErrorIs(t, err, domain.ErrUnsupportedDateFormat)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, messages.BasicMessageV1, parseErr.Type)
}

func TestResolveAndDecode_kindChecksTypeSet(t *testing.T) {
	// a corrupted binding must still be caught by the decoder of the kind
	b := NewBuilder()
	require.NoError(t, b.Register(Kind{
		Name:   messages.KindAck,
		Types:  messages.TypeSet{Canonical: messages.BasicMessageV1},
		Decode: messages.DecodeAck,
	}))

	data, err := messages.Encode(messages.NewBasicMessage(`x`))
	require.NoError(t, err)

	_, err = b.Build().ResolveAndDecode(data)
	require.ErrorIs(t, err, domain.ErrFailedToParseMessage)
}

func TestBuilder_duplicateBinding(t *testing.T) {
	b := NewBuilder()
	basic := Kind{Name: messages.KindBasicMessage, Types: messages.BasicMessageTypes, Decode: messages.DecodeBasicMessage}
	require.NoError(t, b.Register(basic))
	require.NoError(t, b.Register(basic), `registering the same kind twice is idempotent`)

	err := b.Register(Kind{
		Name:   `chat`,
		Types:  messages.TypeSet{Canonical: `https://example.com/chat/1.0/message`, Aliases: []string{messages.BasicMessageV1}},
		Decode: messages.DecodeBasicMessage,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateTypeBinding)

	// the failed registration must not leave partial bindings
	reg := b.Build()
	require.Equal(t, []string{messages.KindBasicMessage}, reg.Kinds())
	_, err = reg.ResolveAndDecode([]byte(`{"@type":"https://example.com/chat/1.0/message","@id":"1"}`))
	require.ErrorIs(t, err, domain.ErrUnknownMessageType)
}

func TestBuilder_aliasesAccumulate(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Register(Kind{Name: messages.KindAck, Types: messages.TypeSet{Canonical: messages.DIDExchangeCompV1}, Decode: messages.DecodeAck}))
	require.NoError(t, b.Register(Kind{Name: messages.KindAck, Types: messages.TypeSet{Canonical: messages.DIDExchangeCompV1, Aliases: []string{messages.NotificationAckV1}}, Decode: messages.DecodeAck}))

	reg := b.Build()
	require.ElementsMatch(t, []string{messages.DIDExchangeCompV1, messages.NotificationAckV1}, reg.Types(messages.KindAck))

	// the built registry is a snapshot
	require.NoError(t, b.Register(Kind{Name: messages.KindForward, Types: messages.ForwardTypes, Decode: messages.DecodeForward}))
	_, ok := reg.Canonical(messages.KindForward)
	require.False(t, ok)
}

func TestBuilder_invalidKind(t *testing.T) {
	require.Error(t, NewBuilder().Register(Kind{Name: `empty`}))
}

func TestEncode_canonicalHeaderNaming(t *testing.T) {
	data, err := messages.Encode(messages.NewAck(`th-1`, `pth-1`))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, `@type`)
	require.Contains(t, raw, `@id`)
	require.Contains(t, raw, `~thread`)
}
