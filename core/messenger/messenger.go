package messenger

import (
	"context"
	"fmt"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/tryfix/log"
)

// Received is a decoded inbound message. Sender is empty for anoncrypted
// messages.
type Received struct {
	Sender     string
	Message    messages.Message
	ReceivedAt time.Time
}

// Messenger exchanges basic messages over established connections
type Messenger struct {
	packer     services.Packer
	decoder    services.Decoder
	router     services.RoutingEncryptor
	didAgent   services.DIDUtils
	mailbox    services.Mailbox
	client     services.Transporter
	conns      services.ConnectionStore
	docs       services.DIDDocStore
	discoverer services.Discoverer
	log        log.Logger
}

func New(c *container.Container) *Messenger {
	return &Messenger{
		packer:     c.Packer,
		decoder:    c.Registry,
		router:     c.Router,
		didAgent:   c.DidAgent,
		mailbox:    c.Mailbox,
		client:     c.Client,
		conns:      c.Connections,
		docs:       c.DIDDocs,
		discoverer: c.Discoverer,
		log:        c.Log,
	}
}

// Send delivers the text to the peer of the connection and keeps a copy,
// packed for the sender itself, in the sender's own mailbox
func (m *Messenger) Send(ctx context.Context, conn models.Connection, text string) (messages.BasicMessage, error) {
	msg := messages.NewBasicMessage(text)
	if err := m.send(ctx, conn, msg, true); err != nil {
		return messages.BasicMessage{}, err
	}

	_, err := m.conns.UpdateMetadata(ctx, conn.MyDID, conn.TheirDID, map[string]string{
		domain.MetaLastSent: messages.FormatTime(msg.SentTime.Time),
	})
	if err != nil {
		m.log.Error(fmt.Sprintf(`updating connection %s failed - %v`, conn.Key(), err))
	}

	return msg, nil
}

// Discover asks the peer which protocols it supports. The disclosure
// arrives in the mailbox of the connection.
func (m *Messenger) Discover(ctx context.Context, conn models.Connection, query string) (messages.Query, error) {
	q := messages.NewQuery(query, ``)
	if err := m.send(ctx, conn, q, false); err != nil {
		return messages.Query{}, err
	}
	return q, nil
}

// Disclose answers a query received over the connection
func (m *Messenger) Disclose(ctx context.Context, conn models.Connection, q messages.Query) error {
	if m.discoverer == nil {
		return fmt.Errorf(`feature discovery is not enabled`)
	}
	return m.send(ctx, conn, m.discoverer.Disclose(q), false)
}

func (m *Messenger) send(ctx context.Context, conn models.Connection, msg messages.Message, keepCopy bool) error {
	myVerkey := conn.Metadata[domain.MetaMyVerkey]
	if myVerkey == `` {
		return fmt.Errorf(`%w - no verkey recorded for connection %s`, domain.ErrNotFound, conn.Key())
	}

	doc, err := m.docs.DIDDoc(ctx, conn.TheirDID)
	if err != nil {
		return fmt.Errorf(`fetching did doc of %s failed - %w`, conn.TheirDID, err)
	}

	dest, err := m.didAgent.ResolveDestination(doc)
	if err != nil {
		return err
	}

	data, err := messages.Encode(msg)
	if err != nil {
		return err
	}

	packed, err := m.packer.Pack(data, dest.RecipientKeys, myVerkey)
	if err != nil {
		return err
	}

	routed, err := m.router.Encrypt(packed, dest.RecipientKeys[0], dest.RoutingKeys)
	if err != nil {
		return err
	}

	if err = m.client.Transmit(ctx, routed, dest.Endpoint); err != nil {
		return fmt.Errorf(`sending %s message to %s failed - %w`, msg.Kind(), conn.TheirDID, err)
	}

	if mbId := conn.Metadata[domain.MetaMailbox]; keepCopy && mbId != `` {
		m.keepCopy(ctx, mbId, data, myVerkey)
	}

	m.log.Trace(fmt.Sprintf(`%s message %s sent to %s`, msg.Kind(), msg.Head().Id, conn.TheirDID))
	return nil
}

// keepCopy is best-effort since the message has already been delivered
func (m *Messenger) keepCopy(ctx context.Context, mbId string, data []byte, myVerkey string) {
	packed, err := m.packer.Pack(data, []string{myVerkey}, myVerkey)
	if err != nil {
		m.log.Error(fmt.Sprintf(`packing sent message copy failed - %v`, err))
		return
	}

	if err = m.mailbox.StoreMessage(ctx, mbId, packed); err != nil {
		m.log.Error(fmt.Sprintf(`storing sent message copy in mailbox %s failed - %v`, mbId, err))
	}
}

// Read unpacks and decodes a packed message
func (m *Messenger) Read(_ context.Context, packed []byte) (sender string, msg messages.Message, err error) {
	unpacked, err := m.packer.Unpack(packed)
	if err != nil {
		return ``, nil, err
	}

	msg, err = m.decoder.ResolveAndDecode(unpacked.Message)
	if err != nil {
		return ``, nil, err
	}

	return unpacked.SenderVerkey, msg, nil
}

// Listen streams the decoded messages of the mailbox until the context is
// cancelled. Messages which cannot be read are logged and dropped, while a
// message read but not yet received when the context ends stays queued.
func (m *Messenger) Listen(ctx context.Context, mailboxId string) (<-chan Received, error) {
	inbound, err := m.mailbox.Subscribe(ctx, mailboxId)
	if err != nil {
		return nil, fmt.Errorf(`subscribing to mailbox %s failed - %w`, mailboxId, err)
	}

	out := make(chan Received)
	go func() {
		defer close(out)
		for in := range inbound {
			sender, msg, err := m.Read(ctx, in.Data)
			if err != nil {
				m.log.Error(fmt.Sprintf(`reading message of mailbox %s failed - %v`, mailboxId, err))
				continue
			}

			select {
			case out <- Received{Sender: sender, Message: msg, ReceivedAt: in.ReceivedAt}:
			case <-ctx.Done():
				// left for the next listener of the mailbox
				if err = m.mailbox.Requeue(context.WithoutCancel(ctx), mailboxId, in); err != nil {
					m.log.Error(fmt.Sprintf(`requeueing message of mailbox %s failed - %v`, mailboxId, err))
				}
				return
			}
		}
	}()

	return out, nil
}
