package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/google/uuid"
	"github.com/tryfix/log"
)

// Machine runs connection handshakes. Each call to Invite or Accept is an
// independent attempt which shares only the stores with other attempts.
type Machine struct {
	cfg      *container.Config
	km       services.KeyManager
	packer   services.Packer
	decoder  services.Decoder
	router   services.RoutingEncryptor
	didAgent services.DIDUtils
	oob      services.OutOfBand
	mailbox  services.Mailbox
	client   services.Transporter
	conns    services.ConnectionStore
	docs     services.DIDDocStore
	acks     *sync.WaitGroup
	log      log.Logger
}

func New(c *container.Container) *Machine {
	return &Machine{
		cfg:      c.Cfg,
		km:       c.KeyManager,
		packer:   c.Packer,
		decoder:  c.Registry,
		router:   c.Router,
		didAgent: c.DidAgent,
		oob:      c.OOB,
		mailbox:  c.Mailbox,
		client:   c.Client,
		conns:    c.Connections,
		docs:     c.DIDDocs,
		acks:     &sync.WaitGroup{},
		log:      c.Log,
	}
}

// Wait blocks until all acknowledgements sent in the background are done
func (m *Machine) Wait() {
	m.acks.Wait()
}

// identity is a locally controlled DID together with the mailbox its
// messages are delivered to
type identity struct {
	did       models.DID
	mailboxId string
	endpoint  string
}

func (m *Machine) newIdentity(ctx context.Context, label string) (identity, error) {
	did, err := m.km.GenerateKeyPair(label)
	if err != nil {
		return identity{}, keyManagementErr(`generate`, err)
	}

	mbId := uuid.New().String()
	endpoint, err := m.mailbox.CreateMailbox(ctx, mbId)
	if err != nil {
		return identity{}, fmt.Errorf(`creating mailbox %s failed - %w`, mbId, err)
	}

	m.log.Trace(fmt.Sprintf(`created did %s with mailbox %s`, did.Id, mbId))
	return identity{did: did, mailboxId: mbId, endpoint: endpoint}, nil
}

// didDoc describes the identity, announcing the configured mediators
func (m *Machine) didDoc(id identity) models.DIDDoc {
	doc := m.didAgent.CreateDIDDoc(id.did, id.endpoint)
	if len(m.cfg.RoutingKeys) > 0 {
		for i := range doc.Service {
			doc.Service[i].RoutingKeys = append([]string(nil), m.cfg.RoutingKeys...)
		}
	}
	return doc
}

// receive waits for the next message of the mailbox and decodes it
func (m *Machine) receive(ctx context.Context, mbId string, timeout time.Duration) (messages.Message, error) {
	packed, err := m.mailbox.WaitForMessage(ctx, mbId, timeout)
	if err != nil {
		return nil, fmt.Errorf(`waiting for message in mailbox %s failed - %w`, mbId, err)
	}

	unpacked, err := m.packer.Unpack(packed)
	if err != nil {
		return nil, err
	}

	return m.decoder.ResolveAndDecode(unpacked.Message)
}

// send authcrypts the message for the destination, wraps it for the
// routing keys and transmits the result to the endpoint without retrying
func (m *Machine) send(ctx context.Context, msg messages.Message, dest models.Destination, senderVerkey string) error {
	data, err := messages.Encode(msg)
	if err != nil {
		return err
	}

	// packing fails for an empty recipient list
	packed, err := m.packer.Pack(data, dest.RecipientKeys, senderVerkey)
	if err != nil {
		return err
	}

	routed, err := m.router.Encrypt(packed, dest.RecipientKeys[0], dest.RoutingKeys)
	if err != nil {
		return err
	}

	if err = m.client.Transmit(ctx, routed, dest.Endpoint); err != nil {
		return fmt.Errorf(`sending %s message failed - %w`, msg.Kind(), err)
	}

	m.log.Trace(fmt.Sprintf(`%s message (%s) sent to %s`, msg.Kind(), msg.Head().Id, dest.Endpoint))
	return nil
}

// persist stores both DID docs before the connection so that the connection
// is never visible without the docs it refers to
func (m *Machine) persist(ctx context.Context, conn models.Connection, myDoc, theirDoc models.DIDDoc) error {
	if err := m.docs.StoreDIDDoc(ctx, myDoc.Id, myDoc); err != nil {
		return fmt.Errorf(`storing did doc of %s failed - %w`, myDoc.Id, err)
	}

	if err := m.docs.StoreDIDDoc(ctx, conn.TheirDID, theirDoc); err != nil {
		return fmt.Errorf(`storing did doc of %s failed - %w`, conn.TheirDID, err)
	}

	if err := m.conns.StoreConnection(ctx, conn); err != nil {
		return fmt.Errorf(`storing connection %s failed - %w`, conn.Key(), err)
	}

	return nil
}

func connMetadata(id identity, theirEndpoint, role string) map[string]string {
	return map[string]string{
		domain.MetaMailbox:  id.mailboxId,
		domain.MetaEndpoint: theirEndpoint,
		domain.MetaMyVerkey: id.did.Verkey,
		domain.MetaRole:     role,
	}
}

// step moves the tracker forward and fails the handshake if the move is invalid
func step(tr *tracker, next State) error {
	if err := tr.transition(next); err != nil {
		return tr.fail(err)
	}
	return nil
}
