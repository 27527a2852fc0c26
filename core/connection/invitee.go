package connection

import (
	"context"
	"fmt"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
)

// Accept answers the invitation with an exchange request and blocks until
// the signed response is verified. The acknowledgement is sent in the
// background once the connection is stored.
func (m *Machine) Accept(ctx context.Context, invitationURL, label string) (models.Connection, error) {
	tr := newTracker()
	conn, ack, err := m.accept(ctx, tr, invitationURL, label)
	if err != nil {
		return models.Connection{}, tr.fail(err)
	}

	m.log.Info(fmt.Sprintf(`connection established with %s (%s)`, conn.Label, conn.TheirDID))

	m.acks.Add(1)
	go m.acknowledge(context.WithoutCancel(ctx), ack)

	return conn, nil
}

type pendingAck struct {
	ack    messages.Ack
	dest   models.Destination
	verkey string
}

func (m *Machine) accept(ctx context.Context, tr *tracker, invitationURL, label string) (models.Connection, pendingAck, error) {
	inv, err := m.oob.Parse(invitationURL)
	if err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	// resolving public DIDs of invitations is not supported
	if len(inv.RecipientKeys) == 0 {
		return models.Connection{}, pendingAck{}, fmt.Errorf(`%w - invitation %s has no recipient keys`, domain.ErrNoRecipientKey, inv.Id)
	}

	if err = step(tr, InvitationReceived); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	id, err := m.newIdentity(ctx, label)
	if err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	myDoc := m.didDoc(id)
	req := messages.NewExchangeRequest(label, inv.Id, messages.Connection{DID: id.did.Id, DIDDoc: myDoc})
	invDest := models.Destination{
		Endpoint:      inv.ServiceEndpoint,
		RecipientKeys: inv.RecipientKeys,
		RoutingKeys:   inv.RoutingKeys,
	}

	if err = m.send(ctx, req, invDest, id.did.Verkey); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	if err = step(tr, ExchangeRequestSent); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	if err = step(tr, AwaitingExchangeResponse); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	msg, err := m.receive(ctx, id.mailboxId, m.cfg.InviteeTimeout)
	if err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	signed, ok := msg.(messages.SignedExchangeResponse)
	if !ok {
		return models.Connection{}, pendingAck{}, fmt.Errorf(`%w - expected a signed exchange response but received %s`,
			domain.ErrFailedToParseMessage, msg.Kind())
	}

	res, err := verifyResponse(m.km, signed, inv.RecipientKeys)
	if err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	if res.ThreadId() != req.Id {
		return models.Connection{}, pendingAck{}, fmt.Errorf(`%w - response is threaded under %s instead of request %s`,
			domain.ErrFailedToParseMessage, res.ThreadId(), req.Id)
	}

	if err = step(tr, ExchangeResponseVerified); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	dest, err := m.didAgent.ResolveDestination(res.Connection.DIDDoc)
	if err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	conn := models.Connection{
		MyDID:    id.did.Id,
		TheirDID: res.Connection.DID,
		Label:    inv.Label,
		Metadata: connMetadata(id, dest.Endpoint, domain.RoleInvitee),
	}

	if err = m.persist(ctx, conn, myDoc, res.Connection.DIDDoc); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	if err = step(tr, ConnectionEstablished); err != nil {
		return models.Connection{}, pendingAck{}, err
	}

	return conn, pendingAck{ack: messages.NewAck(req.Id, inv.Id), dest: dest, verkey: id.did.Verkey}, nil
}

// acknowledge is best-effort and only logs failures
func (m *Machine) acknowledge(ctx context.Context, p pendingAck) {
	defer m.acks.Done()
	ctx, cancel := context.WithTimeout(ctx, m.cfg.AckTimeout)
	defer cancel()

	if err := m.send(ctx, p.ack, p.dest, p.verkey); err != nil {
		m.log.Error(fmt.Sprintf(`sending acknowledgement for %s failed - %v`, p.ack.ThreadId(), err))
	}
}
