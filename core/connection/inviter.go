package connection

import (
	"context"
	"fmt"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
)

// InviterSession is an issued invitation waiting for its exchange request
type InviterSession struct {
	m   *Machine
	inv messages.Invitation
	url string
	id  identity
	tr  *tracker
}

// Invite creates the invitation DID and its mailbox and encodes the
// invitation. The returned session does not wait for the invitee until
// Await is called.
func (m *Machine) Invite(ctx context.Context, label string) (*InviterSession, error) {
	tr := newTracker()
	id, err := m.newIdentity(ctx, label)
	if err != nil {
		return nil, tr.fail(err)
	}

	inv := m.oob.Create(label, id.did, id.endpoint, m.cfg.RoutingKeys)
	url, err := m.oob.Encode(inv)
	if err != nil {
		return nil, tr.fail(fmt.Errorf(`encoding invitation failed - %w`, err))
	}

	if err = step(tr, InvitationCreated); err != nil {
		return nil, err
	}

	m.log.Trace(fmt.Sprintf(`invitation %s created for mailbox %s`, inv.Id, id.mailboxId))
	return &InviterSession{m: m, inv: inv, url: url, id: id, tr: tr}, nil
}

func (s *InviterSession) URL() string {
	return s.url
}

func (s *InviterSession) Invitation() messages.Invitation {
	return s.inv
}

func (s *InviterSession) State() State {
	st, _ := s.tr.current()
	return st
}

// Err returns the reason of the failure once the session has failed
func (s *InviterSession) Err() error {
	_, err := s.tr.current()
	return err
}

// Await blocks until the exchange request arrives and answers it with a
// signed response from a DID created for this connection only. A session
// can be awaited once.
func (s *InviterSession) Await(ctx context.Context) (models.Connection, error) {
	if err := s.tr.transition(AwaitingExchangeRequest); err != nil {
		return models.Connection{}, err
	}

	conn, err := s.await(ctx)
	if err != nil {
		return models.Connection{}, s.tr.fail(err)
	}

	s.m.log.Info(fmt.Sprintf(`connection established with %s (%s)`, conn.Label, conn.TheirDID))
	return conn, nil
}

func (s *InviterSession) await(ctx context.Context) (models.Connection, error) {
	m := s.m
	msg, err := m.receive(ctx, s.id.mailboxId, m.cfg.InviterTimeout)
	if err != nil {
		return models.Connection{}, err
	}

	req, ok := msg.(messages.ExchangeRequest)
	if !ok {
		return models.Connection{}, fmt.Errorf(`%w - expected an exchange request but received %s`,
			domain.ErrFailedToParseMessage, msg.Kind())
	}

	if req.Thread != nil && req.Thread.PThId != `` && req.Thread.PThId != s.inv.Id {
		m.log.Debug(fmt.Sprintf(`exchange request %s refers to invitation %s instead of %s`, req.Id, req.Thread.PThId, s.inv.Id))
	}

	// the invitation key is never reused for the pairwise relationship
	pairwise, err := m.newIdentity(ctx, s.inv.Label)
	if err != nil {
		return models.Connection{}, err
	}

	myDoc := m.didDoc(pairwise)
	res := messages.NewExchangeResponse(req.Id, messages.Connection{DID: pairwise.did.Id, DIDDoc: myDoc})
	signed, err := signResponse(m.km, res, s.id.did.Verkey)
	if err != nil {
		return models.Connection{}, err
	}

	dest, err := m.didAgent.ResolveDestination(req.Connection.DIDDoc)
	if err != nil {
		return models.Connection{}, err
	}

	if err = m.send(ctx, signed, dest, pairwise.did.Verkey); err != nil {
		return models.Connection{}, err
	}

	if err = step(s.tr, ExchangeResponseSent); err != nil {
		return models.Connection{}, err
	}

	conn := models.Connection{
		MyDID:    pairwise.did.Id,
		TheirDID: req.Connection.DID,
		Label:    req.Label,
		Metadata: connMetadata(pairwise, dest.Endpoint, domain.RoleInviter),
	}

	if err = m.persist(ctx, conn, myDoc, req.Connection.DIDDoc); err != nil {
		return models.Connection{}, err
	}

	if err = step(s.tr, ConnectionEstablished); err != nil {
		return models.Connection{}, err
	}

	return conn, nil
}
