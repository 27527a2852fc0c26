package connection

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YasiruR/didcomm-envelope/core/did"
	"github.com/YasiruR/didcomm-envelope/core/invitation"
	"github.com/YasiruR/didcomm-envelope/core/packer"
	"github.com/YasiruR/didcomm-envelope/core/registry"
	"github.com/YasiruR/didcomm-envelope/core/routing"
	"github.com/YasiruR/didcomm-envelope/crypto"
	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/YasiruR/didcomm-envelope/internal/mocks"
	"github.com/YasiruR/didcomm-envelope/log"
	"github.com/YasiruR/didcomm-envelope/mailbox/relay"
	"github.com/YasiruR/didcomm-envelope/store"
	"github.com/YasiruR/didcomm-envelope/transport"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var logger = log.NewLogger(false, ``)

type agent struct {
	*Machine
	conns *store.Connections
	docs  *store.DIDDocs
}

func newRelay(t *testing.T) *mocks.Relay {
	t.Helper()
	r, err := mocks.NewRelay(logger)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func newAgent(cfg *container.Config, km services.KeyManager, mb services.Mailbox) agent {
	p := packer.New(km, logger)
	a := agent{conns: store.NewConnections(), docs: store.NewDIDDocs()}
	a.Machine = New(&container.Container{
		Cfg:         cfg,
		KeyManager:  km,
		Packer:      p,
		Registry:    registry.Default(),
		Router:      routing.New(p, logger),
		DidAgent:    did.NewHandler(),
		OOB:         invitation.NewOOBService(`https://agent.example.com/invite`),
		Mailbox:     mb,
		Client:      transport.NewHTTP(time.Second, logger),
		Connections: a.conns,
		DIDDocs:     a.docs,
		Log:         logger,
	})
	return a
}

// tamperingKM corrupts every signature it produces
type tamperingKM struct {
	*crypto.KeyManager
}

func (k tamperingKM) Sign(verkey string, payload []byte) ([]byte, error) {
	sig, err := k.KeyManager.Sign(verkey, payload)
	if err != nil {
		return nil, err
	}
	sig[0] ^= 0x01
	return sig, nil
}

// mediator unwraps one forward layer and delivers the inner envelope to the
// relay mailbox with the same path
type mediator struct {
	verkey    string
	url       string
	forwarded *atomic.Int32
}

func newMediator(t *testing.T, r *mocks.Relay) mediator {
	t.Helper()
	km := crypto.NewKeyManager(logger)
	id, err := km.GenerateKeyPair(`mediator`)
	require.NoError(t, err)

	router := routing.New(packer.New(km, logger), logger)
	client := transport.NewHTTP(time.Second, logger)
	med := mediator{verkey: id.Verkey, forwarded: &atomic.Int32{}}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		_, inner, err := router.Unwrap(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err = client.Transmit(req.Context(), inner, r.URL()+req.URL.Path); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		med.forwarded.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(ts.Close)

	med.url = ts.URL
	return med
}

// mediatedMailbox announces the mediator as the endpoint of its mailboxes
type mediatedMailbox struct {
	services.Mailbox
	url string
}

func (m mediatedMailbox) CreateMailbox(ctx context.Context, id string) (string, error) {
	if _, err := m.Mailbox.CreateMailbox(ctx, id); err != nil {
		return ``, err
	}
	return m.url + `/mailboxes/` + id, nil
}

func TestHandshake(t *testing.T) {
	ctx := context.Background()
	r := newRelay(t)
	inviter := newAgent(container.DefaultConfig(), crypto.NewKeyManager(logger), r.Box)
	invitee := newAgent(container.DefaultConfig(), crypto.NewKeyManager(logger),
		relay.NewClient(r.URL(), time.Second, logger, relay.WithPollInterval(10*time.Millisecond)))

	sess, err := inviter.Invite(ctx, `alice`)
	require.NoError(t, err)
	require.Equal(t, InvitationCreated, sess.State())
	require.Len(t, sess.Invitation().RecipientKeys, 1)
	require.Contains(t, sess.URL(), domain.InvitationQueryKey+`=`)

	var inviterConn, inviteeConn models.Connection
	var g errgroup.Group
	g.Go(func() (err error) {
		inviterConn, err = sess.Await(ctx)
		return err
	})
	g.Go(func() (err error) {
		inviteeConn, err = invitee.Accept(ctx, sess.URL(), `bob`)
		return err
	})
	require.NoError(t, g.Wait())
	invitee.Wait()

	require.Equal(t, ConnectionEstablished, sess.State())
	require.NoError(t, sess.Err())
	require.Equal(t, inviterConn.TheirDID, inviteeConn.MyDID)
	require.Equal(t, inviteeConn.TheirDID, inviterConn.MyDID)
	require.Equal(t, `bob`, inviterConn.Label)
	require.Equal(t, `alice`, inviteeConn.Label)
	require.Equal(t, domain.RoleInviter, inviterConn.Metadata[domain.MetaRole])
	require.Equal(t, domain.RoleInvitee, inviteeConn.Metadata[domain.MetaRole])

	// the pairwise did is not the one the invitation was issued with
	require.NotEqual(t, sess.Invitation().RecipientKeys[0], inviterConn.Metadata[domain.MetaMyVerkey])

	stored, err := inviter.conns.Connection(ctx, inviterConn.MyDID, inviterConn.TheirDID)
	require.NoError(t, err)
	require.Equal(t, inviterConn, stored)
	stored, err = invitee.conns.Connection(ctx, inviteeConn.MyDID, inviteeConn.TheirDID)
	require.NoError(t, err)
	require.Equal(t, inviteeConn, stored)

	for _, a := range []struct {
		agent
		conn models.Connection
	}{{inviter, inviterConn}, {invitee, inviteeConn}} {
		doc, err := a.docs.DIDDoc(ctx, a.conn.TheirDID)
		require.NoError(t, err)
		require.Equal(t, a.conn.TheirDID, doc.Id)
		_, err = a.docs.DIDDoc(ctx, a.conn.MyDID)
		require.NoError(t, err)
	}

	// acknowledgement is delivered to the inviter's pairwise mailbox
	require.Equal(t, 1, r.Box.Pending(inviterConn.Metadata[domain.MetaMailbox]))
}

func TestHandshake_mediated(t *testing.T) {
	ctx := context.Background()
	r := newRelay(t)
	med := newMediator(t, r)

	cfg := container.DefaultConfig()
	cfg.RoutingKeys = []string{med.verkey}
	inviter := newAgent(cfg, crypto.NewKeyManager(logger), mediatedMailbox{Mailbox: r.Box, url: med.url})
	invitee := newAgent(cfg, crypto.NewKeyManager(logger), mediatedMailbox{
		Mailbox: relay.NewClient(r.URL(), time.Second, logger, relay.WithPollInterval(10*time.Millisecond)),
		url:     med.url,
	})

	sess, err := inviter.Invite(ctx, `alice`)
	require.NoError(t, err)
	require.Equal(t, []string{med.verkey}, sess.Invitation().RoutingKeys)
	require.Contains(t, sess.Invitation().ServiceEndpoint, med.url)

	var inviterConn, inviteeConn models.Connection
	var g errgroup.Group
	g.Go(func() (err error) {
		inviterConn, err = sess.Await(ctx)
		return err
	})
	g.Go(func() (err error) {
		inviteeConn, err = invitee.Accept(ctx, sess.URL(), `bob`)
		return err
	})
	require.NoError(t, g.Wait())
	invitee.Wait()

	require.Equal(t, inviterConn.TheirDID, inviteeConn.MyDID)
	require.Equal(t, inviteeConn.TheirDID, inviterConn.MyDID)

	// both docs announce the mediator to the peer
	for _, a := range []struct {
		agent
		conn models.Connection
	}{{inviter, inviterConn}, {invitee, inviteeConn}} {
		doc, err := a.docs.DIDDoc(ctx, a.conn.TheirDID)
		require.NoError(t, err)
		dest, err := did.NewHandler().ResolveDestination(doc)
		require.NoError(t, err)
		require.Equal(t, []string{med.verkey}, dest.RoutingKeys)
		require.Contains(t, dest.Endpoint, med.url)
	}

	// request, response and acknowledgement all pass the mediator
	require.Equal(t, int32(3), med.forwarded.Load())
	require.Equal(t, 1, r.Box.Pending(inviterConn.Metadata[domain.MetaMailbox]))
}

func TestHandshake_tamperedSignature(t *testing.T) {
	ctx := context.Background()
	r := newRelay(t)
	inviter := newAgent(container.DefaultConfig(), tamperingKM{crypto.NewKeyManager(logger)}, r.Box)
	invitee := newAgent(container.DefaultConfig(), crypto.NewKeyManager(logger), r.Box)

	sess, err := inviter.Invite(ctx, `alice`)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		_, err := sess.Await(ctx)
		return err
	})

	_, err = invitee.Accept(ctx, sess.URL(), `bob`)
	require.ErrorIs(t, err, domain.ErrSignatureVerificationFailed)
	require.NoError(t, g.Wait())
	require.Empty(t, invitee.conns.All())
}

func TestHandshake_timeout(t *testing.T) {
	ctx := context.Background()
	r := newRelay(t)
	cfg := container.DefaultConfig()
	cfg.InviterTimeout = 50 * time.Millisecond
	inviter := newAgent(cfg, crypto.NewKeyManager(logger), r.Box)

	sess, err := inviter.Invite(ctx, `alice`)
	require.NoError(t, err)

	_, err = sess.Await(ctx)
	require.ErrorIs(t, err, domain.ErrTimeout)
	require.NotErrorIs(t, err, domain.ErrDecryptionFailed)
	require.Equal(t, Failed, sess.State())
	require.ErrorIs(t, sess.Err(), domain.ErrTimeout)

	// a failed session cannot be awaited again
	_, err = sess.Await(ctx)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Empty(t, inviter.conns.All())
}

func TestAccept_invalidInvitations(t *testing.T) {
	ctx := context.Background()
	r := newRelay(t)
	invitee := newAgent(container.DefaultConfig(), crypto.NewKeyManager(logger), r.Box)

	_, err := invitee.Accept(ctx, `https://agent.example.com/invite?c_i=bm90LWpzb24`, `bob`)
	require.ErrorIs(t, err, domain.ErrInvalidInvitation)

	oob := invitation.NewOOBService(`https://agent.example.com/invite`)
	inv := oob.Create(`alice`, models.DID{}, ``, nil)
	inv.RecipientKeys, inv.DID = nil, `did:sov:QmWbsNYhMrjHiqZDTUTEJs`
	url, err := oob.Encode(inv)
	require.NoError(t, err)

	_, err = invitee.Accept(ctx, url, `bob`)
	require.ErrorIs(t, err, domain.ErrNoRecipientKey)
}
