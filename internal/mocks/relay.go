package mocks

import (
	"net/http/httptest"

	"github.com/YasiruR/didcomm-envelope/mailbox"
	"github.com/tryfix/log"
)

// Relay runs a relay server on a local test listener
type Relay struct {
	Box    *mailbox.Memory
	Server *mailbox.Server
	ts     *httptest.Server
}

func NewRelay(logger log.Logger) (*Relay, error) {
	// endpoints of the mailbox depend on the listener address
	ts := httptest.NewUnstartedServer(nil)
	box, err := mailbox.NewMemory(`http://`+ts.Listener.Addr().String()+`/mailboxes`, true, logger)
	if err != nil {
		ts.Close()
		return nil, err
	}

	srv := mailbox.NewServer(box, logger)
	ts.Config.Handler = srv
	ts.Start()

	return &Relay{Box: box, Server: srv, ts: ts}, nil
}

func (r *Relay) URL() string {
	return r.ts.URL
}

func (r *Relay) Close() {
	r.ts.Close()
}
