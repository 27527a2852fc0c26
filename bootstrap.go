package main

import (
	"fmt"

	"github.com/YasiruR/didcomm-envelope/core/did"
	"github.com/YasiruR/didcomm-envelope/core/discovery"
	"github.com/YasiruR/didcomm-envelope/core/invitation"
	"github.com/YasiruR/didcomm-envelope/core/packer"
	"github.com/YasiruR/didcomm-envelope/core/registry"
	"github.com/YasiruR/didcomm-envelope/core/routing"
	"github.com/YasiruR/didcomm-envelope/crypto"
	"github.com/YasiruR/didcomm-envelope/domain/container"
	"github.com/YasiruR/didcomm-envelope/log"
	"github.com/YasiruR/didcomm-envelope/mailbox/push"
	"github.com/YasiruR/didcomm-envelope/mailbox/relay"
	"github.com/YasiruR/didcomm-envelope/store"
	"github.com/YasiruR/didcomm-envelope/transport"
	zmq "github.com/pebbe/zmq4"
)

const didDocCacheSize = 64

func initContainer(cfg *container.Config) (*container.Container, func(), error) {
	logger := log.NewLogger(cfg.Verbose, cfg.LogLevel)
	km := crypto.NewKeyManager(logger)
	pkr := packer.New(km, logger)
	reg := registry.Default()
	shutdown := func() {}

	var opts []relay.Option
	if cfg.FeedEndpoint != `` {
		zmqCtx, err := zmq.NewContext()
		if err != nil {
			return nil, nil, fmt.Errorf(`creating zmq context failed - %v`, err)
		}
		opts = append(opts, relay.WithFeed(push.NewSubscriber(zmqCtx, cfg.FeedEndpoint, logger)))
		shutdown = func() {
			if err := zmqCtx.Term(); err != nil {
				logger.Error(fmt.Sprintf(`terminating zmq context failed - %v`, err))
			}
		}
	}

	c := &container.Container{
		Cfg:         cfg,
		KeyManager:  km,
		Packer:      pkr,
		Registry:    reg,
		Router:      routing.New(pkr, logger),
		DidAgent:    did.NewHandler(),
		OOB:         invitation.NewOOBService(cfg.InvitationURL),
		Discoverer:  discovery.NewDiscoverer(reg, logger),
		Mailbox:     relay.NewClient(cfg.RelayURL, cfg.ClientTimeout, logger, opts...),
		Client:      transport.NewHTTP(cfg.ClientTimeout, logger),
		Connections: store.NewConnections(),
		DIDDocs:     store.NewCachedDIDDocs(store.NewDIDDocs(), didDocCacheSize, 0),
		Log:         logger,
	}

	return c, shutdown, nil
}
