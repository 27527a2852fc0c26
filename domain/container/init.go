package container

import (
	"time"

	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/tryfix/log"
)

const (
	defaultInviterTimeout = 3600 * time.Second
	defaultInviteeTimeout = 300 * time.Second
	defaultAckTimeout     = 30 * time.Second
	defaultClientTimeout  = 15 * time.Second
	defaultRelayURL       = `http://localhost:8008`
)

type Config struct {
	Label string
	// RelayURL is the base URL of the mailbox relay
	RelayURL string
	// FeedEndpoint is the zmq endpoint the relay publishes deliveries on. Mailboxes
	// are polled when it is empty.
	FeedEndpoint string
	// InvitationURL is the base URL the encoded invitation is appended to
	InvitationURL string
	// RoutingKeys are the verkeys of the mediators in front of the mailbox
	// endpoint, announced to peers in invitations and DID docs
	RoutingKeys    []string
	InviterTimeout time.Duration
	InviteeTimeout time.Duration
	AckTimeout     time.Duration
	ClientTimeout  time.Duration
	SendRetries    uint64
	Compact        bool
	Verbose        bool
	LogLevel       string
}

func DefaultConfig() *Config {
	return &Config{
		RelayURL:       defaultRelayURL,
		InvitationURL:  `https://didcomm.org/invitation`,
		InviterTimeout: defaultInviterTimeout,
		InviteeTimeout: defaultInviteeTimeout,
		AckTimeout:     defaultAckTimeout,
		ClientTimeout:  defaultClientTimeout,
		LogLevel:       `DEBUG`,
	}
}

// Container holds the collaborators and core services. Everything is passed
// explicitly so that any of them can be replaced with a fake.
type Container struct {
	Cfg         *Config
	KeyManager  services.KeyManager
	Packer      services.Packer
	Registry    services.Decoder
	Router      services.RoutingEncryptor
	DidAgent    services.DIDUtils
	OOB         services.OutOfBand
	Discoverer  services.Discoverer
	Mailbox     services.Mailbox
	Client      services.Transporter
	Connections services.ConnectionStore
	DIDDocs     services.DIDDocStore
	Log         log.Logger
}
