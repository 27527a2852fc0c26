package routing

import (
	"fmt"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/tryfix/log"
)

// MaxRoutingKeys bounds the number of forward layers wrapped around a message
const MaxRoutingKeys = 100

type Router struct {
	packer services.Packer
	log    log.Logger
}

func New(p services.Packer, logger log.Logger) *Router {
	return &Router{packer: p, log: logger}
}

// Encrypt wraps the packed message in one anoncrypted forward message per
// routing key. The first key is the innermost layer, so the last key is the
// hop which receives the result.
func (r *Router) Encrypt(message []byte, to string, routingKeys []string) ([]byte, error) {
	if len(routingKeys) == 0 {
		return message, nil
	}

	if len(routingKeys) > MaxRoutingKeys {
		return nil, fmt.Errorf(`%w - %d keys exceed the limit of %d`, domain.ErrTooManyRoutingKeys, len(routingKeys), MaxRoutingKeys)
	}

	for _, key := range routingKeys {
		fwd, err := messages.NewForward(to, message)
		if err != nil {
			return nil, err
		}

		data, err := messages.Encode(fwd)
		if err != nil {
			return nil, err
		}

		message, err = r.packer.Pack(data, []string{key}, ``)
		if err != nil {
			return nil, fmt.Errorf(`packing forward message for routing key %s failed - %w`, key, err)
		}
		to = key
	}

	r.log.Trace(fmt.Sprintf(`message wrapped for %d routing keys`, len(routingKeys)))
	return message, nil
}

// Unwrap removes one forward layer as a mediator holding the routing key
// would, returning the next hop and the packed message to deliver to it.
func (r *Router) Unwrap(packed []byte) (to string, inner []byte, err error) {
	unpacked, err := r.packer.Unpack(packed)
	if err != nil {
		return ``, nil, err
	}

	msg, err := messages.DecodeForward(unpacked.Message)
	if err != nil {
		return ``, nil, fmt.Errorf(`%w - %v`, domain.ErrFailedToParseMessage, err)
	}

	fwd := msg.(messages.Forward)
	inner, err = fwd.Payload()
	if err != nil {
		return ``, nil, fmt.Errorf(`%w - %v`, domain.ErrFailedToParseMessage, err)
	}

	return fwd.To, inner, nil
}
