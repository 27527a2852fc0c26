package push

import (
	"fmt"
	"sync"

	zmq "github.com/pebbe/zmq4"
)

const errTempUnavail = `resource temporarily unavailable`

// Publisher is the relay side of the push feed. Each delivery is published
// as a two frame message [mailbox id, packed message].
type Publisher struct {
	skt *zmq.Socket
	*sync.Mutex
}

func NewPublisher(zmqCtx *zmq.Context, endpoint string) (*Publisher, error) {
	skt, err := zmqCtx.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf(`constructing zmq publisher socket failed - %v`, err)
	}

	// pending deliveries must not hold up termination of the context
	if err = skt.SetLinger(0); err != nil {
		skt.Close()
		return nil, fmt.Errorf(`setting linger of zmq publisher socket failed - %v`, err)
	}

	if err = skt.Bind(endpoint); err != nil {
		skt.Close()
		return nil, fmt.Errorf(`binding zmq socket to %s failed - %v`, endpoint, err)
	}

	return &Publisher{skt: skt, Mutex: &sync.Mutex{}}, nil
}

func (p *Publisher) Publish(id string, data []byte) error {
	p.Lock()
	defer p.Unlock()
	if _, err := p.skt.SendMessage(id, data); err != nil {
		return fmt.Errorf(`publishing message of mailbox %s failed - %v`, id, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.Lock()
	defer p.Unlock()
	return p.skt.Close()
}
