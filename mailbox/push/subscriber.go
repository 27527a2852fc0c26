package push

import (
	"context"
	"fmt"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain/models"
	zmq "github.com/pebbe/zmq4"
	"github.com/tryfix/log"
)

// receive timeout of subscriber sockets, which bounds how long a cancelled
// subscription keeps its socket open
const recvTimeout = 100 * time.Millisecond

// Subscriber receives messages pushed by the relay instead of polling for them
type Subscriber struct {
	ctx      *zmq.Context
	endpoint string
	log      log.Logger
}

func NewSubscriber(zmqCtx *zmq.Context, endpoint string, logger log.Logger) *Subscriber {
	return &Subscriber{ctx: zmqCtx, endpoint: endpoint, log: logger}
}

// Subscribe opens a dedicated socket filtered on the mailbox id. Messages
// published before the subscription propagates to the relay are not received.
func (s *Subscriber) Subscribe(ctx context.Context, id string) (<-chan models.InboundMessage, error) {
	skt, err := s.ctx.NewSocket(zmq.SUB)
	if err != nil {
		return nil, fmt.Errorf(`constructing zmq subscriber socket failed - %v`, err)
	}

	if err = skt.SetRcvtimeo(recvTimeout); err != nil {
		skt.Close()
		return nil, fmt.Errorf(`setting receive timeout failed - %v`, err)
	}

	if err = skt.Connect(s.endpoint); err != nil {
		skt.Close()
		return nil, fmt.Errorf(`connecting to zmq socket (%s) failed - %v`, s.endpoint, err)
	}

	if err = skt.SetSubscribe(id); err != nil {
		skt.Close()
		return nil, fmt.Errorf(`subscribing to mailbox %s failed - %v`, id, err)
	}

	out := make(chan models.InboundMessage)
	go s.listen(ctx, skt, id, out)
	return out, nil
}

func (s *Subscriber) listen(ctx context.Context, skt *zmq.Socket, id string, out chan models.InboundMessage) {
	defer close(out)
	defer skt.Close()

	for ctx.Err() == nil {
		frames, err := skt.RecvMessageBytes(0)
		if err != nil {
			if zmq.AsErrno(err) == zmq.ETERM {
				return
			}

			if err.Error() != errTempUnavail {
				s.log.Error(fmt.Sprintf(`receiving zmq message for mailbox %s failed - %v`, id, err))
			}
			continue
		}

		// subscriptions match on prefix
		if len(frames) != 2 || string(frames[0]) != id {
			continue
		}

		select {
		case out <- models.InboundMessage{Data: frames[1], ReceivedAt: time.Now()}:
		case <-ctx.Done():
		}
	}
}
