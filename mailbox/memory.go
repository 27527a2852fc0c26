package mailbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/tryfix/log"
)

type entry struct {
	data       []byte
	receivedAt time.Time
}

type box struct {
	queue []entry
	// closed and replaced whenever a message is stored
	signal chan struct{}
}

// Memory is an in-process mailbox relay. Endpoints of created mailboxes are
// derived from the base url, which is expected to route deliveries back to
// StoreMessage (eg: a relay http handler).
type Memory struct {
	baseURL string
	boxes   map[string]*box
	mu      *sync.Mutex
	cmp     *compactor
	log     log.Logger
}

// NewMemory creates the mailbox store. With compact set, queued messages are
// held zstd compressed.
func NewMemory(baseURL string, compact bool, logger log.Logger) (*Memory, error) {
	m := &Memory{baseURL: strings.TrimRight(baseURL, `/`), boxes: map[string]*box{}, mu: &sync.Mutex{}, log: logger}
	if compact {
		cmp, err := newCompactor()
		if err != nil {
			return nil, err
		}
		m.cmp = cmp
	}

	return m, nil
}

func (m *Memory) Endpoint(id string) string {
	return m.baseURL + `/` + url.PathEscape(id)
}

// CreateMailbox is idempotent
func (m *Memory) CreateMailbox(_ context.Context, id string) (string, error) {
	if id == `` {
		return ``, fmt.Errorf(`mailbox id cannot be empty`)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boxes[id]; !ok {
		m.boxes[id] = &box{signal: make(chan struct{})}
		m.log.Trace(fmt.Sprintf(`mailbox %s created`, id))
	}

	return m.Endpoint(id), nil
}

func (m *Memory) StoreMessage(_ context.Context, id string, data []byte) error {
	e := entry{data: append([]byte(nil), data...), receivedAt: time.Now()}
	if m.cmp != nil {
		e.data = m.cmp.compress(data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return fmt.Errorf(`%w - mailbox %s`, domain.ErrNotFound, id)
	}

	b.queue = append(b.queue, e)
	b.notify()
	m.log.Trace(fmt.Sprintf(`message stored in mailbox %s (size: %d)`, id, len(e.data)))

	return nil
}

// Requeue puts a message which was taken but never consumed back at the head
// of the mailbox, keeping the time it was originally received
func (m *Memory) Requeue(_ context.Context, id string, msg models.InboundMessage) error {
	e := entry{data: append([]byte(nil), msg.Data...), receivedAt: msg.ReceivedAt}
	if m.cmp != nil {
		e.data = m.cmp.compress(msg.Data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return fmt.Errorf(`%w - mailbox %s`, domain.ErrNotFound, id)
	}

	b.queue = append([]entry{e}, b.queue...)
	b.notify()
	m.log.Trace(fmt.Sprintf(`message requeued in mailbox %s`, id))

	return nil
}

func (b *box) notify() {
	close(b.signal)
	b.signal = make(chan struct{})
}

func (m *Memory) WaitForMessage(ctx context.Context, id string, timeout time.Duration) ([]byte, error) {
	msg, err := m.waitForInbound(ctx, id, timeout)
	if err != nil {
		return nil, err
	}
	return msg.Data, nil
}

func (m *Memory) waitForInbound(ctx context.Context, id string, timeout time.Duration) (models.InboundMessage, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	return m.next(ctx, id, timer.C)
}

// Subscribe consumes messages of the mailbox as they arrive until the
// context is cancelled. A message taken from the queue is only consumed once
// the subscriber has received it.
func (m *Memory) Subscribe(ctx context.Context, id string) (<-chan models.InboundMessage, error) {
	if !m.exists(id) {
		return nil, fmt.Errorf(`%w - mailbox %s`, domain.ErrNotFound, id)
	}

	out := make(chan models.InboundMessage)
	go func() {
		defer close(out)
		for {
			msg, err := m.next(ctx, id, nil)
			if err != nil {
				if ctx.Err() == nil {
					m.log.Error(fmt.Sprintf(`reading mailbox %s failed - %v`, id, err))
				}
				return
			}

			select {
			case out <- msg:
			case <-ctx.Done():
				// a later subscription receives it instead
				if err = m.Requeue(context.Background(), id, msg); err != nil {
					m.log.Error(fmt.Sprintf(`requeueing message of mailbox %s failed - %v`, id, err))
				}
				return
			}
		}
	}()

	return out, nil
}

// Pending returns the number of queued messages
func (m *Memory) Pending(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.boxes[id]; ok {
		return len(b.queue)
	}
	return 0
}

func (m *Memory) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.boxes[id]
	return ok
}

// next pops the oldest message, blocking until one arrives. A nil expiry
// channel waits without a deadline.
func (m *Memory) next(ctx context.Context, id string, expiry <-chan time.Time) (models.InboundMessage, error) {
	for {
		e, signal, err := m.pop(id)
		if err != nil {
			return models.InboundMessage{}, err
		}

		if signal == nil {
			data := e.data
			if m.cmp != nil {
				if data, err = m.cmp.decompress(e.data); err != nil {
					return models.InboundMessage{}, err
				}
			}
			return models.InboundMessage{Data: data, ReceivedAt: e.receivedAt}, nil
		}

		select {
		case <-signal:
		case <-expiry:
			return models.InboundMessage{}, fmt.Errorf(`%w - mailbox %s`, domain.ErrTimeout, id)
		case <-ctx.Done():
			return models.InboundMessage{}, ctx.Err()
		}
	}
}

// pop returns the signal channel to wait on instead when the mailbox is empty
func (m *Memory) pop(id string) (entry, chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return entry{}, nil, fmt.Errorf(`%w - mailbox %s`, domain.ErrNotFound, id)
	}

	if len(b.queue) == 0 {
		return entry{}, b.signal, nil
	}

	e := b.queue[0]
	b.queue = b.queue[1:]
	return e, nil, nil
}
