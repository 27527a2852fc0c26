package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/tryfix/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	headerReceived      = `X-Received-At`
	// longest wait requested from the relay for a single poll
	maxLongPoll = 10 * time.Second
)

var errEmpty = errors.New(`mailbox is empty`)

// Feed streams messages pushed by the relay
type Feed interface {
	Subscribe(ctx context.Context, id string) (<-chan models.InboundMessage, error)
}

type Option func(c *Client)

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.poll = d }
}

// WithFeed makes subscriptions use the push feed instead of polling
func WithFeed(f Feed) Option {
	return func(c *Client) { c.feed = f }
}

// Client uses a hosted relay as the mailbox
type Client struct {
	baseURL string
	client  *http.Client
	poll    time.Duration
	feed    Feed
	log     log.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, `/`),
		client:  &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		poll:    defaultPollInterval,
		log:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) mailboxURL(id string) string {
	return c.baseURL + `/mailboxes/` + url.PathEscape(id)
}

func (c *Client) CreateMailbox(ctx context.Context, id string) (string, error) {
	res, err := c.do(ctx, http.MethodPut, c.mailboxURL(id), nil)
	if err != nil {
		return ``, err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return ``, statusErr(res)
	}

	var body struct {
		Endpoint string `json:"endpoint"`
	}
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		return ``, fmt.Errorf(`decoding relay response failed - %v`, err)
	}

	c.log.Trace(fmt.Sprintf(`mailbox %s created at relay (endpoint: %s)`, id, body.Endpoint))
	return body.Endpoint, nil
}

func (c *Client) StoreMessage(ctx context.Context, id string, data []byte) error {
	res, err := c.do(ctx, http.MethodPost, c.mailboxURL(id), data)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return statusErr(res)
	}
	return nil
}

// WaitForMessage long polls the relay until a message is available
func (c *Client) WaitForMessage(ctx context.Context, id string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var msg models.InboundMessage
	err := backoff.Retry(func() error {
		var err error
		msg, err = c.next(waitCtx, id, c.longPoll(deadline))
		if err != nil && !errors.Is(err, errEmpty) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.NewConstantBackOff(c.poll), waitCtx))

	if err == nil {
		return msg.Data, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if errors.Is(err, errEmpty) || waitCtx.Err() != nil {
		return nil, fmt.Errorf(`%w - mailbox %s (%s)`, domain.ErrTimeout, id, timeout)
	}
	return nil, err
}

func (c *Client) Subscribe(ctx context.Context, id string) (<-chan models.InboundMessage, error) {
	if c.feed != nil {
		return c.feed.Subscribe(ctx, id)
	}

	out := make(chan models.InboundMessage)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			wait := c.longPoll(time.Now().Add(maxLongPoll))
			msg, err := c.next(ctx, id, wait)
			if errors.Is(err, errEmpty) && wait > 0 {
				continue
			}

			if err != nil {
				if !errors.Is(err, errEmpty) && ctx.Err() == nil {
					c.log.Error(fmt.Sprintf(`polling mailbox %s failed - %v`, id, err))
				}

				select {
				case <-time.After(c.poll):
				case <-ctx.Done():
				}
				continue
			}

			select {
			case out <- msg:
			case <-ctx.Done():
				if err = c.Requeue(context.WithoutCancel(ctx), id, msg); err != nil {
					c.log.Error(fmt.Sprintf(`requeueing message of mailbox %s failed - %v`, id, err))
				}
			}
		}
	}()

	return out, nil
}

// Requeue returns a polled message to the head of the relay mailbox.
// Messages pushed over the feed are never taken off the relay queue, so
// nothing is returned for them.
func (c *Client) Requeue(ctx context.Context, id string, msg models.InboundMessage) error {
	if c.feed != nil {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.mailboxURL(id)+`/requeue`, msg.Data)
	if err != nil {
		return err
	}

	if !msg.ReceivedAt.IsZero() {
		req.Header.Set(headerReceived, msg.ReceivedAt.UTC().Format(time.RFC3339Nano))
	}

	res, err := c.send(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf(`%w - mailbox %s`, domain.ErrNotFound, id)
	case res.StatusCode/100 != 2:
		return statusErr(res)
	}
	return nil
}

// longPoll is the time the relay may hold a poll open, bounded by the
// deadline and the request timeout of the client
func (c *Client) longPoll(deadline time.Time) time.Duration {
	wait := time.Until(deadline)
	if wait > maxLongPoll {
		wait = maxLongPoll
	}

	if c.client.Timeout > 0 && wait > c.client.Timeout/2 {
		wait = c.client.Timeout / 2
	}

	if wait < 0 {
		return 0
	}
	return wait
}

func (c *Client) next(ctx context.Context, id string, wait time.Duration) (models.InboundMessage, error) {
	endpoint := c.mailboxURL(id) + `/next`
	if wait > 0 {
		endpoint += `?wait=` + strconv.FormatInt(wait.Milliseconds(), 10)
	}

	res, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.InboundMessage{}, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNoContent:
		return models.InboundMessage{}, errEmpty
	case res.StatusCode == http.StatusNotFound:
		return models.InboundMessage{}, fmt.Errorf(`%w - mailbox %s`, domain.ErrNotFound, id)
	case res.StatusCode/100 != 2:
		return models.InboundMessage{}, statusErr(res)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return models.InboundMessage{}, fmt.Errorf(`reading relay response failed - %v`, err)
	}

	receivedAt, err := time.Parse(time.RFC3339Nano, res.Header.Get(headerReceived))
	if err != nil {
		receivedAt = time.Now()
	}

	return models.InboundMessage{Data: data, ReceivedAt: receivedAt}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf(`creating relay request failed - %v`, err)
	}

	if body != nil {
		req.Header.Set(`Content-Type`, domain.EnvelopeMediaType)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	res, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.TransmissionError{Reason: domain.RequestFailed, Endpoint: req.URL.String(), Err: err}
	}
	return res, nil
}

func statusErr(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return &domain.TransmissionError{
		Reason:   domain.UnexpectedStatus,
		Endpoint: res.Request.URL.String(),
		Code:     res.StatusCode,
		Body:     strings.TrimSpace(string(body)),
	}
}
