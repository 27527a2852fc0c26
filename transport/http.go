package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/tryfix/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrBodySize = 1024

// HTTP posts packed messages to http(s) endpoints
type HTTP struct {
	client *http.Client
	logger log.Logger
}

func NewHTTP(timeout time.Duration, logger log.Logger) *HTTP {
	return &HTTP{
		client: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger: logger,
	}
}

func (h *HTTP) Transmit(ctx context.Context, data []byte, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || (strings.ToLower(u.Scheme) != `http` && strings.ToLower(u.Scheme) != `https`) {
		return &domain.TransmissionError{Reason: domain.UnsupportedEndpoint, Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return &domain.TransmissionError{Reason: domain.RequestFailed, Endpoint: endpoint, Err: err}
	}
	req.Header.Set(`Content-Type`, domain.EnvelopeMediaType)

	res, err := h.client.Do(req)
	if err != nil {
		h.logger.Error(fmt.Sprintf(`posting message to %s failed - %v`, endpoint, err))
		return &domain.TransmissionError{Reason: domain.RequestFailed, Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode/100 == 2 {
		h.logger.Trace(fmt.Sprintf(`message transmitted to %s (status: %d)`, endpoint, res.StatusCode))
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrBodySize))
	return &domain.TransmissionError{
		Reason:   domain.UnexpectedStatus,
		Endpoint: endpoint,
		Code:     res.StatusCode,
		Body:     string(body),
	}
}
