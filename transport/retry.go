package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/cenkalti/backoff/v4"
	"github.com/tryfix/log"
)

// Retrying retransmits on request failures and 5xx responses. Unsupported
// endpoints and other rejections are returned immediately.
type Retrying struct {
	next     services.Transporter
	retries  uint64
	interval time.Duration
	logger   log.Logger
}

func NewRetrying(next services.Transporter, retries uint64, interval time.Duration, logger log.Logger) *Retrying {
	return &Retrying{next: next, retries: retries, interval: interval, logger: logger}
}

func (r *Retrying) Transmit(ctx context.Context, data []byte, endpoint string) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := r.next.Transmit(ctx, data, endpoint)
		if err == nil || !retryable(err) {
			return permanent(err)
		}

		r.logger.Debug(fmt.Sprintf(`transmission attempt %d to %s failed - %v`, attempt, endpoint, err))
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(r.interval), r.retries), ctx))
}

func retryable(err error) bool {
	var trErr *domain.TransmissionError
	if !errors.As(err, &trErr) {
		return false
	}

	switch trErr.Reason {
	case domain.RequestFailed:
		return true
	case domain.UnexpectedStatus:
		return trErr.Code >= 500
	}
	return false
}

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
