package services

import "context"

/* client interfaces */

type Transporter interface {
	// Transmit delivers the opaque payload to an http(s) endpoint. Failures are
	// reported as *domain.TransmissionError.
	Transmit(ctx context.Context, data []byte, endpoint string) error
}
