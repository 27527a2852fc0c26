package domain

import (
	"errors"
	"fmt"
)

// input and codec errors
var (
	ErrNotAnEnvelope         = errors.New(`not a didcomm envelope`)
	ErrUnknownMessageType    = errors.New(`unknown message type`)
	ErrFailedToParseMessage  = errors.New(`failed to parse message`)
	ErrUnsupportedDateFormat = errors.New(`unsupported date format`)
	ErrDuplicateTypeBinding  = errors.New(`message type is already bound to another kind`)
	ErrInvalidInvitation     = errors.New(`invalid invitation`)
)

// cryptographic errors
var (
	ErrDecryptionFailed            = errors.New(`decryption failed`)
	ErrSignatureVerificationFailed = errors.New(`signature verification failed`)
	ErrInvalidRecipients           = errors.New(`invalid recipients`)
	ErrKeyManagement               = errors.New(`key management error`)
)

// discovery, bounds and flow errors
var (
	ErrNoRecipientKey      = errors.New(`no recipient key found in did doc`)
	ErrNoSupportedEndpoint = errors.New(`no supported endpoint found in did doc`)
	ErrTooManyRoutingKeys  = errors.New(`too many routing keys`)
	ErrTimeout             = errors.New(`timed out waiting for message`)
	ErrNotFound            = errors.New(`not found`)
	ErrInvalidTransition   = errors.New(`invalid state transition`)
)

// transport errors
var (
	ErrUnsupportedEndpoint = errors.New(`unsupported endpoint`)
	ErrRequestFailed       = errors.New(`request failed`)
	ErrUnexpectedStatus    = errors.New(`unexpected status`)
)

// KeyManagementError wraps a failure reported by the key management collaborator.
type KeyManagementError struct {
	Op  string
	Err error
}

func (e *KeyManagementError) Error() string {
	return fmt.Sprintf(`key management operation '%s' failed - %v`, e.Op, e.Err)
}

func (e *KeyManagementError) Unwrap() error { return e.Err }

func (e *KeyManagementError) Is(target error) bool { return target == ErrKeyManagement }

// DateFormatError carries the original value which none of the accepted layouts could parse.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf(`%v: '%s'`, ErrUnsupportedDateFormat, e.Value)
}

func (e *DateFormatError) Is(target error) bool { return target == ErrUnsupportedDateFormat }

type TransmissionReason int

const (
	UnsupportedEndpoint TransmissionReason = iota
	RequestFailed
	UnexpectedStatus
)

func (r TransmissionReason) String() string {
	switch r {
	case UnsupportedEndpoint:
		return `unsupported-endpoint`
	case RequestFailed:
		return `request-failed`
	case UnexpectedStatus:
		return `unexpected-status`
	default:
		return `undefined`
	}
}

// TransmissionError is returned by transporters. Code and Body are only set
// for UnexpectedStatus.
type TransmissionError struct {
	Reason   TransmissionReason
	Endpoint string
	Code     int
	Body     string
	Err      error
}

func (e *TransmissionError) Error() string {
	switch e.Reason {
	case UnexpectedStatus:
		return fmt.Sprintf(`transmission to %s failed with status %d (%s)`, e.Endpoint, e.Code, e.Body)
	case UnsupportedEndpoint:
		return fmt.Sprintf(`transmission to %s failed - unsupported endpoint`, e.Endpoint)
	default:
		return fmt.Sprintf(`transmission to %s failed - %v`, e.Endpoint, e.Err)
	}
}

func (e *TransmissionError) Unwrap() error { return e.Err }

func (e *TransmissionError) Is(target error) bool {
	switch target {
	case ErrUnsupportedEndpoint:
		return e.Reason == UnsupportedEndpoint
	case ErrRequestFailed:
		return e.Reason == RequestFailed
	case ErrUnexpectedStatus:
		return e.Reason == UnexpectedStatus
	}
	return false
}
