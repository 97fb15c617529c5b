package relay

import "errors"

// The five error kinds callers can match on with errors.Is. Each is a
// sentinel wrapped with fmt.Errorf-style %w so call sites can attach
// context without losing the underlying class.
var (
	// ErrAdmissionReject means a LoginRequest failed evaluation; no
	// PlayerRecord was created. The caller already has the RejectCode
	// needed to answer the client, so this sentinel only distinguishes
	// the error class in logs.
	ErrAdmissionReject = errors.New("admission rejected")

	// ErrUnknownClient means an inbound frame referenced an id with no
	// PlayerRecord, typically a benign race with a disconnect.
	ErrUnknownClient = errors.New("unknown client")

	// ErrProtocolViolation means a frame violated a structural rule of
	// the protocol (e.g. EntitySpawn from a non-host).
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrInvalidArgument means an external call supplied a value the
	// core will not act on (missing id, nil message, oversized message).
	// State is left untouched.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSubscriberPanic is logged when an event subscriber callback
	// panics; the emission boundary recovers it so other subscribers
	// still run and core state is unaffected.
	ErrSubscriberPanic = errors.New("subscriber panic")
)
