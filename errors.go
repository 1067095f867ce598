package record

import (
	"errors"
	"fmt"
)

// Kind is a stable, documented error code for every failure mode the engine
// can surface. Values are part of the public contract: callers may switch on
// Kind, but must never distinguish DecryptionFailed's three trigger
// conditions (bad alignment, bad pad, bad MAC).
type Kind int

const (
	KindNone Kind = iota
	KindUnknownMacAlgorithm
	KindUnknownCipher
	KindUnknownCipherType
	KindUnknownCompressionAlgorithm
	KindLargePacket
	KindUnexpectedPacketLength
	KindDecryptionFailed
	KindCompressionFailed
	KindMemoryError
	KindSequenceExhausted
	KindWarningAlertReceived
	KindInvalidSession
)

// fatalKinds mirrors gnutls_errors.c's error_algorithms table: every kind is
// fatal except WarningAlertReceived.
var fatalKinds = map[Kind]bool{
	KindUnknownMacAlgorithm:         true,
	KindUnknownCipher:               true,
	KindUnknownCipherType:           true,
	KindUnknownCompressionAlgorithm: true,
	KindLargePacket:                 true,
	KindUnexpectedPacketLength:      true,
	KindDecryptionFailed:            true,
	KindCompressionFailed:           true,
	KindMemoryError:                 true,
	KindSequenceExhausted:           true,
	KindWarningAlertReceived:        false,
	KindInvalidSession:              true,
}

// Fatal reports whether an error of this kind moves the owning Session into
// its terminal state.
func (k Kind) Fatal() bool {
	return fatalKinds[k]
}

func (k Kind) String() string {
	switch k {
	case KindUnknownMacAlgorithm:
		return "unknown_mac_algorithm"
	case KindUnknownCipher:
		return "unknown_cipher"
	case KindUnknownCipherType:
		return "unknown_cipher_type"
	case KindUnknownCompressionAlgorithm:
		return "unknown_compression_algorithm"
	case KindLargePacket:
		return "large_packet"
	case KindUnexpectedPacketLength:
		return "unexpected_packet_length"
	case KindDecryptionFailed:
		return "decryption_failed"
	case KindCompressionFailed:
		return "compression_failed"
	case KindMemoryError:
		return "memory_error"
	case KindSequenceExhausted:
		return "sequence_exhausted"
	case KindWarningAlertReceived:
		return "warning_alert_received"
	case KindInvalidSession:
		return "invalid_session"
	default:
		return "none"
	}
}

// Error is the single error type the engine returns. It never exposes more
// detail than Kind for conditions that must be indistinguishable to an
// adversary.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func newError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, err: cause}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("record: %s: %s: %v", e.Op, e.Kind, e.err)
	}
	return fmt.Sprintf("record: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target shares this error's Kind, so callers can write
// errors.Is(err, &record.Error{Kind: record.KindDecryptionFailed}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind from err, or KindNone if err is not (or does not
// wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
