package record

import "github.com/rs/zerolog"

// logger is the minimal structured-trace surface the engine needs. It exists
// so *Session can accept either a zerolog.Logger wrapped in ZerologAdapter or
// the silent default without importing zerolog into every call site's
// signature.
type logger interface {
	trace(event string, direction string, contentType ContentType, seq uint64, fragmentLen int)
}

// noopLogger is the default: Protect/Unprotect never pay for logging unless
// a caller opts in via Session.SetLogger.
type noopLogger struct{}

func (noopLogger) trace(string, string, ContentType, uint64, int) {}

// ZerologAdapter wraps a zerolog.Logger as a record.logger, emitting one
// debug-level event per successful Protect/Unprotect call; failed calls are
// not logged. It never logs key material,
// MAC secrets, or plaintext/ciphertext bytes -- only the metadata a
// transport-layer trace needs (sequence number, content type, fragment
// length).
type ZerologAdapter struct {
	Logger zerolog.Logger
}

func (z ZerologAdapter) trace(event, direction string, ct ContentType, seq uint64, fragmentLen int) {
	z.Logger.Debug().
		Str("event", event).
		Str("direction", direction).
		Str("content_type", ct.String()).
		Uint64("seq", seq).
		Int("fragment_len", fragmentLen).
		Msg("record layer")
}
