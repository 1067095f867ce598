package record

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// compressionExpansionCap bounds how much larger the compressed output may
// be than the input: output size <= input size + 1024.
const compressionExpansionCap = 1024

// compressionState is the opaque, per-direction state CompressionStage owns.
type compressionState struct {
	algorithm CompressionAlgorithm
}

func newCompressionState(algorithm CompressionAlgorithm) (*compressionState, error) {
	switch algorithm {
	case CompressionNull, CompressionDeflate:
		return &compressionState{algorithm: algorithm}, nil
	default:
		return nil, newError(KindUnknownCompressionAlgorithm, "compress.init", nil)
	}
}

// compress compresses in using the DEFLATE implementation from
// klauspost/compress in place of the standard library's compress/flate.
// Empty input is a short-circuit identity.
func (c *compressionState) compress(in []byte) ([]byte, error) {
	if len(in) == 0 || c.algorithm == CompressionNull {
		return in, nil
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, newError(KindCompressionFailed, "compress", err)
	}
	if _, err := w.Write(in); err != nil {
		return nil, newError(KindCompressionFailed, "compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, newError(KindCompressionFailed, "compress", err)
	}

	if buf.Len() > len(in)+compressionExpansionCap {
		return nil, newError(KindCompressionFailed, "compress", nil)
	}
	return buf.Bytes(), nil
}

// decompress inverts compress. Empty input is a short-circuit identity. The
// output is bounded by maxFragmentLen, the largest plaintext fragment any
// compressed record could legitimately expand to -- compressionExpansionCap
// bounds the compress direction only, since DEFLATE routinely expands its
// input by far more than 1024 bytes.
func (c *compressionState) decompress(in []byte) ([]byte, error) {
	if len(in) == 0 || c.algorithm == CompressionNull {
		return in, nil
	}

	r := flate.NewReader(bytes.NewReader(in))
	defer r.Close()

	limited := io.LimitReader(r, int64(maxFragmentLen)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, newError(KindCompressionFailed, "decompress", err)
	}
	if len(out) > maxFragmentLen {
		return nil, newError(KindCompressionFailed, "decompress", nil)
	}
	return out, nil
}

func (c *compressionState) zeroize() {
	// No retained key material: compression state carries no secrets.
}
