package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func nullSession(version ProtocolVersion) *Session {
	s := NewSession()
	s.SetVersion(version)
	return s
}

func cbcSession(t *testing.T, version ProtocolVersion, explicitIV bool) *Session {
	t.Helper()
	s := NewSession()
	s.SetVersion(version)

	key := make([]byte, 16)
	iv := make([]byte, 16)
	macSecret := make([]byte, 20)

	params := CipherSuiteParams{
		MACAlgorithm:    MACSHA1,
		MACSecret:       macSecret,
		CipherAlgorithm: CipherAES128CBC,
		CipherKey:       key,
		CipherIV:        iv,
		Compression:     CompressionNull,
		ExplicitIV:      explicitIV,
	}

	require.NoError(t, s.InstallReadParams(params))
	require.NoError(t, s.InstallWriteParams(params))
	s.ActivateRead()
	s.ActivateWrite()
	return s
}

// NULL suite identity: the framed record is exactly the header prepended to
// the plaintext, byte for byte.
func TestScenario1_NullSuiteIdentity(t *testing.T) {
	s := nullSession(VersionTLS10)

	record, err := s.Protect(ContentTypeApplicationData, []byte("hello"), false)
	require.NoError(t, err)

	want := []byte{0x17, 0x03, 0x01, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	require.Equal(t, want, record)

	ct, plaintext, err := s.Unprotect(record)
	require.NoError(t, err)
	require.Equal(t, ContentTypeApplicationData, ct)
	require.Equal(t, []byte("hello"), plaintext)
}

// TLS 1.0 CBC round-trip with an implicit, chained IV.
func TestScenario2_TLS10CBCRoundTrip(t *testing.T) {
	s := cbcSession(t, VersionTLS10, false)

	record, err := s.Protect(ContentTypeApplicationData, []byte("A"), false)
	require.NoError(t, err)
	require.Len(t, record, 37)

	ct, plaintext, err := s.Unprotect(record)
	require.NoError(t, err)
	require.Equal(t, ContentTypeApplicationData, ct)
	require.Equal(t, []byte("A"), plaintext)
}

// CBC bad pad / bad MAC both surface the identical Kind.
func TestScenario3_CBCTamperYieldsUnifiedDecryptionFailed(t *testing.T) {
	newRecord := func(t *testing.T) []byte {
		t.Helper()
		s := cbcSession(t, VersionTLS10, false)
		record, err := s.Protect(ContentTypeApplicationData, []byte("A"), false)
		require.NoError(t, err)
		return record
	}

	t.Run("flip last fragment byte (pad)", func(t *testing.T) {
		record := newRecord(t)
		s := cbcSession(t, VersionTLS10, false)
		record[len(record)-1] ^= 0x01

		_, _, err := s.Unprotect(record)
		require.Error(t, err)
		require.Equal(t, KindDecryptionFailed, KindOf(err))
	})

	t.Run("flip a MAC byte", func(t *testing.T) {
		record := newRecord(t)
		s := cbcSession(t, VersionTLS10, false)
		record[len(record)-12] ^= 0x01 // inside the 20-byte MAC, before the pad

		_, _, err := s.Unprotect(record)
		require.Error(t, err)
		require.Equal(t, KindDecryptionFailed, KindOf(err))
	})
}

// Sequence advance across a CipherSpec activation.
func TestScenario5_SequenceResetsOnActivate(t *testing.T) {
	writer := cbcSession(t, VersionTLS10, false)

	for i := 0; i < 3; i++ {
		_, err := writer.Protect(ContentTypeApplicationData, []byte("x"), false)
		require.NoError(t, err)
	}
	require.Equal(t, uint64(3), writer.writeActive.seq)

	key2 := make([]byte, 16)
	for i := range key2 {
		key2[i] = byte(i + 1)
	}
	require.NoError(t, writer.InstallWriteParams(CipherSuiteParams{
		MACAlgorithm:    MACSHA1,
		MACSecret:       make([]byte, 20),
		CipherAlgorithm: CipherAES128CBC,
		CipherKey:       key2,
		CipherIV:        make([]byte, 16),
		Compression:     CompressionNull,
	}))
	writer.ActivateWrite()

	require.Equal(t, uint64(0), writer.writeActive.seq)

	record, err := writer.Protect(ContentTypeApplicationData, []byte("y"), false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), writer.writeActive.seq)
	require.NotEmpty(t, record)
}

// Oversize input rejected before any crypto runs.
func TestScenario6_OversizeInputRejected(t *testing.T) {
	s := cbcSession(t, VersionTLS10, false)
	payload := make([]byte, maxFragmentLen+1)

	seqBefore := s.writeActive.seq
	_, err := s.Protect(ContentTypeApplicationData, payload, false)
	require.Error(t, err)
	require.Equal(t, KindLargePacket, KindOf(err))
	require.Equal(t, seqBefore, s.writeActive.seq)
}

// Round-trip property across NULL, stream, and block suites.
func TestRoundTripProperty(t *testing.T) {
	sessions := map[string]func() (*Session, *Session){
		"null": func() (*Session, *Session) {
			return nullSession(VersionTLS10), nullSession(VersionTLS10)
		},
		"cbc-implicit-iv": func() (*Session, *Session) {
			a := cbcSession(t, VersionTLS10, false)
			b := cbcSession(t, VersionTLS10, false)
			return a, b
		},
		"cbc-explicit-iv-tls12": func() (*Session, *Session) {
			a := cbcSession(t, VersionTLS12, true)
			b := cbcSession(t, VersionTLS12, true)
			return a, b
		},
	}

	payloads := [][]byte{
		nil,
		[]byte("x"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		make([]byte, 1000),
	}

	for name, mk := range sessions {
		for _, payload := range payloads {
			t.Run(name, func(t *testing.T) {
				writer, reader := mk()
				for _, ct := range []ContentType{ContentTypeHandshake, ContentTypeApplicationData} {
					record, err := writer.Protect(ct, payload, true)
					require.NoError(t, err)

					gotCT, gotPlaintext, err := reader.Unprotect(record)
					require.NoError(t, err)
					require.Equal(t, ct, gotCT)
					if len(payload) == 0 {
						require.Empty(t, gotPlaintext)
					} else {
						require.Equal(t, payload, gotPlaintext)
					}
					require.Equal(t, writer.writeActive.seq, reader.readActive.seq)
				}
			})
		}
	}
}

// Two successive CBC protects of identical payloads produce distinct
// records.
func TestSequenceMonotonicityProducesDistinctRecords(t *testing.T) {
	s := cbcSession(t, VersionTLS10, false)

	r1, err := s.Protect(ContentTypeApplicationData, []byte("same payload"), false)
	require.NoError(t, err)
	r2, err := s.Protect(ContentTypeApplicationData, []byte("same payload"), false)
	require.NoError(t, err)

	require.NotEqual(t, r1, r2)
}

// A single-bit flip anywhere in a protected record's body is rejected.
func TestTamperRejectProperty(t *testing.T) {
	for bitPos := 0; bitPos < 37*8; bitPos++ {
		s := cbcSession(t, VersionTLS10, false)
		record, err := s.Protect(ContentTypeApplicationData, []byte("A"), false)
		require.NoError(t, err)

		byteIdx := recordHeaderLen + bitPos/8
		if byteIdx >= len(record) {
			continue
		}
		tampered := append([]byte(nil), record...)
		tampered[byteIdx] ^= 1 << uint(bitPos%8)

		reader := cbcSession(t, VersionTLS10, false)
		_, _, err = reader.Unprotect(tampered)
		require.Error(t, err)
		require.Equal(t, KindDecryptionFailed, KindOf(err))
	}
}

// Length bound: framed record size is always 5 + fragment_length.
func TestLengthBoundProperty(t *testing.T) {
	s := cbcSession(t, VersionTLS10, false)
	for _, n := range []int{0, 1, 15, 16, 17, 200} {
		record, err := s.Protect(ContentTypeApplicationData, make([]byte, n), false)
		require.NoError(t, err)

		_, _, length, _, err := decodeHeader(record)
		require.NoError(t, err)
		require.Equal(t, len(record), recordHeaderLen+length)
		require.Equal(t, 0, length%16, "CBC fragment length must be a block-size multiple")
	}
}

func TestUnprotectRejectsOversizeHeaderLength(t *testing.T) {
	s := nullSession(VersionTLS10)
	record := []byte{0x17, 0x03, 0x01, 0xff, 0xff}
	record = append(record, make([]byte, 0xffff)...)

	_, _, err := s.Unprotect(record)
	require.Error(t, err)
	require.Equal(t, KindLargePacket, KindOf(err))
}
