package record

import "fmt"

// ContentType is the top-level record category carried in the record header.
type ContentType uint8

const (
	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
	ContentTypeApplicationData  ContentType = 23
)

func (t ContentType) String() string {
	switch t {
	case ContentTypeChangeCipherSpec:
		return "change_cipher_spec"
	case ContentTypeAlert:
		return "alert"
	case ContentTypeHandshake:
		return "handshake"
	case ContentTypeApplicationData:
		return "application_data"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func (t ContentType) valid() bool {
	switch t {
	case ContentTypeChangeCipherSpec, ContentTypeAlert, ContentTypeHandshake, ContentTypeApplicationData:
		return true
	default:
		return false
	}
}

// ProtocolVersion is the two-byte (major, minor) version field of the record header.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

var (
	VersionSSL30 = ProtocolVersion{3, 0}
	VersionTLS10 = ProtocolVersion{3, 1}
	VersionTLS11 = ProtocolVersion{3, 2}
	VersionTLS12 = ProtocolVersion{3, 3}
)

func (v ProtocolVersion) String() string {
	switch v {
	case VersionSSL30:
		return "SSL3.0"
	case VersionTLS10:
		return "TLS1.0"
	case VersionTLS11:
		return "TLS1.1"
	case VersionTLS12:
		return "TLS1.2"
	default:
		return fmt.Sprintf("(%d,%d)", v.Major, v.Minor)
	}
}

// isSSL3 reports whether the version byte pair selects SSL 3.0 MAC/record semantics.
func (v ProtocolVersion) isSSL3() bool {
	return v == VersionSSL30
}

// atLeast reports whether v is the same as or newer than other.
func (v ProtocolVersion) atLeast(other ProtocolVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

// MACAlgorithm identifies the MAC primitive of a CipherSpec.
type MACAlgorithm uint8

const (
	MACNull MACAlgorithm = iota
	MACMD5
	MACSHA1
	MACSHA256
	MACSHA384
)

// BulkCipherAlgorithm identifies the bulk cipher primitive of a CipherSpec.
type BulkCipherAlgorithm uint8

const (
	CipherNull BulkCipherAlgorithm = iota
	CipherRC4128
	CipherAES128CBC
	CipherAES256CBC
	Cipher3DESCBC
)

// CipherKind classifies a BulkCipherAlgorithm into the shape its CipherEngine needs.
type CipherKind uint8

const (
	CipherKindNone CipherKind = iota
	CipherKindStream
	CipherKindBlock
)

func (a BulkCipherAlgorithm) kind() CipherKind {
	switch a {
	case CipherNull:
		return CipherKindNone
	case CipherRC4128:
		return CipherKindStream
	case CipherAES128CBC, CipherAES256CBC, Cipher3DESCBC:
		return CipherKindBlock
	default:
		return CipherKindNone
	}
}

// CompressionAlgorithm identifies the compression primitive of a CipherSpec.
type CompressionAlgorithm uint8

const (
	CompressionNull CompressionAlgorithm = iota
	CompressionDeflate
)

// maxFragmentLen is the maximum plaintext fragment length (2^14) accepted by Protect.
const maxFragmentLen = 1 << 14

// maxCiphertextLen is the maximum ciphertext fragment length accepted on the
// wire: length MUST be <= 2^14 + 2048.
const maxCiphertextLen = maxFragmentLen + 2048

// recordHeaderLen is the fixed 5-byte record header length.
const recordHeaderLen = 5

// sequenceNumberLen is the length in bytes of the sequence number as it appears in the MAC input.
const sequenceNumberLen = 8
