package record

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// macEngine computes the per-record MAC, either as HMAC (TLS) or as the SSL3
// MAC construction (SSL 3.0), grounded on
// _gnutls_compressed2TLSCiphertext's gnutls_hmac_init/gnutls_mac_init_ssl3
// split in gnutls_cipher.c.
type macEngine struct {
	algorithm MACAlgorithm
	ssl3      bool
	secret    []byte

	h      hash.Hash // HMAC path
	newH   func() hash.Hash
	ssl3H  hash.Hash // plain digest for the SSL3 construction
	ssl3In []byte    // accumulated data for the SSL3 construction
}

func newHashFunc(a MACAlgorithm) (func() hash.Hash, error) {
	switch a {
	case MACMD5:
		return md5.New, nil
	case MACSHA1:
		return sha1.New, nil
	case MACSHA256:
		return sha256.New, nil
	case MACSHA384:
		return sha512.New384, nil
	default:
		return nil, newError(KindUnknownMacAlgorithm, "mac.init", nil)
	}
}

// newMacEngine constructs a macEngine for algorithm using secret, in ssl3 or
// HMAC mode depending on ssl3. algorithm == MACNull is legal: finalize then
// always returns an empty tag.
func newMacEngine(algorithm MACAlgorithm, secret []byte, ssl3 bool) (*macEngine, error) {
	if algorithm == MACNull {
		return &macEngine{algorithm: algorithm}, nil
	}

	newH, err := newHashFunc(algorithm)
	if err != nil {
		return nil, err
	}

	m := &macEngine{algorithm: algorithm, ssl3: ssl3, secret: secret, newH: newH}
	if ssl3 {
		m.ssl3H = newH()
	} else {
		m.h = hmac.New(newH, secret)
	}
	return m, nil
}

// update feeds bytes into the running MAC computation.
func (m *macEngine) update(b []byte) {
	if m.algorithm == MACNull {
		return
	}
	if m.ssl3 {
		m.ssl3In = append(m.ssl3In, b...)
		return
	}
	m.h.Write(b)
}

// finalize returns the computed tag and resets the engine for reuse with the
// same secret (the next record's MAC).
func (m *macEngine) finalize() []byte {
	if m.algorithm == MACNull {
		return nil
	}
	if m.ssl3 {
		tag := ssl3MAC(m.newH, m.secret, m.ssl3In)
		m.ssl3In = m.ssl3In[:0]
		return tag
	}
	tag := m.h.Sum(nil)
	m.h.Reset()
	return tag
}

// size returns the MAC output length in bytes.
func (m *macEngine) size() int {
	return macDigestSize[m.algorithm]
}

// ssl3MAC implements the SSL 3.0 MAC construction: concatenation-based
// (not XOR-based) inner/outer padding, per RFC 6101 §5.2.3.1:
//
//	H(secret || pad2 || H(secret || pad1 || seq || type || length || data))
func ssl3MAC(newH func() hash.Hash, secret, data []byte) []byte {
	padLen := macSSL3PadLen[macAlgorithmFor(newH)]

	pad1 := make([]byte, padLen)
	for i := range pad1 {
		pad1[i] = 0x36
	}
	pad2 := make([]byte, padLen)
	for i := range pad2 {
		pad2[i] = 0x5c
	}

	inner := newH()
	inner.Write(secret)
	inner.Write(pad1)
	inner.Write(data)
	innerSum := inner.Sum(nil)

	outer := newH()
	outer.Write(secret)
	outer.Write(pad2)
	outer.Write(innerSum)
	return outer.Sum(nil)
}

// macAlgorithmFor maps a hash constructor back to its MACAlgorithm, solely to
// index the SSL3 pad-length table. Only MD5 and SHA1 are defined for SSL 3.0
// (RFC 6101 never specifies an SSL3 SHA256 construction).
func macAlgorithmFor(newH func() hash.Hash) MACAlgorithm {
	switch newH().Size() {
	case md5.Size:
		return MACMD5
	case sha1.Size:
		return MACSHA1
	default:
		return MACNull
	}
}
