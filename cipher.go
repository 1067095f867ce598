package record

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rc4"
)

// cipherState is the opaque, per-direction state CipherEngine owns: the key
// schedule and, for CBC, the running IV carried forward from the previous
// record. The explicit-IV mode (TLS 1.1+) instead draws a fresh
// IV per record and never chains across records; see codec.go.
type cipherState struct {
	algorithm BulkCipherAlgorithm
	kind      CipherKind

	stream cipher.Stream // RC4
	block  cipher.Block  // AES/3DES key schedule
	iv     []byte        // running CBC IV (implicit-IV mode only)
}

// newCipherStateNull returns the identity cipher state used before any
// handshake has installed real key material.
func newCipherStateNull() *cipherState {
	return &cipherState{algorithm: CipherNull, kind: CipherKindNone}
}

// newCipherState constructs a cipherState for algorithm from key and iv. Key
// and IV lengths are validated against the static algorithm tables before
// any primitive is constructed: a handshake layer that hands this engine a
// key of the wrong length is a protocol error at the boundary, not an
// internal bug, so it surfaces as UnknownCipher rather than panicking inside
// crypto/aes or crypto/des.
func newCipherState(algorithm BulkCipherAlgorithm, key, iv []byte) (*cipherState, error) {
	if algorithm != CipherNull && len(key) != cipherKeySize[algorithm] {
		return nil, newError(KindUnknownCipher, "cipher.init", nil)
	}
	if algorithm.kind() == CipherKindBlock && len(iv) != cipherIVSize(algorithm) {
		return nil, newError(KindUnknownCipher, "cipher.init", nil)
	}

	switch algorithm {
	case CipherNull:
		return newCipherStateNull(), nil
	case CipherRC4128:
		s, err := rc4.NewCipher(key)
		if err != nil {
			return nil, newError(KindUnknownCipher, "cipher.init", err)
		}
		return &cipherState{algorithm: algorithm, kind: CipherKindStream, stream: s}, nil
	case CipherAES128CBC, CipherAES256CBC:
		b, err := aes.NewCipher(key)
		if err != nil {
			return nil, newError(KindUnknownCipher, "cipher.init", err)
		}
		return &cipherState{algorithm: algorithm, kind: CipherKindBlock, block: b, iv: append([]byte(nil), iv...)}, nil
	case Cipher3DESCBC:
		b, err := des.NewTripleDESCipher(key)
		if err != nil {
			return nil, newError(KindUnknownCipher, "cipher.init", err)
		}
		return &cipherState{algorithm: algorithm, kind: CipherKindBlock, block: b, iv: append([]byte(nil), iv...)}, nil
	default:
		return nil, newError(KindUnknownCipher, "cipher.init", nil)
	}
}

// blockSize returns the cipher's block size, or 0 for stream/null ciphers.
func (c *cipherState) blockSize() int {
	if c.block == nil {
		return 0
	}
	return c.block.BlockSize()
}

// encrypt encrypts buf in place under explicitIV (if non-nil, used instead of
// the running c.iv and not chained forward -- TLS 1.1+ mode) or the running
// implicit IV otherwise. buf's length must already be a block-size multiple
// for BLOCK ciphers; callers arrange padding before calling this.
func (c *cipherState) encrypt(buf []byte, explicitIV []byte) error {
	switch c.kind {
	case CipherKindNone:
		return nil
	case CipherKindStream:
		c.stream.XORKeyStream(buf, buf)
		return nil
	case CipherKindBlock:
		if len(buf) == 0 || len(buf)%c.block.BlockSize() != 0 {
			return newError(KindUnknownCipherType, "cipher.encrypt", nil)
		}
		iv := c.iv
		if explicitIV != nil {
			iv = explicitIV
		}
		enc := cipher.NewCBCEncrypter(c.block, iv)
		enc.CryptBlocks(buf, buf)
		if explicitIV == nil {
			c.iv = append([]byte(nil), buf[len(buf)-c.block.BlockSize():]...)
		}
		return nil
	default:
		return newError(KindUnknownCipherType, "cipher.encrypt", nil)
	}
}

// decrypt decrypts buf in place under explicitIV (if non-nil) or the running
// implicit IV otherwise. Returns DecryptionFailed for BLOCK ciphers
// whose input is not a positive block-size multiple -- this is an
// adversarial-input condition, not an internal bug, so it is a typed error
// rather than a panic.
func (c *cipherState) decrypt(buf []byte, explicitIV []byte) error {
	switch c.kind {
	case CipherKindNone:
		return nil
	case CipherKindStream:
		c.stream.XORKeyStream(buf, buf)
		return nil
	case CipherKindBlock:
		bs := c.block.BlockSize()
		if len(buf) == 0 || len(buf)%bs != 0 {
			return newError(KindDecryptionFailed, "cipher.decrypt", nil)
		}
		iv := c.iv
		if explicitIV != nil {
			iv = explicitIV
		}
		var nextIV []byte
		if explicitIV == nil {
			nextIV = append([]byte(nil), buf[len(buf)-bs:]...)
		}
		dec := cipher.NewCBCDecrypter(c.block, iv)
		dec.CryptBlocks(buf, buf)
		if nextIV != nil {
			c.iv = nextIV
		}
		return nil
	default:
		return newError(KindUnknownCipherType, "cipher.decrypt", nil)
	}
}

// zeroize clears the cipher state's key material as far as it can. Go's
// crypto/cipher.Block implementations do not expose their key schedule for
// in-place zeroization; the running IV, which the engine does own directly,
// is what is zeroized here along with dropping the reference to the block
// cipher so its schedule becomes unreachable and GC-eligible.
func (c *cipherState) zeroize() {
	for i := range c.iv {
		c.iv[i] = 0
	}
	c.block = nil
	c.stream = nil
}
