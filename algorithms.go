package record

// Static algorithm metadata tables, mirroring the module-scope tables GnuTLS
// keeps for block sizes and digest sizes (see _gnutls_cipher_get_block_size,
// _gnutls_mac_get_digest_size in gnutls_cipher.c).

// macDigestSize is the MAC output size in bytes for each MAC algorithm.
var macDigestSize = map[MACAlgorithm]int{
	MACNull:   0,
	MACMD5:    16,
	MACSHA1:   20,
	MACSHA256: 32,
	MACSHA384: 48,
}

// macSSL3PadLen is the length of the SSL3MAC pad1/pad2 buffers, keyed by MAC
// algorithm: 48 bytes for MD5, 40 bytes for SHA1 (RFC 6101 §5.2.3.1).
var macSSL3PadLen = map[MACAlgorithm]int{
	MACMD5:  48,
	MACSHA1: 40,
}

// cipherKeySize is the key length in bytes for each bulk cipher algorithm.
var cipherKeySize = map[BulkCipherAlgorithm]int{
	CipherNull:      0,
	CipherRC4128:    16,
	CipherAES128CBC: 16,
	CipherAES256CBC: 32,
	Cipher3DESCBC:   24,
}

// cipherBlockSize is the block size in bytes for each block cipher algorithm;
// zero for stream/null ciphers.
var cipherBlockSize = map[BulkCipherAlgorithm]int{
	CipherNull:      0,
	CipherRC4128:    0,
	CipherAES128CBC: 16,
	CipherAES256CBC: 16,
	Cipher3DESCBC:   8,
}

// cipherIVSize is the IV length in bytes for each block cipher algorithm.
func cipherIVSize(a BulkCipherAlgorithm) int {
	return cipherBlockSize[a]
}
