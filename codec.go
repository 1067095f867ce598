package record

import (
	"crypto/rand"
	"crypto/subtle"
)

// Protect transforms plaintext into one fully framed, authenticated,
// encrypted record. randomPad, when true, extends CBC padding by zero or
// one extra block of uniformly random length (TLS only, never SSL 3.0).
func (s *Session) Protect(ct ContentType, plaintext []byte, randomPad bool) ([]byte, error) {
	if err := s.checkNotTerminal("protect"); err != nil {
		return nil, err
	}
	if !ct.valid() {
		return nil, s.fail(newError(KindUnexpectedPacketLength, "protect", nil))
	}
	if len(plaintext) > maxFragmentLen {
		return nil, s.fail(newError(KindLargePacket, "protect", nil))
	}

	cs := s.writeActive

	compressed, err := cs.compression.compress(plaintext)
	if err != nil {
		return nil, s.fail(err)
	}

	seq, err := cs.advanceSeqDryRun()
	if err != nil {
		return nil, s.fail(err)
	}

	mac := computeMAC(cs, s.version, seq, ct, compressed)

	fragment, explicitIV, err := buildFragment(cs, s.version, compressed, mac, randomPad)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := cs.cipher.encrypt(fragment, explicitIV); err != nil {
		return nil, s.fail(err)
	}

	out := fragment
	if explicitIV != nil {
		out = append(append([]byte(nil), explicitIV...), fragment...)
	}
	if len(out) > maxCiphertextLen {
		return nil, s.fail(newError(KindLargePacket, "protect", nil))
	}

	header := encodeHeader(ct, s.version, len(out))
	record := append(header, out...)

	// Sequence number only advances after the record is fully built: a
	// failed Protect above never reaches here.
	if _, err := cs.advanceSeq(); err != nil {
		return nil, s.fail(err)
	}

	s.log.trace("protect", "write", ct, seq, len(out))
	return record, nil
}

// Unprotect parses, decrypts, verifies, and decompresses one complete
// record.
func (s *Session) Unprotect(record []byte) (ContentType, []byte, error) {
	if err := s.checkNotTerminal("unprotect"); err != nil {
		return 0, nil, err
	}

	ct, _, length, fragment, err := decodeHeader(record)
	if err != nil {
		return 0, nil, s.fail(err)
	}
	if length > maxCiphertextLen {
		return 0, nil, s.fail(newError(KindLargePacket, "unprotect", nil))
	}
	if len(fragment) != length {
		return 0, nil, s.fail(newError(KindUnexpectedPacketLength, "unprotect", nil))
	}
	if !ct.valid() {
		return 0, nil, s.fail(newError(KindUnexpectedPacketLength, "unprotect", nil))
	}

	cs := s.readActive

	explicitIV, ciphertext := splitExplicitIV(cs, fragment)

	if err := cs.cipher.decrypt(ciphertext, explicitIV); err != nil {
		return 0, nil, s.fail(newError(KindDecryptionFailed, "unprotect", nil))
	}

	seq, err := cs.advanceSeqDryRun()
	if err != nil {
		return 0, nil, s.fail(err)
	}

	compressed, padOK, err := stripMACAndPad(cs, s.version, seq, ct, ciphertext)
	if err != nil {
		return 0, nil, s.fail(err)
	}
	if !padOK {
		// MAC and pad checks always both run to completion (padOK is
		// computed, never short-circuited) before this branch, so the two
		// failure paths take the same time and return the same Kind --
		// this is the padding-oracle mitigation: no observable difference
		// between a bad pad and a bad MAC.
		return 0, nil, s.fail(newError(KindDecryptionFailed, "unprotect", nil))
	}

	plaintext, err := cs.compression.decompress(compressed)
	if err != nil {
		return 0, nil, s.fail(err)
	}
	if len(plaintext) > maxFragmentLen {
		return 0, nil, s.fail(newError(KindUnexpectedPacketLength, "unprotect", nil))
	}

	if _, err := cs.advanceSeq(); err != nil {
		return 0, nil, s.fail(err)
	}

	s.log.trace("unprotect", "read", ct, seq, length)
	return ct, plaintext, nil
}

// advanceSeqDryRun previews the current sequence number without advancing
// it -- used to compute the MAC input before commit, since the MAC is
// always over the sequence number the record is actually sent/received at.
func (c *connectionState) advanceSeqDryRun() (uint64, error) {
	if c.seq == ^uint64(0) {
		return 0, newError(KindSequenceExhausted, "connstate.advance_seq", nil)
	}
	return c.seq, nil
}

// macInput builds the MAC input:
// seq(8B BE) || type(1B) || version(2B, TLS only) || length(2B BE) || data.
func macInput(m *macEngine, v ProtocolVersion, seq uint64, ct ContentType, data []byte) {
	var seqBuf [sequenceNumberLen]byte
	for i := 0; i < sequenceNumberLen; i++ {
		seqBuf[i] = byte(seq >> uint(8*(sequenceNumberLen-1-i)))
	}
	m.update(seqBuf[:])
	m.update([]byte{byte(ct)})
	if !v.isSSL3() {
		m.update([]byte{v.Major, v.Minor})
	}
	var lenBuf [2]byte
	lenBuf[0] = byte(len(data) >> 8)
	lenBuf[1] = byte(len(data))
	m.update(lenBuf[:])
	m.update(data)
}

func computeMAC(cs *connectionState, v ProtocolVersion, seq uint64, ct ContentType, compressed []byte) []byte {
	macInput(cs.mac, v, seq, ct, compressed)
	return cs.mac.finalize()
}

// buildFragment assembles compressed||MAC (and, for BLOCK ciphers, padding)
// into one owned buffer ready for in-place encryption. For explicit-IV
// mode it also draws a fresh random IV and returns it
// separately (it is never padded or MACed, only prepended to the wire
// fragment after encryption).
func buildFragment(cs *connectionState, v ProtocolVersion, compressed, mac []byte, randomPad bool) (fragment []byte, explicitIV []byte, err error) {
	switch cs.cipher.kind {
	case CipherKindNone, CipherKindStream:
		fragment = make([]byte, 0, len(compressed)+len(mac))
		fragment = append(fragment, compressed...)
		fragment = append(fragment, mac...)
		return fragment, nil, nil

	case CipherKindBlock:
		bs := cs.cipher.blockSize()
		l := len(compressed) + len(mac)
		padLen := bs - (l % bs)

		if randomPad && !v.isSSL3() {
			padLen += randomExtraBlock(bs)
		}

		fragment = make([]byte, l+padLen)
		copy(fragment, compressed)
		copy(fragment[len(compressed):], mac)
		for i := l; i < len(fragment); i++ {
			fragment[i] = byte(padLen - 1)
		}

		if cs.explicitIV {
			iv := make([]byte, cs.cipher.blockSize())
			if _, err := rand.Read(iv); err != nil {
				return nil, nil, newError(KindMemoryError, "protect.explicit_iv", err)
			}
			return fragment, iv, nil
		}
		return fragment, nil, nil

	default:
		return nil, nil, newError(KindUnknownCipherType, "protect", nil)
	}
}

// randomExtraBlock returns either 0 or blockSize, chosen uniformly -- a
// uniformly chosen multiple of block_size bounded by exactly one extra
// block, never more (some implementations' rand-scaling arithmetic can
// exceed one block; this never does).
func randomExtraBlock(blockSize int) int {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	if b[0] < 128 {
		return 0
	}
	return blockSize
}

// splitExplicitIV strips and returns the prepended explicit IV block (TLS
// 1.1+ CBC mode) from fragment, or returns (nil, fragment) unchanged for
// implicit-IV connections and non-block ciphers.
func splitExplicitIV(cs *connectionState, fragment []byte) (explicitIV, rest []byte) {
	if cs.cipher.kind != CipherKindBlock || !cs.explicitIV {
		return nil, fragment
	}
	bs := cs.cipher.blockSize()
	if len(fragment) < bs {
		return nil, fragment
	}
	return fragment[:bs], fragment[bs:]
}

// stripMACAndPad validates padding and MAC, running both checks to
// completion over a canonical length regardless of which (if
// either) fails, so that timing and the returned boolean never distinguish
// "bad pad" from "bad MAC" -- only stripMACAndPad's caller ever sees a
// single bit of information (padOK), and only after both checks are done.
func stripMACAndPad(cs *connectionState, v ProtocolVersion, seq uint64, ct ContentType, ciphertext []byte) (compressed []byte, ok bool, err error) {
	macSize := cs.mac.size()

	switch cs.cipher.kind {
	case CipherKindNone, CipherKindStream:
		if len(ciphertext) < macSize {
			return nil, false, nil
		}
		split := len(ciphertext) - macSize
		compressed = ciphertext[:split]
		gotMAC := ciphertext[split:]
		macInput(cs.mac, v, seq, ct, compressed)
		wantMAC := cs.mac.finalize()
		return compressed, subtle.ConstantTimeCompare(wantMAC, gotMAC) == 1, nil

	case CipherKindBlock:
		bs := cs.cipher.blockSize()
		if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
			return nil, false, newError(KindDecryptionFailed, "unprotect", nil)
		}

		padLen := int(ciphertext[len(ciphertext)-1]) + 1
		lengthOK := padLen <= len(ciphertext)-macSize

		// Canonicalize the split point so the MAC is always computed over a
		// fixed-shape slice even when padLen is bogus: clamp to the
		// smallest legal compressed length (0) so the work done is
		// independent of the (possibly adversarial) pad byte.
		effectivePad := padLen
		if !lengthOK {
			effectivePad = len(ciphertext) - macSize
			if effectivePad < 0 {
				effectivePad = 0
			}
		}

		split := len(ciphertext) - macSize - effectivePad
		if split < 0 {
			split = 0
		}
		compressed = ciphertext[:split]
		macStart := split
		macEnd := macStart + macSize
		if macEnd > len(ciphertext) {
			macEnd = len(ciphertext)
		}
		gotMAC := ciphertext[macStart:macEnd]

		padContentOK := true
		if !v.isSSL3() {
			padContentOK = checkPadding(ciphertext, len(ciphertext)-effectivePad, effectivePad, padLen-1)
		}

		macInput(cs.mac, v, seq, ct, compressed)
		wantMAC := cs.mac.finalize()
		macOK := subtle.ConstantTimeCompare(wantMAC, padMACForCompare(wantMAC, gotMAC)) == 1

		return compressed, lengthOK && padContentOK && macOK, nil

	default:
		return nil, false, newError(KindUnknownCipherType, "unprotect", nil)
	}
}

// checkPadding verifies that every pad byte in ciphertext[start:start+n]
// equals want: every byte is checked, none are skipped,
// and the loop always runs n iterations regardless of where a mismatch
// occurs so it cannot leak the mismatch position through timing.
func checkPadding(ciphertext []byte, start, n int, want byte) bool {
	diff := byte(0)
	for i := 0; i < n; i++ {
		idx := start + i
		var b byte
		if idx >= 0 && idx < len(ciphertext) {
			b = ciphertext[idx]
		}
		diff |= b ^ want
	}
	return diff == 0
}

// padMACForCompare returns gotMAC unchanged when it is the expected length,
// or a same-length zero buffer otherwise, so ConstantTimeCompare's
// length-mismatch fast path is never reachable with adversarial input and
// every comparison takes the same number of byte operations.
func padMACForCompare(want, got []byte) []byte {
	if len(got) == len(want) {
		return got
	}
	return make([]byte, len(want))
}
