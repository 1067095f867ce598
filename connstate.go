package record

import "math"

// CipherSuiteParams is the handshake layer's entire configuration surface
// into this engine: the tuple of algorithms and secrets that becomes one
// direction's ConnectionState.
type CipherSuiteParams struct {
	MACAlgorithm    MACAlgorithm
	MACSecret       []byte
	CipherAlgorithm BulkCipherAlgorithm
	CipherKey       []byte
	CipherIV        []byte
	Compression     CompressionAlgorithm
	SSL3            bool // selects the SSL3 MAC construction instead of HMAC
	ExplicitIV      bool // TLS 1.1+: prepend a fresh IV block per record
}

// connectionState holds the active cryptographic parameters for one
// direction.
type connectionState struct {
	mac         *macEngine
	cipher      *cipherState
	compression *compressionState
	ssl3        bool
	explicitIV  bool
	seq         uint64
}

func newNullConnectionState() *connectionState {
	mac, _ := newMacEngine(MACNull, nil, false)
	comp, _ := newCompressionState(CompressionNull)
	return &connectionState{
		mac:         mac,
		cipher:      newCipherStateNull(),
		compression: comp,
	}
}

func newConnectionState(p CipherSuiteParams) (*connectionState, error) {
	mac, err := newMacEngine(p.MACAlgorithm, p.MACSecret, p.SSL3)
	if err != nil {
		return nil, err
	}
	cs, err := newCipherState(p.CipherAlgorithm, p.CipherKey, p.CipherIV)
	if err != nil {
		return nil, err
	}
	comp, err := newCompressionState(p.Compression)
	if err != nil {
		return nil, err
	}
	return &connectionState{
		mac:         mac,
		cipher:      cs,
		compression: comp,
		ssl3:        p.SSL3,
		explicitIV:  p.ExplicitIV,
	}, nil
}

// advanceSeq returns the pre-increment sequence number and advances it by
// one. Fails SequenceExhausted rather than wrapping; the sequence number is
// left unchanged on failure so a cancelled/failed operation never silently
// advances state.
func (c *connectionState) advanceSeq() (uint64, error) {
	if c.seq == math.MaxUint64 {
		return 0, newError(KindSequenceExhausted, "connstate.advance_seq", nil)
	}
	seq := c.seq
	c.seq++
	return seq, nil
}

// zeroize overwrites all key material owned by this connectionState.
func (c *connectionState) zeroize() {
	for i := range c.mac.secret {
		c.mac.secret[i] = 0
	}
	c.cipher.zeroize()
	c.compression.zeroize()
}

// Session holds the two directions (read, write) of a record-layer
// connection, each with an active and a pending ConnectionState. A Session
// is single-owner and non-reentrant: callers must not invoke
// Protect/Unprotect concurrently on the same Session.
type Session struct {
	version ProtocolVersion

	readActive   *connectionState
	readPending  *connectionState
	writeActive  *connectionState
	writePending *connectionState

	terminal bool
	log      logger
}

// NewSession returns a Session in the NULL cipher suite for both directions.
func NewSession() *Session {
	return &Session{
		version:     VersionTLS10,
		readActive:  newNullConnectionState(),
		writeActive: newNullConnectionState(),
		log:         noopLogger{},
	}
}

// Version returns the negotiated protocol version used for header
// construction and MAC input (TLS variants only; SSL3 omits the version
// field from the MAC input).
func (s *Session) Version() ProtocolVersion {
	return s.version
}

// SetVersion sets the negotiated protocol version.
func (s *Session) SetVersion(v ProtocolVersion) {
	s.version = v
}

// InstallReadParams stages new read-direction parameters in the pending
// slot; they take effect on the next ActivateRead call.
func (s *Session) InstallReadParams(p CipherSuiteParams) error {
	cs, err := newConnectionState(p)
	if err != nil {
		return err
	}
	s.readPending = cs
	return nil
}

// InstallWriteParams stages new write-direction parameters in the pending
// slot; they take effect on the next ActivateWrite call.
func (s *Session) InstallWriteParams(p CipherSuiteParams) error {
	cs, err := newConnectionState(p)
	if err != nil {
		return err
	}
	s.writePending = cs
	return nil
}

// ActivateRead installs the pending read ConnectionState as active,
// resetting the read sequence number to zero and zeroizing the displaced
// state, atomically with respect to Protect/Unprotect: readActive is
// swapped in one assignment, so no partially-updated state is ever
// observable.
func (s *Session) ActivateRead() {
	if s.readPending == nil {
		return
	}
	old := s.readActive
	s.readActive = s.readPending
	s.readPending = nil
	if old != nil {
		old.zeroize()
	}
}

// ActivateWrite is the write-direction counterpart of ActivateRead.
func (s *Session) ActivateWrite() {
	if s.writePending == nil {
		return
	}
	old := s.writeActive
	s.writeActive = s.writePending
	s.writePending = nil
	if old != nil {
		old.zeroize()
	}
}

// SetLogger opts the Session into structured trace logging. The default
// Session is silent.
func (s *Session) SetLogger(l logger) {
	if l == nil {
		l = noopLogger{}
	}
	s.log = l
}

// Close zeroizes all key material in both directions (active and pending)
// and moves the Session into its terminal state.
func (s *Session) Close() {
	for _, cs := range []*connectionState{s.readActive, s.readPending, s.writeActive, s.writePending} {
		if cs != nil {
			cs.zeroize()
		}
	}
	s.terminal = true
}

// fail moves the Session into its terminal state if kind is fatal, and
// returns the error unchanged.
func (s *Session) fail(err error) error {
	if k := KindOf(err); k.Fatal() {
		s.terminal = true
	}
	return err
}

func (s *Session) checkNotTerminal(op string) error {
	if s.terminal {
		return newError(KindInvalidSession, op, nil)
	}
	return nil
}
