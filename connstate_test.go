package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceSeqMonotonic(t *testing.T) {
	cs := newNullConnectionState()
	for i := uint64(0); i < 5; i++ {
		got, err := cs.advanceSeq()
		require.NoError(t, err)
		require.Equal(t, i, got)
	}
}

func TestAdvanceSeqExhaustion(t *testing.T) {
	cs := newNullConnectionState()
	cs.seq = ^uint64(0)

	_, err := cs.advanceSeq()
	require.Error(t, err)
	require.Equal(t, KindSequenceExhausted, KindOf(err))
	require.True(t, KindOf(err).Fatal())

	// A failed advance must not have mutated state.
	require.Equal(t, ^uint64(0), cs.seq)
}

func TestActivateResetsSequenceAndZeroizesDisplaced(t *testing.T) {
	s := NewSession()

	secret := []byte("0123456789012345678901234567890123456789")
	err := s.InstallWriteParams(CipherSuiteParams{
		MACAlgorithm:    MACSHA256,
		MACSecret:       secret,
		CipherAlgorithm: CipherNull,
		Compression:     CompressionNull,
	})
	require.NoError(t, err)
	s.ActivateWrite()

	err = s.InstallWriteParams(CipherSuiteParams{
		MACAlgorithm:    MACSHA256,
		MACSecret:       []byte("abcdefghijabcdefghijabcdefghijabcdefghij"),
		CipherAlgorithm: CipherNull,
		Compression:     CompressionNull,
	})
	require.NoError(t, err)

	s.writeActive.seq = 42
	displaced := s.writeActive

	s.ActivateWrite()

	require.Equal(t, uint64(0), s.writeActive.seq)
	require.Nil(t, s.writePending)
	require.Len(t, displaced.mac.secret, 40)
	for _, b := range displaced.mac.secret {
		require.Equal(t, byte(0), b)
	}
}

func TestActivateWithNoPendingIsNoop(t *testing.T) {
	s := NewSession()
	before := s.readActive
	s.ActivateRead()
	require.Same(t, before, s.readActive)
}

func TestCloseZeroizesAndTerminatesSession(t *testing.T) {
	s := NewSession()
	key := []byte("0123456789abcdef")
	iv := []byte("abcdef0123456789")
	require.NoError(t, s.InstallWriteParams(CipherSuiteParams{
		MACAlgorithm:    MACSHA1,
		MACSecret:       make([]byte, 20),
		CipherAlgorithm: CipherAES128CBC,
		CipherKey:       key,
		CipherIV:        iv,
		Compression:     CompressionNull,
	}))
	s.ActivateWrite()

	s.Close()
	require.True(t, s.terminal)
	for _, b := range s.writeActive.cipher.iv {
		require.Equal(t, byte(0), b)
	}
	require.Nil(t, s.writeActive.cipher.block)

	_, err := s.Protect(ContentTypeApplicationData, []byte("x"), false)
	require.Error(t, err)
	require.Equal(t, KindInvalidSession, KindOf(err))
}
