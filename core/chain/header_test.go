package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testHeader() *Header {
	return &Header{
		ParentHash:     common.HexToHash("0x01"),
		Number:         7,
		ShardNum:       2,
		StateRoot:      common.HexToHash("0x02"),
		ExtrinsicsRoot: common.HexToHash("0x03"),
	}
}

func testSeal() *Seal {
	return &Seal{
		AuthorityID: common.HexToAddress("0xaa"),
		Difficulty:  big.NewInt(1024),
		Timestamp:   1_700_000_000_000,
		WorkProof: WorkProof{
			Kind:  WorkProofNonce,
			Nonce: NewProofNonce("yeeroot-", 8, 42),
		},
		Signature: []byte{0xde, 0xad, 0xbe, 0xef},
	}
}

func TestHeaderPreHashDropsSeal(t *testing.T) {
	h := testHeader()
	unsealedHash := h.Hash()

	sealed := h.WithSeal(testSeal())
	require.NotEqual(t, unsealedHash, sealed.Hash())
	require.Equal(t, unsealedHash, sealed.PreHash())
}

func TestHeaderSealRoundTrip(t *testing.T) {
	h := testHeader()
	s := testSeal()
	sealed := h.WithSeal(s)

	got, ok := sealed.Seal()
	require.True(t, ok)
	require.Equal(t, s.AuthorityID, got.AuthorityID)
	require.Equal(t, 0, s.Difficulty.Cmp(got.Difficulty))
	require.Equal(t, s.Timestamp, got.Timestamp)
	require.Equal(t, s.WorkProof.Nonce.Nonce, got.WorkProof.Nonce.Nonce)
	require.Equal(t, s.Signature, got.Signature)
	require.Equal(t, s.Timestamp, sealed.Time)
}

func TestHeaderNoSeal(t *testing.T) {
	h := testHeader()
	_, ok := h.Seal()
	require.False(t, ok)
}

func TestHeaderCopyIsIndependent(t *testing.T) {
	h := testHeader()
	h.Digest = []DigestItem{NewOtherDigest([]byte("x"))}
	cpy := h.Copy()
	cpy.Digest[0] = NewOtherDigest([]byte("y"))
	require.Equal(t, []byte("x"), h.Digest[0].Payload)
}

func TestScheduledAndForcedChangeDigests(t *testing.T) {
	h := testHeader()
	sc := &ScheduledChange{
		NextAuthorities: []Authority{{ID: AuthorityID{1}, Weight: 1}},
		DelayBlocks:     10,
	}
	fc := &ForcedChange{
		NextAuthorities:     []Authority{{ID: AuthorityID{2}, Weight: 1}},
		MedianLastFinalized: 3,
	}
	h.Digest = append(h.Digest, NewScheduledChangeDigest(sc), NewForcedChangeDigest(fc))

	scs := h.ScheduledChanges()
	require.Len(t, scs, 1)
	require.Equal(t, uint64(10), scs[0].DelayBlocks)

	fcs := h.ForcedChanges()
	require.Len(t, fcs, 1)
	require.Equal(t, uint64(3), fcs[0].MedianLastFinalized)
}

func TestProofNoncePrefixPadding(t *testing.T) {
	n := NewProofNonce("yee", 8, 99)
	require.Equal(t, uint8(8), n.PrefixLen)
	b := n.Bytes()
	require.Len(t, b, 16)
	require.Equal(t, []byte("yee\x00\x00\x00\x00\x00"), b[:8])
}

func TestJustificationVerify(t *testing.T) {
	target := common.HexToHash("0xbeef")
	j := &Justification{
		Round:      1,
		TargetHash: target,
		TargetNum:  5,
		Commit: CompactCommit{
			TargetHash: target,
			TargetNum:  5,
			Precommits: []SignedMessage{
				{Message: Precommit{TargetHash: target, TargetNum: 5}, ID: AuthorityID{1}},
			},
		},
	}
	require.NoError(t, j.Verify())

	j.Commit.Precommits[0].Message.TargetNum = 6
	require.Error(t, j.Verify())
}
