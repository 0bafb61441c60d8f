package crfg

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// signingRoot builds the byte sequence a CRFG vote signature is computed
// over: message kind, round, set id and vote target, the same
// "hash the structured fields together" idiom the teacher's SealHash uses.
func signingRoot(kind messageKind, round, setID uint64, targetHash [32]byte, targetNum uint64) (h [32]byte) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte{byte(kind)})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], round)
	hasher.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], setID)
	hasher.Write(buf[:])
	hasher.Write(targetHash[:])
	binary.BigEndian.PutUint64(buf[:], targetNum)
	hasher.Write(buf[:])
	hasher.(crypto.KeccakState).Read(h[:])
	return h
}
