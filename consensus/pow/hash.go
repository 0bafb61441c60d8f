package pow

import (
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// keccak256 hashes data the same way the teacher's oasys.go SealHash does:
// a reusable Legacy Keccak-256 state read directly into a fixed array.
func keccak256(data []byte) (h [32]byte) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	hasher.(crypto.KeccakState).Read(h[:])
	return h
}
