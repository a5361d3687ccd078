package protocols

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/hashing"
	"github.com/exidz/murkl/internal/murkl/utils"
)

// ProtocolTag seeds every transcript; prover and verifier must agree on it
// before anything is absorbed.
const ProtocolTag = "murkl-stark-v1"

// Transcript is the Fiat-Shamir state: a 32-byte digest plus a
// monotonically increasing squeeze counter.
//
// For identical absorb/squeeze sequences the transcript is fully
// deterministic; prover and verifier must absorb commitments in the same
// order before squeezing any challenge derived from them.
type Transcript struct {
	state   [32]byte
	counter uint64
}

// NewTranscript creates a transcript seeded with the protocol tag.
func NewTranscript() *Transcript {
	return &Transcript{state: hashing.Keccak([]byte(ProtocolTag))}
}

// Absorb folds data into the state: state <- Keccak(state || data).
func (t *Transcript) Absorb(data []byte) {
	t.state = hashing.Keccak(t.state[:], data)
}

// AbsorbM31 absorbs the 4-byte encoding of a field element.
func (t *Transcript) AbsorbM31(v core.M31) {
	b := v.Bytes()
	t.Absorb(b[:])
}

// AbsorbQM31 absorbs the 16-byte encoding of an extension element.
func (t *Transcript) AbsorbQM31(v core.QM31) {
	b := v.Bytes()
	t.Absorb(b[:])
}

// SqueezeScalar draws one base-field challenge:
// state <- Keccak(state || counter_le), counter increments, and the first
// four little-endian bytes of the new state reduce to M31.
func (t *Transcript) SqueezeScalar() core.M31 {
	var counter [8]byte
	binary.LittleEndian.PutUint64(counter[:], t.counter)
	t.counter++

	t.state = hashing.Keccak(t.state[:], counter[:])
	v := binary.LittleEndian.Uint32(t.state[:4])
	return core.NewM31(v % core.Prime)
}

// SqueezeScalars draws several base-field challenges.
func (t *Transcript) SqueezeScalars(count int) []core.M31 {
	out := make([]core.M31, count)
	for i := range out {
		out[i] = t.SqueezeScalar()
	}
	return out
}

// SqueezeExtensionScalar assembles an extension challenge from four
// base-field squeezes.
func (t *Transcript) SqueezeExtensionScalar() core.QM31 {
	a := t.SqueezeScalar()
	b := t.SqueezeScalar()
	c := t.SqueezeScalar()
	d := t.SqueezeScalar()
	return core.NewQM31(a, b, c, d)
}

// SqueezeIndices draws count distinct indices in [0, upperBound) by
// rejection on uniqueness.
func (t *Transcript) SqueezeIndices(count, upperBound int) ([]uint32, error) {
	if upperBound <= 0 || !utils.IsPowerOfTwo(upperBound) {
		return nil, invalidConfig("index bound %d is not a power of two", upperBound)
	}
	if count > upperBound {
		return nil, invalidConfig("cannot draw %d distinct indices below %d", count, upperBound)
	}

	seen := bitset.New(uint(upperBound))
	indices := make([]uint32, 0, count)
	for len(indices) < count {
		idx := t.SqueezeScalar().Value() % uint32(upperBound)
		if seen.Test(uint(idx)) {
			continue
		}
		seen.Set(uint(idx))
		indices = append(indices, idx)
	}
	return indices, nil
}

// State returns a copy of the current digest.
func (t *Transcript) State() [32]byte {
	return t.state
}
