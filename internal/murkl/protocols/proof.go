package protocols

import (
	"encoding/binary"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/merkle"
)

// serializedFoldingFactor is the sibling-group arity fixed by the wire
// format.
const serializedFoldingFactor = 4

// PublicInputs are the boundary values a proof commits to.
type PublicInputs struct {
	// InitialState holds the initial boundary values.
	InitialState []core.M31
	// FinalState holds the final boundary values.
	FinalState []core.M31
}

// NewPublicInputs creates public inputs from the two boundary vectors.
func NewPublicInputs(initial, final []core.M31) PublicInputs {
	return PublicInputs{InitialState: initial, FinalState: final}
}

// IsEmpty reports whether no boundary values are declared.
func (p PublicInputs) IsEmpty() bool {
	return len(p.InitialState) == 0 && len(p.FinalState) == 0
}

// Bytes encodes the public inputs: u32 count plus 4-byte values, for each
// vector in order.
func (p PublicInputs) Bytes() []byte {
	out := make([]byte, 0, 8+4*(len(p.InitialState)+len(p.FinalState)))
	out = appendM31Slice(out, p.InitialState)
	out = appendM31Slice(out, p.FinalState)
	return out
}

// Equal reports whether two public input sets are identical.
func (p PublicInputs) Equal(other PublicInputs) bool {
	return m31SlicesEqual(p.InitialState, other.InitialState) &&
		m31SlicesEqual(p.FinalState, other.FinalState)
}

// Opening is a single committed value together with its authentication
// path.
type Opening struct {
	Value core.M31
	Path  *merkle.Path
}

// QueryProof opens every trace column and the composition column at one
// query position.
type QueryProof struct {
	// Index is the query position in the evaluation domain.
	Index uint32
	// TraceOpenings holds one opening per trace column, in column order.
	TraceOpenings []Opening
	// Composition is the composition column opening.
	Composition Opening
}

// Proof is a complete STARK proof.
type Proof struct {
	// TraceRoots are the per-column trace commitments.
	TraceRoots []merkle.Hash
	// CompositionRoot commits the composition column.
	CompositionRoot merkle.Hash
	// TraceOODS and CompositionOODS are the out-of-domain samples bound
	// into the transcript.
	TraceOODS       core.QM31
	CompositionOODS core.QM31
	// Fri is the low-degree test transcript.
	Fri *FriProof
	// QueryProofs hold the trace and composition openings.
	QueryProofs []QueryProof
	// PublicInputs are the declared boundary values.
	PublicInputs PublicInputs
}

// Serialize encodes the proof into the canonical byte layout consumed by
// the on-chain verifier, followed by the public-inputs block. All
// integers are little-endian; there is no padding.
func (p *Proof) Serialize() []byte {
	var out []byte

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(p.TraceRoots)))
	out = append(out, count[:]...)
	for _, root := range p.TraceRoots {
		out = append(out, root[:]...)
	}

	out = append(out, p.CompositionRoot[:]...)

	traceOODS := p.TraceOODS.Bytes()
	out = append(out, traceOODS[:]...)
	compOODS := p.CompositionOODS.Bytes()
	out = append(out, compOODS[:]...)

	out = append(out, byte(len(p.Fri.LayerCommitments)))
	for _, lc := range p.Fri.LayerCommitments {
		out = append(out, lc.Root[:]...)
	}

	var polyLen [2]byte
	binary.LittleEndian.PutUint16(polyLen[:], uint16(len(p.Fri.FinalPoly)))
	out = append(out, polyLen[:]...)
	for _, coeff := range p.Fri.FinalPoly {
		b := coeff.Bytes()
		out = append(out, b[:]...)
	}

	out = append(out, byte(len(p.QueryProofs)))
	for qi, query := range p.QueryProofs {
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], query.Index)
		out = append(out, idx[:]...)

		for _, opening := range query.TraceOpenings {
			out = appendOpening(out, opening)
		}
		out = appendOpening(out, query.Composition)

		friQuery := &p.Fri.QueryProofs[qi]
		for _, lv := range friQuery.LayerValues {
			out = append(out, byte(len(lv.Siblings)))
			for _, sib := range lv.Siblings {
				b := sib.Bytes()
				out = append(out, b[:]...)
			}
			out = append(out, byte(len(lv.MerklePath.Siblings)))
			for _, node := range lv.MerklePath.Siblings {
				out = append(out, node[:]...)
			}
		}
	}

	out = append(out, p.PublicInputs.Bytes()...)

	return out
}

// Deserialize is the exact inverse of Serialize. Truncated, over-long, or
// malformed input is a hard error.
func Deserialize(data []byte) (*Proof, error) {
	r := &byteReader{buf: data}

	numRoots, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if numRoots == 0 {
		return nil, serializationError("proof has no trace roots")
	}

	proof := &Proof{Fri: &FriProof{}}
	proof.TraceRoots = make([]merkle.Hash, numRoots)
	for i := range proof.TraceRoots {
		if proof.TraceRoots[i], err = r.hash(); err != nil {
			return nil, err
		}
	}

	if proof.CompositionRoot, err = r.hash(); err != nil {
		return nil, err
	}
	if proof.TraceOODS, err = r.qm31(); err != nil {
		return nil, err
	}
	if proof.CompositionOODS, err = r.qm31(); err != nil {
		return nil, err
	}

	numLayers, err := r.byte()
	if err != nil {
		return nil, err
	}
	proof.Fri.LayerCommitments = make([]FriLayerCommitment, numLayers)
	for i := range proof.Fri.LayerCommitments {
		if proof.Fri.LayerCommitments[i].Root, err = r.hash(); err != nil {
			return nil, err
		}
	}

	polyLen, err := r.uint16()
	if err != nil {
		return nil, err
	}
	proof.Fri.FinalPoly = make([]core.QM31, polyLen)
	for i := range proof.Fri.FinalPoly {
		if proof.Fri.FinalPoly[i], err = r.qm31(); err != nil {
			return nil, err
		}
	}

	numQueries, err := r.byte()
	if err != nil {
		return nil, err
	}
	proof.QueryProofs = make([]QueryProof, numQueries)
	proof.Fri.QueryProofs = make([]FriQueryProof, numQueries)
	for qi := range proof.QueryProofs {
		index, err := r.uint32()
		if err != nil {
			return nil, err
		}
		proof.QueryProofs[qi].Index = index
		proof.Fri.QueryProofs[qi].QueryIndex = index

		proof.QueryProofs[qi].TraceOpenings = make([]Opening, numRoots)
		for col := range proof.QueryProofs[qi].TraceOpenings {
			opening, err := r.opening(index)
			if err != nil {
				return nil, err
			}
			proof.QueryProofs[qi].TraceOpenings[col] = opening
		}

		if proof.QueryProofs[qi].Composition, err = r.opening(index); err != nil {
			return nil, err
		}

		layerValues := make([]FriLayerValue, numLayers)
		friIndex := index
		for layer := range layerValues {
			sibCount, err := r.byte()
			if err != nil {
				return nil, err
			}
			if sibCount != serializedFoldingFactor {
				return nil, serializationError("layer %d sibling count %d, wire format fixes %d",
					layer, sibCount, serializedFoldingFactor)
			}

			siblings := make([]core.QM31, sibCount)
			for s := range siblings {
				if siblings[s], err = r.qm31(); err != nil {
					return nil, err
				}
			}

			group := friIndex / serializedFoldingFactor
			pathLen, err := r.byte()
			if err != nil {
				return nil, err
			}
			nodes := make([]merkle.Hash, pathLen)
			for n := range nodes {
				if nodes[n], err = r.hash(); err != nil {
					return nil, err
				}
			}

			layerValues[layer] = FriLayerValue{
				Siblings:   siblings,
				MerklePath: &merkle.Path{Siblings: nodes, LeafIndex: group},
			}
			if qi == 0 {
				// Layer sizes are not carried on the wire; a group tree
				// of depth d commits a codeword of size 2^(d+2).
				proof.Fri.LayerCommitments[layer].LogSize = uint32(pathLen) + 2
			}
			friIndex = group
		}
		proof.Fri.QueryProofs[qi].LayerValues = layerValues
	}

	initial, err := r.m31Slice()
	if err != nil {
		return nil, err
	}
	final, err := r.m31Slice()
	if err != nil {
		return nil, err
	}
	proof.PublicInputs = PublicInputs{InitialState: initial, FinalState: final}

	if !r.done() {
		return nil, serializationError("%d trailing bytes", r.remaining())
	}

	return proof, nil
}

// Equal reports whether two proofs are byte-for-byte equivalent.
func (p *Proof) Equal(other *Proof) bool {
	if len(p.TraceRoots) != len(other.TraceRoots) {
		return false
	}
	for i := range p.TraceRoots {
		if p.TraceRoots[i] != other.TraceRoots[i] {
			return false
		}
	}
	if p.CompositionRoot != other.CompositionRoot {
		return false
	}
	if p.TraceOODS != other.TraceOODS || p.CompositionOODS != other.CompositionOODS {
		return false
	}
	if !p.PublicInputs.Equal(other.PublicInputs) {
		return false
	}
	if len(p.QueryProofs) != len(other.QueryProofs) {
		return false
	}
	for i := range p.QueryProofs {
		if !queryProofsEqual(&p.QueryProofs[i], &other.QueryProofs[i]) {
			return false
		}
	}
	return friProofsEqual(p.Fri, other.Fri)
}

func queryProofsEqual(a, b *QueryProof) bool {
	if a.Index != b.Index || len(a.TraceOpenings) != len(b.TraceOpenings) {
		return false
	}
	for i := range a.TraceOpenings {
		if !openingsEqual(a.TraceOpenings[i], b.TraceOpenings[i]) {
			return false
		}
	}
	return openingsEqual(a.Composition, b.Composition)
}

func openingsEqual(a, b Opening) bool {
	if a.Value != b.Value {
		return false
	}
	if (a.Path == nil) != (b.Path == nil) {
		return false
	}
	if a.Path == nil {
		return true
	}
	return a.Path.Equal(b.Path)
}

func friProofsEqual(a, b *FriProof) bool {
	if len(a.LayerCommitments) != len(b.LayerCommitments) ||
		len(a.QueryProofs) != len(b.QueryProofs) ||
		len(a.FinalPoly) != len(b.FinalPoly) {
		return false
	}
	for i := range a.LayerCommitments {
		if a.LayerCommitments[i] != b.LayerCommitments[i] {
			return false
		}
	}
	for i := range a.FinalPoly {
		if a.FinalPoly[i] != b.FinalPoly[i] {
			return false
		}
	}
	for i := range a.QueryProofs {
		qa, qb := &a.QueryProofs[i], &b.QueryProofs[i]
		if qa.QueryIndex != qb.QueryIndex || len(qa.LayerValues) != len(qb.LayerValues) {
			return false
		}
		for l := range qa.LayerValues {
			la, lb := &qa.LayerValues[l], &qb.LayerValues[l]
			if len(la.Siblings) != len(lb.Siblings) {
				return false
			}
			for s := range la.Siblings {
				if la.Siblings[s] != lb.Siblings[s] {
					return false
				}
			}
			if !la.MerklePath.Equal(lb.MerklePath) {
				return false
			}
		}
	}
	return true
}

// appendOpening writes an opening: a 32-byte leaf slot carrying the M31
// value little-endian in its first four bytes, then the path.
func appendOpening(out []byte, opening Opening) []byte {
	var slot [32]byte
	v := opening.Value.Bytes()
	copy(slot[:4], v[:])
	out = append(out, slot[:]...)

	out = append(out, byte(len(opening.Path.Siblings)))
	for _, node := range opening.Path.Siblings {
		out = append(out, node[:]...)
	}
	return out
}

func appendM31Slice(out []byte, values []core.M31) []byte {
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(values)))
	out = append(out, count[:]...)
	for _, v := range values {
		b := v.Bytes()
		out = append(out, b[:]...)
	}
	return out
}

func m31SlicesEqual(a, b []core.M31) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// byteReader walks the proof bytes; every short read is a
// SerializationError.
type byteReader struct {
	buf []byte
	off int
}

func (r *byteReader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, serializationError("truncated input at offset %d", r.off)
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *byteReader) byte() (int, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

func (r *byteReader) uint16() (int, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint16(b)), nil
}

func (r *byteReader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) hash() (merkle.Hash, error) {
	b, err := r.take(32)
	if err != nil {
		return merkle.Hash{}, err
	}
	var h merkle.Hash
	copy(h[:], b)
	return h, nil
}

func (r *byteReader) qm31() (core.QM31, error) {
	b, err := r.take(16)
	if err != nil {
		return core.QM31{}, err
	}
	var enc [16]byte
	copy(enc[:], b)
	return core.QM31FromBytes(enc), nil
}

func (r *byteReader) opening(index uint32) (Opening, error) {
	slot, err := r.take(32)
	if err != nil {
		return Opening{}, err
	}
	value := core.M31FromBytes([4]byte(slot[:4]))

	pathLen, err := r.byte()
	if err != nil {
		return Opening{}, err
	}
	nodes := make([]merkle.Hash, pathLen)
	for i := range nodes {
		if nodes[i], err = r.hash(); err != nil {
			return Opening{}, err
		}
	}

	return Opening{
		Value: value,
		Path:  &merkle.Path{Siblings: nodes, LeafIndex: index},
	}, nil
}

func (r *byteReader) m31Slice() ([]core.M31, error) {
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if int(count)*4 > r.remaining() {
		return nil, serializationError("truncated input at offset %d", r.off)
	}
	out := make([]core.M31, count)
	for i := range out {
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		out[i] = core.M31FromBytes([4]byte(b))
	}
	return out, nil
}

func (r *byteReader) done() bool {
	return r.off == len(r.buf)
}

func (r *byteReader) remaining() int {
	return len(r.buf) - r.off
}
