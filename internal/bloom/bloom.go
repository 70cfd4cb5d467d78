// Package bloom builds and probes the compact legality witness: a Bloom
// filter over a state's legal action words. The authority constructs it
// from the generator output; thin clients test their candidate action
// before submitting, without downloading the move list. False positives
// are expected and resolved by the authority's re-validation; false
// negatives never occur.
package bloom

import (
	"encoding/base64"
	"fmt"

	"github.com/mathmaxd-max/tribunplay/internal/board"
)

// FNV-1a constants; the per-probe seed is offset XOR (i * prime).
const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// Default sizing.
const (
	// DefaultK is the hash-function count.
	DefaultK = 3
	// MinBits is the smallest filter length.
	MinBits = 1024
)

// Witness is the packed filter: M bits probed by K seeded hashes.
type Witness struct {
	M    uint32
	K    uint32
	Bits []byte
}

// hash is FNV-1a over the 4 little-endian bytes of the action word, with
// the probe index folded into the offset basis.
func hash(a board.Action, i uint32) uint32 {
	h := fnvOffset ^ (i * fnvPrime)
	w := uint32(a)
	for s := 0; s < 32; s += 8 {
		h ^= w >> s & 0xFF
		h *= fnvPrime
	}
	return h
}

// New builds a witness with default sizing: m = max(1024, 8*len(actions)),
// k = 3.
func New(actions []board.Action) *Witness {
	m := uint32(8 * len(actions))
	if m < MinBits {
		m = MinBits
	}
	return Build(actions, m, DefaultK)
}

// Build constructs a witness of explicit dimensions. A zero m or k falls
// back to MinBits or DefaultK; every action in the set probes true
// afterwards.
func Build(actions []board.Action, m, k uint32) *Witness {
	if m == 0 {
		m = MinBits
	}
	if k == 0 {
		k = DefaultK
	}
	w := &Witness{M: m, K: k, Bits: make([]byte, (m+7)/8)}
	for _, a := range actions {
		for i := uint32(0); i < k; i++ {
			bit := hash(a, i) % m
			w.Bits[bit/8] |= 1 << (bit % 8)
		}
	}
	return w
}

// Probe reports whether the action may be a member of the encoded set.
// A false result is definitive; a true result still needs the authority's
// re-validation.
func (w *Witness) Probe(a board.Action) bool {
	for i := uint32(0); i < w.K; i++ {
		bit := hash(a, i) % w.M
		if w.Bits[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// Envelope is the core-boundary transport form of a witness, tied to the
// ply it was generated for.
type Envelope struct {
	Ply     int    `json:"ply"`
	M       uint32 `json:"m"`
	K       uint32 `json:"k"`
	BitsB64 string `json:"bitsB64"`
}

// ToEnvelope packs the witness for transport.
func (w *Witness) ToEnvelope(ply int) Envelope {
	return Envelope{
		Ply:     ply,
		M:       w.M,
		K:       w.K,
		BitsB64: base64.StdEncoding.EncodeToString(w.Bits),
	}
}

// FromEnvelope unpacks a transported witness, checking that the bit array
// matches the declared length.
func FromEnvelope(e Envelope) (*Witness, error) {
	bits, err := base64.StdEncoding.DecodeString(e.BitsB64)
	if err != nil {
		return nil, fmt.Errorf("witness bits: %w", err)
	}
	if e.M == 0 || e.K == 0 {
		return nil, fmt.Errorf("witness dimensions m=%d k=%d", e.M, e.K)
	}
	if uint32(len(bits)) != (e.M+7)/8 {
		return nil, fmt.Errorf("witness length %d, want %d bytes for m=%d", len(bits), (e.M+7)/8, e.M)
	}
	return &Witness{M: e.M, K: e.K, Bits: bits}, nil
}
