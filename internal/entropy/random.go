// Package entropy provides seedable, deterministic random streams.
// Every stochastic decision draws from a stream keyed by (seed, key, tick),
// so results never depend on the order goroutines run in.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	mrand "math/rand/v2"
)

// Stream offsets keep subsystems from sharing sequences for the same key.
const (
	SaltDecision uint64 = 0x9e3779b97f4a7c15
	SaltCombat   uint64 = 0xbf58476d1ce4e5b9
	SaltSpawn    uint64 = 0x94d049bb133111eb
	SaltWorld    uint64 = 0x2545f4914f6cdd1d
)

// Source derives independent random streams from a single seed.
type Source struct {
	seed int64
}

// New returns a deterministic source for seed.
func New(seed int64) *Source {
	return &Source{seed: seed}
}

// Live returns a source seeded from crypto/rand, for play sessions that do
// not need reproducibility.
func Live() *Source {
	return &Source{seed: cryptoSeed()}
}

// Seed returns the seed this source was built from.
func (s *Source) Seed() int64 {
	return s.seed
}

// Stream returns a generator unique to (salt, key, tick).
func (s *Source) Stream(salt uint64, key string, tick uint64) *mrand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return mrand.New(mrand.NewPCG(uint64(s.seed)^salt, h.Sum64()+tick*0x9e3779b97f4a7c15))
}

// Float returns a single draw in [0, 1) for (salt, key, tick).
func (s *Source) Float(salt uint64, key string, tick uint64) float64 {
	return s.Stream(salt, key, tick).Float64()
}

// cryptoSeed reads 63 bits from crypto/rand. Falls back to a fixed seed if
// the system source fails, which should never happen.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 42
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
