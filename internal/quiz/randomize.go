package quiz

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// Randomize draws a uniform permutation of the four options and assigns
// labels A-D in permuted order. It returns the label→text presentation and
// the label that landed on the correct option. The randomness source is
// explicit so tests can seed it; callers must use a fresh or properly
// seeded source per attempt so label assignment stays independent across
// attempts.
func Randomize(q QuestionSpec, rng *rand.Rand) (Presentation, Label) {
	perm := rng.Perm(4)
	p := make(Presentation, 4)
	var correct Label
	for slot, optIdx := range perm {
		label := Labels[slot]
		p[label] = q.Options[optIdx]
		if optIdx == q.CorrectIndex {
			correct = label
		}
	}
	return p, correct
}

// NewRand returns a math/rand source seeded from the OS CSPRNG, falling
// back to the wall clock if that fails.
func NewRand() *rand.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}
