// Package seed turns shareable seed strings into simulation configs and back.
//
// Two forms exist. A plain seed ("abc123", "quiet amber fox") is hashed into
// a PCG generator whose draws, in a fixed order, produce the populations and
// the interaction matrix. A custom seed is '@' followed by base64 of a binary
// payload that spells the populations and the matrix out directly:
//
//	version      1 byte  (currently 1)
//	class count  1 byte
//	population   uint16 big endian, one per class
//	matrix       (power int8, radius uint8) per ordered pair, row major
//
// Encode always produces the custom form.
package seed

import (
	"encoding/base64"
	"encoding/binary"
	"hash/fnv"
	"math/bits"
	"math/rand/v2"
	"strings"

	"github.com/olivierh59500/particlelife/internal/matrix"
)

// CustomPrefix marks a seed that carries its payload inline
const CustomPrefix = "@"

const (
	payloadVersion = 1
	headerLen      = 2
	payloadLen     = headerLen + 2*ClassCount + 2*ClassCount*ClassCount

	// MaxPlainLen bounds plain seeds; longer strings are almost certainly
	// pasted garbage rather than something a person typed
	MaxPlainLen = 64

	pcgStream = 0x9e3779b97f4a7c15
)

var payloadEncoding = base64.RawURLEncoding

// Decode expands a seed string into a config. Plain seeds always succeed
// once they pass the character checks; custom seeds are fully validated.
func Decode(s string) (SimulationConfig, error) {
	if rest, ok := strings.CutPrefix(s, CustomPrefix); ok {
		return decodeCustom(rest)
	}
	return expand(s)
}

// Encode writes c as a custom seed
func Encode(c SimulationConfig) string {
	return CustomPrefix + payloadEncoding.EncodeToString(payload(c))
}

// RunSeed derives the 64-bit seed of the run's random stream from the config
// itself, so any two seed strings that decode to the same config spawn the
// same particles.
func RunSeed(c SimulationConfig) uint64 {
	h := fnv.New64a()
	h.Write(payload(c))
	return h.Sum64()
}

func payload(c SimulationConfig) []byte {
	buf := make([]byte, 0, payloadLen)
	buf = append(buf, payloadVersion, ClassCount)
	for _, p := range c.Population {
		buf = binary.BigEndian.AppendUint16(buf, uint16(min(max(p, 0), MaxPopulation)))
	}
	for _, p := range c.Matrix {
		power := min(max(matrix.PowerStep(p.Power), -matrix.PowerSteps), matrix.PowerSteps)
		radius := min(max(matrix.RadiusStep(p.Radius), 1), matrix.RadiusSteps)
		buf = append(buf, byte(int8(power)), byte(radius))
	}
	return buf
}

// maxCustomLen allows the padded standard form of a full payload
var maxCustomLen = payloadEncoding.EncodedLen(payloadLen) + 2

func decodeCustom(text string) (SimulationConfig, error) {
	if len(text) > maxCustomLen {
		return SimulationConfig{}, decodeErr(ErrMalformedSeed, "custom seed too long (%d characters, at most %d)", len(text), maxCustomLen)
	}
	text = strings.TrimRight(text, "=")
	data, err := payloadEncoding.DecodeString(text)
	if err != nil {
		// Seeds exported with the standard alphabet
		var stdErr error
		if data, stdErr = base64.RawStdEncoding.DecodeString(text); stdErr != nil {
			return SimulationConfig{}, decodeErr(ErrMalformedSeed, "payload is not base64: %v", err)
		}
	}
	if len(data) < headerLen {
		return SimulationConfig{}, decodeErr(ErrMalformedSeed, "payload too short (%d bytes)", len(data))
	}
	if data[0] != payloadVersion {
		return SimulationConfig{}, decodeErr(ErrMalformedSeed, "unknown payload version %d", data[0])
	}
	if int(data[1]) != ClassCount {
		return SimulationConfig{}, decodeErr(ErrIncompatibleClassCount, "seed has %d classes, build has %d", data[1], ClassCount)
	}
	if len(data) != payloadLen {
		return SimulationConfig{}, decodeErr(ErrMalformedSeed, "payload is %d bytes, want %d", len(data), payloadLen)
	}

	var pop [ClassCount]int
	off := headerLen
	for i := range pop {
		pop[i] = int(binary.BigEndian.Uint16(data[off:]))
		off += 2
		if pop[i] > MaxPopulation {
			return SimulationConfig{}, decodeErr(ErrOutOfRangeParameter, "class %d population %d above %d", i, pop[i], MaxPopulation)
		}
	}

	var m matrix.Matrix
	for i := range m {
		power, radius := int(int8(data[off])), int(data[off+1])
		off += 2
		if power < -matrix.PowerSteps || power > matrix.PowerSteps {
			return SimulationConfig{}, decodeErr(ErrOutOfRangeParameter, "pair (%d, %d) power step %d", i/ClassCount, i%ClassCount, power)
		}
		if radius == 0 {
			return SimulationConfig{}, decodeErr(ErrOutOfRangeParameter, "pair (%d, %d) radius is zero", i/ClassCount, i%ClassCount)
		}
		m[i] = matrix.Params{Power: matrix.PowerFromStep(power), Radius: matrix.RadiusFromStep(radius)}
	}
	return NewConfig(pop, m), nil
}

func checkPlain(s string) error {
	if strings.TrimSpace(s) == "" {
		return decodeErr(ErrMalformedSeed, "empty seed")
	}
	if len(s) > MaxPlainLen {
		return decodeErr(ErrMalformedSeed, "seed longer than %d bytes", MaxPlainLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return decodeErr(ErrMalformedSeed, "non-printable byte 0x%02x at %d", s[i], i)
		}
	}
	return nil
}

// expand draws a config from the seed's generator. Order: for each class i,
// the population of i, then for each class j the power step and the radius
// step of (i, j).
func expand(s string) (SimulationConfig, error) {
	if err := checkPlain(s); err != nil {
		return SimulationConfig{}, err
	}
	h := fnv.New64a()
	h.Write([]byte(s))
	sum := h.Sum64()
	g := generator{src: rand.NewPCG(sum, sum^pcgStream)}

	var pop [ClassCount]int
	var m matrix.Matrix
	for i := 0; i < ClassCount; i++ {
		pop[i] = RandomMinPopulation + g.intN(RandomMaxPopulation-RandomMinPopulation+1)
		for j := 0; j < ClassCount; j++ {
			power := g.intN(2*matrix.PowerSteps+1) - matrix.PowerSteps
			radius := 1 + g.intN(matrix.RadiusSteps)
			m[i*ClassCount+j] = matrix.Params{
				Power:  matrix.PowerFromStep(power),
				Radius: matrix.RadiusFromStep(radius),
			}
		}
	}
	return NewConfig(pop, m), nil
}

// generator draws bounded integers straight from the PCG output so seed
// expansion does not depend on how a library version maps bits to ranges.
type generator struct {
	src *rand.PCG
}

// intN returns a uniform value in [0, n) (Lemire's multiply-shift with
// rejection)
func (g generator) intN(n int) int {
	bound := uint64(n)
	hi, lo := bits.Mul64(g.src.Uint64(), bound)
	if lo < bound {
		threshold := -bound % bound
		for lo < threshold {
			hi, lo = bits.Mul64(g.src.Uint64(), bound)
		}
	}
	return int(hi)
}
