// Package fingerprint computes the 64-bit content hash used to deduplicate
// runs. The hash covers every field of every parsed row in a fixed order, so
// byte-identical files always collide and distinct content practically never
// does. There is no secondary verification on collision: at local-run
// volumes the 64-bit space is treated as unique.
package fingerprint

import (
	"encoding/binary"
	"math"

	"aim-tracker/internal/domain"

	"github.com/cespare/xxhash/v2"
)

const (
	markAbsent  = 0x00
	markPresent = 0x01
)

// Run returns the content hash of a parsed run. Floats are hashed by their
// exact bit pattern, not a textual rendering, so near-equal values stay
// distinct.
func Run(run *domain.ParsedRun) int64 {
	d := xxhash.New()

	for _, tile := range run.Tiles {
		writeOptInt(d, tile.Kill)
		writeOptString(d, tile.Timestamp)
		writeOptString(d, tile.Bot)
		writeOptString(d, tile.Weapon)
		writeOptString(d, tile.TTK)
		writeOptInt(d, tile.Shots)
		writeOptFloat(d, tile.Accuracy)
		writeOptInt(d, tile.DamageDone)
		writeOptInt(d, tile.DamageTaken)
		writeOptFloat(d, tile.Efficiency)
		writeOptBool(d, tile.Cheated)
	}

	for _, kv := range run.KeyValues {
		writeString(d, kv.Key)
		writeString(d, kv.Value)
	}

	writeString(d, run.Stats.Weapon)
	writeInt(d, run.Stats.Shots)
	writeInt(d, run.Stats.Hits)
	writeFloat(d, run.Stats.DamageDone)
	writeFloat(d, run.Stats.DamagePossible)

	return int64(d.Sum64())
}

func writeString(d *xxhash.Digest, s string) {
	// Length prefix keeps adjacent strings from sliding into each other.
	writeInt(d, int64(len(s)))
	_, _ = d.WriteString(s)
}

func writeInt(d *xxhash.Digest, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = d.Write(buf[:])
}

func writeFloat(d *xxhash.Digest, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, _ = d.Write(buf[:])
}

func writeOptString(d *xxhash.Digest, v *string) {
	if v == nil {
		_, _ = d.Write([]byte{markAbsent})
		return
	}
	_, _ = d.Write([]byte{markPresent})
	writeString(d, *v)
}

func writeOptInt(d *xxhash.Digest, v *int64) {
	if v == nil {
		_, _ = d.Write([]byte{markAbsent})
		return
	}
	_, _ = d.Write([]byte{markPresent})
	writeInt(d, *v)
}

func writeOptFloat(d *xxhash.Digest, v *float64) {
	if v == nil {
		_, _ = d.Write([]byte{markAbsent})
		return
	}
	_, _ = d.Write([]byte{markPresent})
	writeFloat(d, *v)
}

func writeOptBool(d *xxhash.Digest, v *bool) {
	if v == nil {
		_, _ = d.Write([]byte{markAbsent})
		return
	}
	if *v {
		_, _ = d.Write([]byte{markPresent, 1})
	} else {
		_, _ = d.Write([]byte{markPresent, 0})
	}
}
