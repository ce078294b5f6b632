// internal/config/fingerprint.go
package config

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a checksum over every Connect field.
//
// The communication loop compares it every cycle and drops the cached
// connection on change. Collisions (1:2^64) are ignored.
func (c Connect) Fingerprint() uint64 {
	d := xxhash.New()

	writeString(d, c.Host)
	writeString(d, c.Token)

	var b [4]byte
	binary.BigEndian.PutUint16(b[0:2], c.Port)
	b[2] = boolByte(c.TLS)
	b[3] = boolByte(c.Enabled)
	_, _ = d.Write(b[:])

	return d.Sum64()
}

// writeString length-prefixes s so ("ab","c") and ("a","bc") differ.
func writeString(d *xxhash.Digest, s string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	_, _ = d.Write(n[:])
	_, _ = d.WriteString(s)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
