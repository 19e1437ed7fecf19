// Package state implements the append/read-cursor byte buffer used to save
// and restore PPU state, plus its brotli-compressed on-disk form. Checksum
// hashes a buffer with xxhash; the hash is not stored in or checked against
// the file.
package state

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
)

// Resettable is satisfied by any component that can be returned to its
// power-on state, independent of save/load.
type Resettable interface {
	Reset()
}

// Stater is satisfied by any component that participates in save states.
// Save and Load must visit fields in the same order so that a Blob written
// by Save can be replayed by Load field-for-field.
type Stater interface {
	Save(*Blob)
	Load(*Blob)
}

// Blob is an append-only write cursor / sequential-read cursor over a byte
// slice. Callers write with Write8/16/32/Bool/Data during Save and read back
// in the same order during Load.
type Blob struct {
	raw           []byte
	readPosition  int
	writePosition int
}

// NewBlob returns an empty Blob ready for writing.
func NewBlob() *Blob {
	return &Blob{raw: make([]byte, 0, 256)}
}

// BlobFromBytes wraps raw for reading.
func BlobFromBytes(raw []byte) *Blob {
	return &Blob{raw: raw}
}

// ResetPosition rewinds both cursors, letting a freshly written Blob be read
// back without a round trip through bytes.
func (b *Blob) ResetPosition() {
	b.readPosition = 0
	b.writePosition = 0
}

func (b *Blob) Write8(value uint8) {
	b.raw = append(b.raw, value)
	b.writePosition++
}

func (b *Blob) Write16(value uint16) {
	b.raw = append(b.raw, byte(value), byte(value>>8))
	b.writePosition += 2
}

func (b *Blob) Write32(value uint32) {
	b.raw = append(b.raw, byte(value), byte(value>>8), byte(value>>16), byte(value>>24))
	b.writePosition += 4
}

func (b *Blob) Write64(value uint64) {
	for i := 0; i < 8; i++ {
		b.raw = append(b.raw, byte(value>>(8*i)))
	}
	b.writePosition += 8
}

func (b *Blob) WriteBool(value bool) {
	if value {
		b.raw = append(b.raw, 1)
	} else {
		b.raw = append(b.raw, 0)
	}
	b.writePosition++
}

func (b *Blob) WriteData(data []byte) {
	b.raw = append(b.raw, data...)
	b.writePosition += len(data)
}

func (b *Blob) Read8() uint8 {
	v := b.raw[b.readPosition]
	b.readPosition++
	return v
}

func (b *Blob) Read16() uint16 {
	v := uint16(b.raw[b.readPosition]) | uint16(b.raw[b.readPosition+1])<<8
	b.readPosition += 2
	return v
}

func (b *Blob) Read32() uint32 {
	v := uint32(b.raw[b.readPosition]) | uint32(b.raw[b.readPosition+1])<<8 |
		uint32(b.raw[b.readPosition+2])<<16 | uint32(b.raw[b.readPosition+3])<<24
	b.readPosition += 4
	return v
}

func (b *Blob) Read64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b.raw[b.readPosition+i]) << (8 * i)
	}
	b.readPosition += 8
	return v
}

func (b *Blob) ReadBool() bool {
	v := b.raw[b.readPosition] != 0
	b.readPosition++
	return v
}

func (b *Blob) ReadData(p []byte) {
	copy(p, b.raw[b.readPosition:])
	b.readPosition += len(p)
}

// Bytes returns the accumulated write buffer.
func (b *Blob) Bytes() []byte {
	return b.raw
}

// Checksum hashes the accumulated buffer with xxhash, the same algorithm the
// debug view uses to dedup frames. Two Blobs written from an identical
// sequence of Stater.Save calls must hash identically; this is the basis for
// the determinism property tests.
func (b *Blob) Checksum() uint64 {
	return xxhash.Sum64(b.raw)
}

// SaveToFile brotli-compresses the buffer and writes it to filename.
func (b *Blob) SaveToFile(filename string) error {
	compressed, err := cbrotli.Encode(b.raw, cbrotli.WriterOptions{Quality: 9})
	if err != nil {
		return fmt.Errorf("state: compress: %w", err)
	}
	return os.WriteFile(filename, compressed, 0644)
}

// LoadFromFile reads and decompresses a file written by SaveToFile.
func LoadFromFile(filename string) (*Blob, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	decoded, err := cbrotli.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("state: decompress: %w", err)
	}
	return &Blob{raw: decoded}, nil
}
