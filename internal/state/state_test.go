package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBlobReadWriteRoundTrip(t *testing.T) {
	b := NewBlob()
	b.Write8(0x12)
	b.Write16(0x3456)
	b.Write32(0x789ABCDE)
	b.Write64(0x0102030405060708)
	b.WriteBool(true)
	b.WriteBool(false)
	b.WriteData([]byte{1, 2, 3})

	b.ResetPosition()

	if got := b.Read8(); got != 0x12 {
		t.Fatalf("Read8 = %#x, want 0x12", got)
	}
	if got := b.Read16(); got != 0x3456 {
		t.Fatalf("Read16 = %#x, want 0x3456", got)
	}
	if got := b.Read32(); got != 0x789ABCDE {
		t.Fatalf("Read32 = %#x, want 0x789abcde", got)
	}
	if got := b.Read64(); got != 0x0102030405060708 {
		t.Fatalf("Read64 = %#x, want 0x0102030405060708", got)
	}
	if got := b.ReadBool(); !got {
		t.Fatalf("ReadBool = %v, want true", got)
	}
	if got := b.ReadBool(); got {
		t.Fatalf("ReadBool = %v, want false", got)
	}
	data := make([]byte, 3)
	b.ReadData(data)
	if data[0] != 1 || data[1] != 2 || data[2] != 3 {
		t.Fatalf("ReadData = %v, want [1 2 3]", data)
	}
}

func TestBlobFromBytesReadsRawAsWritten(t *testing.T) {
	w := NewBlob()
	w.Write8(42)
	w.Write16(4242)

	r := BlobFromBytes(w.Bytes())
	if got := r.Read8(); got != 42 {
		t.Fatalf("Read8 = %d, want 42", got)
	}
	if got := r.Read16(); got != 4242 {
		t.Fatalf("Read16 = %d, want 4242", got)
	}
}

func TestBlobChecksumStableAndSensitiveToContent(t *testing.T) {
	a := NewBlob()
	a.Write8(1)
	a.Write8(2)

	b := NewBlob()
	b.Write8(1)
	b.Write8(2)

	if a.Checksum() != b.Checksum() {
		t.Fatalf("identical byte sequences produced different checksums")
	}

	c := NewBlob()
	c.Write8(1)
	c.Write8(3)
	if a.Checksum() == c.Checksum() {
		t.Fatalf("different byte sequences produced the same checksum")
	}
}

func TestBlobSaveLoadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.state")

	b := NewBlob()
	b.Write8(0xAB)
	b.Write32(0xDEADBEEF)
	if err := b.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if got := loaded.Read8(); got != 0xAB {
		t.Fatalf("Read8 after round trip = %#x, want 0xab", got)
	}
	if got := loaded.Read32(); got != 0xDEADBEEF {
		t.Fatalf("Read32 after round trip = %#x, want 0xdeadbeef", got)
	}
}
