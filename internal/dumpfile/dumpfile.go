// Package dumpfile loads raw VRAM/OAM dumps used to seed the PPU core,
// transparently decompressing them if the extension calls for it. Grounded
// on the teacher's pkg/utils.LoadFile, which faces the same problem for ROM
// images.
package dumpfile

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// Load reads filename and, if its extension names a supported archive
// format (.gz, .zip, .7z), returns the decompressed contents of the first
// entry. Any other extension is returned verbatim.
func Load(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("dumpfile: open %s: %w", filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("dumpfile: read %s: %w", filename, err)
	}

	var decoder io.Reader
	switch ext := filepath.Ext(filename); ext {
	case ".gz":
		decoder, err = gzip.NewReader(bytesReader(data))
		if err != nil {
			return nil, fmt.Errorf("dumpfile: gzip %s: %w", filename, err)
		}
	case ".zip":
		zr, err := zip.NewReader(bytesReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("dumpfile: zip %s: %w", filename, err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("dumpfile: zip %s: empty archive", filename)
		}
		decoder, err = zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("dumpfile: zip %s: %w", filename, err)
		}
	case ".7z":
		sr, err := sevenzip.NewReader(bytesReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("dumpfile: 7z %s: %w", filename, err)
		}
		if len(sr.File) == 0 {
			return nil, fmt.Errorf("dumpfile: 7z %s: empty archive", filename)
		}
		decoder, err = sr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("dumpfile: 7z %s: %w", filename, err)
		}
	default:
		return data, nil
	}

	out, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("dumpfile: decompress %s: %w", filename, err)
	}
	return out, nil
}

func bytesReader(b []byte) *readerAt { return &readerAt{b: b} }

// readerAt adapts a byte slice to io.ReaderAt and io.Reader, since both
// gzip.NewReader and the archive readers above need different subsets.
type readerAt struct {
	b   []byte
	pos int
}

func (r *readerAt) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(r.b)) {
		return 0, io.EOF
	}
	n := copy(p, r.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
