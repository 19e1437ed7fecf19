// Package display adapts the PPU's RGB555 frame buffers to the video
// presentation surface: a ppu.FrameSink that converts each delivered buffer
// to an image.Image, hands it to a Surface for on-screen presentation, and
// can export snapshots as BMP files for bug reports.
package display

import (
	"bytes"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const (
	bufferStride = 256
	bufferHeight = 240
	visibleWidth  = 160
	visibleHeight = 144
)

// Surface is the narrow contract a presentation backend (fyne, SDL, ...)
// implements to receive frames. Present is called synchronously from
// DeliverFrame and must not retain img past the call.
type Surface interface {
	Present(img image.Image)
}

// Sink is a ppu.FrameSink that decodes RGB555 buffers into images, optional
// integer-scales them, and presents them on a Surface.
type Sink struct {
	surface Surface
	scale   int
}

// NewSink returns a Sink presenting at 1x scale; use WithScale to upscale.
func NewSink(surface Surface) *Sink {
	return &Sink{surface: surface, scale: 1}
}

// WithScale sets the integer upscale factor applied before presentation.
func (s *Sink) WithScale(factor int) *Sink {
	s.scale = factor
	return s
}

func (s *Sink) StartFrame() {}

// DeliverFrame satisfies ppu.FrameSink.
func (s *Sink) DeliverFrame(buf *[bufferStride * bufferHeight]uint16) {
	img := decodeRGB555(buf)
	if s.scale > 1 {
		img = upscale(img, s.scale)
	}
	if s.surface != nil {
		s.surface.Present(img)
	}
}

// DecodeFrame extracts the visible 160x144 region of a PPU frame buffer and
// expands each 15-bit RGB555 pixel to 8-bit RGBA, for callers that need the
// image without going through a Sink (snapshot export, tests).
func DecodeFrame(buf *[bufferStride * bufferHeight]uint16) *image.RGBA {
	return decodeRGB555(buf)
}

// decodeRGB555 extracts the visible 160x144 region and expands each 15-bit
// pixel to 8-bit RGB.
func decodeRGB555(buf *[bufferStride * bufferHeight]uint16) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, visibleWidth, visibleHeight))
	for y := 0; y < visibleHeight; y++ {
		for x := 0; x < visibleWidth; x++ {
			px := buf[y*bufferStride+x]
			img.Set(x, y, rgb555ToColor(px))
		}
	}
	return img
}

func rgb555ToColor(px uint16) color.RGBA {
	r := uint8((px >> 10) & 0x1F)
	g := uint8((px >> 5) & 0x1F)
	b := uint8(px & 0x1F)
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<3 | g>>2,
		B: b<<3 | b>>2,
		A: 0xFF,
	}
}

// upscale nearest-neighbor scales img by factor using x/image/draw, which
// is how the teacher's display pipeline resizes the native 160x144 image
// for windowed presentation.
func upscale(img *image.RGBA, factor int) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// ExportBMP writes the most recently decoded frame to filename as a BMP,
// for attaching to bug reports.
func ExportBMP(img image.Image, filename string) error {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}
