// Package sdl adapts display.Surface to an SDL2 window via
// github.com/veandco/go-sdl2, an alternative presentation backend the
// teacher's go.mod carries alongside fyne.
package sdl

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/kettlebyte/dotclock/internal/display"
)

// Surface is a display.Surface backed by an SDL2 window, renderer and
// streaming texture sized to the native 160x144 frame scaled by factor.
type Surface struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
}

var _ display.Surface = (*Surface)(nil)

// New initializes SDL's video subsystem and creates a window+renderer+
// texture pipeline. Callers must call Close when done.
func New(title string, scale int) (*Surface, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("display/sdl: init: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(160*scale), int32(144*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("display/sdl: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("display/sdl: create renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, 160, 144)
	if err != nil {
		return nil, fmt.Errorf("display/sdl: create texture: %w", err)
	}

	return &Surface{window: window, renderer: renderer, texture: texture}, nil
}

// Present satisfies display.Surface. img must be a *image.RGBA (as
// produced by display.Sink) sized 160x144; any scaling is left to the
// renderer's destination rect.
func (s *Surface) Present(img image.Image) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return
	}
	if err := s.texture.Update(nil, unsafe.Pointer(&rgba.Pix[0]), rgba.Stride); err != nil {
		return
	}
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}

// Close releases SDL resources.
func (s *Surface) Close() {
	s.texture.Destroy()
	s.renderer.Destroy()
	s.window.Destroy()
	sdl.Quit()
}
