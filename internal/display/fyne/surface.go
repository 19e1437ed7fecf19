// Package fyne adapts display.Surface to a fyne.io/fyne/v2 window, the GUI
// toolkit the teacher's cmd/goboy entrypoint uses for its desktop window.
package fyne

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"

	"github.com/kettlebyte/dotclock/internal/display"
)

// Surface is a display.Surface backed by a fyne window showing a single
// canvas.Image, refreshed on every Present call.
type Surface struct {
	app    fyne.App
	window fyne.Window
	image  *canvas.Image
}

var _ display.Surface = (*Surface)(nil)

// New creates a fyne application and window sized for scale*160x144.
func New(title string, scale int) *Surface {
	a := app.New()
	w := a.NewWindow(title)
	w.Resize(fyne.NewSize(float32(160*scale), float32(144*scale)))

	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 160, 144)))
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	w.SetContent(img)

	return &Surface{app: a, window: w, image: img}
}

// Present satisfies display.Surface.
func (s *Surface) Present(img image.Image) {
	s.image.Image = img
	s.image.Refresh()
}

// Run blocks showing the window until it is closed. Must be called from the
// main goroutine, per fyne's threading requirements.
func (s *Surface) Run() {
	s.window.ShowAndRun()
}
