package display

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/sqweek/dialog"
	"golang.design/x/clipboard"
)

// CopyToClipboard pushes img onto the system clipboard as PNG, grounded on
// the teacher's pkg/utils.CopyImage snapshot-sharing helper.
func CopyToClipboard(img image.Image) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("display: clipboard init: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("display: encode png: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}

// SaveDialog prompts with a native "save as" file picker and writes img
// there as PNG, grounded on the teacher's pkg/utils.SaveImage.
func SaveDialog(img image.Image) (string, error) {
	filename, err := dialog.File().Filter("PNG Image", "png").Title("Save PPU Snapshot").Save()
	if err != nil {
		return "", err
	}
	if len(filename) < 4 || filename[len(filename)-4:] != ".png" {
		filename += ".png"
	}

	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return filename, nil
}

// OpenDialog prompts with a native "open" file picker rooted at startingDir,
// for locating VRAM/OAM dumps without typing a path, grounded on the
// teacher's pkg/utils.AskForFile.
func OpenDialog(title, startingDir string) (string, error) {
	return dialog.File().SetStartDir(startingDir).Title(title).Load()
}
