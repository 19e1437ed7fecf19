// Command dotclock drives the PPU core outside of a full system emulator:
// it preloads VRAM/OAM from raw dumps, steps the PPU for a fixed number of
// frames, and can export the result as a BMP or stream it to a debugview
// client. Useful for conformance testing and for visually inspecting a
// single PPU configuration without a CPU or cartridge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kettlebyte/dotclock/internal/bus"
	"github.com/kettlebyte/dotclock/internal/debugview"
	"github.com/kettlebyte/dotclock/internal/display"
	displayfyne "github.com/kettlebyte/dotclock/internal/display/fyne"
	"github.com/kettlebyte/dotclock/internal/ppu"
	"github.com/kettlebyte/dotclock/internal/scheduler"
	"github.com/kettlebyte/dotclock/internal/types"
	"github.com/kettlebyte/dotclock/pkg/log"
)

var cliVars = kong.Vars{
	"version": "dev",
}

type cli struct {
	Run     runCmd     `cmd:"" default:"true" help:"Step the PPU for a fixed number of frames."`
	GUI     guiCmd     `cmd:"" help:"Open a window presenting whatever the PPU renders."`
	Version versionCmd `cmd:"" help:"Show dotclock's version."`
}

type runCmd struct {
	VRAM      string `help:"Raw VRAM dump to preload (bank 0 first, bank 1 if present)." type:"existingfile"`
	OAM       string `help:"Raw OAM dump to preload (160 bytes)." type:"existingfile"`
	Model     string `help:"Console model: DMG or CGB." default:"DMG"`
	Frames    int    `help:"Number of frames to render." default:"1"`
	Snapshot  string `help:"Write the final frame to this BMP path."`
	DebugAddr string `help:"If set, serve a debugview websocket at this address (e.g. :8090)." placeholder:"HOST:PORT"`
	Clipboard     bool   `help:"Copy the final frame to the system clipboard as PNG."`
	SaveAs        bool   `help:"Prompt with a native save dialog for the final frame PNG, instead of --snapshot."`
	SnapshotEvery int    `help:"If set, write a BMP snapshot every N dots to snapshotDir, for frame-by-frame debugging." placeholder:"DOTS"`
	SnapshotDir   string `help:"Directory for --snapshot-every output." default:"."`
}

func (c *runCmd) Run() error {
	model := types.StringToModel(c.Model)
	b := bus.New(model, model.IsColour())

	var sink *recordingSink
	var view *debugview.View
	if c.DebugAddr != "" {
		view = debugview.New(log.New())
		sink = &recordingSink{FrameSink: view}
	} else {
		sink = &recordingSink{FrameSink: noopSink{}}
	}

	p := ppu.New(b, ppu.WithSink(sink), ppu.WithLogger(log.New()))

	if c.VRAM != "" {
		if err := preloadVRAM(b, c.VRAM); err != nil {
			return fmt.Errorf("preload vram: %w", err)
		}
	}
	if c.OAM != "" {
		if err := preloadOAM(b, c.OAM); err != nil {
			return fmt.Errorf("preload oam: %w", err)
		}
	}

	if view != nil {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		go func() {
			if err := view.ListenAndServe(ctx, c.DebugAddr); err != nil {
				fmt.Fprintf(os.Stderr, "debugview: %v\n", err)
			}
		}()
	}

	sched := scheduler.New()
	if c.SnapshotEvery > 0 {
		tick := 0
		sched.Every(uint64(c.SnapshotEvery), scheduler.PeriodicSnapshot, func() {
			if sink.last == nil {
				return
			}
			tick++
			name := fmt.Sprintf("%s/snapshot-%06d.bmp", c.SnapshotDir, tick)
			if err := display.ExportBMP(display.DecodeFrame(sink.last), name); err != nil {
				fmt.Fprintf(os.Stderr, "snapshot-every: %v\n", err)
			}
		})
	}

	for sink.frames < c.Frames {
		p.Step()
		sched.Tick()
	}

	if sink.last != nil {
		img := display.DecodeFrame(sink.last)
		if c.Snapshot != "" {
			if err := display.ExportBMP(img, c.Snapshot); err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
		}
		if c.SaveAs {
			filename, err := display.SaveDialog(img)
			if err != nil {
				return fmt.Errorf("save dialog: %w", err)
			}
			fmt.Println("saved", filename)
		}
		if c.Clipboard {
			if err := display.CopyToClipboard(img); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
		}
	}

	if view != nil {
		if rtt, ok := view.RTTMicros(); ok {
			fmt.Printf("debugview client RTT: %dus\n", rtt)
		}
	}

	fmt.Printf("rendered %d frame(s), final LY=%d mode=%s\n", sink.frames, p.Scanline(), p.Mode())
	return nil
}

type guiCmd struct {
	Model string `help:"Console model: DMG or CGB." default:"DMG"`
	Scale int    `help:"Integer window upscale factor." default:"4"`
}

func (c *guiCmd) Run() error {
	model := types.StringToModel(c.Model)
	b := bus.New(model, model.IsColour())

	surface := displayfyne.New("dotclock", c.Scale)
	sink := display.NewSink(surface).WithScale(c.Scale)
	p := ppu.New(b, ppu.WithSink(sink), ppu.WithLogger(log.New()))

	go func() {
		var lastFrame uint64
		for {
			p.Step()
			if fc := p.FrameCount(); fc != lastFrame {
				lastFrame = fc
				time.Sleep(16 * time.Millisecond)
			}
		}
	}()

	surface.Run()
	return nil
}

type versionCmd struct{}

func (c *versionCmd) Run() error {
	fmt.Println("dotclock " + cliVars["version"])
	return nil
}

func main() {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("dotclock"),
		kong.Description("Cycle-accurate PPU core driver."),
		kong.UsageOnError(),
		cliVars,
	)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "dotclock:", err)
		os.Exit(1)
	}
}
