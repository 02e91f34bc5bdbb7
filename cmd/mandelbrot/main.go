package main

import (
	"fmt"
	"image/png"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/whalelogic/mandelbrot/engine"
	"github.com/whalelogic/mandelbrot/palette"
	"github.com/whalelogic/mandelbrot/scheduler"
)

func main() {
	app := cli.NewApp()
	app.Name = "mandelbrot"
	app.Usage = "deep-zoom Mandelbrot render engine"
	app.Commands = []cli.Command{
		renderCommand,
		zoomSequenceCommand,
		cacheStatsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var commonFlags = []cli.Flag{
	cli.IntFlag{Name: "width", Value: 1600, Usage: "output image width in pixels"},
	cli.IntFlag{Name: "height", Value: 1200, Usage: "output image height in pixels"},
	cli.StringFlag{Name: "center-re", Value: "-0.5", Usage: "viewport center, real part (decimal string)"},
	cli.StringFlag{Name: "center-im", Value: "0", Usage: "viewport center, imaginary part (decimal string)"},
	cli.StringFlag{Name: "zoom", Value: "1", Usage: "zoom factor (decimal string, magnifies a reference half-height of 2 units)"},
	cli.IntFlag{Name: "iters", Value: 1200, Usage: "max iteration count"},
	cli.IntFlag{Name: "scaling", Value: 1, Usage: "iteration scaling factor that grows the effective iteration budget with zoom"},
	cli.StringFlag{Name: "algorithm", Value: "mandelbrot", Usage: `"mandelbrot" or "perturbation_mandelbrot"`},
	cli.StringFlag{Name: "palette", Value: "NebulaSpectre", Usage: "palette name (case-sensitive)"},
	cli.IntFlag{Name: "workers", Value: 0, Usage: "worker pool size (0 selects clamp(0.75*NumCPU, 2, 16))"},
	cli.IntFlag{Name: "cache", Value: 0, Usage: "tile cache capacity (0 selects the default)"},
	cli.IntFlag{Name: "max-precision-bits", Value: 0, Usage: "reference-orbit precision ceiling in bits (0 selects hpfloat.DefaultMaxPrecisionBits); frames requiring more fail with PrecisionBudgetExhausted"},
}

var renderCommand = cli.Command{
	Name: "render",
	Usage: "render a single frame to a PNG file",
	Flags: append(append([]cli.Flag{}, commonFlags...), cli.StringFlag{Name: "outfile", Value: "mandelbrot.png", Usage: "output PNG filename"}),
	Action: func(c *cli.Context) error {
		eng, err := buildEngine(c)
		if err != nil {
			return err
		}
		handle, err := submitFromFlags(eng, c)
		if err != nil {
			return err
		}
		if err := handle.AwaitDone(); err != nil {
			return errors.Wrap(err, "render")
		}
		return savePNG(eng, c.String("outfile"))
	},
}

var zoomSequenceCommand = cli.Command{
	Name: "zoom-sequence",
	Usage: "render a sequence of frames at geometrically increasing zoom",
	Flags: append(append([]cli.Flag{}, commonFlags...),
		cli.IntFlag{Name: "frames", Value: 10, Usage: "number of frames in the sequence"},
		cli.Float64Flag{Name: "zoom-factor-per-frame", Value: 2.0, Usage: "multiplicative zoom increase per frame"},
		cli.StringFlag{Name: "outdir", Value: ".", Usage: "directory to write numbered PNG frames into"},
	),
	Action: func(c *cli.Context) error {
		eng, err := buildEngine(c)
		if err != nil {
			return err
		}
		frames := c.Int("frames")
		factor := c.Float64("zoom-factor-per-frame")
		zoom := c.String("zoom")
		zoomVal, err := parseAndMultiply(zoom, 1)
		if err != nil {
			return err
		}
		for i := 0; i < frames; i++ {
			handle, err := eng.SubmitFrame(
				fmt.Sprintf("%s,%s", c.String("center-re"), c.String("center-im")),
				zoomVal,
				uint32(c.Int("iters")),
				uint32(c.Int("scaling")),
				c.Int("width"), c.Int("height"),
				c.String("algorithm"),
			)
			if err != nil {
				return err
			}
			if err := handle.AwaitDone(); err != nil {
				return errors.Wrapf(err, "frame %d", i)
			}
			outfile := fmt.Sprintf("%s/frame-%04d.png", c.String("outdir"), i)
			if err := savePNG(eng, outfile); err != nil {
				return err
			}
			log.Printf("wrote %s (zoom=%s)", outfile, zoomVal)
			zoomVal, err = parseAndMultiply(zoomVal, factor)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var cacheStatsCommand = cli.Command{
	Name: "cache-stats",
	Usage: "render a single frame and report tile cache hit/miss counters",
	Flags: commonFlags,
	Action: func(c *cli.Context) error {
		eng, err := buildEngine(c)
		if err != nil {
			return err
		}
		handle, err := submitFromFlags(eng, c)
		if err != nil {
			return err
		}
		if err := handle.AwaitDone(); err != nil {
			return err
		}
		hits, misses := eng.CacheStats()
		fmt.Printf("cache hits=%d misses=%d\n", hits, misses)
		return nil
	},
}

func buildEngine(c *cli.Context) (*engine.Engine, error) {
	cmap := palette.Get(c.String("palette"))
	if cmap == nil {
		return nil, errors.Errorf("palette %q not found", c.String("palette"))
	}
	return engine.New(engine.Config{
		CanvasWidth: c.Int("width"),
		CanvasHeight: c.Int("height"),
		CacheCapacity: c.Int("cache"),
		WorkerCount: c.Int("workers"),
		Palette: cmap,
		MaxPrecisionBits: uint(c.Int("max-precision-bits")),
	}), nil
}

func submitFromFlags(eng *engine.Engine, c *cli.Context) (*scheduler.FrameHandle, error) {
	return eng.SubmitFrame(
		fmt.Sprintf("%s,%s", c.String("center-re"), c.String("center-im")),
		c.String("zoom"),
		uint32(c.Int("iters")),
		uint32(c.Int("scaling")),
		c.Int("width"), c.Int("height"),
		c.String("algorithm"),
	)
}

func savePNG(eng *engine.Engine, outfile string) error {
	f, err := os.Create(outfile)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer f.Close()
	if err := png.Encode(f, eng.ImageForExport()); err != nil {
		return errors.Wrap(err, "encode png")
	}
	return nil
}

func parseAndMultiply(zoomStr string, factor float64) (string, error) {
	var v float64
	if _, err := fmt.Sscanf(zoomStr, "%g", &v); err != nil {
		return "", errors.Wrapf(err, "parse zoom %q", zoomStr)
	}
	return fmt.Sprintf("%g", v*factor), nil
}
