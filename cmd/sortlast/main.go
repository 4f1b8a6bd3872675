// Command sortlast drives the composition pipeline end to end over
// in-process ranks: it paints one local image per rank with a trivial
// demonstration painter, composes them with the configured algorithm,
// gathers the result onto the root rank, and reports it. It is a
// demonstration harness, not a renderer — the real painter, mesh
// distributor, and image consumer named in internal/contract are
// expected to be supplied by a caller embedding this module.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mekolabs/sortlast/internal/comm"
	"github.com/mekolabs/sortlast/internal/compositor"
	"github.com/mekolabs/sortlast/internal/config"
	"github.com/mekolabs/sortlast/internal/gather"
	"github.com/mekolabs/sortlast/internal/imagebuf"
	"github.com/mekolabs/sortlast/internal/pixel"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	var ranks int
	var encodingName string
	var algorithmName string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "sortlast",
		Short: "Demonstrate sort-last parallel image composition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			enc, err := parseEncoding(encodingName)
			if err != nil {
				return err
			}
			cfg.PixelEncoding = enc
			algo, err := parseAlgorithm(algorithmName)
			if err != nil {
				return err
			}
			cfg.CompositionAlgorithm = algo
			config.Set(cfg)
			return run(cmd.Context(), cfg, ranks)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Width, "width", cfg.Width, "frame width in pixels")
	flags.IntVar(&cfg.Height, "height", cfg.Height, "frame height in pixels")
	flags.IntVar(&ranks, "ranks", 4, "number of in-process ranks to simulate")
	flags.StringVar(&encodingName, "encoding", "ubyte-rgba-depth", "pixel encoding: ubyte-rgba-depth|float-rgb-depth|ubyte-rgba|float-rgba")
	flags.StringVar(&algorithmName, "algorithm", "binary-swap", "composition algorithm: binary-swap|direct-send")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func parseEncoding(s string) (config.Encoding, error) {
	switch s {
	case "ubyte-rgba-depth":
		return config.EncodingUByteRGBADepth, nil
	case "float-rgb-depth":
		return config.EncodingFloatRGBDepth, nil
	case "ubyte-rgba":
		return config.EncodingUByteRGBA, nil
	case "float-rgba":
		return config.EncodingFloatRGBA, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

func parseAlgorithm(s string) (config.Algorithm, error) {
	switch s {
	case "binary-swap":
		return config.AlgorithmBinarySwap, nil
	case "direct-send":
		return config.AlgorithmDirectSend, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
}

func run(ctx context.Context, cfg config.Config, ranks int) error {
	format := pixel.New(cfg.PixelEncoding)
	frameSize := cfg.FrameSize()
	group := comm.NewGroup(ranks)

	g, gctx := errgroup.WithContext(ctx)
	var final *imagebuf.Image
	for r := 0; r < ranks; r++ {
		r := r
		g.Go(func() error {
			local, err := imagebuf.New(cfg.Width, cfg.Height, 0, frameSize, format)
			if err != nil {
				return err
			}
			paintDemoFragment(local, r, ranks)

			var c compositor.Compositor
			switch cfg.CompositionAlgorithm {
			case config.AlgorithmDirectSend:
				c = compositor.NewDirectSend(group[r])
			default:
				c, err = compositor.NewBinarySwap(group[r])
				if err != nil {
					return err
				}
			}
			strip, err := c.Compose(gctx, local)
			if err != nil {
				return err
			}

			gathered, err := gather.Gather(gctx, group[r], cfg.Root, strip)
			if err != nil {
				return err
			}
			if r == cfg.Root {
				final = gathered
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"ranks":     ranks,
		"width":     cfg.Width,
		"height":    cfg.Height,
		"algorithm": cfg.CompositionAlgorithm,
		"bytes":     len(final.Pixels),
	}).Info("composed and gathered final image")
	return nil
}

// paintDemoFragment writes one rank's share of a banded test pattern into
// an otherwise-clear local image: rank r fills the r-th of size contiguous
// pixel ranges. It stands in for internal/contract's Painter without
// implementing it; it is not a rasterizer.
func paintDemoFragment(img *imagebuf.Image, rank, size int) {
	total := img.Width * img.Height
	share := total / size
	begin := rank * share
	end := begin + share
	if rank == size-1 {
		end = total
	}
	bpp := img.Format.BytesPerPixel()
	// The two byte-packed encodings (UByteRGBADepth, UByteRGBA) are 8 and
	// 4 bytes wide; the two float encodings are both 16. That's enough to
	// tell which channel scale to paint in without importing the pixel
	// package's concrete types here.
	byteScaled := bpp != 16
	buf := make([]byte, bpp)
	for i := begin; i < end; i++ {
		p := img.Format.Decode(buf) // zeroed (then previous) pixel as a starting template
		p.R = float64(rank) / float64(size)
		p.A = 1
		if byteScaled {
			p.R *= 255
			p.A = 255
		}
		if !img.Format.OrderDependent() {
			p.Depth = 0.5
		}
		img.Format.Encode(p, buf)
		copy(img.Pixels[(i-img.RegionBegin)*bpp:(i-img.RegionBegin+1)*bpp], buf)
	}
}
