// Package app runs the tafview command.
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview"
	"github.com/arloliu/tafview/adapter"
	"github.com/arloliu/tafview/internal/cli"
	"github.com/arloliu/tafview/render"
	"github.com/arloliu/tafview/spatial"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run executes tafview with argv and returns the process exit code.
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("tafview")
	fs.SetOutput(stderr)

	opts, err := cli.ParseArgs(fs, argv)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(opts.LogLevel)
	if opts.JSONLogs {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := run(ctx, opts, stdout, logger); err != nil {
		logger.WithError(err).Error("tafview failed")
		return ExitError
	}

	return ExitOK
}

func run(ctx context.Context, opts cli.Options, stdout io.Writer, logger *logrus.Logger) error {
	ad, err := tafview.Open(opts.ConfigPath, adapter.WithLogger(logger))
	if err != nil {
		return err
	}
	if c, ok := ad.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.WithError(err).Warn("close adapter")
			}
		}()
	}

	if opts.ListRefs {
		refs, err := ad.RefNames(ctx)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(stdout)
		for _, ref := range refs {
			_, _ = fmt.Fprintln(w, ref)
		}

		return w.Flush()
	}

	region := opts.Region
	features, set, err := tafview.Query(ctx, ad, region)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"ref":      region.RefName,
		"start":    region.Start,
		"end":      region.End,
		"features": len(features),
		"samples":  len(set.Samples),
	}).Info("queried region")

	primitives := 0
	if opts.PNGPath != "" || opts.IndexPath != "" {
		out, err := renderRegion(ctx, opts, features, set, logger)
		if err != nil {
			return err
		}
		primitives = len(out.Primitives)
	}

	if opts.FASTAPath != "" {
		text := adapter.FeaturesToFASTA(features, &region, adapter.FASTAOptions{SkipReferenceGaps: opts.SkipRefGaps})
		if err := writeFile(opts.FASTAPath, func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		}); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(stdout, "features=%d samples=%d primitives=%d\n", len(features), len(set.Samples), primitives)

	return err
}

func renderRegion(ctx context.Context, opts cli.Options, features []adapter.Feature, set adapter.SampleSet, logger logrus.FieldLogger) (*render.Output, error) {
	r, err := render.NewRenderer(render.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	out, err := r.Render(ctx, features, render.Viewport{
		Region:            opts.Region,
		BpPerPx:           opts.BpPerPx,
		RowHeight:         opts.RowHeight,
		RowProportion:     opts.RowProportion,
		Samples:           set.Samples,
		ShowAllLetters:    opts.ShowAllLetters,
		MismatchRendering: opts.MismatchRendering,
		ShowAsUpperCase:   opts.ShowAsUpperCase,
	})
	if err != nil {
		return nil, err
	}

	if opts.PNGPath != "" {
		if out.Image.Bounds().Empty() {
			return nil, errors.New("nothing to draw: no samples in region")
		}
		if err := writeFile(opts.PNGPath, func(w io.Writer) error {
			return png.Encode(w, out.Image)
		}); err != nil {
			return nil, err
		}
	}
	if opts.IndexPath != "" {
		data, err := spatial.Encode(out.Index, spatial.WithCompression(opts.IndexCompression))
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(opts.IndexPath, data, 0o644); err != nil { //nolint: gosec
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"items": out.Index.Len(),
			"size":  humanize.Bytes(uint64(len(data))),
		}).Debug("wrote spatial index")
	}

	return out, nil
}

// writeFile creates path and streams fn's output into it.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return w.Flush()
}
