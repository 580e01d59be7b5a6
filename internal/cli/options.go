// Package cli parses tafview command line arguments.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview"
	"github.com/arloliu/tafview/adapter"
	"github.com/arloliu/tafview/format"
)

// Options holds parsed command line settings.
type Options struct {
	ConfigPath string
	Region     adapter.Region
	ListRefs   bool

	BpPerPx           float64
	RowHeight         float64
	RowProportion     float64
	ShowAllLetters    bool
	MismatchRendering bool
	ShowAsUpperCase   bool

	PNGPath          string
	IndexPath        string
	IndexCompression format.CompressionType
	FASTAPath        string
	SkipRefGaps      bool

	LogLevel logrus.Level
	JSONLogs bool
}

// NewFlagSet returns a FlagSet that reports errors instead of exiting.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: %s -config adapter.yaml -region chr1:1000-2000 [options]\n\n", name)
		fs.PrintDefaults()
	}

	return fs
}

// ParseArgs parses argv into Options.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var (
		o           Options
		region      string
		compression string
		logLevel    string
	)
	fs.StringVar(&o.ConfigPath, "config", "", "adapter config file (YAML)")
	fs.StringVar(&region, "region", "", "region to query, as ref:start-end (0-based, end exclusive)")
	fs.BoolVar(&o.ListRefs, "list-refs", false, "print the reference names and exit")
	fs.Float64Var(&o.BpPerPx, "bp-per-px", tafview.DefaultBpPerPx, "reference bases per pixel")
	fs.Float64Var(&o.RowHeight, "row-height", tafview.DefaultRowHeight, "row height in pixels")
	fs.Float64Var(&o.RowProportion, "row-proportion", tafview.DefaultRowProportion, "fraction of the row height used for base boxes")
	fs.BoolVar(&o.ShowAllLetters, "show-all-letters", false, "color matches too instead of graying them")
	fs.BoolVar(&o.MismatchRendering, "mismatch-colors", false, "color bases by nucleotide")
	fs.BoolVar(&o.ShowAsUpperCase, "uppercase", false, "draw letters in upper case")
	fs.StringVar(&o.PNGPath, "png", "", "write the rendered image to this file")
	fs.StringVar(&o.IndexPath, "index", "", "write the serialized spatial index to this file")
	fs.StringVar(&compression, "index-compression", "zstd", "spatial index compression: none, zstd, s2 or lz4")
	fs.StringVar(&o.FASTAPath, "fasta", "", "write the region's alignment as FASTA to this file")
	fs.BoolVar(&o.SkipRefGaps, "skip-ref-gaps", false, "drop columns where the reference has a gap from FASTA output")
	fs.StringVar(&logLevel, "log-level", "info", "log level")
	fs.BoolVar(&o.JSONLogs, "log-json", false, "log in JSON")

	if err := fs.Parse(argv); err != nil {
		return Options{}, err
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if o.ConfigPath == "" {
		return Options{}, errors.New("-config is required")
	}

	var err error
	if o.LogLevel, err = logrus.ParseLevel(logLevel); err != nil {
		return Options{}, err
	}
	if o.IndexCompression, err = ParseCompression(compression); err != nil {
		return Options{}, err
	}
	if o.ListRefs {
		return o, nil
	}
	if region == "" {
		return Options{}, errors.New("-region is required unless -list-refs is set")
	}
	if o.Region, err = ParseRegion(region); err != nil {
		return Options{}, err
	}

	return o, nil
}

// ParseRegion parses "ref:start-end". Commas in numbers are ignored.
func ParseRegion(s string) (adapter.Region, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return adapter.Region{}, fmt.Errorf("region %q: want ref:start-end", s)
	}
	ref, span := s[:i], strings.ReplaceAll(s[i+1:], ",", "")

	lo, hi, ok := strings.Cut(span, "-")
	if !ok {
		return adapter.Region{}, fmt.Errorf("region %q: want ref:start-end", s)
	}
	start, err := strconv.ParseUint(lo, 10, 64)
	if err != nil {
		return adapter.Region{}, fmt.Errorf("region %q: bad start: %w", s, err)
	}
	end, err := strconv.ParseUint(hi, 10, 64)
	if err != nil {
		return adapter.Region{}, fmt.Errorf("region %q: bad end: %w", s, err)
	}
	if end <= start {
		return adapter.Region{}, fmt.Errorf("region %q: end must be greater than start", s)
	}

	return adapter.Region{RefName: ref, Start: start, End: end}, nil
}

// ParseCompression maps a codec name to its type.
func ParseCompression(name string) (format.CompressionType, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return format.CompressionNone, nil
	case "zstd":
		return format.CompressionZstd, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}
