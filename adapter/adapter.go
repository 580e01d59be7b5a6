// Package adapter exposes alignment files through a format-agnostic
// contract consumed by the renderer and the CLI.
//
// Two implementations are provided: TaffyAdapter reads a bgzip TAF file with
// its .tai index through the resolver, and MafAdapter reads a plain or
// gzipped MAF file held in memory. New picks one from a Config.
package adapter

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tafview/errs"
	"github.com/arloliu/tafview/internal/options"
)

// Region is a query interval [Start, End) on a reference sequence.
type Region struct {
	RefName  string
	Start    uint64
	End      uint64
	Assembly string
}

// Alignment is the aligned row of one assembly within a Feature.
type Alignment struct {
	Chr      string
	Start    uint64
	Strand   int
	SrcSize  uint64
	Sequence string
}

// Feature is one alignment block. Every sequence, including
// ReferenceSequence, has the same number of columns.
type Feature struct {
	ID                string
	RefName           string
	Start             uint64
	End               uint64
	Strand            int
	ReferenceSequence string
	// RefAssembly names the alignment holding ReferenceSequence.
	RefAssembly string
	Alignments  map[string]Alignment
}

// Sample is one displayed alignment row.
type Sample struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Color string `yaml:"color,omitempty"`
}

// SampleSet is the row layout for a region.
type SampleSet struct {
	Samples []Sample
	Tree    *Tree
}

// AlignmentAdapter serves alignment features for genomic regions.
type AlignmentAdapter interface {
	// RefNames lists the reference sequence names with data.
	RefNames(ctx context.Context) ([]string, error)
	// Features yields the features overlapping region. Iteration stops at the
	// first error, which is yielded with a zero Feature.
	Features(ctx context.Context, region Region) iter.Seq2[Feature, error]
	// Samples returns the ordered rows to display for region.
	Samples(ctx context.Context, region Region) (SampleSet, error)
}

// settings holds the dependencies shared by adapter implementations.
type settings struct {
	logger logrus.FieldLogger
	client *http.Client
}

// Option configures an adapter created by New.
type Option = options.Option[*settings]

// WithLogger sets the adapter logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(client *http.Client) Option {
	return options.NoError(func(s *settings) {
		s.client = client
	})
}

// New creates the adapter selected by cfg.Type.
func New(cfg Config, opts ...Option) (AlignmentAdapter, error) {
	s := &settings{logger: logrus.StandardLogger(), client: http.DefaultClient}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeBgzipTaffy:
		return newTaffyAdapter(cfg, s)
	case TypeMaf:
		return newMafAdapter(cfg, s)
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownAdapter, cfg.Type)
	}
}

// Collect drains a feature sequence into a slice.
func Collect(seq iter.Seq2[Feature, error]) ([]Feature, error) {
	var out []Feature
	for f, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}

	return out, nil
}

func failed(err error) iter.Seq2[Feature, error] {
	return func(yield func(Feature, error) bool) {
		yield(Feature{}, err)
	}
}
