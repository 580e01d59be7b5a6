package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/errs"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
type: BgzipTaffyAdapter
tafGzLocation: data/447way.taf.gz
taiLocation: data/447way.taf.gz.tai
nhLocation: data/447way.nh
refAssemblyName: hg38
cacheSize: 8
samples:
  - hg38
  - id: panTro4
    label: Chimp
    color: "#e7298a"
  - id: mm10
  - label: orphan
`))
	require.NoError(t, err)
	require.Equal(t, TypeBgzipTaffy, cfg.Type)
	require.Equal(t, "hg38", cfg.RefAssemblyName)
	require.Equal(t, 8, cfg.CacheSize)
	require.Equal(t, []Sample{
		{ID: "hg38", Label: "hg38"},
		{ID: "panTro4", Label: "Chimp", Color: "#e7298a"},
		{ID: "mm10", Label: "mm10"},
	}, cfg.Samples)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"taffy ok", Config{Type: TypeBgzipTaffy, TafGzLocation: "a", TaiLocation: "b"}, nil},
		{"taffy without index", Config{Type: TypeBgzipTaffy, TafGzLocation: "a"}, errs.ErrMissingLocation},
		{"taffy without data", Config{Type: TypeBgzipTaffy, TaiLocation: "b"}, errs.ErrMissingLocation},
		{"maf ok", Config{Type: TypeMaf, MafLocation: "a"}, nil},
		{"maf without data", Config{Type: TypeMaf}, errs.ErrMissingLocation},
		{"unknown", Config{Type: "BigBedAdapter"}, errs.ErrUnknownAdapter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}

	require.Error(t, Config{Type: TypeMaf, MafLocation: "a", CacheSize: -1}.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adapter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: MafAdapter\nmafLocation: x.maf\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "x.maf", cfg.MafLocation)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = ParseConfig([]byte("type: [unterminated"))
	require.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(Config{Type: "nope"})
	require.ErrorIs(t, err, errs.ErrUnknownAdapter)
}
