package app

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tafview/internal/fixture"
	"github.com/arloliu/tafview/spatial"
)

func writeConfig(t *testing.T) (dir, configPath string) {
	t.Helper()

	f, err := fixture.Build("hg38.chr1", fixture.Synthetic{
		Assemblies: []string{"hg38", "panTro4", "mm10"},
		Chr:        "chr1",
		Start:      5000,
		Columns:    3000,
		Every:      50,
	}.Lines())
	require.NoError(t, err)

	dir = t.TempDir()
	dataPath := filepath.Join(dir, "aln.taf.gz")
	require.NoError(t, os.WriteFile(dataPath, f.TAF, 0o600))
	require.NoError(t, os.WriteFile(dataPath+".tai", f.TAI, 0o600))

	configPath = filepath.Join(dir, "adapter.yaml")
	cfg := "type: BgzipTaffyAdapter\n" +
		"tafGzLocation: " + dataPath + "\n" +
		"taiLocation: " + dataPath + ".tai\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	return dir, configPath
}

func TestRun_RenderRegion(t *testing.T) {
	dir, configPath := writeConfig(t)
	pngPath := filepath.Join(dir, "out.png")
	indexPath := filepath.Join(dir, "out.idx")
	fastaPath := filepath.Join(dir, "out.fa")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-config", configPath,
		"-region", "chr1:5120-5180",
		"-png", pngPath,
		"-index", indexPath,
		"-fasta", fastaPath,
		"-log-level", "warn",
	}, &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())
	require.Contains(t, stdout.String(), "features=1 samples=3")

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 60, img.Bounds().Dx())
	require.Equal(t, 45, img.Bounds().Dy())

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	idx, err := spatial.Decode(data)
	require.NoError(t, err)
	require.Positive(t, idx.Len())

	fasta, err := os.ReadFile(fastaPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(fasta), ">hg38.chr1:5120:+\n"))
	require.Equal(t, 6, strings.Count(string(fasta), "\n"))
}

func TestRun_ListRefs(t *testing.T) {
	_, configPath := writeConfig(t)

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-config", configPath, "-list-refs"}, &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())
	require.Equal(t, "chr1\n", stdout.String())
}

func TestRun_Failures(t *testing.T) {
	dir, configPath := writeConfig(t)
	var stdout, stderr bytes.Buffer

	require.Equal(t, ExitUsage, Run(context.Background(), []string{"-region", "chr1:1-2"}, &stdout, &stderr))
	require.Equal(t, ExitOK, Run(context.Background(), []string{"-h"}, &stdout, &stderr))

	missing := filepath.Join(dir, "missing.yaml")
	require.Equal(t, ExitError, Run(context.Background(), []string{"-config", missing, "-list-refs"}, &stdout, &stderr))

	stderr.Reset()
	badPNG := filepath.Join(dir, "no", "such", "dir.png")
	code := Run(context.Background(), []string{
		"-config", configPath, "-region", "chr1:5120-5180", "-png", badPNG,
	}, &stdout, &stderr)
	require.Equal(t, ExitError, code)
	require.Contains(t, stderr.String(), "tafview failed")
}
