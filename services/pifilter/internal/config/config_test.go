package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PIFILTER_OBSID", "PIFILTER_FOLDER_PATH", "PIFILTER_CATALOGUE_PATH",
		"PIFILTER_SAMP_IDS_PATH", "DATABASE_URL", "DRY_RUN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFileDefaults(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, "[inputs]\nobsID = 18608\nfolder_path = /data/18608\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "18608", cfg.ObsID)
	assert.Equal(t, 18608, cfg.ObsIDNumber())
	assert.Equal(t, "/data/18608", cfg.FolderPath)
	assert.Equal(t, "catalogue_all_data.xlsx", cfg.CataloguePath)
	assert.Equal(t, "ObsIDs_with_samp.txt", cfg.SampIDsPath)
	assert.Equal(t, 15, cfg.PIColumnIndex)
	assert.Empty(t, cfg.CatalogueSheet)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.DryRun)

	assert.Equal(t, "/data/18608/18608_photonlist_full_obs_ellipse.txt", cfg.InputPath())
	assert.Equal(t, "/data/18608/18608_photonlist_PI_filter_Jup_full_10_250.txt", cfg.OutputPath())
}

func TestLoadFileFilterSection(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, `[inputs]
OBSID = 2519
folder_path = out

[PI Filter]
catalogue_path = cat.xlsx
samp_ids_path = ids.tsv
catalogue_sheet = Jupiter
pi_column_index = 3
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2519", cfg.ObsID)
	assert.Equal(t, "cat.xlsx", cfg.CataloguePath)
	assert.Equal(t, "ids.tsv", cfg.SampIDsPath)
	assert.Equal(t, "Jupiter", cfg.CatalogueSheet)
	assert.Equal(t, 3, cfg.PIColumnIndex)
}

func TestLoadFileKeepsCommentCharactersInValues(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, "[inputs]\nobsID = 18608\nfolder_path = /data/run;2 #x\n; a full-line comment\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/run;2 #x", cfg.FolderPath)
}

func TestLoadFileEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, "[inputs]\nobsID = 1\nfolder_path = a\n")
	t.Setenv("PIFILTER_OBSID", "2")
	t.Setenv("PIFILTER_FOLDER_PATH", "b")
	t.Setenv("PIFILTER_CATALOGUE_PATH", "c.xlsx")
	t.Setenv("PIFILTER_SAMP_IDS_PATH", "d.txt")
	t.Setenv("DATABASE_URL", "postgres://localhost/hrc")
	t.Setenv("DRY_RUN", "TRUE")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2", cfg.ObsID)
	assert.Equal(t, "b", cfg.FolderPath)
	assert.Equal(t, "c.xlsx", cfg.CataloguePath)
	assert.Equal(t, "d.txt", cfg.SampIDsPath)
	assert.Equal(t, "postgres://localhost/hrc", cfg.DatabaseURL)
	assert.True(t, cfg.DryRun)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing obsID", "[inputs]\nfolder_path = a\n"},
		{"missing folder_path", "[inputs]\nobsID = 1\n"},
		{"non-integer obsID", "[inputs]\nobsID = abc\nfolder_path = a\n"},
		{"negative column index", "[inputs]\nobsID = 1\nfolder_path = a\n[PI Filter]\npi_column_index = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := LoadFile(writeSettings(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.ini"))
	assert.Error(t, err)
}

func TestLoadUsesSettingsPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeSettings(t, "[inputs]\nobsID = 7\nfolder_path = x\n")
	t.Setenv("PIFILTER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7", cfg.ObsID)
}
