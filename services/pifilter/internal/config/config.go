package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const (
	defaultSettingsPath  = "config.ini"
	defaultCataloguePath = "catalogue_all_data.xlsx"
	defaultSampIDsPath   = "ObsIDs_with_samp.txt"
	defaultPIColumnIndex = 15
	inputsSection        = "inputs"
	piFilterSection      = "PI Filter"
)

// Config holds runtime configuration for a PI filter run.
type Config struct {
	ObsID          string
	FolderPath     string
	CataloguePath  string
	CatalogueSheet string
	SampIDsPath    string
	PIColumnIndex  int
	DatabaseURL    string
	DryRun         bool
}

// ObsIDNumber returns the observation ID as used in the catalogue.
func (c Config) ObsIDNumber() int {
	n, _ := strconv.Atoi(c.ObsID)
	return n
}

// Load reads the settings file named by PIFILTER_CONFIG (config.ini by
// default) and applies environment overrides (optionally from .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	path := strings.TrimSpace(os.Getenv("PIFILTER_CONFIG"))
	if path == "" {
		path = defaultSettingsPath
	}
	return LoadFile(path)
}

// LoadFile reads settings from the INI file at path, then applies
// environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Config{
		CataloguePath: defaultCataloguePath,
		SampIDsPath:   defaultSampIDsPath,
		PIColumnIndex: defaultPIColumnIndex,
	}

	// Keys are case-insensitive, section names are not, and values keep
	// everything after '=' including ';' and '#'.
	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:     true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return cfg, fmt.Errorf("read settings %s: %w", path, err)
	}

	inputs := file.Section(inputsSection)
	cfg.ObsID = strings.TrimSpace(inputs.Key("obsID").String())
	cfg.FolderPath = strings.TrimSpace(inputs.Key("folder_path").String())

	filter := file.Section(piFilterSection)
	if v := strings.TrimSpace(filter.Key("catalogue_path").String()); v != "" {
		cfg.CataloguePath = v
	}
	if v := strings.TrimSpace(filter.Key("samp_ids_path").String()); v != "" {
		cfg.SampIDsPath = v
	}
	cfg.CatalogueSheet = strings.TrimSpace(filter.Key("catalogue_sheet").String())
	if filter.HasKey("pi_column_index") {
		idx, err := filter.Key("pi_column_index").Int()
		if err != nil || idx < 0 {
			return cfg, fmt.Errorf("invalid pi_column_index: %q", filter.Key("pi_column_index").String())
		}
		cfg.PIColumnIndex = idx
	}

	applyEnv(&cfg)

	if cfg.ObsID == "" {
		return cfg, errors.New("obsID is required")
	}
	if _, err := strconv.Atoi(cfg.ObsID); err != nil {
		return cfg, fmt.Errorf("invalid obsID %q: %w", cfg.ObsID, err)
	}
	if cfg.FolderPath == "" {
		return cfg, errors.New("folder_path is required")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PIFILTER_OBSID")); v != "" {
		cfg.ObsID = v
	}
	if v := strings.TrimSpace(os.Getenv("PIFILTER_FOLDER_PATH")); v != "" {
		cfg.FolderPath = v
	}
	if v := strings.TrimSpace(os.Getenv("PIFILTER_CATALOGUE_PATH")); v != "" {
		cfg.CataloguePath = v
	}
	if v := strings.TrimSpace(os.Getenv("PIFILTER_SAMP_IDS_PATH")); v != "" {
		cfg.SampIDsPath = v
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")
}

// InputPath is the upstream photon list for the observation.
func (c Config) InputPath() string {
	return fmt.Sprintf("%s/%s_photonlist_full_obs_ellipse.txt", c.FolderPath, c.ObsID)
}

// OutputPath is where the PI-filtered photon list is written.
func (c Config) OutputPath() string {
	return fmt.Sprintf("%s/%s_photonlist_PI_filter_Jup_full_10_250.txt", c.FolderPath, c.ObsID)
}
