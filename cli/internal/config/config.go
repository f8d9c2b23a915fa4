package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// FileName is the config file written by pulse init.
const FileName = ".pulse.yaml"

// Config holds the application configuration
type Config struct {
	Provider    string
	DatabaseURL string
	SchemaPath  string
	BatchSize   int
	Debug       bool

	// File is the config file that was read, if any.
	File string
}

// LoadConfig loads configuration from the config file, .env files and
// PULSE_* environment variables. An explicit path must exist; otherwise
// .pulse.yaml is looked up in the working directory, the home directory and
// ~/.config/pulse.
func LoadConfig(path string) (*Config, error) {
	// .env.local wins over .env, the process environment wins over both.
	if err := loadEnvFile(".env", false); err != nil {
		return nil, err
	}
	if err := loadEnvFile(".env.local", true); err != nil {
		return nil, err
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(FileName[:len(FileName)-len(filepath.Ext(FileName))])
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "pulse"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Provider:    v.GetString("provider"),
		DatabaseURL: v.GetString("database_url"),
		SchemaPath:  v.GetString("schema_path"),
		BatchSize:   v.GetInt("batch_size"),
		Debug:       v.GetBool("debug"),
		File:        v.ConfigFileUsed(),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)

	// Set environment variable prefix
	v.SetEnvPrefix("PULSE")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("provider", "postgres")
	v.SetDefault("schema_path", "schema.yaml")
	v.SetDefault("batch_size", 0)
	v.SetDefault("debug", false)
	return v
}

// loadEnvFile exports the variables of a dotenv file. Unless overload is
// set, variables that already have a non-empty value are kept.
func loadEnvFile(name string, overload bool) error {
	data, err := afero.ReadFile(AppFs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for k, val := range vars {
		if cur := os.Getenv(k); cur != "" && !overload {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

// SaveConfig writes cfg to path, by default .pulse.yaml in the working
// directory.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = FileName
	}
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("provider", cfg.Provider)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("schema_path", cfg.SchemaPath)
	if cfg.BatchSize > 0 {
		v.Set("batch_size", cfg.BatchSize)
	}
	if cfg.Debug {
		v.Set("debug", true)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	v.SetConfigType("yaml")
	return v.WriteConfigAs(path)
}
