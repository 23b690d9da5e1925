package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against the working directory at startup.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	DatasetFile string `yaml:"dataset_file" envconfig:"DATASET_FILE" default:"base_cryptee.csv"`
	ExportsDir  string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"exports"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// resolve makes all paths absolute.
func (p *PathsConfig) resolve() error {
	base, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	for _, dir := range []*string{&p.DataDir, &p.ExportsDir, &p.LogsDir} {
		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(base, *dir)
		}
	}
	return nil
}

// DatasetPath returns the absolute path of the backing sales file.
func (p PathsConfig) DatasetPath() string {
	if filepath.IsAbs(p.DatasetFile) {
		return p.DatasetFile
	}
	return filepath.Join(p.DataDir, p.DatasetFile)
}

// ExportPath returns the absolute path for a named export file.
func (p PathsConfig) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// LogPath returns the absolute path for a named log file.
func (p PathsConfig) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// EnsureDirectories creates every directory the service writes into.
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
