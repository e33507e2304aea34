// Package config handles xchange configuration loading and management.
package config

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import" toml:"import"`
	Paths   PathsConfig   `yaml:"paths" toml:"paths"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ImportConfig holds the reader options applied to every import.
type ImportConfig struct {
	GenerateSmoothNormals bool    `yaml:"generate_smooth_normals" toml:"generate_smooth_normals"`
	GenerateSharpNormals  bool    `yaml:"generate_sharp_normals" toml:"generate_sharp_normals"`
	CreaseAngle           float32 `yaml:"crease_angle" toml:"crease_angle"` // degrees
	TwoSided              bool    `yaml:"two_sided" toml:"two_sided"`

	// SceneCoordinateConvention is the up axis of the produced graph ("x-up", "y-up", "z-up").
	SceneCoordinateConvention string `yaml:"scene_coordinate_convention" toml:"scene_coordinate_convention"`
	// FormatCoordinateConventions overrides the assumed up axis per file extension.
	FormatCoordinateConventions map[string]string `yaml:"format_coordinate_conventions" toml:"format_coordinate_conventions"`

	// Workers bounds parallel material resolution (0 = one per CPU).
	Workers int `yaml:"workers" toml:"workers"`
}

// PathsConfig holds file search settings.
type PathsConfig struct {
	Search []string `yaml:"search" toml:"search"` // Directories searched for models and textures
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			CreaseAngle:               80,
			SceneCoordinateConvention: "z-up",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
