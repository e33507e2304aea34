package config

import (
	"flag"
	"strings"
)

// Flags holds the command-line overrides shared by the xchange subcommands.
type Flags struct {
	config        *string
	debug         *bool
	logFile       *string
	smoothNormals *bool
	sharpNormals  *bool
	creaseAngle   *float64
	twoSided      *bool
	upAxis        *string
	paths         *string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:        fs.String("config", "", "Path to config file (.yaml or .toml)"),
		debug:         fs.Bool("debug", false, "Enable debug logging"),
		logFile:       fs.String("log", "", "Write logs to this file"),
		smoothNormals: fs.Bool("smooth-normals", false, "Generate smooth normals for meshes without normals"),
		sharpNormals:  fs.Bool("sharp-normals", false, "Generate flat normals for meshes without normals"),
		creaseAngle:   fs.Float64("crease", 0, "Crease angle in degrees for smooth normals"),
		twoSided:      fs.Bool("two-sided", false, "Force two-sided materials"),
		upAxis:        fs.String("up", "", "Up axis of the produced scene (x-up, y-up, z-up)"),
		paths:         fs.String("path", "", "Extra search directories, separated by ';'"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.smoothNormals {
		cfg.Import.GenerateSmoothNormals = true
	}
	if *f.sharpNormals {
		cfg.Import.GenerateSharpNormals = true
	}
	if *f.creaseAngle > 0 {
		cfg.Import.CreaseAngle = float32(*f.creaseAngle)
	}
	if *f.twoSided {
		cfg.Import.TwoSided = true
	}
	if *f.upAxis != "" {
		cfg.Import.SceneCoordinateConvention = *f.upAxis
	}
	if *f.paths != "" {
		for _, p := range strings.Split(*f.paths, ";") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Paths.Search = append(cfg.Paths.Search, p)
			}
		}
	}
}
