package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Import.CreaseAngle != 80 {
		t.Errorf("expected crease angle 80, got %f", cfg.Import.CreaseAngle)
	}
	if cfg.Import.GenerateSmoothNormals || cfg.Import.GenerateSharpNormals {
		t.Error("expected normal generation off by default")
	}
	if cfg.Import.TwoSided {
		t.Error("expected two_sided to be false by default")
	}
	if cfg.Import.SceneCoordinateConvention != "z-up" {
		t.Errorf("expected z-up scene, got %s", cfg.Import.SceneCoordinateConvention)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "xchange.yaml")

	yamlContent := `
import:
  generate_smooth_normals: true
  crease_angle: 45
  two_sided: true
  scene_coordinate_convention: y-up
  format_coordinate_conventions:
    obj: z-up
  workers: 4

paths:
  search:
    - /data/models
    - /data/textures

logging:
  level: "debug"
  log_file: "xchange.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Import.GenerateSmoothNormals {
		t.Error("expected smooth normals on")
	}
	if cfg.Import.CreaseAngle != 45 {
		t.Errorf("expected crease angle 45, got %f", cfg.Import.CreaseAngle)
	}
	if !cfg.Import.TwoSided {
		t.Error("expected two_sided on")
	}
	if cfg.Import.SceneCoordinateConvention != "y-up" {
		t.Errorf("expected y-up, got %s", cfg.Import.SceneCoordinateConvention)
	}
	if cfg.Import.FormatCoordinateConventions["obj"] != "z-up" {
		t.Errorf("expected obj z-up, got %v", cfg.Import.FormatCoordinateConventions)
	}
	if cfg.Import.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Import.Workers)
	}
	if len(cfg.Paths.Search) != 2 || cfg.Paths.Search[1] != "/data/textures" {
		t.Errorf("unexpected search paths %v", cfg.Paths.Search)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "xchange.log" {
		t.Errorf("expected log file 'xchange.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "xchange.toml")

	tomlContent := `
[import]
generate_sharp_normals = true
two_sided = true

[import.format_coordinate_conventions]
stl = "z-up"

[paths]
search = ["assets"]
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Import.GenerateSharpNormals {
		t.Error("expected sharp normals on")
	}
	// Values absent from the file keep their defaults.
	if cfg.Import.CreaseAngle != 80 {
		t.Errorf("expected default crease angle 80, got %f", cfg.Import.CreaseAngle)
	}
	if cfg.Import.FormatCoordinateConventions["stl"] != "z-up" {
		t.Errorf("expected stl z-up, got %v", cfg.Import.FormatCoordinateConventions)
	}
	if len(cfg.Paths.Search) != 1 || cfg.Paths.Search[0] != "assets" {
		t.Errorf("unexpected search paths %v", cfg.Paths.Search)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(configPath, []byte("import: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/xchange.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadWithFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "xchange.yaml")
	if err := os.WriteFile(configPath, []byte("import:\n  crease_angle: 30\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	args := []string{"-config", configPath, "-debug", "-crease", "60", "-up", "y-up", "-path", "a; b"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Flags win over the file.
	if cfg.Import.CreaseAngle != 60 {
		t.Errorf("expected crease angle 60, got %f", cfg.Import.CreaseAngle)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug logging, got %s", cfg.Logging.Level)
	}
	if cfg.Import.SceneCoordinateConvention != "y-up" {
		t.Errorf("expected y-up, got %s", cfg.Import.SceneCoordinateConvention)
	}
	if len(cfg.Paths.Search) != 2 || cfg.Paths.Search[0] != "a" || cfg.Paths.Search[1] != "b" {
		t.Errorf("unexpected search paths %v", cfg.Paths.Search)
	}
}

func TestSaveTo(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Import.TwoSided = true
			cfg.Paths.Search = []string{"textures"}

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo failed: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("failed to load saved config: %v", err)
			}
			if !loaded.Import.TwoSided {
				t.Error("expected two_sided to survive save")
			}
			if len(loaded.Paths.Search) != 1 || loaded.Paths.Search[0] != "textures" {
				t.Errorf("unexpected search paths %v", loaded.Paths.Search)
			}
		})
	}
}

func TestReaderOptions(t *testing.T) {
	cfg := Default()
	cfg.Import.GenerateSmoothNormals = true
	cfg.Import.CreaseAngle = 45
	cfg.Import.TwoSided = true
	cfg.Import.Workers = 2
	cfg.Import.SceneCoordinateConvention = "y-up"
	cfg.Import.FormatCoordinateConventions = map[string]string{".OBJ": "z"}
	cfg.Paths.Search = []string{"models"}

	opts, err := cfg.ReaderOptions()
	if err != nil {
		t.Fatalf("ReaderOptions failed: %v", err)
	}

	if !opts.GenerateSmoothNormals || opts.CreaseAngle != 45 || !opts.TwoSided || opts.Workers != 2 {
		t.Errorf("unexpected import options %+v", opts)
	}
	if opts.SceneCoordinateConvention != scenegraph.YUp {
		t.Errorf("expected y-up scene, got %s", opts.SceneCoordinateConvention)
	}
	if opts.FormatCoordinateConventions["obj"] != scenegraph.ZUp {
		t.Errorf("expected obj z-up, got %v", opts.FormatCoordinateConventions)
	}
	if len(opts.Paths) != 1 || opts.Paths[0] != "models" {
		t.Errorf("unexpected paths %v", opts.Paths)
	}

	// The options own their search paths.
	opts.Paths[0] = "other"
	if cfg.Paths.Search[0] != "models" {
		t.Error("expected config paths to be left untouched")
	}
}

func TestReaderOptionsDefaults(t *testing.T) {
	opts, err := Default().ReaderOptions()
	if err != nil {
		t.Fatalf("ReaderOptions failed: %v", err)
	}
	if opts.CreaseAngle != 80 || opts.SceneCoordinateConvention != scenegraph.ZUp {
		t.Errorf("unexpected defaults %+v", opts)
	}
	if opts.FormatCoordinateConventions != nil {
		t.Errorf("expected no format conventions, got %v", opts.FormatCoordinateConventions)
	}
}

func TestReaderOptionsInvalidConvention(t *testing.T) {
	cfg := Default()
	cfg.Import.SceneCoordinateConvention = "sideways"
	if _, err := cfg.ReaderOptions(); err == nil {
		t.Error("expected error for unknown scene convention")
	}

	cfg = Default()
	cfg.Import.FormatCoordinateConventions = map[string]string{"obj": "w-up"}
	if _, err := cfg.ReaderOptions(); err == nil {
		t.Error("expected error for unknown format convention")
	}
}
