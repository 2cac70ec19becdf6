package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/pipeline"
	"github.com/Zumgugger/reformat-sub001/internal/workers"
)

// DefaultFile is consulted when no config path is given.
const DefaultFile = "reformat.yaml"

const (
	defaultJPEGQuality = 85
	defaultWebPQuality = 80
)

// Resize mirrors the resize block of the config file. At most one field
// may be set; Spec refuses conflicting combinations.
type Resize struct {
	Percent float64 `yaml:"percent"`  // percent of original, 50 = half size
	Width   int     `yaml:"width"`    // fit width, keep ratio
	Height  int     `yaml:"height"`   // fit height, keep ratio
	MaxSide int     `yaml:"max_side"` // fit longest side, keep ratio
	Exact   string  `yaml:"exact"`    // WxH, free-form
	SizeMB  float64 `yaml:"size_mb"`  // target output file size
}

// Config describes one conversion run as read from reformat.yaml,
// REFORMAT_* environment overrides and (in the CLI) flags on top.
type Config struct {
	Format      string   `yaml:"format"`
	Engine      string   `yaml:"engine"` // auto, vips or native
	Concurrency int      `yaml:"concurrency"`
	JPEGQuality int      `yaml:"jpeg_quality"`
	WebPQuality int      `yaml:"webp_quality"`
	Resize      Resize   `yaml:"resize"`
	OutputDir   string   `yaml:"output_dir"`
	MetricsFile string   `yaml:"metrics_file"`
	Extensions  []string `yaml:"extensions"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:      "auto",
		Engine:      "auto",
		Concurrency: workers.ForConversion(),
		JPEGQuality: defaultJPEGQuality,
		WebPQuality: defaultWebPQuality,
		Extensions:  defaultExtensions(),
	}
}

// Load reads YAML config from path, layers REFORMAT_* environment
// overrides on top and validates the result. A missing or empty file is
// not an error: defaults apply. An empty path reads DefaultFile.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	// Normalization before validation: zero values mean "unset".
	if cfg.Format == "" {
		cfg.Format = "auto"
	}
	if cfg.Engine == "" {
		cfg.Engine = "auto"
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = workers.ForConversion()
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = defaultJPEGQuality
	}
	if cfg.WebPQuality == 0 {
		cfg.WebPQuality = defaultWebPQuality
	}
	cfg.Extensions = normalizeExtensions(cfg.Extensions)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the assembled configuration. The CLI calls it again
// after layering flag overrides on a loaded config.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be >= 1)", c.Concurrency)
	}
	switch c.Engine {
	case "auto", "vips", "native":
	default:
		return fmt.Errorf("unknown engine %q (want auto, vips or native)", c.Engine)
	}
	if _, err := codec.ParseFormat(c.Format); err != nil {
		return err
	}
	spec, err := c.Resize.Spec()
	if err != nil {
		return err
	}
	return spec.Validate()
}

func applyEnv(cfg *Config) {
	cfg.Format = getEnv("REFORMAT_FORMAT", cfg.Format)
	cfg.Engine = getEnv("REFORMAT_ENGINE", cfg.Engine)
	cfg.OutputDir = getEnv("REFORMAT_OUTPUT_DIR", cfg.OutputDir)
	cfg.MetricsFile = getEnv("REFORMAT_METRICS_FILE", cfg.MetricsFile)
	cfg.Concurrency = getEnvInt("REFORMAT_CONCURRENCY", cfg.Concurrency)
	cfg.JPEGQuality = getEnvInt("REFORMAT_JPEG_QUALITY", cfg.JPEGQuality)
	cfg.WebPQuality = getEnvInt("REFORMAT_WEBP_QUALITY", cfg.WebPQuality)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// TargetFormat resolves the configured format name.
func (c Config) TargetFormat() (codec.Format, error) {
	return codec.ParseFormat(c.Format)
}

// Quality converts the configured qualities; the pipeline clamps them.
func (c Config) Quality() pipeline.QualitySpec {
	return pipeline.QualitySpec{JPEG: c.JPEGQuality, WebP: c.WebPQuality}
}

// ExtensionSet returns the allowed source extensions as a lookup set.
func (c Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.Extensions))
	for _, ext := range c.Extensions {
		set[ext] = true
	}
	return set
}

// Spec converts the resize block into the pipeline's spec. Exactly zero
// or one field may be set.
func (r Resize) Spec() (pipeline.ResizeSpec, error) {
	var (
		set   []string
		specs []pipeline.ResizeSpec
	)
	if r.Percent != 0 {
		set = append(set, "percent")
		specs = append(specs, pipeline.ResizeByPercent(r.Percent/100))
	}
	if r.Width != 0 {
		set = append(set, "width")
		specs = append(specs, pipeline.ResizeToPixels(pipeline.PixelSpec{KeepRatio: true, Driving: pipeline.DrivingWidth, Width: r.Width}))
	}
	if r.Height != 0 {
		set = append(set, "height")
		specs = append(specs, pipeline.ResizeToPixels(pipeline.PixelSpec{KeepRatio: true, Driving: pipeline.DrivingHeight, Height: r.Height}))
	}
	if r.MaxSide != 0 {
		set = append(set, "max_side")
		specs = append(specs, pipeline.ResizeToPixels(pipeline.PixelSpec{KeepRatio: true, Driving: pipeline.DrivingMaxSide, Side: r.MaxSide}))
	}
	if r.Exact != "" {
		w, h, err := ParseDims(r.Exact)
		if err != nil {
			return pipeline.ResizeSpec{}, err
		}
		set = append(set, "exact")
		specs = append(specs, pipeline.ResizeToPixels(pipeline.PixelSpec{Width: w, Height: h}))
	}
	if r.SizeMB != 0 {
		set = append(set, "size_mb")
		specs = append(specs, pipeline.ResizeToFileSize(r.SizeMB))
	}

	switch len(set) {
	case 0:
		return pipeline.ResizeNone(), nil
	case 1:
		return specs[0], nil
	default:
		return pipeline.ResizeSpec{}, fmt.Errorf("conflicting resize settings: %s", strings.Join(set, ", "))
	}
}

// ParseDims parses "800x600" into a width and height.
func ParseDims(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid dimensions %q (want WxH)", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("invalid dimensions %q (want WxH)", s)
	}
	return w, h, nil
}

func defaultExtensions() []string {
	exts := make([]string, 0, len(codec.SourceExtensions))
	for ext := range codec.SourceExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExtensions(in []string) []string {
	if len(in) == 0 {
		return defaultExtensions()
	}
	seen := make(map[string]struct{}, len(in))
	normalized := make([]string, 0, len(in))
	for _, ext := range in {
		e := strings.ToLower(strings.TrimSpace(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		normalized = append(normalized, e)
	}
	return normalized
}
