// Package config provides configuration management for the layout engine.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration for the layout engine.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Grid      GridConfig      `mapstructure:"grid"`
	Segmenter SegmenterConfig `mapstructure:"segmenter"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Coords    CoordsConfig    `mapstructure:"coords"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
	ErrorPaths  []string `mapstructure:"error_paths"`
	Development bool     `mapstructure:"development"`
}

// GridConfig contains the cell-grid physical scale.
type GridConfig struct {
	CellSizeMeters float64 `mapstructure:"cell_size_meters"`
}

// SegmenterConfig contains image segmentation tuning parameters (§4.B).
type SegmenterConfig struct {
	EnvelopeWidthMeters float64 `mapstructure:"envelope_width_meters"`
	ChromaThreshold     int     `mapstructure:"chroma_threshold"`
	QuantizeDivisor     int     `mapstructure:"quantize_divisor"`
	MinRegionAreaFrac   float64 `mapstructure:"min_region_area_fraction"`
	MinRegionAreaSqM    float64 `mapstructure:"min_region_area_sq_meters"`
	MaxDimension        int     `mapstructure:"max_dimension"`
}

// OptimizerConfig contains MIP optimizer parameters (§4.D, §5).
type OptimizerConfig struct {
	TimeLimitSeconds int     `mapstructure:"time_limit_seconds"`
	MIPGap           float64 `mapstructure:"mip_gap"`
	Threads          int     `mapstructure:"threads"`
	WeightBalance    float64 `mapstructure:"weight_balance"`
	WeightDistance   float64 `mapstructure:"weight_distance"`
	DoorClearCells   int     `mapstructure:"door_clear_cells"`
}

// CoordsConfig contains the grid-to-3D conversion parameters (§4.E).
type CoordsConfig struct {
	WallMarginMeters float64 `mapstructure:"wall_margin_meters"`
}

// Default returns the default configuration, mirroring the default values named
// throughout spec.md (cell size, 30s time limit, 10% gap, 4 threads, w_bal=1.0,
// w_dist=0.6, 1 cell door clearance, 0.25m wall margin).
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
			ErrorPaths:  []string{"stderr"},
			Development: false,
		},
		Grid: GridConfig{
			CellSizeMeters: 0.5,
		},
		Segmenter: SegmenterConfig{
			ChromaThreshold:   40,
			QuantizeDivisor:   64,
			MinRegionAreaFrac: 0.003,
			MinRegionAreaSqM:  1.0,
			MaxDimension:      4096,
		},
		Optimizer: OptimizerConfig{
			TimeLimitSeconds: 30,
			MIPGap:           0.10,
			Threads:          4,
			WeightBalance:    1.0,
			WeightDistance:   0.6,
			DoorClearCells:   1,
		},
		Coords: CoordsConfig{
			WallMarginMeters: 0.25,
		},
	}
}

// Load loads configuration from a YAML file, environment variables
// (LAYOUTENGINE_* prefix) and the defaults above, following the same viper
// wiring the teacher backend uses for its own configuration surface.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_paths", def.Logging.OutputPaths)
	v.SetDefault("logging.error_paths", def.Logging.ErrorPaths)
	v.SetDefault("logging.development", def.Logging.Development)

	v.SetDefault("grid.cell_size_meters", def.Grid.CellSizeMeters)

	v.SetDefault("segmenter.chroma_threshold", def.Segmenter.ChromaThreshold)
	v.SetDefault("segmenter.quantize_divisor", def.Segmenter.QuantizeDivisor)
	v.SetDefault("segmenter.min_region_area_fraction", def.Segmenter.MinRegionAreaFrac)
	v.SetDefault("segmenter.min_region_area_sq_meters", def.Segmenter.MinRegionAreaSqM)
	v.SetDefault("segmenter.max_dimension", def.Segmenter.MaxDimension)

	v.SetDefault("optimizer.time_limit_seconds", def.Optimizer.TimeLimitSeconds)
	v.SetDefault("optimizer.mip_gap", def.Optimizer.MIPGap)
	v.SetDefault("optimizer.threads", def.Optimizer.Threads)
	v.SetDefault("optimizer.weight_balance", def.Optimizer.WeightBalance)
	v.SetDefault("optimizer.weight_distance", def.Optimizer.WeightDistance)
	v.SetDefault("optimizer.door_clear_cells", def.Optimizer.DoorClearCells)

	v.SetDefault("coords.wall_margin_meters", def.Coords.WallMarginMeters)

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("layoutengine")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("LAYOUTENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Grid.CellSizeMeters <= 0 {
		return fmt.Errorf("grid.cell_size_meters must be positive")
	}
	if cfg.Optimizer.TimeLimitSeconds <= 0 {
		return fmt.Errorf("optimizer.time_limit_seconds must be positive")
	}
	if cfg.Optimizer.Threads < 1 {
		return fmt.Errorf("optimizer.threads must be at least 1")
	}
	if cfg.Optimizer.MIPGap < 0 || cfg.Optimizer.MIPGap > 1 {
		return fmt.Errorf("optimizer.mip_gap must be between 0 and 1")
	}
	if cfg.Coords.WallMarginMeters < 0 {
		return fmt.Errorf("coords.wall_margin_meters must not be negative")
	}
	return nil
}

// CreateLogger builds a zap.Logger from the configured logging settings, the
// way core/backend/config.Config.CreateLogger does for the teacher backend.
func (c *Config) CreateLogger() (*zap.Logger, error) {
	var zcfg zap.Config
	if c.Logging.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", c.Logging.Level, err)
	}
	zcfg.Level = level
	zcfg.OutputPaths = c.Logging.OutputPaths
	zcfg.ErrorOutputPaths = c.Logging.ErrorPaths

	return zcfg.Build()
}

// IsDevelopment reports whether the engine is configured for development logging.
func (c *Config) IsDevelopment() bool {
	return c.Logging.Development
}

