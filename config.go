package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"batter-scatter/chart"
	"batter-scatter/roster"
)

type ChartConfig struct {
	Margin int `mapstructure:"margin"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	Radius int `mapstructure:"radius"`
}

type LayoutConfig struct {
	TickIntervalMs int   `mapstructure:"tick_interval_ms"`
	Seed           int64 `mapstructure:"seed"`
	// CollideFactor scales the point radius into the collision radius.
	CollideFactor float64 `mapstructure:"collide_factor"`
}

type ServiceConfig struct {
	Addr           string       `mapstructure:"addr"`
	DataSource     string       `mapstructure:"data_source"`
	LoadTimeoutSec int          `mapstructure:"load_timeout_sec"`
	CORSOrigins    []string     `mapstructure:"cors_origins"`
	Chart          ChartConfig  `mapstructure:"chart"`
	Layout         LayoutConfig `mapstructure:"layout"`
}

func (c *ServiceConfig) Dimensions() chart.Dimensions {
	return chart.Dimensions{Margin: c.Chart.Margin, Width: c.Chart.Width, Height: c.Chart.Height, Radius: c.Chart.Radius}
}

func (c *ServiceConfig) TickInterval() time.Duration {
	return time.Duration(c.Layout.TickIntervalMs) * time.Millisecond
}

func (c *ServiceConfig) CollideRadius() float64 {
	return float64(c.Chart.Radius) * c.Layout.CollideFactor
}

// loadConfig reads defaults, then scatter.yaml (or cfgFile), then SCATTER_*
// environment variables. Nested keys use underscores: SCATTER_CHART_WIDTH.
func loadConfig(cfgFile string) (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SCATTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dims := chart.DefaultDimensions()
	v.SetDefault("addr", ":8080")
	v.SetDefault("data_source", roster.DefaultSource)
	v.SetDefault("load_timeout_sec", 30)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("chart.margin", dims.Margin)
	v.SetDefault("chart.width", dims.Width)
	v.SetDefault("chart.height", dims.Height)
	v.SetDefault("chart.radius", dims.Radius)
	v.SetDefault("layout.tick_interval_ms", 16)
	v.SetDefault("layout.seed", 1)
	v.SetDefault("layout.collide_factor", 0.4)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("scatter")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file must exist; the default one is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c ServiceConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// cors_origins from the environment arrives as one comma separated string.
	if len(c.CORSOrigins) == 1 && strings.Contains(c.CORSOrigins[0], ",") {
		c.CORSOrigins = strings.Split(c.CORSOrigins[0], ",")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *ServiceConfig) validate() error {
	if c.Chart.Width <= c.Chart.Margin || c.Chart.Height <= c.Chart.Margin {
		return fmt.Errorf("invalid config: chart width and height must exceed the margin %d", c.Chart.Margin)
	}
	if c.Chart.Radius <= 0 {
		return fmt.Errorf("invalid config: chart radius must be positive")
	}
	if c.LoadTimeoutSec <= 0 {
		return fmt.Errorf("invalid config: load_timeout_sec must be positive")
	}
	if c.DataSource == "" {
		return fmt.Errorf("invalid config: data_source is empty")
	}
	return nil
}

func configFileFromEnv() string { return os.Getenv("SCATTER_CONFIG") }
