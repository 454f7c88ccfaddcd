package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/vtrack/internal/appearance"
	"github.com/MeKo-Tech/vtrack/internal/meanshift"
	"github.com/MeKo-Tech/vtrack/internal/occlusion"
	"github.com/MeKo-Tech/vtrack/internal/segment"
	"github.com/MeKo-Tech/vtrack/internal/tracker"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	ms := meanshift.DefaultConfig()
	depth := appearance.DefaultConfig()
	seg := segment.DefaultConfig()
	match := occlusion.DefaultMatchConfig()

	return Config{
		LogLevel: "info",
		Verbose:  false,
		Tracker: TrackerConfig{
			MaxIterations:        ms.MaxIterations,
			Epsilon:              ms.Epsilon,
			Bandwidth:            0,
			Workers:              0,
			ZRangeLowPercentile:  depth.LowPercentile,
			ZRangeHighPercentile: depth.HighPercentile,
		},
		Segment: SegmentConfig{
			Otsu:                seg.Otsu,
			Threshold:           int(seg.Threshold),
			OpenKernel:          seg.OpenKernel,
			DilateIterations:    seg.DilateIterations,
			InteriorThreshold:   int(seg.InteriorThreshold),
			IncludeBorderRegion: seg.IncludeBorderRegion,
			MinPercentile:       seg.MinPercentile,
			MedianPercentile:    seg.MedianPercentile,
			MaxPercentile:       seg.MaxPercentile,
		},
		Matcher: MatcherConfig{
			OverlapThreshold: match.Threshold,
			OverlapMetric:    string(match.Metric),
		},
		Output: OutputConfig{
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Tracker.Workers < 0 {
		return fmt.Errorf("invalid tracker workers: %d (must not be negative)", c.Tracker.Workers)
	}
	if err := validateThreshold(c.Tracker.ZRangeLowPercentile, "tracker.zrange_low_percentile"); err != nil {
		return err
	}
	if err := validateThreshold(c.Tracker.ZRangeHighPercentile, "tracker.zrange_high_percentile"); err != nil {
		return err
	}
	if err := validateByte(c.Segment.Threshold, "segment.threshold"); err != nil {
		return err
	}
	if err := validateByte(c.Segment.InteriorThreshold, "segment.interior_threshold"); err != nil {
		return err
	}
	if err := validateThreshold(c.Matcher.OverlapThreshold, "matcher.overlap_threshold"); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics enabled but metrics.addr is empty")
	}

	if err := c.ToTrackerConfig().Validate(); err != nil {
		return fmt.Errorf("invalid tracker configuration: %w", err)
	}
	return nil
}

// ToTrackerConfig converts the config to the tracker configuration.
func (c *Config) ToTrackerConfig() tracker.Config {
	cfg := tracker.DefaultConfig()

	cfg.MeanShift.MaxIterations = c.Tracker.MaxIterations
	cfg.MeanShift.Epsilon = c.Tracker.Epsilon
	if c.Tracker.Workers > 0 {
		cfg.MeanShift.Workers = c.Tracker.Workers
	}
	cfg.Bandwidth = c.Tracker.Bandwidth
	cfg.Depth.LowPercentile = c.Tracker.ZRangeLowPercentile
	cfg.Depth.HighPercentile = c.Tracker.ZRangeHighPercentile

	cfg.Segment = c.ToSegmentConfig()

	cfg.Match.Threshold = c.Matcher.OverlapThreshold
	cfg.Match.Metric = occlusion.OverlapMetric(c.Matcher.OverlapMetric)
	return cfg
}

// ToSegmentConfig converts to segment.Config.
func (c *Config) ToSegmentConfig() segment.Config {
	return segment.Config{
		Otsu:                c.Segment.Otsu,
		Threshold:           clampByte(c.Segment.Threshold),
		OpenKernel:          c.Segment.OpenKernel,
		DilateIterations:    c.Segment.DilateIterations,
		InteriorThreshold:   clampByte(c.Segment.InteriorThreshold),
		IncludeBorderRegion: c.Segment.IncludeBorderRegion,
		MinPercentile:       c.Segment.MinPercentile,
		MedianPercentile:    c.Segment.MedianPercentile,
		MaxPercentile:       c.Segment.MaxPercentile,
	}
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

// validateByte validates that a value fits an 8-bit intensity.
func validateByte(value int, name string) error {
	if value < 0 || value > 255 {
		return fmt.Errorf("invalid %s: %d (must be between 0 and 255)", name, value)
	}
	return nil
}

func clampByte(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}
