//nolint:lll
package config

// Config represents the complete configuration for the vtrack application.
// It supports loading from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Tracker TrackerConfig `mapstructure:"tracker" yaml:"tracker" json:"tracker"`
	Segment SegmentConfig `mapstructure:"segment" yaml:"segment" json:"segment"`
	Matcher MatcherConfig `mapstructure:"matcher" yaml:"matcher" json:"matcher"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// TrackerConfig contains mean-shift and depth-model settings.
type TrackerConfig struct {
	MaxIterations        int     `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations"`
	Epsilon              float64 `mapstructure:"epsilon" yaml:"epsilon" json:"epsilon"`
	Bandwidth            float64 `mapstructure:"bandwidth" yaml:"bandwidth" json:"bandwidth"`
	Workers              int     `mapstructure:"workers" yaml:"workers" json:"workers"`
	ZRangeLowPercentile  float64 `mapstructure:"zrange_low_percentile" yaml:"zrange_low_percentile" json:"zrange_low_percentile"`
	ZRangeHighPercentile float64 `mapstructure:"zrange_high_percentile" yaml:"zrange_high_percentile" json:"zrange_high_percentile"`
}

// SegmentConfig contains region segmentation settings.
type SegmentConfig struct {
	Otsu                bool    `mapstructure:"otsu" yaml:"otsu" json:"otsu"`
	Threshold           int     `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	OpenKernel          int     `mapstructure:"open_kernel" yaml:"open_kernel" json:"open_kernel"`
	DilateIterations    int     `mapstructure:"dilate_iterations" yaml:"dilate_iterations" json:"dilate_iterations"`
	InteriorThreshold   int     `mapstructure:"interior_threshold" yaml:"interior_threshold" json:"interior_threshold"`
	IncludeBorderRegion bool    `mapstructure:"include_border_region" yaml:"include_border_region" json:"include_border_region"`
	MinPercentile       float64 `mapstructure:"min_percentile" yaml:"min_percentile" json:"min_percentile"`
	MedianPercentile    float64 `mapstructure:"median_percentile" yaml:"median_percentile" json:"median_percentile"`
	MaxPercentile       float64 `mapstructure:"max_percentile" yaml:"max_percentile" json:"max_percentile"`
}

// MatcherConfig contains frame-to-frame object matching settings.
type MatcherConfig struct {
	OverlapThreshold float64 `mapstructure:"overlap_threshold" yaml:"overlap_threshold" json:"overlap_threshold"`
	OverlapMetric    string  `mapstructure:"overlap_metric" yaml:"overlap_metric" json:"overlap_metric"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" json:"addr"`
}
