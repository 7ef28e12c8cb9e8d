package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default dataset locations.
const (
	DefaultAreasURL         = "https://raw.githubusercontent.com/Vizzuality/science-code-challenge/main/areas.geojson"
	DefaultForestCatalogURL = "https://storage.googleapis.com/earthenginepartners-hansen/GFC-2020-v1.8/lossyear.txt"
	DefaultCropType         = "SOYB"
)

// DefaultSpamURLs are the MapSPAM 2010 global GeoTIFF archives.
var DefaultSpamURLs = []string{
	"https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_harv_area.geotiff.zip",
	"https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_phys_area.geotiff.zip",
	"https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_yield.geotiff.zip",
	"https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_prod.geotiff.zip",
	"https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_val_prod_agg.geotiff.zip",
}

// Config holds the configuration settings for the downloader.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Workers: The number of concurrent download workers.
// - RateLimit: Maximum download requests per second, 0 disables throttling.
// - HTTPTimeout: Timeout of a single HTTP request.
// - MetricsFile: Optional node exporter textfile to write run metrics to.
// - Sources: Remote dataset locations and filters.
type Config struct {
	Env         string        `mapstructure:"env"`          // Env is the current environment: local, development, production.
	Workers     int           `mapstructure:"workers"`      // The number of concurrent download workers.
	RateLimit   int           `mapstructure:"rate_limit"`   // Download requests per second.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"` // Timeout of a single HTTP request.
	MetricsFile string        `mapstructure:"metrics_file"` // Path of the metrics textfile, empty to disable.
	Sources     SourcesConfig `mapstructure:"sources"`      // Sources holds the remote dataset configuration.
}

// SourcesConfig describes where datasets come from and how they are filtered.
type SourcesConfig struct {
	AreasURL         string   `mapstructure:"areas_url"`          // GeoJSON with the areas of interest.
	AreasLabel       string   `mapstructure:"areas_label"`        // Feature property naming each area.
	ForestCatalogURL string   `mapstructure:"forest_catalog_url"` // Plaintext listing of forest-loss tiles.
	SpamURLs         []string `mapstructure:"spam_urls"`          // Crop archives to download.
	CropType         string   `mapstructure:"crop_type"`          // Archive member filter, e.g. SOYB.
}

// MustLoad reads the configuration from the environment (and an optional .env file).
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GAIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("workers", 4)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("http_timeout", "30m")
	v.SetDefault("metrics_file", "")
	v.SetDefault("sources.areas_url", DefaultAreasURL)
	v.SetDefault("sources.areas_label", "region")
	v.SetDefault("sources.forest_catalog_url", DefaultForestCatalogURL)
	v.SetDefault("sources.spam_urls", strings.Join(DefaultSpamURLs, ","))
	v.SetDefault("sources.crop_type", DefaultCropType)

	timeout, err := time.ParseDuration(v.GetString("http_timeout"))
	if err != nil {
		panic("failed to parse http timeout from configuration")
	}

	workers, err := parseInt(v, "workers")
	if err != nil || workers < 1 {
		panic("failed to parse workers from configuration, must be a positive integer")
	}

	rateLimit, err := parseInt(v, "rate_limit")
	if err != nil || rateLimit < 0 {
		panic("failed to parse rate limit from configuration, must be a non-negative integer")
	}

	return &Config{
		Env:         v.GetString("env"),
		Workers:     workers,
		RateLimit:   rateLimit,
		HTTPTimeout: timeout,
		MetricsFile: v.GetString("metrics_file"),
		Sources: SourcesConfig{
			AreasURL:         v.GetString("sources.areas_url"),
			AreasLabel:       v.GetString("sources.areas_label"),
			ForestCatalogURL: v.GetString("sources.forest_catalog_url"),
			SpamURLs:         splitList(v.GetString("sources.spam_urls")),
			CropType:         v.GetString("sources.crop_type"),
		},
	}
}

func parseInt(v *viper.Viper, key string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(v.GetString(key)))
}

func splitList(raw string) []string {
	var items []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
