// Package config loads and validates sunbeam's TOML configuration:
// the primary pipeline config, the events file, and the targets file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

// DataSourceKind names one of the four backends a DataSourceConfig
// section may select.
type DataSourceKind string

const (
	DataSourceFilesystem DataSourceKind = "FSDataSource"
	DataSourceMongoDB    DataSourceKind = "MongoDBDataSource"
	DataSourceInfluxDB   DataSourceKind = "InfluxDBDataSource"
	DataSourcePeer       DataSourceKind = "SunbeamDataSource"
)

// DataSourceConfig configures one DataSource backend. Only the fields
// relevant to Type are meaningful; this mirrors both the
// stage_data_source and ingress_data_source sections of the primary
// config file, which share the same shape.
type DataSourceConfig struct {
	Type DataSourceKind `mapstructure:"data_source_type"`

	// FSDataSource
	FSRoot string `mapstructure:"fs_root"`

	// MongoDBDataSource
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`

	// InfluxDBDataSource
	Start string `mapstructure:"start"`
	Stop  string `mapstructure:"stop"`
	URL   string `mapstructure:"url"`

	// SunbeamDataSource (peer)
	APIURL string `mapstructure:"api_url"`

	// Shared by any mode that reads from a namespace other than the
	// run's own: must differ from the pipeline title.
	IngressOrigin string `mapstructure:"ingress_origin"`
}

// LoggingConfig configures the observability package's logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// LedgerConfig configures the run ledger's backing GORM database.
type LedgerConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

// PipelineConfig is the [config] section: which stages to run and
// where to find the events/targets description files.
type PipelineConfig struct {
	EventsDescriptionFile  string   `mapstructure:"events_description_file"`
	IngressDescriptionFile string   `mapstructure:"ingress_description_file"`
	StagesToRun            []string `mapstructure:"stages_to_run"`
}

// IngressConfig is the [ingress] section: the bounded worker pool size
// for telemetry fan-out.
type IngressConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SunbeamConfig is the fully-decoded primary configuration file.
type SunbeamConfig struct {
	Pipeline         PipelineConfig   `mapstructure:"config"`
	StageDataSource  DataSourceConfig `mapstructure:"stage_data_source"`
	IngressDataSource DataSourceConfig `mapstructure:"ingress_data_source"`
	Ledger           LedgerConfig     `mapstructure:"ledger"`
	Logging          LoggingConfig    `mapstructure:"logging"`
	Ingress          IngressConfig    `mapstructure:"ingress"`
}

// Load reads and decodes the primary configuration file at path,
// layering in SUNBEAM_-prefixed environment variable overrides.
func Load(path string) (*SunbeamConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("sunbeam")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("ingress.concurrency", 4)
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.log_level", "warn")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg SunbeamConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *SunbeamConfig) error {
	if cfg.Pipeline.EventsDescriptionFile == "" {
		return core.NewConfigurationError("config.events_description_file", "required")
	}
	if cfg.Pipeline.IngressDescriptionFile == "" {
		return core.NewConfigurationError("config.ingress_description_file", "required")
	}
	if len(cfg.Pipeline.StagesToRun) == 0 {
		return core.NewConfigurationError("config.stages_to_run", "must name at least one stage")
	}
	if cfg.StageDataSource.Type == "" {
		return core.NewConfigurationError("stage_data_source.data_source_type", "required")
	}
	if !isKnownDataSourceType(cfg.StageDataSource.Type) {
		return core.NewConfigurationError("stage_data_source.data_source_type", fmt.Sprintf("unknown data source type %q", cfg.StageDataSource.Type))
	}
	if cfg.IngressDataSource.Type == "" {
		return core.NewConfigurationError("ingress_data_source.data_source_type", "required")
	}
	if !isKnownDataSourceType(cfg.IngressDataSource.Type) {
		return core.NewConfigurationError("ingress_data_source.data_source_type", fmt.Sprintf("unknown data source type %q", cfg.IngressDataSource.Type))
	}
	return nil
}

func isKnownDataSourceType(kind DataSourceKind) bool {
	switch kind {
	case DataSourceFilesystem, DataSourceMongoDB, DataSourceInfluxDB, DataSourcePeer:
		return true
	default:
		return false
	}
}
