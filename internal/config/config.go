package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// FileName is the configuration file read from the config directory.
const FileName = "headlamp.yml"

// LightConfig holds the marker engine settings.
type LightConfig struct {
	GlowingItems       map[string]any
	Radius             float64
	UpdateInterval     uint64
	RemoveAllOnUnequip bool
	MaxMarkersPerActor int
	SettleDelay        uint64
	HeadgearSlot       int
	VerticalOffset     int
}

// GeneralConfig holds process wide settings.
type GeneralConfig struct {
	LogLevel       string
	LogFormat      string // text or json
	LogsDir        string
	Language       string
	CommandAliases map[string]string // alias label -> subcommand
}

// MemoryConfig holds in-memory journal settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds in-memory sqlite journal settings.
type SQLiteConfig struct {
	DumpPath     string
	DumpInterval time.Duration
}

// WebSocketConfig holds journal stream settings.
type WebSocketConfig struct {
	URL    string
	Secret string
}

// UploadConfig holds the collector exported journals are sent to.
type UploadConfig struct {
	Enabled bool
	URL     string
	APIKey  string
	Tag     string
}

// StorageConfig selects and configures the journal backend.
type StorageConfig struct {
	Type          string
	FlushInterval time.Duration
	Memory        MemoryConfig
	SQLite        SQLiteConfig
	WebSocket     WebSocketConfig
	Upload        UploadConfig
}

// DBConfig holds the postgres journal connection.
type DBConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	Database  string
	SSLMode   string
	SlowQuery time.Duration
}

// InfluxConfig holds pass statistics sink settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
	LogsDir  string
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	MetricInterval time.Duration
	Endpoint       string
	Insecure       bool
}

// GraylogConfig holds GELF sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// MonitorConfig holds status file settings.
type MonitorConfig struct {
	Enabled    bool
	StatusFile string
	Interval   time.Duration
}

var configDir string

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "text")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("language", "en")
	viper.SetDefault("commandAliases", map[string]string{})

	viper.SetDefault("light.glowingItems", map[string]any{})
	viper.SetDefault("light.radius", 10)
	viper.SetDefault("light.updateInterval", 1)
	viper.SetDefault("light.removeAllOnUnequip", true)
	viper.SetDefault("light.maxMarkersPerActor", 3)
	viper.SetDefault("light.settleDelay", 1)
	viper.SetDefault("light.headgearSlot", 39)
	viper.SetDefault("light.verticalOffset", 2)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.memory.outputDir", "./journal")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpPath", "./journal/headlamp.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/journal")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.upload.enabled", false)
	viper.SetDefault("storage.upload.url", "http://localhost:5000")
	viper.SetDefault("storage.upload.apiKey", "")
	viper.SetDefault("storage.upload.tag", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "headlamp")
	viper.SetDefault("db.sslMode", "disable")
	viper.SetDefault("db.slowQuery", "200ms")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "headlamp-metrics")
	viper.SetDefault("influx.bucket", "headlamp_performance")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "headlamp")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "30s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.statusFile", "./headlamp.status.json")
	viper.SetDefault("monitor.interval", "10s")
}

// Load reads configuration from the YAML file and sets default values.
// dir is the directory containing the config file.
func Load(dir string) error {
	setDefaults()

	viper.SetConfigName(strings.TrimSuffix(FileName, ".yml"))
	viper.AddConfigPath(dir)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	configDir = dir

	return nil
}

// Reload re-reads the file found by Load. Values missing from the file fall
// back to their defaults.
func Reload() error {
	if configDir == "" {
		return fmt.Errorf("config not loaded")
	}
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reloading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// ticks reads a tick count; anything below one becomes one.
func ticks(key string) uint64 {
	v := viper.GetInt64(key)
	if v < 1 {
		return 1
	}
	return uint64(v)
}

// GetLightConfig returns the marker engine settings. Glowing item values are
// kept raw so the registry can report the ones it rejects.
func GetLightConfig() LightConfig {
	return LightConfig{
		GlowingItems:       cast.ToStringMap(viper.Get("light.glowingItems")),
		Radius:             viper.GetFloat64("light.radius"),
		UpdateInterval:     ticks("light.updateInterval"),
		RemoveAllOnUnequip: viper.GetBool("light.removeAllOnUnequip"),
		MaxMarkersPerActor: viper.GetInt("light.maxMarkersPerActor"),
		SettleDelay:        ticks("light.settleDelay"),
		HeadgearSlot:       viper.GetInt("light.headgearSlot"),
		VerticalOffset:     viper.GetInt("light.verticalOffset"),
	}
}

// GetGeneralConfig returns process wide settings.
func GetGeneralConfig() GeneralConfig {
	return GeneralConfig{
		LogLevel:       viper.GetString("logLevel"),
		LogFormat:      viper.GetString("logFormat"),
		LogsDir:        viper.GetString("logsDir"),
		Language:       viper.GetString("language"),
		CommandAliases: viper.GetStringMapString("commandAliases"),
	}
}

// ModuleEnabled reports whether modules.<name>.enabled is set. Modules are
// enabled unless switched off.
func ModuleEnabled(name string) bool {
	key := "modules." + name + ".enabled"
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          strings.ToLower(viper.GetString("storage.type")),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		Upload: UploadConfig{
			Enabled: viper.GetBool("storage.upload.enabled"),
			URL:     viper.GetString("storage.upload.url"),
			APIKey:  viper.GetString("storage.upload.apiKey"),
			Tag:     viper.GetString("storage.upload.tag"),
		},
	}
}

// GetDBConfig returns the postgres journal connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:      viper.GetString("db.host"),
		Port:      viper.GetString("db.port"),
		Username:  viper.GetString("db.username"),
		Password:  viper.GetString("db.password"),
		Database:  viper.GetString("db.database"),
		SSLMode:   viper.GetString("db.sslMode"),
		SlowQuery: viper.GetDuration("db.slowQuery"),
	}
}

// GetInfluxConfig returns the pass statistics sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
		LogsDir:  viper.GetString("logsDir"),
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns status file settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}
