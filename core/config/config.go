package config

import (
	"reflect"
	"strings"

	"github.com/wangkanai/foundation/core/archive"
	"github.com/wangkanai/foundation/core/database"
	"github.com/wangkanai/foundation/core/logger"
	"github.com/wangkanai/foundation/core/server"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Archive holds configuration for the audit blob archive storage.
	Archive archive.Config `mapstructure:"archive"`
	// Caches holds configuration for the identity-resolution caches.
	Caches CachesConfig `mapstructure:"caches"`
	// Audit holds configuration for audit trail recording.
	Audit AuditConfig `mapstructure:"audit"`
}

// CachesConfig bounds and tunes the type-resolution cache.
type CachesConfig struct {
	// TypeResolutionCapacity caps how many distinct runtime types the
	// resolver caches. Beyond the cap types resolve but are not stored.
	TypeResolutionCapacity int `mapstructure:"type_resolution_capacity" default:"1024"`
	// ProxyPathSuffix identifies packages holding generated proxy subtypes.
	ProxyPathSuffix string `mapstructure:"proxy_path_suffix" default:"/proxies"`
	// ProxyMarker identifies generated proxy type names.
	ProxyMarker string `mapstructure:"proxy_marker" default:"Proxy_"`
}

// AuditConfig controls audit trail recording.
type AuditConfig struct {
	// Enabled toggles the GORM audit plugin.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// ArchiveThresholdBytes is the blob size beyond which state blobs
	// are offloaded to archive storage. Zero disables offloading.
	ArchiveThresholdBytes int `mapstructure:"archive_threshold_bytes" default:"65536"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default
// values in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
