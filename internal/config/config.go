package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
	Metadata MetadataConfig `yaml:"metadata" json:"metadata"`
	Events   EventsConfig   `yaml:"events" json:"events"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string        `yaml:"host" json:"host" env:"CATALOG_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" json:"port" env:"CATALOG_PORT" default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout" env:"CATALOG_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout" env:"CATALOG_WRITE_TIMEOUT" default:"30s"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins" env:"CATALOG_ALLOWED_ORIGINS"`
}

// DatabaseConfig selects and tunes the relational store
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"CATALOG_DB_TYPE" default:"sqlite"`
	DataDir      string `yaml:"data_dir" json:"data_dir" env:"CATALOG_DATA_DIR" default:"./data"`
	Path         string `yaml:"path" json:"path" env:"CATALOG_DB_PATH"`
	Host         string `yaml:"host" json:"host" env:"CATALOG_DB_HOST" default:"localhost"`
	Port         int    `yaml:"port" json:"port" env:"CATALOG_DB_PORT" default:"5432"`
	Username     string `yaml:"username" json:"username" env:"CATALOG_DB_USER"`
	Password     string `yaml:"password" json:"-" env:"CATALOG_DB_PASSWORD"`
	Name         string `yaml:"name" json:"name" env:"CATALOG_DB_NAME" default:"catalog"`
	SSLMode      string `yaml:"ssl_mode" json:"ssl_mode" env:"CATALOG_DB_SSLMODE" default:"disable"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" env:"CATALOG_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns" env:"CATALOG_DB_MAX_IDLE_CONNS" default:"5"`
	LogLevel     string `yaml:"log_level" json:"log_level" env:"CATALOG_DB_LOG_LEVEL" default:"warn"`
}

// StoreConfig selects where items and comments live
type StoreConfig struct {
	// Backend is "sql" (the database above) or "firestore".
	Backend         string `yaml:"backend" json:"backend" env:"CATALOG_STORE_BACKEND" default:"sql"`
	ProjectID       string `yaml:"project_id" json:"project_id" env:"CATALOG_FIRESTORE_PROJECT"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" env:"CATALOG_FIRESTORE_CREDENTIALS"`
}

// CatalogConfig holds catalog behaviour switches
type CatalogConfig struct {
	// UnratedPolicy decides how comments without a rating count in averages.
	// "exclude" keeps averages within 1-5; "zero" may report averages below 1.
	UnratedPolicy string `yaml:"unrated_policy" json:"unrated_policy" env:"CATALOG_UNRATED_POLICY" default:"exclude"`
}

// MetadataConfig configures the OMDB and RAWG lookups
type MetadataConfig struct {
	OMDBAPIKey       string        `yaml:"omdb_api_key" json:"-" env:"OMDB_API_KEY"`
	OMDBBaseURL      string        `yaml:"omdb_base_url" json:"omdb_base_url" env:"OMDB_BASE_URL" default:"https://www.omdbapi.com"`
	RAWGAPIKey       string        `yaml:"rawg_api_key" json:"-" env:"RAWG_API_KEY"`
	RAWGBaseURL      string        `yaml:"rawg_base_url" json:"rawg_base_url" env:"RAWG_BASE_URL" default:"https://api.rawg.io/api"`
	RequestTimeout   time.Duration `yaml:"request_timeout" json:"request_timeout" env:"CATALOG_METADATA_TIMEOUT" default:"10s"`
	CacheEnabled     bool          `yaml:"cache_enabled" json:"cache_enabled" env:"CATALOG_METADATA_CACHE" default:"true"`
	CacheTTL         time.Duration `yaml:"cache_ttl" json:"cache_ttl" env:"CATALOG_METADATA_CACHE_TTL" default:"24h"`
	DebounceWindow   time.Duration `yaml:"debounce_window" json:"debounce_window" env:"CATALOG_SEARCH_DEBOUNCE" default:"500ms"`
	DescriptionLimit int           `yaml:"description_limit" json:"description_limit" env:"CATALOG_DESCRIPTION_LIMIT" default:"400"`
	SearchPageSize   int           `yaml:"search_page_size" json:"search_page_size" env:"CATALOG_SEARCH_PAGE_SIZE" default:"15"`
}

// EventsConfig configures the in-process event bus
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size" json:"buffer_size" env:"CATALOG_EVENT_BUFFER" default:"256"`
}

// LoggingConfig configures the root logger
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"CATALOG_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"CATALOG_LOG_FORMAT" default:"text"`
}

// ConfigWatcher is called when configuration changes
type ConfigWatcher func(oldConfig, newConfig *Config)

// ConfigManager loads and holds a Config and notifies watchers on reload
type ConfigManager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	watchers   []ConfigWatcher
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:   DefaultConfig(),
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	// default tags are the single source of defaults
	_ = applyDefaults(reflect.ValueOf(cfg).Elem())
	return cfg
}

// Load is a convenience for NewConfigManager().LoadConfig(path).
func Load(configPath string) (*ConfigManager, error) {
	cm := NewConfigManager()
	if err := cm.LoadConfig(configPath); err != nil {
		return nil, err
	}
	return cm, nil
}

// LoadConfig builds a config from defaults, the file at configPath (if any),
// and the environment, then validates it.
func (cm *ConfigManager) LoadConfig(configPath string) error {
	newConfig := DefaultConfig()

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)

	cm.mu.Lock()
	oldConfig := cm.config
	cm.config = newConfig
	cm.configPath = configPath
	watchers := append([]ConfigWatcher(nil), cm.watchers...)
	cm.mu.Unlock()

	for _, watcher := range watchers {
		watcher(oldConfig, newConfig)
	}
	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Path returns the file the config was last loaded from
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// AddWatcher registers a callback for configuration reloads
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func applyDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}
		def := t.Field(i).Tag.Get("default")
		if def == "" || !field.IsZero() {
			continue
		}
		if err := setFieldValue(field, def); err != nil {
			return fmt.Errorf("bad default for %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		// Handle nested structs recursively
		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue, ok := os.LookupEnv(envTag)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", field.Type())
		}
		values := strings.Split(value, ",")
		for i, v := range values {
			values[i] = strings.TrimSpace(v)
		}
		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validateConfig(config *Config) error {
	if err := validateSchema(config); err != nil {
		return err
	}

	if config.Store.Backend == "firestore" && config.Store.ProjectID == "" {
		return fmt.Errorf("store.project_id is required for the firestore backend")
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.Path == "" && config.Database.Type == "sqlite" {
		config.Database.Path = filepath.Join(config.Database.DataDir, "catalog.db")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
