package config

import (
	"fmt"
	"time"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/geocore"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/httpclient"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

// Default service configuration values.
const (
	defaultServiceName    = "stac-to-geocore"
	defaultServiceVersion = "1.0.0"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default catalog configuration values.
const (
	defaultAPIRoot         = "https://datacube.services.geo.ca/api"
	defaultStacTimeout     = 30 * time.Second
	defaultItemSource      = ItemSourceSearch
	defaultPageErrorPolicy = PageErrorTruncate
)

// Default storage configuration values.
const (
	defaultStorageDriver  = DriverMinio
	defaultStorageRegion  = "ca-central-1"
	defaultStorageTimeout = 30 * time.Second
	defaultRunLogKey      = "lastRun.txt"
)

// Default schedule and lock values.
const (
	defaultCron     = "0 2 * * *"
	defaultPort     = 8090
	defaultLockKey  = "stac-to-geocore:harvest"
	defaultLockTTL  = 2 * time.Hour
	defaultRedisURL = "localhost:6379"
)

// Item sources.
const (
	ItemSourceSearch      = "search"
	ItemSourceCollections = "collections"
)

// Page error policies.
const (
	PageErrorTruncate = "truncate"
	PageErrorAbort    = "abort"
)

// Storage drivers.
const (
	DriverMinio  = "minio"
	DriverMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Stac     StacConfig     `yaml:"stac"`
	Storage  StorageConfig  `yaml:"storage"`
	Harvest  HarvestConfig  `yaml:"harvest"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Lock     LockConfig     `yaml:"lock"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// StacConfig holds the catalog endpoint and traversal settings.
type StacConfig struct {
	APIRoot         string        `env:"STAC_API_ROOT"          yaml:"api_root"`
	Timeout         time.Duration `env:"STAC_TIMEOUT"           yaml:"timeout"`
	ItemSource      string        `env:"STAC_ITEM_SOURCE"       yaml:"item_source"`
	PageErrorPolicy string        `env:"STAC_PAGE_ERROR_POLICY" yaml:"page_error_policy"`
	// RequestsPerSecond paces catalog requests; zero means unpaced.
	RequestsPerSecond float64 `env:"STAC_REQUESTS_PER_SECOND" yaml:"requests_per_second"`
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	Driver       string        `env:"STORAGE_DRIVER"               yaml:"driver"`
	Endpoint     string        `env:"MINIO_ENDPOINT"               yaml:"endpoint"`
	AccessKey    string        `env:"MINIO_ACCESS_KEY"             yaml:"access_key"`
	SecretKey    string        `env:"MINIO_SECRET_KEY"             yaml:"secret_key"`
	SessionToken string        `env:"MINIO_SESSION_TOKEN"          yaml:"session_token"`
	UseSSL       bool          `env:"MINIO_USE_SSL"                yaml:"use_ssl"`
	Region       string        `env:"MINIO_REGION"                 yaml:"region"`
	OutputBucket string        `env:"STAC_GEOCORE_BUCKET_NAME"     yaml:"output_bucket"`
	RunLogBucket string        `env:"GEOCORE_TEMPLATE_BUCKET_NAME" yaml:"runlog_bucket"`
	RunLogKey    string        `env:"RUNLOG_KEY"                   yaml:"runlog_key"`
	Timeout      time.Duration `env:"MINIO_TIMEOUT"                yaml:"timeout"`
}

// HarvestConfig holds the constants stamped onto every GeoCore feature.
type HarvestConfig struct {
	Source                string            `env:"SOURCE"    yaml:"source"`
	RootName              string            `env:"ROOT_NAME" yaml:"root_name"`
	Status                string            `yaml:"status"`
	Maintenance           string            `yaml:"maintenance"`
	SpatialRepresentation string            `yaml:"spatial_representation"`
	Type                  string            `yaml:"type"`
	TopicCategory         string            `yaml:"topic_category"`
	UseLimits             geocore.Bilingual `yaml:"use_limits"`
	Disclaimer            geocore.Bilingual `yaml:"disclaimer"`
	Contacts              []geocore.Contact `yaml:"contacts"`
	TitleStrategies       map[string]string `yaml:"title_strategies"`
	SweepOrphans          bool              `env:"SWEEP_ORPHANS" yaml:"sweep_orphans"`
}

// ScheduleConfig holds the cron expression and status API port.
type ScheduleConfig struct {
	Cron       string `env:"HARVEST_CRON"         yaml:"cron"`
	Port       int    `env:"HARVEST_PORT"         yaml:"port"`
	RunOnStart bool   `env:"HARVEST_RUN_ON_START" yaml:"run_on_start"`
}

// LockConfig holds the distributed run lock settings.
type LockConfig struct {
	Enabled       bool          `env:"LOCK_ENABLED"   yaml:"enabled"`
	RedisAddress  string        `env:"REDIS_ADDRESS"  yaml:"redis_address"`
	RedisPassword string        `env:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int           `env:"REDIS_DB"       yaml:"redis_db"`
	Key           string        `yaml:"key"`
	TTL           time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from a YAML file, applies defaults, then env overrides.
func Load(path string) (*Config, error) {
	cfg, loadErr := LoadWithDefaults(path, setDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validateURL("stac.api_root", c.Stac.APIRoot); err != nil {
		return err
	}

	if err := validateOneOf("stac.item_source", c.Stac.ItemSource, ItemSourceSearch, ItemSourceCollections); err != nil {
		return err
	}

	if c.Stac.RequestsPerSecond < 0 {
		return &ValidationError{Field: "stac.requests_per_second", Message: "must not be negative"}
	}

	if err := validateOneOf("stac.page_error_policy", c.Stac.PageErrorPolicy, PageErrorTruncate, PageErrorAbort); err != nil {
		return err
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	if err := c.Harvest.validate(); err != nil {
		return err
	}

	if err := validatePort("schedule.port", c.Schedule.Port); err != nil {
		return err
	}

	if c.Lock.Enabled {
		if err := validateRequired("lock.redis_address", c.Lock.RedisAddress); err != nil {
			return err
		}
		if c.Lock.TTL <= 0 {
			return &ValidationError{Field: "lock.ttl", Message: "must be positive"}
		}
	}

	return validateOneOf("logging.level", c.Logging.Level, "debug", "info", "warn", "error")
}

func (s *StorageConfig) validate() error {
	if err := validateOneOf("storage.driver", s.Driver, DriverMinio, DriverMemory); err != nil {
		return err
	}

	if s.Driver == DriverMinio {
		if err := validateRequired("storage.endpoint", s.Endpoint); err != nil {
			return err
		}
	}

	if err := validateRequired("storage.output_bucket", s.OutputBucket); err != nil {
		return err
	}

	if err := validateRequired("storage.runlog_bucket", s.RunLogBucket); err != nil {
		return err
	}

	return validateRequired("storage.runlog_key", s.RunLogKey)
}

func (h *HarvestConfig) validate() error {
	if err := validateRequired("harvest.source", h.Source); err != nil {
		return err
	}

	if err := validateRequired("harvest.root_name", h.RootName); err != nil {
		return err
	}

	for collection, name := range h.TitleStrategies {
		if _, err := geocore.ParseTitleStrategy(name); err != nil {
			return &ValidationError{Field: "harvest.title_strategies." + collection, Message: err.Error()}
		}
	}

	return nil
}

// Settings converts the harvest section into the mapper settings.
func (h *HarvestConfig) Settings() geocore.Settings {
	strategies := make(map[string]geocore.TitleStrategy, len(h.TitleStrategies))
	for collection, name := range h.TitleStrategies {
		if s, err := geocore.ParseTitleStrategy(name); err == nil {
			strategies[collection] = s
		}
	}

	return geocore.Settings{
		Source:                h.Source,
		RootName:              geocore.SplitBilingual(h.RootName),
		Status:                h.Status,
		Maintenance:           h.Maintenance,
		SpatialRepresentation: h.SpatialRepresentation,
		Type:                  h.Type,
		TopicCategory:         h.TopicCategory,
		UseLimits:             h.UseLimits,
		Disclaimer:            h.Disclaimer,
		Contacts:              append([]geocore.Contact(nil), h.Contacts...),
		TitleStrategies:       strategies,
	}
}

// Minio returns the object store client settings.
func (s *StorageConfig) Minio() storage.Config {
	return storage.Config{
		Endpoint:     s.Endpoint,
		AccessKey:    s.AccessKey,
		SecretKey:    s.SecretKey,
		SessionToken: s.SessionToken,
		UseSSL:       s.UseSSL,
		Region:       s.Region,
		Timeout:      s.Timeout,
	}
}

// HTTPClient returns the catalog HTTP client settings.
func (s *StacConfig) HTTPClient(userAgent string) httpclient.Config {
	return httpclient.Config{
		Timeout:           s.Timeout,
		UserAgent:         userAgent,
		RequestsPerSecond: s.RequestsPerSecond,
	}
}

// Logger returns the logger settings, forcing debug output when debug is set.
func (c *Config) Logger() logger.Config {
	cfg := logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
	}
	if c.Service.Debug {
		cfg.Level = "debug"
		cfg.Development = true
	}
	return cfg
}

// setDefaults applies default values to all configuration sections.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setStacDefaults(&cfg.Stac)
	setStorageDefaults(&cfg.Storage)
	setHarvestDefaults(&cfg.Harvest)
	setScheduleDefaults(&cfg.Schedule)
	setLockDefaults(&cfg.Lock)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}

	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
}

func setStacDefaults(s *StacConfig) {
	if s.APIRoot == "" {
		s.APIRoot = defaultAPIRoot
	}

	if s.Timeout == 0 {
		s.Timeout = defaultStacTimeout
	}

	if s.ItemSource == "" {
		s.ItemSource = defaultItemSource
	}

	if s.PageErrorPolicy == "" {
		s.PageErrorPolicy = defaultPageErrorPolicy
	}
}

func setStorageDefaults(s *StorageConfig) {
	if s.Driver == "" {
		s.Driver = defaultStorageDriver
	}

	if s.Region == "" {
		s.Region = defaultStorageRegion
	}

	if s.RunLogKey == "" {
		s.RunLogKey = defaultRunLogKey
	}

	if s.Timeout == 0 {
		s.Timeout = defaultStorageTimeout
	}
}

func setHarvestDefaults(h *HarvestConfig) {
	if h.Source == "" {
		h.Source = geocore.DefaultSource
	}

	if h.RootName == "" {
		h.RootName = geocore.DefaultRootName
	}

	if h.Status == "" {
		h.Status = geocore.DefaultStatus
	}

	if h.Maintenance == "" {
		h.Maintenance = geocore.DefaultMaintenance
	}

	if h.SpatialRepresentation == "" {
		h.SpatialRepresentation = geocore.DefaultSpatialRepresentation
	}

	if h.Type == "" {
		h.Type = geocore.DefaultType
	}

	if h.TopicCategory == "" {
		h.TopicCategory = geocore.DefaultTopicCategory
	}

	if h.UseLimits == (geocore.Bilingual{}) {
		h.UseLimits = geocore.DefaultUseLimits
	}

	if h.Disclaimer == (geocore.Bilingual{}) {
		h.Disclaimer = geocore.DefaultDisclaimer
	}

	if len(h.Contacts) == 0 {
		h.Contacts = []geocore.Contact{geocore.DefaultContact()}
	}

	if h.TitleStrategies == nil {
		h.TitleStrategies = make(map[string]string)
		for id, s := range geocore.DefaultTitleStrategies() {
			h.TitleStrategies[id] = string(s)
		}
	}
}

func setScheduleDefaults(s *ScheduleConfig) {
	if s.Cron == "" {
		s.Cron = defaultCron
	}

	if s.Port == 0 {
		s.Port = defaultPort
	}
}

func setLockDefaults(l *LockConfig) {
	if l.RedisAddress == "" {
		l.RedisAddress = defaultRedisURL
	}

	if l.Key == "" {
		l.Key = defaultLockKey
	}

	if l.TTL == 0 {
		l.TTL = defaultLockTTL
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}

	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
