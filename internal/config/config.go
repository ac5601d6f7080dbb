package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Scan     ScanConfig     `yaml:"scan"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ScanConfig struct {
	// ThumbSize is the square edge (px) of the low-res rendering compared
	// byte-for-byte by the duplicate detector.
	ThumbSize int `yaml:"thumb_size"`
	// PreviewSize is the longest edge (px) of the preview the blur
	// detector scores.
	PreviewSize int `yaml:"preview_size"`
	// BlurThreshold is the variance-of-Laplacian below which an image
	// counts as blurred.
	BlurThreshold float64 `yaml:"blur_threshold"`
	// SimilarTimeDelta is the maximum creation-time gap between adjacent
	// assets in one similarity cluster.
	SimilarTimeDelta time.Duration `yaml:"similar_time_delta"`
	// SimilarDistance is the maximum location delta between adjacent
	// assets in one similarity cluster.
	SimilarDistance float64 `yaml:"similar_distance"`
	// PreviewInterval publishes a representative preview every N assets.
	PreviewInterval int `yaml:"preview_interval"`
}

type CacheConfig struct {
	// ThrottleWindow coalesces dirty signals per kind before the per-kind
	// flush delay starts.
	ThrottleWindow time.Duration `yaml:"throttle_window"`
	BlurFlushDelay time.Duration `yaml:"blur_flush_delay"`
	DupFlushDelay  time.Duration `yaml:"dup_flush_delay"`
	SizeFlushDelay time.Duration `yaml:"size_flush_delay"`
	// Retention evicts records older than this at load time.
	Retention time.Duration `yaml:"retention"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Scan.ThumbSize == 0 {
		cfg.Scan.ThumbSize = 64
	}
	if cfg.Scan.PreviewSize == 0 {
		cfg.Scan.PreviewSize = 512
	}
	if cfg.Scan.BlurThreshold == 0 {
		cfg.Scan.BlurThreshold = 100
	}
	if cfg.Scan.SimilarTimeDelta == 0 {
		cfg.Scan.SimilarTimeDelta = 5 * time.Second
	}
	if cfg.Scan.SimilarDistance == 0 {
		cfg.Scan.SimilarDistance = 1.0
	}
	if cfg.Scan.PreviewInterval == 0 {
		cfg.Scan.PreviewInterval = 50
	}
	if cfg.Cache.ThrottleWindow == 0 {
		cfg.Cache.ThrottleWindow = 18 * time.Second
	}
	if cfg.Cache.BlurFlushDelay == 0 {
		cfg.Cache.BlurFlushDelay = 6 * time.Second
	}
	if cfg.Cache.DupFlushDelay == 0 {
		cfg.Cache.DupFlushDelay = 12 * time.Second
	}
	if cfg.Cache.SizeFlushDelay == 0 {
		cfg.Cache.SizeFlushDelay = 18 * time.Second
	}
	if cfg.Cache.Retention == 0 {
		cfg.Cache.Retention = 30 * 24 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MSCAN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MSCAN_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("MSCAN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MSCAN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MSCAN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MSCAN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MSCAN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MSCAN_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("MSCAN_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("MSCAN_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("MSCAN_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("MSCAN_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("MSCAN_BLUR_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scan.BlurThreshold = f
		}
	}
}
