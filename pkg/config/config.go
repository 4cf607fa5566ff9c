package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageProviderGCS   = "gcs"
	StorageProviderMinIO = "minio"
)

type Config struct {
	ServerPort     string
	Environment    string
	AllowedOrigins []string

	FirebaseProject         string
	FirebaseAPIKey          string
	FirebaseCredentialsJSON string
	FirebaseCredentialsPath string
	IdentityToolkitURL      string
	SecureTokenURL          string

	StorageProvider string
	StorageBucket   string
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOUseSSL     bool
	MaxUploadBytes  int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsCacheTTL time.Duration
	StatsTimezone string
}

type configFile struct {
	Server struct {
		Port           string   `yaml:"port"`
		Environment    string   `yaml:"environment"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Firebase struct {
		ProjectID          string `yaml:"project_id"`
		APIKey             string `yaml:"api_key"`
		CredentialsPath    string `yaml:"credentials_path"`
		IdentityToolkitURL string `yaml:"identity_toolkit_url"`
		SecureTokenURL     string `yaml:"secure_token_url"`
	} `yaml:"firebase"`
	Storage struct {
		Provider       string `yaml:"provider"`
		Bucket         string `yaml:"bucket"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
		MinIO          struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			UseSSL    bool   `yaml:"use_ssl"`
		} `yaml:"minio"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Statistics struct {
		CacheTTLSeconds int64  `yaml:"cache_ttl_seconds"`
		Timezone        string `yaml:"timezone"`
	} `yaml:"statistics"`
}

// Load builds the configuration from defaults, an optional YAML file at path
// and the environment, in that order of precedence. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         "8080",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		IdentityToolkitURL: "https://identitytoolkit.googleapis.com/v1",
		SecureTokenURL:     "https://securetoken.googleapis.com/v1",
		StorageProvider:    StorageProviderGCS,
		MaxUploadBytes:     10 * 1024 * 1024,
		StatsCacheTTL:      30 * time.Second,
		StatsTimezone:      "UTC",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := config.applyFile(raw); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	c.ServerPort = firstNonEmpty(f.Server.Port, c.ServerPort)
	c.Environment = firstNonEmpty(f.Server.Environment, c.Environment)
	if len(f.Server.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.Server.AllowedOrigins
	}

	c.FirebaseProject = firstNonEmpty(f.Firebase.ProjectID, c.FirebaseProject)
	c.FirebaseAPIKey = firstNonEmpty(f.Firebase.APIKey, c.FirebaseAPIKey)
	c.FirebaseCredentialsPath = firstNonEmpty(f.Firebase.CredentialsPath, c.FirebaseCredentialsPath)
	c.IdentityToolkitURL = firstNonEmpty(f.Firebase.IdentityToolkitURL, c.IdentityToolkitURL)
	c.SecureTokenURL = firstNonEmpty(f.Firebase.SecureTokenURL, c.SecureTokenURL)

	c.StorageProvider = firstNonEmpty(f.Storage.Provider, c.StorageProvider)
	c.StorageBucket = firstNonEmpty(f.Storage.Bucket, c.StorageBucket)
	if f.Storage.MaxUploadBytes > 0 {
		c.MaxUploadBytes = f.Storage.MaxUploadBytes
	}
	c.MinIOEndpoint = firstNonEmpty(f.Storage.MinIO.Endpoint, c.MinIOEndpoint)
	c.MinIOAccessKey = firstNonEmpty(f.Storage.MinIO.AccessKey, c.MinIOAccessKey)
	c.MinIOSecretKey = firstNonEmpty(f.Storage.MinIO.SecretKey, c.MinIOSecretKey)
	c.MinIOUseSSL = c.MinIOUseSSL || f.Storage.MinIO.UseSSL

	c.RedisAddr = firstNonEmpty(f.Redis.Addr, c.RedisAddr)
	c.RedisPassword = firstNonEmpty(f.Redis.Password, c.RedisPassword)
	if f.Redis.DB > 0 {
		c.RedisDB = f.Redis.DB
	}

	if f.Statistics.CacheTTLSeconds > 0 {
		c.StatsCacheTTL = time.Duration(f.Statistics.CacheTTLSeconds) * time.Second
	}
	c.StatsTimezone = firstNonEmpty(f.Statistics.Timezone, c.StatsTimezone)
	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	c.FirebaseProject = getEnv("FIREBASE_PROJECT_ID", c.FirebaseProject)
	c.FirebaseAPIKey = getEnv("FIREBASE_API_KEY", c.FirebaseAPIKey)
	c.FirebaseCredentialsJSON = getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", c.FirebaseCredentialsJSON)
	c.FirebaseCredentialsPath = getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", c.FirebaseCredentialsPath)
	c.IdentityToolkitURL = getEnv("IDENTITY_TOOLKIT_URL", c.IdentityToolkitURL)
	c.SecureTokenURL = getEnv("SECURE_TOKEN_URL", c.SecureTokenURL)

	c.StorageProvider = strings.ToLower(getEnv("STORAGE_PROVIDER", c.StorageProvider))
	c.StorageBucket = getEnv("STORAGE_BUCKET", c.StorageBucket)
	c.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.MinIOEndpoint = getEnv("MINIO_ENDPOINT", c.MinIOEndpoint)
	c.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIOAccessKey)
	c.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", c.MinIOSecretKey)
	c.MinIOUseSSL = getEnvAsBool("MINIO_USE_SSL", c.MinIOUseSSL)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = int(getEnvAsInt64("REDIS_DB", int64(c.RedisDB)))

	c.StatsCacheTTL = time.Duration(getEnvAsInt64("STATS_CACHE_TTL_SECONDS", int64(c.StatsCacheTTL/time.Second))) * time.Second
	c.StatsTimezone = getEnv("STATS_TIMEZONE", c.StatsTimezone)
}

func (c *Config) Validate() error {
	if c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.StorageBucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	switch c.StorageProvider {
	case StorageProviderGCS:
	case StorageProviderMinIO:
		if c.MinIOEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_PROVIDER=minio")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid STATS_TIMEZONE %q: %w", c.StatsTimezone, err)
	}
	return nil
}

// Location is the time zone used to bucket disputes by month.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.StatsTimezone)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
