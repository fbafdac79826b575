package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Storage    StorageConfig    `json:"storage"`
	Rooms      RoomsConfig      `json:"rooms"`
	GenAI      GenAIConfig      `json:"genai"`
	Transcribe TranscribeConfig `json:"transcribe"`
	Auth       AuthConfig       `json:"auth"`
	CORS       CORSConfig       `json:"cors"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

// StorageConfig configures the S3-compatible object store that holds
// ingested meeting recordings. An empty Bucket means storage is not
// configured and ingestion refuses to run.
type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	UseSSL    bool   `json:"use_ssl"`
}

// RoomsConfig configures the video-call provider used for therapy sessions.
type RoomsConfig struct {
	APIKey  string `json:"api_key"`
	Secret  string `json:"secret"`
	BaseURL string `json:"base_url"`
}

type GenAIConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
}

type TranscribeConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
	Issuer    string `json:"issuer"`
}

type CORSConfig struct {
	Origins string `json:"origins"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".harbor"))
	}

	// Set defaults
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "harbor")
	viper.SetDefault("database.database", "harbor")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.endpoint", "s3.amazonaws.com")
	viper.SetDefault("storage.use_ssl", true)
	viper.SetDefault("rooms.base_url", "https://api.videosdk.live/v2")
	viper.SetDefault("genai.model", "gpt-4o-mini")
	viper.SetDefault("transcribe.base_url", "https://api.elevenlabs.io/v1")
	viper.SetDefault("auth.issuer", "harbor-backend")
	viper.SetDefault("cors.origins", "http://localhost:5173,http://127.0.0.1:5173")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults plus env overrides carry
		// a local development setup.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

// loadEnvOverrides applies HARBOR_* environment variables on top of the
// file-based configuration. Secrets are expected to arrive this way in
// deployed environments.
func loadEnvOverrides(cfg *Config) {
	if v := os.Getenv("HARBOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HARBOR_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("HARBOR_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("HARBOR_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("HARBOR_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HARBOR_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("HARBOR_S3_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("HARBOR_S3_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("HARBOR_S3_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("HARBOR_S3_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("HARBOR_S3_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("HARBOR_ROOMS_API_KEY"); v != "" {
		cfg.Rooms.APIKey = v
	}
	if v := os.Getenv("HARBOR_ROOMS_SECRET"); v != "" {
		cfg.Rooms.Secret = v
	}
	if v := os.Getenv("HARBOR_ROOMS_BASE_URL"); v != "" {
		cfg.Rooms.BaseURL = v
	}
	if v := os.Getenv("HARBOR_GENAI_API_KEY"); v != "" {
		cfg.GenAI.APIKey = v
	}
	if v := os.Getenv("HARBOR_GENAI_MODEL"); v != "" {
		cfg.GenAI.Model = v
	}
	if v := os.Getenv("HARBOR_TRANSCRIBE_API_KEY"); v != "" {
		cfg.Transcribe.APIKey = v
	}
	if v := os.Getenv("HARBOR_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("HARBOR_CORS_ORIGINS"); v != "" {
		cfg.CORS.Origins = v
	}
}
