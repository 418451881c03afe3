package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-in-production-min-32-chars"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Editor   EditorConfig   `mapstructure:"editor"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Minio    MinioConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	GRPCPort        int           `mapstructure:"grpc_port"`
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EditorConfig configures the editor service and its materialization gateway.
type EditorConfig struct {
	StoreURL    string `mapstructure:"store_url"`
	DownloadDir string `mapstructure:"download_dir"`
}

// StoreConfig selects the artifact store backend: file, postgres or minio.
type StoreConfig struct {
	Backend  string `mapstructure:"backend"`
	Dir      string `mapstructure:"dir"`
	HTTPPort int    `mapstructure:"http_port"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Auth Configuration. An empty secret env var disables service tokens.
type AuthConfig struct {
	JWTSecretEnv string        `mapstructure:"jwt_secret_env"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// Load reads the YAML file at path. An empty path uses defaults and
// environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults setzen
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("editor.store_url", "http://localhost:5000")
	v.SetDefault("editor.download_dir", "downloads")

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", ".")
	v.SetDefault("store.http_port", 5000)
	v.SetDefault("store.grpc_port", 50052)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "scriptsynth")
	v.SetDefault("database.user", "scriptsynth")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("minio.bucket", "scriptsynth")

	v.SetDefault("auth.jwt_secret_env", "")
	v.SetDefault("auth.token_ttl", "5m")

	// SCRIPTSYNTH_STORE_BACKEND -> store.backend
	v.SetEnvPrefix("SCRIPTSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Enabled reports whether the configured env var holds a secret.
func (a *AuthConfig) Enabled() bool {
	return a.JWTSecretEnv != "" && os.Getenv(a.JWTSecretEnv) != ""
}

// JWT Secret aus Environment Variable laden
func (a *AuthConfig) GetJWTSecret() string {
	secret := os.Getenv(a.JWTSecretEnv)
	if secret == "" {
		return devJWTSecret
	}
	return secret
}

// IsProductionReady reports whether a real secret of sufficient length is set.
func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != devJWTSecret && len(secret) >= 32
}
