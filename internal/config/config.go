package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	GitHub   GitHubConfig
	JWT      JWTConfig
	OpenAI   OpenAIConfig
	Frontend FrontendConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GitHubConfig carries the OAuth app credentials plus the provider endpoints.
// Endpoint URLs are overridable so tests can point them at httptest servers.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type OpenAIConfig struct {
	APIKey       string
	Model        string
	ResponsesURL string
}

type FrontendConfig struct {
	URL string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "gitmax")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("GITHUB_REDIRECT_URI", "http://localhost:8000/api/auth/callback")
	viper.SetDefault("GITHUB_SCOPE", "user:email")
	viper.SetDefault("GITHUB_AUTHORIZE_URL", "https://github.com/login/oauth/authorize")
	viper.SetDefault("GITHUB_TOKEN_URL", "https://github.com/login/oauth/access_token")
	viper.SetDefault("GITHUB_API_BASE_URL", "https://api.github.com")
	viper.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	viper.SetDefault("OPENAI_MODEL", "gpt-4")
	viper.SetDefault("OPENAI_RESPONSES_URL", "https://api.openai.com/v1/responses")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		GitHub: GitHubConfig{
			ClientID:     viper.GetString("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectURI:  viper.GetString("GITHUB_REDIRECT_URI"),
			Scope:        viper.GetString("GITHUB_SCOPE"),
			AuthorizeURL: viper.GetString("GITHUB_AUTHORIZE_URL"),
			TokenURL:     viper.GetString("GITHUB_TOKEN_URL"),
			APIBaseURL:   viper.GetString("GITHUB_API_BASE_URL"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("SECRET_KEY"),
			AccessTokenTTL: time.Duration(viper.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		},
		OpenAI: OpenAIConfig{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			Model:        viper.GetString("OPENAI_MODEL"),
			ResponsesURL: viper.GetString("OPENAI_RESPONSES_URL"),
		},
		Frontend: FrontendConfig{
			URL: viper.GetString("FRONTEND_URL"),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: SECRET_KEY is not set; set a secure value in production")
	}
	if cfg.GitHub.ClientID == "" || cfg.GitHub.ClientSecret == "" {
		log.Println("WARNING: GitHub OAuth app is not fully configured; login will fail")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
