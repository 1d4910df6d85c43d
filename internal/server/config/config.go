// Package config загружает конфигурацию сервера из YAML файла с
// переопределением через переменные окружения. Вся конфигурация
// передается компонентам явно при конструировании — глобального
// состояния нет.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
	Auth       Auth       `yaml:"auth"`
	S3         S3         `yaml:"s3"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Storage struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"hrms.db"`
}

type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTAlgorithm    string        `yaml:"jwt_algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"360h"`
	GoogleClientID  string        `yaml:"google_client_id" env:"GOOGLE_CLIENT_ID" env-required:"true"`
	SecureCookies   bool          `yaml:"secure_cookies" env:"SECURE_COOKIES" env-default:"false"`
	SameSiteCookie  string        `yaml:"same_site_cookie" env:"SAME_SITE_COOKIE" env-default:"lax"`
}

type S3 struct {
	Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"hrms-documents"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

type RateLimit struct {
	LoginRate   int           `yaml:"login_rate" env:"LOGIN_RATE" env-default:"10"`
	LoginWindow time.Duration `yaml:"login_window" env:"LOGIN_WINDOW" env-default:"1m"`
}

// MustLoad загружает конфигурацию или паникует — вызывается один раз
// при старте процесса
func MustLoad(configPath string) *Config {
	config, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return config
}

// Load читает конфигурацию из файла и окружения.
// Пустой путь означает конфигурацию только из окружения.
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, err
		}
		return &config, nil
	}

	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
