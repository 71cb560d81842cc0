// config - источник загрузки конфигурации token-relay.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// Секреты Clerk и сервисного аккаунта Firebase обязательны: без них релей
// не может ни проверить входящий токен, ни выпустить свой, поэтому Load
// возвращает ошибку, а main завершает процесс с ненулевым кодом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	CORS     CORSConfig     `yaml:"cors"`
	Clerk    ClerkConfig    `yaml:"clerk"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Profiles ProfilesConfig `yaml:"profiles"`
}

// HTTPConfig — публичный HTTP-сервер релея.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"PORT" env-default:"3000"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// MetricsConfig — отдельный HTTP для Prometheus.
// Флаг именно Disabled: cleanenv подставляет env-default в нулевое поле,
// и "enabled: false" из YAML превратился бы в true.
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled" env:"METRICS_DISABLED"`
	Host     string `yaml:"host"     env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port"     env:"METRICS_PORT" env-default:"9090"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// TimeoutConfig — таймауты запроса, исходящих вызовов и остановки.
type TimeoutConfig struct {
	Request  time.Duration `yaml:"request"  env:"REQUEST_TIMEOUT"  env-default:"15s"`
	Upstream time.Duration `yaml:"upstream" env:"UPSTREAM_TIMEOUT" env-default:"5s"`
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// CORSConfig — разрешённые источники для браузерных клиентов.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// ClerkConfig — параметры проверки сессионных токенов и вебхуков Clerk.
type ClerkConfig struct {
	SecretKey         string        `yaml:"secret_key"         env:"CLERK_SECRET_KEY" env-required:"true"`
	JWKSURL           string        `yaml:"jwks_url"           env:"CLERK_JWKS_URL" env-default:"https://api.clerk.com/v1/jwks"`
	Issuer            string        `yaml:"issuer"             env:"CLERK_ISSUER"`
	AuthorizedParties []string      `yaml:"authorized_parties" env:"CLERK_AUTHORIZED_PARTIES"`
	ClockSkew         time.Duration `yaml:"clock_skew"         env:"CLERK_CLOCK_SKEW" env-default:"5s"`
	WebhookSecret     string        `yaml:"webhook_secret"     env:"CLERK_WEBHOOK_SECRET"`
}

// FirebaseConfig — сервисный аккаунт Firebase Admin.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"       env:"FIREBASE_PROJECT_ID"   env-required:"true"`
	ClientEmail     string `yaml:"client_email"     env:"FIREBASE_CLIENT_EMAIL" env-required:"true"`
	PrivateKey      string `yaml:"private_key"      env:"FIREBASE_PRIVATE_KEY"  env-required:"true"`
	UsersCollection string `yaml:"users_collection" env:"FIREBASE_USERS_COLLECTION" env-default:"users"`
}

// ProfilesConfig — правила нормализации синхронизируемых профилей.
type ProfilesConfig struct {
	PhoneRegion string `yaml:"phone_region" env:"PHONE_DEFAULT_REGION" env-default:"US"`
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML,
// затем результат проходит Validate.
func Load(path string) (*Config, error) {
	var cfg Config

	read := func(p string) error {
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config %q: %w", p, err)
		}

		return nil
	}

	switch {
	case path != "":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}

		if err := read(path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		p := os.Getenv("CONFIG_PATH")
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := read(p); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("local.yaml"); err == nil {
			if err := read("local.yaml"); err != nil {
				return nil, err
			}
		} else if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	// ReadConfig накладывает ENV поверх файла сам.
	cfg.Firebase.PrivateKey = expandNewlines(cfg.Firebase.PrivateKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет инварианты, которые не выражаются тегами cleanenv.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Clerk.SecretKey) == "" {
		errs = append(errs, errors.New("clerk.secret_key (CLERK_SECRET_KEY) is required"))
	}

	if strings.TrimSpace(c.Clerk.JWKSURL) == "" {
		errs = append(errs, errors.New("clerk.jwks_url (CLERK_JWKS_URL) must not be empty"))
	}

	if strings.TrimSpace(c.Firebase.ProjectID) == "" {
		errs = append(errs, errors.New("firebase.project_id (FIREBASE_PROJECT_ID) is required"))
	}

	if strings.TrimSpace(c.Firebase.ClientEmail) == "" {
		errs = append(errs, errors.New("firebase.client_email (FIREBASE_CLIENT_EMAIL) is required"))
	}

	if !strings.Contains(c.Firebase.PrivateKey, "PRIVATE KEY") {
		errs = append(errs, errors.New("firebase.private_key (FIREBASE_PRIVATE_KEY) must be a PEM private key"))
	}

	if strings.TrimSpace(c.Firebase.UsersCollection) == "" {
		errs = append(errs, errors.New("firebase.users_collection must not be empty"))
	}

	if c.Timeouts.Upstream <= 0 {
		errs = append(errs, errors.New("timeouts.upstream (UPSTREAM_TIMEOUT) must be positive"))
	}

	if c.Clerk.ClockSkew < 0 {
		errs = append(errs, errors.New("clerk.clock_skew (CLERK_CLOCK_SKEW) must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// expandNewlines разворачивает экранированные "\n" в PEM-ключе: в .env и
// переменных CI ключ обычно хранится одной строкой.
func expandNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
