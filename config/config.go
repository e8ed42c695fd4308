package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type ServerConfig struct {
	HTTPPort string        `mapstructure:"HTTPPort" validate:"required"`
	Timeout  time.Duration `mapstructure:"HTTPTimeout"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Password          string `mapstructure:"password"`
	Port              string `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	DB                string `mapstructure:"db"`
	SSLMODE           string `mapstructure:"SSLMODE"`
	MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TourAPIConfig configures the KorService2 client.
type TourAPIConfig struct {
	BaseURL            string          `mapstructure:"base_url" validate:"required,url"`
	ServiceKey         string          `mapstructure:"service_key"`
	MobileApp          string          `mapstructure:"mobile_app"`
	Timeout            time.Duration   `mapstructure:"timeout"`
	MaxRetries         int             `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelays        []time.Duration `mapstructure:"retry_delays"`
	RateLimitPerSecond float64         `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	Burst              int             `mapstructure:"burst" validate:"gte=0"`
	CircuitBreaker     struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"circuit_breaker"`
}

type StatsConfig struct {
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheBackend   string        `mapstructure:"cache_backend" validate:"omitempty,oneof=memory redis"`
	MaxConcurrency int           `mapstructure:"max_concurrency" validate:"gte=0"`
}

// AuthConfig holds the identity provider verification keys.
// One of SecretKey (HMAC) or PublicKeyPEM (RSA) is used.
type AuthConfig struct {
	SecretKey    string `mapstructure:"secret_key"`
	PublicKeyPEM string `mapstructure:"public_key_pem"`
	Issuer       string `mapstructure:"issuer"`
	Audience     string `mapstructure:"audience"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres PostgresConfig `mapstructure:"postgres"`
		Redis    RedisConfig    `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server    ServerConfig  `mapstructure:"server"`
	TourAPI   TourAPIConfig `mapstructure:"tour_api"`
	Stats     StatsConfig   `mapstructure:"stats"`
	Auth      AuthConfig    `mapstructure:"auth"`
	CORS      struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	RateLimit struct {
		RequestsPerMinute int `mapstructure:"requests_per_minute"`
	} `mapstructure:"rate_limit"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Environment wins over file values: TOUR_API_SERVICE_KEY -> tour_api.service_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	if config.TourAPI.ServiceKey == "" {
		config.TourAPI.ServiceKey = ResolveServiceKey()
	}

	if err = validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// LoadDotenv loads a .env file when present. A missing file is not an error.
func LoadDotenv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: failed to load %s: %s\n", path, err)
	}
}

// ResolveServiceKey reads the tourism API key from the legacy environment
// variables. TOUR_API_KEY wins over NEXT_PUBLIC_TOUR_API_KEY.
func ResolveServiceKey() string {
	for _, name := range []string{"TOUR_API_KEY", "NEXT_PUBLIC_TOUR_API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
