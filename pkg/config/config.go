package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/motoshop/catalog/pkg/common"
)

type Config struct {
	common.TimeoutConfig

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	HttpAddr  string `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	DebugAddr string `envconfig:"DEBUG_ADDR" default:":8081"`

	DataDir        string `envconfig:"DATA_DIR" default:"data" validate:"required"`
	ProductsFile   string `envconfig:"PRODUCTS_FILE" default:"products.json.gz" validate:"required"`
	CategoriesFile string `envconfig:"CATEGORIES_FILE"`

	PostgresDsn string `envconfig:"POSTGRES_DSN"`

	RedisUrl      string `envconfig:"REDIS_URL"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDb       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	RabbitUrl    string `envconfig:"RABBIT_URL" validate:"omitempty,url"`
	RabbitPrefix string `envconfig:"RABBIT_PREFIX" default:"motoshop"`

	FirebaseProjectId       string `envconfig:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `envconfig:"FIREBASE_CREDENTIALS_FILE"`
	MockSessionSecret       string `envconfig:"MOCK_SESSION_SECRET" default:"insecure-dev-secret" validate:"min=8"`

	QueryDebounce   time.Duration `envconfig:"QUERY_DEBOUNCE" default:"300ms" validate:"gte=0"`
	NotificationTtl time.Duration `envconfig:"NOTIFICATION_TTL" default:"3s" validate:"gt=0"`
	PageSize        int           `envconfig:"PAGE_SIZE" default:"12" validate:"gte=1,lte=100"`
	DefaultMaxPrice float64       `envconfig:"DEFAULT_MAX_PRICE" default:"100000" validate:"gt=0"`
}

var validate = validator.New()

// Validate checks struct constraints with the shared validator.
func Validate(v any) error {
	return validate.Struct(v)
}

// Load reads the given .env files (a missing file is ignored), then the environment.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) ProductsPath() string {
	return filepath.Join(c.DataDir, c.ProductsFile)
}
