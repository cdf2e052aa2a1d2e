package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "VERDANT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "VERDANT_APP_ENV"
	EnvDBDSN  = "VERDANT_DB_DSN"
	EnvDBHost = "VERDANT_DB_HOST"
	EnvDBUser = "VERDANT_DB_USER"
	EnvDBName = "VERDANT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Tasks        TasksConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VERDANT_APP_ENV" required:"true"`
	Port         string `envconfig:"VERDANT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VERDANT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VERDANT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VERDANT_SERVICE_KIND" default:"task-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"VERDANT_DB_DSN"`
	Driver string `envconfig:"VERDANT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VERDANT_DB_HOST"`
	LegacyPort     int    `envconfig:"VERDANT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VERDANT_DB_USER"`
	LegacyPassword string `envconfig:"VERDANT_DB_PASSWORD"`
	LegacyName     string `envconfig:"VERDANT_DB_NAME"`
	LegacySSLMode  string `envconfig:"VERDANT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VERDANT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VERDANT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VERDANT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VERDANT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VERDANT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VERDANT_REDIS_ADDR"`
	Password     string        `envconfig:"VERDANT_REDIS_PASSWORD"`
	DB           int           `envconfig:"VERDANT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VERDANT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VERDANT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VERDANT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VERDANT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VERDANT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VERDANT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VERDANT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VERDANT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VERDANT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VERDANT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VERDANT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VERDANT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VERDANT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	TasksTopic        string `envconfig:"VERDANT_PUBSUB_TASKS_TOPIC" required:"true"`
	TasksSubscription string `envconfig:"VERDANT_PUBSUB_TASKS_SUBSCRIPTION" required:"true"`
}

// TasksConfig bounds how many rows each maintenance task touches per invocation.
type TasksConfig struct {
	PromotionRuleBatchSize int `envconfig:"VERDANT_TASKS_PROMOTION_RULE_BATCH_SIZE" default:"250"`
	ProductBatchSize       int `envconfig:"VERDANT_TASKS_PRODUCT_BATCH_SIZE" default:"100"`
	VariantBatchSize       int `envconfig:"VERDANT_TASKS_VARIANT_BATCH_SIZE" default:"500"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VERDANT_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
