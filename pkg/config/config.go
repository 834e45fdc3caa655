package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DSDROUTE_DB_DSN"
	EnvDBHost = "DSDROUTE_DB_HOST"
	EnvDBUser = "DSDROUTE_DB_USER"
	EnvDBName = "DSDROUTE_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Notifier      NotifierConfig
	Bootstrap     BootstrapConfig
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
	Env          string `envconfig:"DSDROUTE_APP_ENV" required:"true"`
	Port         string `envconfig:"DSDROUTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DSDROUTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DSDROUTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DSDROUTE_DB_DSN"`

	Host     string `envconfig:"DSDROUTE_DB_HOST"`
	Port     int    `envconfig:"DSDROUTE_DB_PORT" default:"5432"`
	User     string `envconfig:"DSDROUTE_DB_USER"`
	Password string `envconfig:"DSDROUTE_DB_PASSWORD"`
	Name     string `envconfig:"DSDROUTE_DB_NAME"`
	SSLMode  string `envconfig:"DSDROUTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DSDROUTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DSDROUTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DSDROUTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DSDROUTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	ConnectRetries int           `envconfig:"DSDROUTE_DB_CONNECT_RETRIES" default:"5"`
	ConnectBackoff time.Duration `envconfig:"DSDROUTE_DB_CONNECT_BACKOFF" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DSDROUTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DSDROUTE_REDIS_ADDR"`
	Password     string        `envconfig:"DSDROUTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"DSDROUTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DSDROUTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DSDROUTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DSDROUTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DSDROUTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DSDROUTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DSDROUTE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DSDROUTE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DSDROUTE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DSDROUTE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DSDROUTE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DSDROUTE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DSDROUTE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DSDROUTE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"DSDROUTE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"DSDROUTE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"DSDROUTE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DSDROUTE_AUTO_MIGRATE" default:"false"`
}

// BootstrapConfig seeds the first admin account. Left empty, no seeding
// happens and an existing database is assumed.
type BootstrapConfig struct {
	AdminEmail    string `envconfig:"DSDROUTE_BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"DSDROUTE_BOOTSTRAP_ADMIN_PASSWORD"`
	AdminName     string `envconfig:"DSDROUTE_BOOTSTRAP_ADMIN_NAME" default:"Administrator"`
}

type NotifierConfig struct {
	ChannelPrefix  string        `envconfig:"DSDROUTE_NOTIFIER_CHANNEL_PREFIX" default:"dsd:notify"`
	BatchSize      int           `envconfig:"DSDROUTE_NOTIFIER_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"DSDROUTE_NOTIFIER_POLL_INTERVAL" default:"500ms"`
	MaxAttempts    int           `envconfig:"DSDROUTE_NOTIFIER_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"DSDROUTE_NOTIFIER_PUBLISH_TIMEOUT" default:"5s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
