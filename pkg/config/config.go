package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FOODORDER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "FOODORDER_APP_ENV"
	EnvPort                   = "FOODORDER_APP_PORT"
	EnvDBDSN                  = "FOODORDER_DB_DSN"
	EnvDBHost                 = "FOODORDER_DB_HOST"
	EnvDBUser                 = "FOODORDER_DB_USER"
	EnvDBName                 = "FOODORDER_DB_NAME"
	EnvRedisURL               = "FOODORDER_REDIS_URL"
	EnvJWTSecret              = "FOODORDER_JWT_SECRET"
	EnvJWTIssuer              = "FOODORDER_JWT_ISSUER"
	EnvJWTExpMins             = "FOODORDER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FOODORDER_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "FOODORDER_USE_SQLITE"
	EnvCartSlotTTL            = "FOODORDER_CART_SLOT_TTL"
	EnvNominatimURL           = "FOODORDER_MAPS_NOMINATIM_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Maps          MapsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODORDER_APP_ENV" required:"true"`
	Port         string `envconfig:"FOODORDER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOODORDER_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FOODORDER_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FOODORDER_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"FOODORDER_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FOODORDER_DB_DSN"`
	Driver string `envconfig:"FOODORDER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODORDER_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODORDER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODORDER_DB_USER"`
	LegacyPassword string `envconfig:"FOODORDER_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODORDER_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODORDER_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"FOODORDER_DB_SQLITE_PATH" default:"foodorder.db"`

	MaxOpenConns    int           `envconfig:"FOODORDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODORDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODORDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODORDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODORDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOODORDER_REDIS_ADDR"`
	Password     string        `envconfig:"FOODORDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODORDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODORDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODORDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODORDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODORDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODORDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FOODORDER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FOODORDER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FOODORDER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FOODORDER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOODORDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOODORDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOODORDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOODORDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOODORDER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FOODORDER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FOODORDER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FOODORDER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FOODORDER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FOODORDER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FOODORDER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FOODORDER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FOODORDER_AUTO_MIGRATE" default:"false"`
	RecordRelay bool `envconfig:"FOODORDER_RECORD_RELAY" default:"false"`
}

type CartConfig struct {
	SlotTTL time.Duration `envconfig:"FOODORDER_CART_SLOT_TTL" default:"168h"`
}

type CheckoutConfig struct {
	DeliveryETA   time.Duration `envconfig:"FOODORDER_CHECKOUT_DELIVERY_ETA" default:"30m"`
	RedirectDelay time.Duration `envconfig:"FOODORDER_CHECKOUT_REDIRECT_DELAY" default:"2s"`
	RedirectPath  string        `envconfig:"FOODORDER_CHECKOUT_REDIRECT_PATH" default:"/orders"`
	InFlightTTL   time.Duration `envconfig:"FOODORDER_CHECKOUT_INFLIGHT_TTL" default:"30s"`
	DraftTTL      time.Duration `envconfig:"FOODORDER_CHECKOUT_DRAFT_TTL" default:"24h"`
}

type MapsConfig struct {
	NominatimURL     string        `envconfig:"FOODORDER_MAPS_NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	OSRMURL          string        `envconfig:"FOODORDER_MAPS_OSRM_URL" default:"https://router.project-osrm.org"`
	UserAgent        string        `envconfig:"FOODORDER_MAPS_USER_AGENT" default:"foodorder-backend/1.0"`
	Timeout          time.Duration `envconfig:"FOODORDER_MAPS_TIMEOUT" default:"10s"`
	BreakerTimeout   time.Duration `envconfig:"FOODORDER_MAPS_BREAKER_TIMEOUT" default:"30s"`
	BreakerMinCalls  uint32        `envconfig:"FOODORDER_MAPS_BREAKER_MIN_CALLS" default:"3"`
	BreakerFailRatio float64       `envconfig:"FOODORDER_MAPS_BREAKER_FAIL_RATIO" default:"0.6"`
	PickWindow       time.Duration `envconfig:"FOODORDER_MAPS_PICK_WINDOW" default:"1s"`
	PickLimit        int           `envconfig:"FOODORDER_MAPS_PICK_LIMIT" default:"2"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		db.Driver = "sqlite"
		return nil
	}
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
