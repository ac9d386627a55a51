package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Giav    GiavConfig
	Outbox  OutboxConfig
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
	Env          string `envconfig:"GOLFVIAJES_APP_ENV" required:"true"`
	Port         string `envconfig:"GOLFVIAJES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GOLFVIAJES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GOLFVIAJES_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"GOLFVIAJES_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GOLFVIAJES_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GOLFVIAJES_DB_DSN"`
	Driver string `envconfig:"GOLFVIAJES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GOLFVIAJES_DB_HOST"`
	LegacyPort     int    `envconfig:"GOLFVIAJES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GOLFVIAJES_DB_USER"`
	LegacyPassword string `envconfig:"GOLFVIAJES_DB_PASSWORD"`
	LegacyName     string `envconfig:"GOLFVIAJES_DB_NAME"`
	LegacySSLMode  string `envconfig:"GOLFVIAJES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GOLFVIAJES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GOLFVIAJES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GOLFVIAJES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GOLFVIAJES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GOLFVIAJES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GOLFVIAJES_REDIS_ADDR"`
	Password     string        `envconfig:"GOLFVIAJES_REDIS_PASSWORD"`
	DB           int           `envconfig:"GOLFVIAJES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GOLFVIAJES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GOLFVIAJES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GOLFVIAJES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GOLFVIAJES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GOLFVIAJES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GOLFVIAJES_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GOLFVIAJES_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOLFVIAJES_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ProposalsTopic        string `envconfig:"GOLFVIAJES_PUBSUB_PROPOSALS_TOPIC" default:"gv-proposal-events"`
	ProposalsSubscription string `envconfig:"GOLFVIAJES_PUBSUB_PROPOSALS_SUBSCRIPTION" required:"true"`
}

// GiavConfig carries everything the engine needs to talk to the GIAV booking
// system. The generic fallback supplier and the required-mapping service types
// are explicit configuration rather than package globals so the resolver and
// the preflight validator receive them by injection.
type GiavConfig struct {
	BaseURL           string        `envconfig:"GOLFVIAJES_GIAV_BASE_URL" required:"true"`
	APIKey            string        `envconfig:"GOLFVIAJES_GIAV_API_KEY" required:"true"`
	CallTimeout       time.Duration `envconfig:"GOLFVIAJES_GIAV_CALL_TIMEOUT" default:"30s"`
	DefaultSupplierID string        `envconfig:"GOLFVIAJES_GIAV_DEFAULT_SUPPLIER_ID" default:"PROV-GENERICO"`
	RequiredTypes     []string      `envconfig:"GOLFVIAJES_GIAV_REQUIRED_MAPPING_TYPES" default:"hotel,golf"`
	RequireRealMatch  bool          `envconfig:"GOLFVIAJES_GIAV_REQUIRE_REAL_MATCH" default:"false"`
	SyncLockTTL       time.Duration `envconfig:"GOLFVIAJES_GIAV_SYNC_LOCK_TTL" default:"2m"`
}

// RequiresMapping reports whether items of the given service type must carry a
// resolved GIAV supplier before synchronization.
func (g GiavConfig) RequiresMapping(serviceType string) bool {
	for _, t := range g.RequiredTypes {
		if strings.EqualFold(strings.TrimSpace(t), serviceType) {
			return true
		}
	}
	return false
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GOLFVIAJES_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GOLFVIAJES_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GOLFVIAJES_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
