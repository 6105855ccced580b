package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`

	ConnectAttempts  int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
	ConnectBackoffMs int `yaml:"connect_backoff_ms" mapstructure:"connect_backoff_ms"`
}

// ServerConfig configures the statistics API.
type ServerConfig struct {
	Host               string   `yaml:"host" mapstructure:"host"`
	Port               int      `yaml:"port" mapstructure:"port"`
	Debug              bool     `yaml:"debug" mapstructure:"debug"`
	SkipDBCheck        bool     `yaml:"skip_db_check" mapstructure:"skip_db_check"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	ExportRPS          float64  `yaml:"export_rps" mapstructure:"export_rps"`
	ExportBurst        int      `yaml:"export_burst" mapstructure:"export_burst"`
}

// IngestConfig configures the spreadsheet import.
type IngestConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	Glob           string `yaml:"glob" mapstructure:"glob"`
	YearTag        string `yaml:"year_tag" mapstructure:"year_tag"`
	PreferredSheet string `yaml:"preferred_sheet" mapstructure:"preferred_sheet"`
	ReportDir      string `yaml:"report_dir" mapstructure:"report_dir"`
	Workers        int    `yaml:"workers" mapstructure:"workers"`
	Timezone       string `yaml:"timezone" mapstructure:"timezone"`
	AliasesFile    string `yaml:"aliases_file" mapstructure:"aliases_file"`
	Table          string `yaml:"table" mapstructure:"table"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv binds the environment variables the deployment scripts already
// export. DMV_* names take precedence.
var legacyEnv = map[string]string{
	"database.url":         "PG_DSN",
	"server.host":          "FLASK_HOST",
	"server.port":          "FLASK_PORT",
	"server.debug":         "FLASK_DEBUG",
	"server.skip_db_check": "SKIP_DB",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DMV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := "DMV_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", legacy)
		}
	}

	// Defaults
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.connect_attempts", 3)
	v.SetDefault("database.connect_backoff_ms", 500)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5050)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.skip_db_check", false)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("server.export_rps", 2.0)
	v.SetDefault("server.export_burst", 4)
	v.SetDefault("ingest.dir", ".")
	v.SetDefault("ingest.glob", "*.xlsx")
	v.SetDefault("ingest.year_tag", "114")
	v.SetDefault("ingest.preferred_sheet", "工作表1")
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.timezone", "Asia/Taipei")
	v.SetDefault("ingest.table", "dmv_routes_2025")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg.Database.URL = NormalizeDSN(cfg.Database.URL)
	if cfg.Ingest.ReportDir == "" {
		cfg.Ingest.ReportDir = cfg.Ingest.Dir
	}
	if cfg.Server.Debug {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "db",
// "ingest", "serve".
func (c *Config) Validate(mode string) error {
	var problems []string
	switch mode {
	case "db":
	case "ingest":
		if c.Ingest.Dir == "" {
			problems = append(problems, "ingest.dir is required")
		}
		if c.Ingest.Workers < 1 || c.Ingest.Workers > 64 {
			problems = append(problems, "ingest.workers must be between 1 and 64")
		}
		if c.Ingest.Table == "" {
			problems = append(problems, "ingest.table is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RequestTimeoutSecs <= 0 {
			problems = append(problems, "server.request_timeout_secs must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if c.Database.URL == "" && !(mode == "serve" && c.Server.SkipDBCheck) {
		problems = append(problems, "database.url is required (or set PG_DSN)")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// NormalizeDSN turns a SQLAlchemy-style URL (postgresql+psycopg2://...) into
// one pgx accepts.
func NormalizeDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if base, _, driver := strings.Cut(scheme, "+"); driver {
		scheme = base
	}
	if scheme == "postgresql" {
		scheme = "postgres"
	}
	return scheme + "://" + rest
}

// RedactDSN hides the password in a connection URL for logging.
func RedactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	userinfo := rest[:at]
	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		userinfo = user + ":***"
	}
	return scheme + "://" + userinfo + rest[at:]
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
