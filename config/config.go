package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite" // local
	BackendRedis  = "redis"  // remote
	BackendMemory = "memory" // dry run, nothing persists
)

// Config es la configuración completa del tracker.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Prediction PredictionConfig `yaml:"prediction"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"` // vacío = cualquier origen
	APIKey      string   `yaml:"api_key"`      // vacío = sin auth
	ShutdownSec int      `yaml:"shutdown_seconds"`
}

// StorageConfig controla dónde se persiste el libro de posiciones.
type StorageConfig struct {
	Backend   string      `yaml:"backend"`   // sqlite | redis | memory
	DSN       string      `yaml:"dsn"`       // ruta al archivo SQLite, o ":memory:"
	Namespace string      `yaml:"namespace"` // la key es <namespace>_v<version>
	Version   string      `yaml:"version"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig es el backend remoto.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	TLS      bool   `yaml:"tls"`
	Hash     string `yaml:"hash"`
}

// OracleConfig configura CoinGecko y la selección live/histórico.
type OracleConfig struct {
	BaseURL              string  `yaml:"base_url"`
	APIKey               string  `yaml:"api_key"`
	Asset                string  `yaml:"asset"` // id de CoinGecko
	TimeoutSeconds       int     `yaml:"timeout_seconds"`
	RequestsPerSecond    float64 `yaml:"requests_per_second"`
	HistoricalAfterHours float64 `yaml:"historical_after_hours"` // más antiguo que esto = precio histórico
}

// PredictionConfig configura el stub de predicción.
type PredictionConfig struct {
	DelayMillis int `yaml:"delay_ms"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML. Con path vacío
// solo se aplican entorno y defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// OracleTimeout devuelve el timeout HTTP del oráculo.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}

// HistoricalAfter devuelve la antigüedad a partir de la cual se usa el precio histórico.
func (c *Config) HistoricalAfter() time.Duration {
	return time.Duration(c.Oracle.HistoricalAfterHours * float64(time.Hour))
}

// PredictionDelay devuelve la espera simulada del stub de predicción.
func (c *Config) PredictionDelay() time.Duration {
	return time.Duration(c.Prediction.DelayMillis) * time.Millisecond
}

// ShutdownTimeout devuelve el tiempo de gracia del servidor al apagarse.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSec) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TRACKER_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TRACKER_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("TRACKER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("TRACKER_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.ShutdownSec <= 0 {
		cfg.Server.ShutdownSec = 10
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "cbctracker.db"
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = "cbc_positions"
	}
	if cfg.Storage.Version == "" {
		cfg.Storage.Version = "1.0"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
	if cfg.Storage.Redis.PoolSize <= 0 {
		cfg.Storage.Redis.PoolSize = 10
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Oracle.Asset == "" {
		cfg.Oracle.Asset = "ethereum"
	}
	if cfg.Oracle.TimeoutSeconds <= 0 {
		cfg.Oracle.TimeoutSeconds = 10
	}
	if cfg.Oracle.RequestsPerSecond <= 0 {
		cfg.Oracle.RequestsPerSecond = 0.5 // plan público: ~30 req/min
	}
	if cfg.Oracle.HistoricalAfterHours <= 0 {
		cfg.Oracle.HistoricalAfterHours = 1
	}
	if cfg.Prediction.DelayMillis < 0 {
		cfg.Prediction.DelayMillis = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
		return nil
	}
	return fmt.Errorf("unknown storage backend %q (want sqlite, redis or memory)", c.Storage.Backend)
}
