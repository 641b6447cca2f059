package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del journal.
type Config struct {
	Journal  JournalConfig  `yaml:"journal"`
	Storage  StorageConfig  `yaml:"storage"`
	Import   ImportConfig   `yaml:"import"`
	Terminal TerminalConfig `yaml:"terminal"`
	Relay    RelayConfig    `yaml:"relay"`
	Log      LogConfig      `yaml:"log"`
}

// JournalConfig controla la normalización y la agregación.
type JournalConfig struct {
	DefaultInstrumentType string `yaml:"default_instrument_type"`
	Currency              string `yaml:"currency"` // se adjunta a las estadísticas
	Timezone              string `yaml:"timezone"` // fechas sin zona y buckets de rendimiento
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres | memory
	DSN    string `yaml:"dsn"`    // ruta SQLite, ":memory:" o URL de Postgres
}

// ImportConfig limita los archivos importados.
type ImportConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// TerminalConfig describe el script local del terminal.
type TerminalConfig struct {
	PythonBin      string `yaml:"python_bin"`
	ScriptPath     string `yaml:"script_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RelayConfig cubre los dos lados del relay: el servidor HTTP local y, si
// remote_url está definido, el relay remoto que sustituye al script local.
type RelayConfig struct {
	ListenAddr    string  `yaml:"listen_addr"`
	AllowedOrigin string  `yaml:"allowed_origin"`
	RemoteURL     string  `yaml:"remote_url"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el YAML y el .env si existe.
// Las variables de entorno pisan al YAML; los defaults rellenan lo que falte.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default devuelve la configuración sin archivo (solo entorno y defaults).
func Default() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Location resuelve journal.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Journal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Journal.Timezone, err)
	}
	return loc, nil
}

// TerminalTimeout devuelve el timeout del script como time.Duration.
func (c *Config) TerminalTimeout() time.Duration {
	return time.Duration(c.Terminal.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("JOURNAL_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("JOURNAL_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("JOURNAL_CURRENCY"); v != "" {
		cfg.Journal.Currency = v
	}
	if v := os.Getenv("MT5_PYTHON"); v != "" {
		cfg.Terminal.PythonBin = v
	}
	if v := os.Getenv("MT5_SCRIPT"); v != "" {
		cfg.Terminal.ScriptPath = v
	}
	if v := os.Getenv("MT5_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Terminal.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("RELAY_LISTEN_ADDR"); v != "" {
		cfg.Relay.ListenAddr = v
	}
	if v := os.Getenv("RELAY_REMOTE_URL"); v != "" {
		cfg.Relay.RemoteURL = v
	}
	if v := os.Getenv("RELAY_ALLOWED_ORIGIN"); v != "" {
		cfg.Relay.AllowedOrigin = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Journal.DefaultInstrumentType == "" {
		cfg.Journal.DefaultInstrumentType = "FOREX"
	}
	if cfg.Journal.Currency == "" {
		cfg.Journal.Currency = "USD"
	}
	if cfg.Journal.Timezone == "" {
		cfg.Journal.Timezone = "UTC"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = "journal.db"
	}
	if cfg.Import.MaxFileBytes <= 0 {
		cfg.Import.MaxFileBytes = 20 << 20
	}
	if cfg.Terminal.PythonBin == "" {
		cfg.Terminal.PythonBin = "python"
	}
	if cfg.Terminal.ScriptPath == "" {
		cfg.Terminal.ScriptPath = "mt5_fetch.py"
	}
	if cfg.Terminal.TimeoutSeconds <= 0 {
		cfg.Terminal.TimeoutSeconds = 60
	}
	if cfg.Relay.ListenAddr == "" {
		cfg.Relay.ListenAddr = ":8080"
	}
	if cfg.Relay.AllowedOrigin == "" {
		cfg.Relay.AllowedOrigin = "http://localhost:8080"
	}
	if cfg.Relay.RatePerSecond <= 0 {
		cfg.Relay.RatePerSecond = 1
	}
	if cfg.Relay.Burst <= 0 {
		cfg.Relay.Burst = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
