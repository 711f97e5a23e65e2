package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Archive backends accepted by ARCHIVE_BACKEND.
const (
	ArchiveNone     = "none"
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SiteID        string
	ParameterCode string
	WindowDays    int
	BaseURL       string
	HTTPTimeout   int
	SiteLabel     string

	CSVOutputPath  string
	JSONOutputPath string

	ArchiveBackend string
	SQLitePath     string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MetricsTextfile string
	Schedule        string
	LogLevel        string
}

// Default returns the configuration used when nothing is set in the
// environment: 30 days of discharge for the Rio Grande Floodway at San Marcial, NM.
func Default() *Config {
	return &Config{
		SiteID:        "08358400",
		ParameterCode: "00060",
		WindowDays:    30,
		BaseURL:       "https://nwis.waterservices.usgs.gov/nwis/iv/",
		SiteLabel:     "NEW MEXICO WATER SUMMARY",

		CSVOutputPath:  "rio_grande_data.csv",
		JSONOutputPath: "water_summary.json",

		ArchiveBackend: ArchiveNone,
		SQLitePath:     "./data/streamflow.db",

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "water",
		PostgresDB:      "streamflow",
		PostgresSSLMode: "disable",

		LogLevel: "info",
	}
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	d := Default()
	return &Config{
		SiteID:        getEnv("USGS_SITE_ID", d.SiteID),
		ParameterCode: getEnv("USGS_PARAMETER_CODE", d.ParameterCode),
		WindowDays:    getEnvInt("USGS_WINDOW_DAYS", d.WindowDays),
		BaseURL:       getEnv("USGS_BASE_URL", d.BaseURL),
		HTTPTimeout:   getEnvInt("HTTP_TIMEOUT_SEC", d.HTTPTimeout),
		SiteLabel:     getEnv("SITE_LABEL", d.SiteLabel),

		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", d.CSVOutputPath),
		JSONOutputPath: getEnv("JSON_OUTPUT_PATH", d.JSONOutputPath),

		ArchiveBackend: strings.ToLower(getEnv("ARCHIVE_BACKEND", d.ArchiveBackend)),
		SQLitePath:     getEnv("SQLITE_PATH", d.SQLitePath),

		PostgresHost:     getEnv("POSTGRES_HOST", d.PostgresHost),
		PostgresPort:     getEnv("POSTGRES_PORT", d.PostgresPort),
		PostgresUser:     getEnv("POSTGRES_USER", d.PostgresUser),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", d.PostgresPassword),
		PostgresDB:       getEnv("POSTGRES_DB", d.PostgresDB),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", d.PostgresSSLMode),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", d.MetricsTextfile),
		Schedule:        getEnv("SCHEDULE", d.Schedule),
		LogLevel:        getEnv("LOG_LEVEL", d.LogLevel),
	}
}

// Validate reports the first setting that would make a run meaningless.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SiteID) == "" {
		return fmt.Errorf("config: site id is empty")
	}
	if strings.TrimSpace(c.ParameterCode) == "" {
		return fmt.Errorf("config: parameter code is empty")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("config: window days must be positive, got %d", c.WindowDays)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config: http timeout must not be negative, got %d", c.HTTPTimeout)
	}
	switch c.ArchiveBackend {
	case ArchiveNone, ArchiveSQLite, ArchivePostgres:
	default:
		return fmt.Errorf("config: unknown archive backend %q", c.ArchiveBackend)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
