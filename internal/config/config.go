package config

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the route service.
//
// Fields:
// - Env: The current environment (local, development, production).
// - HTTPPort / MetricsPort: Ports of the API and the monitoring server.
// - Geocoder: Which geocoding provider resolves free-text places.
// - Routes: Directions API endpoint and credentials.
// - Session: Throttle and minimum separation of route submissions.
// - POI: Points-of-interest catalog endpoint and token.
// - Database: Geocode cache database; the cache is off when Host is empty.
type Config struct {
	Env         string         // Env is the current environment: local, development, production.
	HTTPPort    int            // HTTPPort is the route API port.
	MetricsPort int            // MetricsPort is the monitoring server port.
	PresetsFile string         // PresetsFile is an optional TOML file of extra place presets.
	Geocoder    GeocoderConfig // Geocoder selects and configures the geocoding provider.
	Routes      RoutesConfig   // Routes configures the directions API client.
	Session     SessionConfig  // Session tunes route submissions.
	POI         POIConfig      // POI configures the points-of-interest catalog client.
	Database    PostgresConfig // Database holds the postgres database configuration.
}

// GeocoderConfig selects the geocoding provider.
type GeocoderConfig struct {
	Type      string // Type is opencage, google or nominatim.
	APIKey    string // APIKey is required for opencage and google.
	RateLimit int    // RateLimit is the maximum requests per second.
	Country   string // Country is the ISO code restricting results.
}

// RoutesConfig holds the directions API settings.
type RoutesConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	UserID   string
}

// SessionConfig holds the submission rules.
type SessionConfig struct {
	Throttle      time.Duration
	MinSeparation float64
}

// POIConfig holds the catalog settings.
type POIConfig struct {
	Endpoint string
	Token    string
	Limit    int // Limit caps POIs created per process, zero disables the cap.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a database was configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MustLoad reads the configuration from the environment (and a .env file when present).
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Env:         v.GetString("WAYLY_ENV"),
		HTTPPort:    mustInt(v, "WAYLY_HTTP_PORT", "failed to parse port for route API from configuration"),
		MetricsPort: mustInt(v, "WAYLY_METRICS_PORT", "failed to parse port for monitoring server from configuration"),
		PresetsFile: v.GetString("WAYLY_PRESETS_FILE"),
		Geocoder: GeocoderConfig{
			Type:      v.GetString("WAYLY_GEOCODER_TYPE"),
			APIKey:    v.GetString("WAYLY_GEOCODER_KEY"),
			RateLimit: mustInt(v, "WAYLY_GEOCODER_RATE", "failed to parse geocoder rate from configuration, must be an integer"),
			Country:   v.GetString("WAYLY_COUNTRY"),
		},
		Routes: RoutesConfig{
			Endpoint: v.GetString("WAYLY_ROUTES_ENDPOINT"),
			APIKey:   v.GetString("WAYLY_ROUTES_API_KEY"),
			Timeout:  mustDuration(v, "WAYLY_ROUTES_TIMEOUT", "failed to parse routes timeout from configuration"),
			UserID:   v.GetString("WAYLY_USER_ID"),
		},
		Session: SessionConfig{
			Throttle:      mustDuration(v, "WAYLY_THROTTLE", "failed to parse throttle from configuration"),
			MinSeparation: mustFloat(v, "WAYLY_MIN_SEPARATION", "failed to parse minimum separation from configuration"),
		},
		POI: POIConfig{
			Endpoint: v.GetString("WAYLY_POI_ENDPOINT"),
			Token:    v.GetString("WAYLY_POI_TOKEN"),
			Limit:    mustInt(v, "WAYLY_POI_LIMIT", "failed to parse POI limit from configuration"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("WAYLY_ENV", "production")
	v.SetDefault("WAYLY_HTTP_PORT", "8080")
	v.SetDefault("WAYLY_METRICS_PORT", "9090")
	v.SetDefault("WAYLY_GEOCODER_TYPE", "opencage")
	v.SetDefault("WAYLY_GEOCODER_RATE", "5")
	v.SetDefault("WAYLY_COUNTRY", "pt")
	v.SetDefault("WAYLY_ROUTES_TIMEOUT", "15s")
	v.SetDefault("WAYLY_THROTTLE", "3s")
	v.SetDefault("WAYLY_MIN_SEPARATION", "0.001")
	v.SetDefault("WAYLY_POI_LIMIT", "3")
	v.SetDefault("DB_PORT", "5432")
}

func mustInt(v *viper.Viper, key, msg string) int {
	value, err := strconv.Atoi(v.GetString(key))
	if err != nil {
		panic(msg)
	}
	return value
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		panic(msg)
	}
	return value
}

func mustFloat(v *viper.Viper, key, msg string) float64 {
	value, err := strconv.ParseFloat(v.GetString(key), 64)
	if err != nil {
		panic(msg)
	}
	return value
}
