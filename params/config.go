package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type HTTP struct {
	Addr string // listen address, e.g. ":8000"
}

type Venue struct {
	// Instrument is the default trading pair stamped on orders that do
	// not carry one.
	Instrument string
}

type Logging struct {
	Level string // debug, info, warn, error
	File  string // optional second sink; empty = console only
}

type Config struct {
	HTTP    HTTP
	Venue   Venue
	Logging Logging
}

func Default() Config {
	return Config{
		HTTP:    HTTP{Addr: ":8000"},
		Venue:   Venue{Instrument: "BTC-USD"},
		Logging: Logging{Level: "info"},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	} else if port := os.Getenv("HTTP_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Addr = ":" + port
		}
	}

	if pair := os.Getenv("VENUE_INSTRUMENT"); pair != "" {
		cfg.Venue.Instrument = pair
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		cfg.Logging.File = file
	}

	return cfg
}
