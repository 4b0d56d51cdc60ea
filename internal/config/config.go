// Package config loads service configuration from the environment,
// with a .env file honored when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DBPath string

	OverpassEndpoint   string
	TrafficEndpoint    string
	TrafficAPIKey      string
	PopulationEndpoint string

	DefaultDurationMin int
	DefaultRadiusKm    float64
	MaxVehicles        int
	LiveSampleSize     int
	LiveTickSeconds    int
	RoadCacheTTL       time.Duration

	// Seed pins the orchestrator RNG; 0 means derive from wall clock.
	Seed int64
}

func Load() Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	return Config{
		Port:               envStr("PORT", "8080"),
		DBPath:             envStr("DB_PATH", "trafficsim.db"),
		OverpassEndpoint:   envStr("OVERPASS_ENDPOINT", ""),
		TrafficEndpoint:    envStr("TRAFFIC_ENDPOINT", ""),
		TrafficAPIKey:      envStr("TRAFFIC_API_KEY", ""),
		PopulationEndpoint: envStr("POPULATION_ENDPOINT", ""),
		DefaultDurationMin: envInt("DEFAULT_DURATION_MIN", 60),
		DefaultRadiusKm:    envFloat("DEFAULT_RADIUS_KM", 3),
		MaxVehicles:        envInt("MAX_VEHICLES", 500),
		LiveSampleSize:     envInt("LIVE_SAMPLE_SIZE", 50),
		LiveTickSeconds:    envInt("LIVE_TICK_SECONDS", 10),
		RoadCacheTTL:       time.Duration(envInt("ROAD_CACHE_TTL_MIN", 10)) * time.Minute,
		Seed:               int64(envInt("SIM_SEED", 0)),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
