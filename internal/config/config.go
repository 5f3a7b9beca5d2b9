package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"ENV"`
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	AdminKey    string `mapstructure:"ADMIN_KEY"`
	CORSAllowed string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Routing matrix service; empty key selects the offline haversine provider.
	MatrixAPIKey  string `mapstructure:"MATRIX_API_KEY"`
	MatrixBaseURL string `mapstructure:"MATRIX_BASE_URL"`

	SolverTimeLimit time.Duration `mapstructure:"SOLVER_TIME_LIMIT"`
	SolverIterCap   int           `mapstructure:"SOLVER_ITER_CAP"`
	SolverSeed      int64         `mapstructure:"SOLVER_SEED"`

	MaxHubDistanceKm float64       `mapstructure:"MAX_HUB_DISTANCE_KM"`
	MixedRoutes      bool          `mapstructure:"MIXED_ROUTES"`
	RetryDropped     bool          `mapstructure:"RETRY_DROPPED"`
	SweepInterval    time.Duration `mapstructure:"SWEEP_INTERVAL"`
	OverdueInterval  time.Duration `mapstructure:"OVERDUE_INTERVAL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MATRIX_BASE_URL", "https://maps.googleapis.com/maps/api/distancematrix/json")
	v.SetDefault("SOLVER_TIME_LIMIT", "90s")
	v.SetDefault("SOLVER_ITER_CAP", 20000)
	v.SetDefault("SOLVER_SEED", 1)
	v.SetDefault("MAX_HUB_DISTANCE_KM", 50.0)
	v.SetDefault("MIXED_ROUTES", false)
	v.SetDefault("RETRY_DROPPED", false)
	v.SetDefault("SWEEP_INTERVAL", "4h")
	v.SetDefault("OVERDUE_INTERVAL", "24h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
