package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR" default:"localhost:6379"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// Periodic tasks. Tasks is a space-delimited list of task names to be
	// scheduled; each named task reads its own knobs below.
	Tasks              string  `env:"TASKS" default:"fine.update"`
	FinePerDay         float64 `env:"FINE_PER_DAY"`
	FineUpdatePeriodMS int64   `env:"FINE_UPDATE_PERIOD_MS" default:"3600000"`
}
