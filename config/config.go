package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers de armazenamento suportados.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config armazena todas as configurações do StockFlow.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Armazenamento
	StorageDriver  string
	DatabaseURL    string
	DBTimeout      time.Duration
	DBMaxOpenConns int
	DBMaxIdleConns int
	AutoMigrate    bool

	// Cache e Lock (Redis). Vazio desliga cache, lock distribuído e rate limit.
	RedisAddr string
	CacheTTL  time.Duration
	LockTTL   time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Alertas de estoque baixo (RabbitMQ). Vazio desliga a publicação.
	AMQPURL       string
	LowStockQueue string

	// Regras do motor de estoque
	MovementMaxRetries int
	RecentDefaultLimit int
	RecentMaxLimit     int

	// HTTP
	CORSAllowedOrigins []string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente (via viper).
func LoadConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBTimeout:      time.Duration(v.GetInt("DB_TIMEOUT_SEC")) * time.Second,
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:    v.GetBool("AUTO_MIGRATE"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		CacheTTL:  time.Duration(v.GetInt("CACHE_TTL_SEC")) * time.Second,
		LockTTL:   time.Duration(v.GetInt("LOCK_TTL_SEC")) * time.Second,

		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      time.Duration(v.GetInt("RATE_LIMIT_PERIOD_MIN")) * time.Minute,

		AMQPURL:       v.GetString("AMQP_URL"),
		LowStockQueue: v.GetString("AMQP_LOW_STOCK_QUEUE"),

		MovementMaxRetries: v.GetInt("MOVEMENT_MAX_RETRIES"),
		RecentDefaultLimit: v.GetInt("RECENT_DEFAULT_LIMIT"),
		RecentMaxLimit:     v.GetInt("RECENT_MAX_LIMIT"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_TIMEOUT_SEC", 5)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL_SEC", 300)
	v.SetDefault("LOCK_TTL_SEC", 10)

	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_PERIOD_MIN", 1)

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_LOW_STOCK_QUEUE", "low_stock_alerts")

	v.SetDefault("MOVEMENT_MAX_RETRIES", 3)
	v.SetDefault("RECENT_DEFAULT_LIMIT", 5)
	v.SetDefault("RECENT_MAX_LIMIT", 100)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Validate verifica combinações obrigatórias antes de subir a infraestrutura.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("❌ Erro de Configuração: DATABASE_URL deve ser definida quando STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("❌ Erro de Configuração: STORAGE_DRIVER inválido %q (use %s ou %s)", c.StorageDriver, StoragePostgres, StorageMemory)
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("❌ Erro de Configuração: DB_TIMEOUT_SEC deve ser positivo")
	}
	if c.RecentDefaultLimit <= 0 || c.RecentMaxLimit < c.RecentDefaultLimit {
		return fmt.Errorf("❌ Erro de Configuração: RECENT_DEFAULT_LIMIT deve ser positivo e não maior que RECENT_MAX_LIMIT")
	}
	if c.MovementMaxRetries < 0 {
		return fmt.Errorf("❌ Erro de Configuração: MOVEMENT_MAX_RETRIES não pode ser negativo")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
