package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address         string `yaml:"address"`
	SwaggerDir      string `yaml:"swagger_dir"`
	ShutdownSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	ConfirmationTTLMinutes int `yaml:"confirmation_ttl_minutes"`
	ResendCooldownSeconds  int `yaml:"resend_cooldown_seconds"`
	RoomsCacheTTLSeconds   int `yaml:"rooms_cache_ttl_seconds"`
	MaxCodeAttempts        int `yaml:"max_code_attempts"`
}

func (b BookingConfig) ConfirmationTTL() time.Duration {
	return time.Duration(b.ConfirmationTTLMinutes) * time.Minute
}

func (b BookingConfig) ResendCooldown() time.Duration {
	return time.Duration(b.ResendCooldownSeconds) * time.Second
}

func (b BookingConfig) RoomsCacheTTL() time.Duration {
	return time.Duration(b.RoomsCacheTTLSeconds) * time.Second
}

type WorkerConfig struct {
	ExpirationSweepSeconds int `yaml:"expiration_sweep_seconds"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.ExpirationSweepSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	AdminUser         string `yaml:"admin_user"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
	TokenTTLMinutes   int    `yaml:"token_ttl_minutes"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the yaml file at path. ${VAR} placeholders are replaced
// from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ShutdownSeconds: 10,
		},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Kafka: KafkaConfig{
			BookingTopic:       "booking-events",
			NotificationsTopic: "booking-notifications",
			GroupID:            "hotelbooking-worker",
		},
		Booking: BookingConfig{
			ConfirmationTTLMinutes: 15,
			ResendCooldownSeconds:  60,
			RoomsCacheTTLSeconds:   300,
			MaxCodeAttempts:        5,
		},
		Worker: WorkerConfig{ExpirationSweepSeconds: 60},
		Auth:   AuthConfig{AdminUser: "admin", TokenTTLMinutes: 60},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

func (c *Config) validate() error {
	if c.Booking.ConfirmationTTLMinutes <= 0 {
		return fmt.Errorf("booking.confirmation_ttl_minutes must be positive")
	}
	if c.Booking.ResendCooldownSeconds < 0 {
		return fmt.Errorf("booking.resend_cooldown_seconds must not be negative")
	}
	if c.Booking.MaxCodeAttempts <= 0 {
		return fmt.Errorf("booking.max_code_attempts must be positive")
	}
	if c.Worker.ExpirationSweepSeconds <= 0 {
		return fmt.Errorf("worker.expiration_sweep_seconds must be positive")
	}
	return nil
}
