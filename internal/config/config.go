package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const dateLayout = "2006-01-02"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`
	ErrorLog   string `yaml:"error_log" env:"ERROR_LOG" env-default:"errors.log"`

	AdminLogin     string   `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass      string   `yaml:"admin_pass" env:"ADMIN_PASS"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000"`

	KPI KPI `yaml:"kpi"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// KPI: параметры расчета показателей
type KPI struct {
	FloorDate       string   `yaml:"floor_date" env:"KPI_FLOOR_DATE" env-default:"2025-07-01"`
	StatusColumn    int      `yaml:"status_column" env:"KPI_STATUS_COLUMN" env-default:"6"`
	MaxUploadMB     int64    `yaml:"max_upload_mb" env:"KPI_MAX_UPLOAD_MB" env-default:"32"`
	Ports           []string `yaml:"ports" env:"KPI_PORTS" env-default:"ORD,LAX,JFK,DFW,MIA,SFO"`
	DefaultPageSize int      `yaml:"default_page_size" env:"KPI_DEFAULT_PAGE_SIZE" env-default:"30"`
}

// Floor returns the configured floor date as UTC midnight.
func (k KPI) Floor() (time.Time, error) {
	const op = "config.KPI.Floor"

	t, err := time.ParseInLocation(dateLayout, k.FloorDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid floor_date %q: %w", op, k.FloorDate, err)
	}
	return t, nil
}

func (k KPI) MaxUploadBytes() int64 {
	return k.MaxUploadMB << 20
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := cfg.KPI.Floor(); err != nil {
		return nil, err
	}
	if cfg.KPI.StatusColumn < 0 {
		return nil, fmt.Errorf("%s: status_column must not be negative", op)
	}

	return &cfg, nil
}

func MustConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}
