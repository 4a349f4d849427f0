package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/elibrary-service/pkg/auth"
	"github.com/Astemirdum/elibrary-service/pkg/kafka"
	"github.com/Astemirdum/elibrary-service/pkg/logger"
	"github.com/Astemirdum/elibrary-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Circulation struct {
	// SweepInterval of zero disables the overdue sweeper.
	SweepInterval time.Duration `yaml:"sweepInterval" envconfig:"SWEEP_INTERVAL"`
}

type Config struct {
	Server      HTTPServer   `yaml:"server"`
	Database    postgres.DB  `yaml:"db"`
	Kafka       kafka.Config `yaml:"kafka"`
	Log         logger.Log   `yaml:"log"`
	Auth        auth.Config  `yaml:"auth"`
	Circulation Circulation  `yaml:"circulation"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
	})

	return cfg
}
