package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/gocommerce-inventory/pkg/config"
	"github.com/abgdnv/gocommerce-inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Backend    config.BackendConfig    `koanf:"backend"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

// Defaults are loaded below config.yaml, .env and the environment.
var Defaults = map[string]any{
	"server.port":               8080,
	"server.maxHeaderBytes":     1 << 20,
	"server.timeout.read":       "5s",
	"server.timeout.write":      "10s",
	"server.timeout.idle":       "60s",
	"server.timeout.readHeader": "2s",

	"backend.url":          "http://localhost:5000/api",
	"backend.productspath": "/products",
	"backend.timeout":      "5s",

	"resilience.circuitbreaker.consecutivefailures": 5,
	"resilience.circuitbreaker.errorratepercent":    60,
	"resilience.circuitbreaker.opentimeout":         "10s",

	"log.level": "info",

	"pprof.enabled": false,
	"pprof.addr":    "localhost:6060",

	"telemetry.enabled":                  false,
	"telemetry.traces.otlphttp.endpoint": "localhost:4318",
	"telemetry.traces.otlphttp.insecure": true,
	"telemetry.traces.otlphttp.timeout":  "5s",

	"shutdown.timeout": "10s",
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Backend.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Backend,
		&c.Resilience,
		&c.Log,
		&c.PProf,
		&c.Telemetry,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}
