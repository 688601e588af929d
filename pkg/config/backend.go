package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BackendConfig describes the product REST backend the UI talks to.
type BackendConfig struct {
	URL          string        `koanf:"url"`
	ProductsPath string        `koanf:"productspath"`
	Timeout      time.Duration `koanf:"timeout"`
}

// String returns a string representation of the backend configuration.
func (c *BackendConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Backend ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  productspath: %s\n", c.ProductsPath))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *BackendConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("backend URL is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend URL must be absolute: %s", c.URL)
	}
	if !strings.HasPrefix(c.ProductsPath, "/") {
		return fmt.Errorf("backend products path must start with '/': %q", c.ProductsPath)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("backend timeout is not configured")
	}
	return nil
}
