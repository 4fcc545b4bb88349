package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultListen            = "127.0.0.1:8080"
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultRateLimitInterval = 100 * time.Millisecond
	DefaultRateLimitBurst    = 10
	DefaultCacheTTL          = time.Hour
	DefaultUpdateEvery       = 24 * time.Hour
	DefaultUpdateTimeout     = 10 * time.Minute

	configMaxmindService        = "maxmind"
	configMaxmindTypeWebService = "web_service"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen          string                 `json:"listen"`
	WorkerPoolSize  uint                   `json:"worker_pool_size"`
	BasicAuth       configBasicAuth        `json:"basic_auth"`
	Service         string                 `json:"service"`
	Maxmind         configMaxmind          `json:"maxmind"`
	Legacy          configLegacy           `json:"legacy"`
	DefaultLocation map[string]interface{} `json:"default_location"`
}

func (c config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}

	return DefaultListen
}

func (c config) GetWorkerPoolSize() int {
	return int(c.WorkerPoolSize)
}

// GetService returns a kind of the backend. A value 'maxmind' means
// database or web service, depending on maxmind.type. Unknown values
// are returned as is.
func (c config) GetService() geolib.ServiceKind {
	if c.Service != configMaxmindService {
		return geolib.ServiceKind(c.Service)
	}

	if c.Maxmind.Type == configMaxmindTypeWebService {
		return geolib.ServiceMaxmindWebService
	}

	return geolib.ServiceMaxmindDatabase
}

func (c config) GetResolverConfig() geolib.Config {
	return geolib.Config{
		Service:         c.GetService(),
		DefaultLocation: c.DefaultLocation,
	}
}

type configBasicAuth struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (c configBasicAuth) Enabled() bool {
	return c.User != "" || c.Password != ""
}

type configMaxmind struct {
	Type              string   `json:"type"`
	UserID            string   `json:"user_id"`
	LicenseKey        string   `json:"license_key"`
	DatabasePath      string   `json:"database_path"`
	UpdateURL         string   `json:"update_url"`
	UpdateEvery       duration `json:"update_every"`
	HTTPTimeout       duration `json:"http_timeout"`
	RateLimitInterval duration `json:"rate_limit_interval"`
	RateLimitBurst    uint     `json:"rate_limit_burst"`
	CacheSize         uint     `json:"cache_size"`
	CacheTTL          duration `json:"cache_ttl"`
}

func (c configMaxmind) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return DefaultHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c configMaxmind) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c configMaxmind) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func (c configMaxmind) GetUpdateEvery() time.Duration {
	if c.UpdateEvery.Duration == 0 {
		return DefaultUpdateEvery
	}

	return c.UpdateEvery.Duration
}

func (c configMaxmind) GetCacheSize() uint {
	return c.CacheSize
}

func (c configMaxmind) GetCacheTTL() time.Duration {
	if c.CacheTTL.Duration == 0 {
		return DefaultCacheTTL
	}

	return c.CacheTTL.Duration
}

type configLegacy struct {
	DatabasePath string `json:"database_path"`
}

func parseConfig(path string) (*config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	return parseConfigContent(content)
}

func parseConfigContent(content []byte) (*config, error) {
	conf := config{}
	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse hjson: %w", err)
	}

	rawBytes, err := json.Marshal(rawMap)
	if err != nil {
		return nil, fmt.Errorf("cannot convert hjson: %w", err)
	}

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("incorrect config: %w", err)
	}

	if _, _, err := net.SplitHostPort(conf.GetListen()); err != nil {
		return nil, fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	if _, err := geolib.MergeDefaultLocation(conf.DefaultLocation); err != nil {
		return nil, fmt.Errorf("incorrect default_location: %w", err)
	}

	return &conf, nil
}
