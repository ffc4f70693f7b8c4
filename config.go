package crossing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goccy/go-yaml"
)

const (
	DefaultCycleMin    = 5 * time.Second
	DefaultCycleMax    = 8 * time.Second
	DefaultTick        = 10 * time.Millisecond
	DefaultHookTimeout = 5 * time.Second
	DefaultListenAddr  = ":8080"
)

type Config struct {
	Responder *ResponderConfig `yaml:"responder"`
	Lights    []*LightConfig   `yaml:"lights"`
	Hook      *HookConfig      `yaml:"hook"`
}

type ResponderConfig struct {
	Addr string `yaml:"addr"`
}

type HookConfig struct {
	OnGreen *CommandConfig `yaml:"on_green"`
}

type CommandConfig struct {
	Run     string        `yaml:"run"`
	Timeout time.Duration `yaml:"timeout"`
}

// LightConfig configures a single traffic light. CycleMin and CycleMax bound
// the randomized cycle duration (inclusive); Tick is the polling interval of
// both the cycling loop and WaitForGreen.
type LightConfig struct {
	ID       int           `yaml:"id"`
	CycleMin time.Duration `yaml:"cycle_min"`
	CycleMax time.Duration `yaml:"cycle_max"`
	Tick     time.Duration `yaml:"tick"`

	// Rand replaces the light's cycle-duration source. Tests inject a fixed
	// sequence to make toggle times deterministic.
	Rand Rand `yaml:"-"`
}

func (c *LightConfig) applyDefaults() {
	if c.CycleMin == 0 {
		c.CycleMin = DefaultCycleMin
	}
	if c.CycleMax == 0 {
		c.CycleMax = DefaultCycleMax
	}
	if c.Tick == 0 {
		c.Tick = DefaultTick
	}
}

// LoadConfig reads and validates a configuration from a file path or an
// http(s):// or s3:// URL.
func LoadConfig(ctx context.Context, src string) (*Config, error) {
	config := &Config{}
	b, err := loadURL(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, err
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Responder == nil {
		c.Responder = &ResponderConfig{}
	}
	if c.Responder.Addr == "" {
		c.Responder.Addr = DefaultListenAddr
	}
	if len(c.Lights) == 0 {
		c.Lights = []*LightConfig{{ID: 1}}
	}
	for _, lc := range c.Lights {
		lc.applyDefaults()
	}
	if c.Hook != nil && c.Hook.OnGreen != nil && c.Hook.OnGreen.Timeout == 0 {
		c.Hook.OnGreen.Timeout = DefaultHookTimeout
	}
}

// Validate reports every problem at once rather than the first one found.
func (c *Config) Validate() error {
	var errs error
	seen := make(map[int]bool, len(c.Lights))
	for _, lc := range c.Lights {
		if seen[lc.ID] {
			errs = errors.Join(errs, fmt.Errorf("light %d: duplicate id", lc.ID))
		}
		seen[lc.ID] = true
		if lc.CycleMin <= 0 {
			errs = errors.Join(errs, fmt.Errorf("light %d: cycle_min must be positive", lc.ID))
		}
		if lc.CycleMin > lc.CycleMax {
			errs = errors.Join(errs, fmt.Errorf("light %d: cycle_min %s exceeds cycle_max %s", lc.ID, lc.CycleMin, lc.CycleMax))
		}
		if lc.Tick <= 0 {
			errs = errors.Join(errs, fmt.Errorf("light %d: tick must be positive", lc.ID))
		}
	}
	return errs
}

func loadURL(ctx context.Context, s string) ([]byte, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", s, err)
	}
	switch u.Scheme {
	case "http", "https":
		return loadHTTP(ctx, u)
	case "file", "": // empty scheme is treated as file
		return os.ReadFile(u.Path)
	case "s3":
		return loadS3(ctx, u)
	default:
		return nil, fmt.Errorf("invalid url %s: scheme must be http, https, file, or s3", s)
	}
}

func loadHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func loadS3(ctx context.Context, u *url.URL) ([]byte, error) {
	awscfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	svc := s3.NewFromConfig(awscfg)
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	out, err := svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
