package crossing

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Version is set by the command entry point at build time.
var Version = "dev"

// Crossing runs a set of independent traffic lights: one cycling simulation
// and one green watcher per light, plus the status responder. The lights do
// not coordinate with each other.
type Crossing struct {
	Config *Config

	lights    []*TrafficLight
	responder *Responder
	hook      *CommandHook
}

// Run loads the configuration and drives a Crossing until ctx is done.
func Run(ctx context.Context, cli *CLI) error {
	if cli.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	cfg, err := LoadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	c, err := NewCrossing(cfg)
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

func NewCrossing(cfg *Config) (*Crossing, error) {
	c := &Crossing{Config: cfg}
	for _, lc := range cfg.Lights {
		c.lights = append(c.lights, NewTrafficLight(lc))
	}
	c.responder = NewResponder(cfg.Responder, c.lights)
	if cfg.Hook != nil && cfg.Hook.OnGreen != nil {
		hook, err := NewCommandHook(cfg.Hook.OnGreen)
		if err != nil {
			return nil, err
		}
		c.hook = hook
	}
	return c, nil
}

// Run starts every light and blocks until ctx is cancelled. A clean shutdown
// returns nil.
func (c *Crossing) Run(ctx context.Context) error {
	logger.Info("starting", "version", Version, "lights", len(c.lights))
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range c.lights {
		if err := l.Simulate(ctx); err != nil {
			return err
		}
		l := l
		g.Go(func() error {
			return c.watchGreen(ctx, l)
		})
	}
	g.Go(func() error {
		return c.responder.Run(ctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchGreen announces every observed green and fires the configured hook.
// Hook failures are logged and the watch goes on.
func (c *Crossing) watchGreen(ctx context.Context, l *TrafficLight) error {
	for {
		if err := l.WaitForGreen(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		l.logger.Info("green observed")
		if c.hook == nil {
			continue
		}
		if err := c.hook.Run(ctx, l.ID(), PhaseGreen); err != nil {
			l.logger.Warn("hook failed", "error", err)
		}
	}
}
