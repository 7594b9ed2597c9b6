package app

import (
	"context"
	"sync"

	"github.com/danbi-garden/danbi/internal/buildinfo"
	"github.com/danbi-garden/danbi/internal/conf"
)

// Context carries settings and the lazily built App to CLI commands.
// Commands that only read settings never open the store.
type Context struct {
	ConfigFile string
	Settings   *conf.Settings

	opts []Option

	mu  sync.Mutex
	app *App
}

// NewContext creates a Context. opts are applied when the App is built.
func NewContext(opts ...Option) *Context {
	return &Context{opts: opts}
}

// LoadSettings reads the configuration once.
func (c *Context) LoadSettings() (*conf.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Settings != nil {
		return c.Settings, nil
	}
	settings, err := conf.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	settings.Version = buildinfo.Current().GetVersion()
	c.Settings = settings
	return settings, nil
}

// App builds the component graph on first use.
func (c *Context) App(ctx context.Context) (*App, error) {
	settings, err := c.LoadSettings()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app != nil {
		return c.app, nil
	}
	a, err := New(ctx, settings, c.opts...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Close releases the App if one was built.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}
