// Package connection owns the lifecycle of the engine handle of a source.
package connection

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/logger"
	"github.com/xaionaro-go/streamreader/source"
)

// Manager opens, tracks and releases one engine handle. It is not safe
// for concurrent use.
type Manager struct {
	Engine engine.Engine

	config *source.Config
	handle engine.Handle
	state  State
}

func NewManager(e engine.Engine) *Manager {
	return &Manager{
		Engine: e,
		state:  StateClosed,
	}
}

// Open (re)establishes the connection described by cfg, closing any
// previously opened handle first. On failure the error is logged, the
// state becomes StateFailed and an OpenError is returned.
func (m *Manager) Open(
	ctx context.Context,
	cfg *source.Config,
) (_err error) {
	ctx = belt.WithField(ctx, "url", cfg.RedactedURL())
	logger.Debugf(ctx, "Open")
	defer func() { logger.Debugf(ctx, "/Open: %v", _err) }()

	m.Close(ctx)
	m.config = cfg

	handle, err := m.Engine.Open(ctx, engine.OpenRequest{
		URL:            cfg.URL(),
		AuthKey:        cfg.AuthKey(),
		Options:        cfg.Options(),
		ConnectTimeout: cfg.ConnectTimeout(),
		ReadTimeout:    cfg.ReadTimeout(),
	})
	if err == nil && handle == nil {
		err = fmt.Errorf("the engine returned neither a handle nor an error")
	}
	if err != nil {
		openErr := OpenError{
			Kind: classifyOpenError(err),
			URL:  cfg.RedactedURL(),
			Err:  err,
		}
		m.state = StateFailed
		ctx = belt.WithField(ctx, "open_error_kind", openErr.Kind.String())
		ctx = belt.WithField(ctx, "options", cfg.Options())
		ctx = belt.WithField(ctx, "connect_timeout", cfg.ConnectTimeout())
		logger.Errorf(ctx, "%v", openErr)
		return openErr
	}

	m.handle = handle
	m.state = StateOpen
	return nil
}

// Close releases the handle if open. It never fails: release errors
// (and panics) of the engine are logged and discarded.
func (m *Manager) Close(ctx context.Context) {
	if m.state != StateOpen || m.handle == nil {
		return
	}
	handle := m.handle
	m.handle = nil
	m.state = StateClosed

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "got panic while closing %s: %v", m.configString(), r)
		}
	}()
	if err := handle.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to close %s: %v", m.configString(), err)
	}
}

// Reset closes the handle and forgets the config, leaving the manager as
// if it was never opened.
func (m *Manager) Reset(ctx context.Context) {
	m.Close(ctx)
	m.config = nil
	m.state = StateClosed
}

// IsOpen reports whether a handle is established. It does not contact the
// remote peer: a stream that died since the last read still reports true.
func (m *Manager) IsOpen() bool {
	return m.state == StateOpen && m.handle != nil
}

func (m *Manager) State() State {
	return m.state
}

// Handle returns the open handle, or nil.
func (m *Manager) Handle() engine.Handle {
	if !m.IsOpen() {
		return nil
	}
	return m.handle
}

func (m *Manager) Config() *source.Config {
	return m.config
}

func (m *Manager) configString() string {
	if m.config == nil {
		return "<no source>"
	}
	return m.config.String()
}
