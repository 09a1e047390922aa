package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/colony-cli/internal/domain"
)

// Controls drives a manager's sessions by key with one shared config, the
// way an interactive board does.
type Controls struct {
	manager *Manager
	config  domain.SessionConfig
}

func NewControls(manager *Manager, config domain.SessionConfig) *Controls {
	return &Controls{manager: manager, config: config}
}

func (c *Controls) ListSessions() []SessionSnapshot {
	return c.manager.ListSessions()
}

// Launch adds a session and starts it. A session whose start fails stays
// in the manager as Idle so it can be retried.
func (c *Controls) Launch(ctx context.Context) (SessionKey, error) {
	key, session := c.manager.AddSession()
	if err := session.Start(ctx, c.config); err != nil {
		return key, fmt.Errorf("launch session %d: %w", key, err)
	}
	return key, nil
}

func (c *Controls) TogglePause(key SessionKey) error {
	session, err := c.manager.Session(key)
	if err != nil {
		return err
	}
	return session.TogglePause()
}

func (c *Controls) SpeedUp(key SessionKey) (time.Duration, error) {
	session, err := c.manager.Session(key)
	if err != nil {
		return 0, err
	}
	return session.SpeedUp(), nil
}

func (c *Controls) SlowDown(key SessionKey) (time.Duration, error) {
	session, err := c.manager.Session(key)
	if err != nil {
		return 0, err
	}
	return session.SlowDown(), nil
}

// StartOrReset rebuilds an active session's world, or starts a session
// that is Idle or Terminated.
func (c *Controls) StartOrReset(ctx context.Context, key SessionKey) error {
	session, err := c.manager.Session(key)
	if err != nil {
		return err
	}
	if session.Status().Active() {
		return session.ResetConfig(ctx, c.config)
	}
	return session.Start(ctx, c.config)
}

func (c *Controls) Stop(ctx context.Context, key SessionKey) error {
	session, err := c.manager.Session(key)
	if err != nil {
		return err
	}
	return session.Stop(ctx)
}

func (c *Controls) Remove(ctx context.Context, key SessionKey) error {
	return c.manager.RemoveSession(ctx, key)
}
