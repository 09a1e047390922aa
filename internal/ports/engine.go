package ports

import (
	"context"

	"github.com/bnema/colony-cli/internal/domain"
)

// EngineClient talks to the remote simulation engine. Implementations map
// unknown ids to domain.ErrSessionNotFound, network failures to
// domain.ErrTransientNetwork and refused starts to domain.ErrEngineRejected.
type EngineClient interface {
	Start(ctx context.Context, cfg domain.SessionConfig) (domain.RemoteID, error)
	FetchState(ctx context.Context, id domain.RemoteID) (domain.GameState, error)
	Reset(ctx context.Context, id domain.RemoteID, cfg domain.SessionConfig) error
	Stop(ctx context.Context, id domain.RemoteID) error
}
