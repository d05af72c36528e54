package market

import (
	"context"

	"github.com/ppiankov/finfact/internal/model"
)

// Source is the market-data collaborator. Implementations may have
// their own provider fallback internally; the pipeline treats one
// Source as a single logical feed.
type Source interface {
	// Name identifies the feed, used as VerificationResult.DataSource
	Name() string

	// GetSnapshot fetches the current snapshot for a ticker
	GetSnapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error)
}
