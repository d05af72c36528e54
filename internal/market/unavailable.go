package market

import (
	"context"
	"fmt"

	"github.com/ppiankov/finfact/internal/model"
)

// Unavailable is the null source used when no market-data endpoint is
// configured; every claim then verifies as unverifiable.
type Unavailable struct{}

// Name returns the feed name
func (Unavailable) Name() string {
	return "none"
}

// GetSnapshot always fails
func (Unavailable) GetSnapshot(ctx context.Context, ticker string) (*model.MarketSnapshot, error) {
	return nil, fmt.Errorf("market data source not configured")
}
