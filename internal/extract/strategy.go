// Package extract holds the site-specific extraction strategies. Each
// strategy turns one item into a raw token, an explicit absence, or an
// extraction error; none of them returns an error across the batch.
package extract

import (
	"context"

	"github.com/law-makers/dutyscrape/pkg/models"
)

// Strategy is implemented by every target site
type Strategy interface {
	// Name identifies the strategy in logs and metrics
	Name() string

	// Kind is the attribute the extracted value represents
	Kind() models.Kind

	// Extract processes one item. It must honour ctx and never block unbounded.
	Extract(ctx context.Context, item models.Item) models.Outcome
}

// Preparer is implemented by strategies that need one-time session setup
// before the first item.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Prepare runs s's one-time setup if it has any
func Prepare(ctx context.Context, s Strategy) error {
	if p, ok := s.(Preparer); ok {
		return p.Prepare(ctx)
	}
	return nil
}
