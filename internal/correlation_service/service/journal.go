package service

import (
	"context"

	"github.com/langowen/corra/internal/entities"
)

// Journal keeps a record of finished analyses. It is never read back.
type Journal interface {
	SaveAnalysis(ctx context.Context, dr entities.DateRange, res *entities.CorrelationResult) error
}

type Publisher interface {
	PublishAnalysis(ctx context.Context, dr entities.DateRange, res *entities.CorrelationResult) error
}
