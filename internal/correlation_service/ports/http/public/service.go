package public

import (
	"context"

	"github.com/langowen/corra/internal/entities"
)

type Service interface {
	Analyze(ctx context.Context, startDate, endDate string) (*entities.CorrelationResult, error)
}
