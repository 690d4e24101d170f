package service

import "context"

type RateFetcher interface {
	Fetch(ctx context.Context, seriesID, startDate, endDate string) ([]byte, error)
}
