package valet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
)

type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(client *http.Client, baseURL string) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Fetch downloads the CSV observations of a series between two dates.
// The dates are passed through as given.
func (c *HTTPClient) Fetch(ctx context.Context, seriesID, startDate, endDate string) ([]byte, error) {
	const op = "valet.Fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.seriesURL(seriesID, startDate, endDate), nil)
	if err != nil {
		return nil, fetchErr(op, errors.Wrap(err, "create request"))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fetchErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchErr(op, fmt.Errorf("bad status: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchErr(op, errors.Wrap(err, "read body"))
	}

	return body, nil
}

func (c *HTTPClient) seriesURL(seriesID, startDate, endDate string) string {
	return c.baseURL + "/observations/" + url.PathEscape(seriesID) + "/csv" +
		"?start_date=" + url.QueryEscape(startDate) +
		"&end_date=" + url.QueryEscape(endDate)
}

func fetchErr(op string, err error) error {
	return errors.Wrap(fmt.Errorf("%w: %w", entities.ErrFetch, err), op)
}
