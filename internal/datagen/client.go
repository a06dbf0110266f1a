package datagen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mpc-backend/internal/core/types"

	"github.com/go-resty/resty/v2"
)

const (
	dataEndpoint   = "/api/v1/animals/data"
	schemaEndpoint = "/api/v1/animals/schema"
)

type DataRequest struct {
	Seed               int64 `json:"seed"`
	NumberOfDatapoints int   `json:"number_of_datapoints"`
}

// Client fetches synthetic animals from a remote data service.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
	}
}

func (c *Client) Generate(ctx context.Context, seed int64, count int) ([]types.FeatureRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: number of datapoints must be greater than zero, got %d", types.ErrValidation, count)
	}

	var records []types.FeatureRecord
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(DataRequest{Seed: seed, NumberOfDatapoints: count}).
		SetResult(&records).
		Post(dataEndpoint)
	if err != nil {
		slog.Error("unable to reach data service", "error", err)
		return nil, fmt.Errorf("%w: data service: %w", types.ErrConnectivity, err)
	}

	if !res.IsSuccess() {
		slog.Error("data service returned error", "status_code", res.StatusCode(), "body", res.String())
		if res.StatusCode() >= 500 {
			return nil, fmt.Errorf("%w: data service returned status %d", types.ErrConnectivity, res.StatusCode())
		}
		return nil, fmt.Errorf("%w: data service rejected request with status %d: %s", types.ErrValidation, res.StatusCode(), res.String())
	}

	if len(records) != count {
		return nil, fmt.Errorf("data service returned %d records, expected %d", len(records), count)
	}

	return records, nil
}

func (c *Client) Schema(ctx context.Context) (Schema, error) {
	var schema Schema
	res, err := c.client.R().
		SetContext(ctx).
		SetResult(&schema).
		Get(schemaEndpoint)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: data service: %w", types.ErrConnectivity, err)
	}
	if !res.IsSuccess() {
		return Schema{}, fmt.Errorf("%w: data service returned status %d", types.ErrConnectivity, res.StatusCode())
	}
	return schema, nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Schema(ctx)
	return err
}
