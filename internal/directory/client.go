package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the capability set the orchestrator needs from the Hospital
// Directory API. Tests substitute a fake implementation.
type Client interface {
	// CreateHospital registers one hospital tagged with the batch identifier
	// and returns the upstream hospital id.
	CreateHospital(ctx context.Context, name, address, phone, batchID string) (int64, error)

	// ActivateBatch activates every hospital created under the batch.
	ActivateBatch(ctx context.Context, batchID string) error
}

// Config holds the outbound connection settings for the directory API.
type Config struct {
	BaseURL        string
	TimeoutSeconds float64
}

// HTTPClient is the production Client backed by resty. Every call is
// independently bounded by the configured timeout; the client itself never
// retries.
type HTTPClient struct {
	client *resty.Client
}

// NewClient creates a directory API client.
func NewClient(cfg *Config) *HTTPClient {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(time.Duration(cfg.TimeoutSeconds * float64(time.Second)))
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Content-Type", "application/json")

	return &HTTPClient{client: client}
}

type createHospitalRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	BatchID string `json:"batch_id"`
}

type createHospitalResponse struct {
	ID int64 `json:"id"`
}

// CreateHospital implements Client.
func (c *HTTPClient) CreateHospital(ctx context.Context, name, address, phone, batchID string) (int64, error) {
	var result createHospitalResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(createHospitalRequest{
			Name:    name,
			Address: address,
			Phone:   phone,
			BatchID: batchID,
		}).
		SetResult(&result).
		Post("/hospitals")

	if err != nil {
		return 0, classifyTransportError(err)
	}
	if resp.IsError() {
		return 0, upstreamError(resp)
	}

	return result.ID, nil
}

// ActivateBatch implements Client.
func (c *HTTPClient) ActivateBatch(ctx context.Context, batchID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/batches/%s/activate", batchID))

	if err != nil {
		return classifyTransportError(err)
	}
	if resp.IsError() {
		return upstreamError(resp)
	}

	return nil
}

// classifyTransportError separates timeouts from other connection failures.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}
	return &TransportError{Err: err}
}

// upstreamError builds an UpstreamError from a non-2xx response, preferring
// the JSON "detail" field when the body carries one.
func upstreamError(resp *resty.Response) error {
	message := ""
	body := resp.Body()
	if len(body) > 0 {
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
			message = payload.Detail
		} else {
			message = string(body)
		}
	}
	return &UpstreamError{StatusCode: resp.StatusCode(), Message: message}
}
