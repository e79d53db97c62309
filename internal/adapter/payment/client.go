package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

const (
	readyPath   = "/online/v1/payment/ready"
	approvePath = "/online/v1/payment/approve"

	opReady   = "ready"
	opApprove = "approve"
)

var tracer = otel.Tracer("adapter/payment")

// Gateway exposes the two-step ready/approve payment flow.
type Gateway interface {
	Ready(ctx context.Context, req model.PaymentReadyRequest) (*model.PaymentReady, error)
	Approve(ctx context.Context, req model.PaymentApproveRequest) (*model.PaymentApproval, error)
}

// HTTPClient implements Gateway over the gateway's JSON API.
type HTTPClient struct {
	baseURL    *url.URL
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// errorResponse mirrors the gateway error payload.
type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// NewHTTPClient creates a payment client with the given request timeout.
func NewHTTPClient(baseURL, secretKey string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse payment url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("payment url must be absolute")
	}
	if secretKey == "" {
		return nil, fmt.Errorf("payment secret key must be set")
	}
	return &HTTPClient{
		baseURL:   parsed,
		secretKey: secretKey,
		logger:    logger,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Ready registers a payment and returns the redirect URLs for the buyer.
func (c *HTTPClient) Ready(ctx context.Context, req model.PaymentReadyRequest) (*model.PaymentReady, error) {
	ctx, span := tracer.Start(ctx, "payment.ready",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("order.id", req.PartnerOrderID),
			attribute.Int64("payment.total_amount", req.TotalAmount),
		),
	)
	defer span.End()

	var out model.PaymentReady
	if err := c.post(ctx, opReady, readyPath, req, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if out.TID == "" {
		err := &domainErrors.PaymentError{Op: opReady, StatusCode: http.StatusOK, Detail: "missing tid"}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.tid", out.TID))
	return &out, nil
}

// Approve confirms a payment after the buyer authorised it.
func (c *HTTPClient) Approve(ctx context.Context, req model.PaymentApproveRequest) (*model.PaymentApproval, error) {
	ctx, span := tracer.Start(ctx, "payment.approve",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("order.id", req.PartnerOrderID),
			attribute.String("payment.tid", req.TID),
		),
	)
	defer span.End()

	var out model.PaymentApproval
	if err := c.post(ctx, opApprove, approvePath, req, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.aid", out.AID))
	return &out, nil
}

func (c *HTTPClient) post(ctx context.Context, op, endpointPath string, body, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, endpointPath)

	payload, err := json.Marshal(body)
	if err != nil {
		return &domainErrors.PaymentError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return &domainErrors.PaymentError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "SECRET_KEY "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domainErrors.PaymentError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domainErrors.PaymentError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		detail := resp.Status
		var gwErr errorResponse
		if json.Unmarshal(data, &gwErr) == nil && gwErr.ErrorMessage != "" {
			detail = fmt.Sprintf("%s (code %d)", gwErr.ErrorMessage, gwErr.ErrorCode)
		}
		c.logger.Error("payment request failed",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(data)),
		)
		return &domainErrors.PaymentError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &domainErrors.PaymentError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
