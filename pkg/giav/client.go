package giav

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvidalgarcia/golfviajes-backend/pkg/config"
	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
	"github.com/mvidalgarcia/golfviajes-backend/pkg/logger"
)

const (
	MethodCreateBooking = "CrearReserva"

	apiKeyHeader    = "X-Giav-Api-Key"
	maxResponseSize = 1 << 20
)

var (
	errBaseURLRequired = errors.New("giav base url is required")
	errAPIKeyRequired  = errors.New("giav api key is required")
	errLoggerRequired  = errors.New("giav logger is required")
)

// call is the generic request body of the GIAV RPC endpoint.
type call struct {
	Method string `json:"metodo"`
	Params any    `json:"parametros"`
}

// callResponse is the generic response wrapper every GIAV method returns.
type callResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"resultado,omitempty"`
}

// Exchange retains the raw request and response of a single GIAV call so the
// sync log can store exactly what crossed the wire.
type Exchange struct {
	Request  json.RawMessage
	Response json.RawMessage
}

// Client talks to the GIAV back office over its JSON RPC endpoint with
// centralized auth, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	logger     *logger.Logger
}

// NewClient validates the GIAV credentials and builds the wrapper.
func NewClient(ctx context.Context, cfg config.GiavConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid giav base url: %w", err)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		logger:     logg,
	}

	logg.Info(ctx, "giav client initialized")
	return c, nil
}

// CreateBooking pushes a booking into GIAV and returns the created reserva.
// The returned Exchange always carries the raw request, and the raw response
// when one was received, so callers can persist both even on failure.
func (c *Client) CreateBooking(ctx context.Context, params BookingParams) (*BookingResult, *Exchange, error) {
	c.log(ctx, "request", MethodCreateBooking, map[string]any{
		"external_ref": params.ExternalRef,
		"lines":        len(params.Lines),
		"total_pvp":    params.TotalPVP.String(),
	})

	raw, exchange, err := c.Call(ctx, MethodCreateBooking, params)
	if err != nil {
		c.log(ctx, "error", MethodCreateBooking, map[string]any{"error": err.Error()})
		return nil, exchange, err
	}

	var result BookingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, exchange, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding giav booking result")
	}
	if strings.TrimSpace(result.BookingID) == "" {
		return nil, exchange, pkgerrors.New(pkgerrors.CodeDependency, "giav returned no booking id")
	}

	c.log(ctx, "response", MethodCreateBooking, map[string]any{
		"booking_id": result.BookingID,
		"status":     result.Status,
	})
	return &result, exchange, nil
}

// Call executes a single GIAV RPC method and returns its raw result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, *Exchange, error) {
	if c == nil || c.httpClient == nil {
		return nil, nil, errors.New("giav client not initialized")
	}
	if strings.TrimSpace(method) == "" {
		return nil, nil, errors.New("giav method is required")
	}

	body, err := json.Marshal(call{Method: method, Params: params})
	if err != nil {
		return nil, nil, fmt.Errorf("encoding giav call: %w", err)
	}
	exchange := &Exchange{Request: json.RawMessage(body)}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/api/v1/rpc", bytes.NewReader(body))
	if err != nil {
		return nil, exchange, fmt.Errorf("building giav request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, exchange, c.mapTransportError(err, method)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, exchange, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reading giav %s response", method))
	}
	exchange.Response = json.RawMessage(respBody)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, exchange, pkgerrors.New(
			domainCodeForStatus(resp.StatusCode),
			fmt.Sprintf("giav %s returned HTTP %d", method, resp.StatusCode),
		)
	}

	var parsed callResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, exchange, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding giav %s response", method))
	}
	if !parsed.OK {
		msg := parsed.Error
		if msg == "" {
			msg = "giav call rejected without error detail"
		}
		return nil, exchange, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("giav %s: %s", method, msg))
	}

	return parsed.Result, exchange, nil
}

func (c *Client) mapTransportError(err error, method string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("giav %s timed out", method))
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("giav %s timed out", method))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("giav %s failed", method))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, method string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"method": method,
		"phase":  phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("giav %s", method), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("giav %s", phase))
	}
}
