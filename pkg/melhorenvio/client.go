package melhorenvio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/config"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	calculatePath = "/api/v2/me/shipment/calculate"
	userAgent     = "AtacadoBras (suporte@atacadobras.com.br)"
)

var (
	errTokenRequired  = errors.New("melhor envio token is required")
	errLoggerRequired = errors.New("melhor envio logger is required")
	errInvalidEnv     = fmt.Errorf("melhor envio environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://sandbox.melhorenvio.com.br",
	productionEnv: "https://melhorenvio.com.br",
}

// Volume is one parcel in a quote request. Dimensions are centimeters, weight kilograms.
type Volume struct {
	Width          float64         `json:"width"`
	Height         float64         `json:"height"`
	Length         float64         `json:"length"`
	Weight         float64         `json:"weight"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
	Quantity       int             `json:"quantity"`
}

// QuoteRequest asks the carrier API for rates between two postal codes.
type QuoteRequest struct {
	FromPostalCode string
	ToPostalCode   string
	Volumes        []Volume
}

// Rate is one shipping option returned by the carrier API.
type Rate struct {
	ID           int64
	Carrier      string
	Service      string
	Price        decimal.Decimal
	DeliveryDays int
}

// Client wraps the Melhor Envio shipment API with centralized auth, logging, and error mapping.
type Client struct {
	httpClient  *http.Client
	token       string
	environment string
	baseURL     string
	logger      *logger.Logger
}

// NewClient initializes the Melhor Envio wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MelhorEnvioConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errTokenRequired
	}

	baseURL := baseURLs[env]
	if override := strings.TrimSpace(cfg.BaseURLOver); override != "" {
		baseURL = strings.TrimRight(override, "/")
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		token:       token,
		environment: env,
		baseURL:     baseURL,
		logger:      logg,
	}

	logg.Info(ctx, "melhor envio client initialized")
	return c, nil
}

// Environment reports the normalized Melhor Envio environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

type calculateRequest struct {
	From     postalCode    `json:"from"`
	To       postalCode    `json:"to"`
	Products []calcProduct `json:"products"`
}

type postalCode struct {
	PostalCode string `json:"postal_code"`
}

type calcProduct struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Length         float64 `json:"length"`
	Weight         float64 `json:"weight"`
	InsuranceValue float64 `json:"insurance_value"`
	Quantity       int     `json:"quantity"`
}

type calculateResponseItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	DeliveryTime int    `json:"delivery_time"`
	Company      struct {
		Name string `json:"name"`
	} `json:"company"`
	Error string `json:"error"`
}

// Calculate fetches shipping rates for one parcel set. Options the carrier flags
// with an error field are dropped from the result.
func (c *Client) Calculate(ctx context.Context, req QuoteRequest) ([]Rate, error) {
	body := calculateRequest{
		From: postalCode{PostalCode: req.FromPostalCode},
		To:   postalCode{PostalCode: req.ToPostalCode},
	}
	for _, v := range req.Volumes {
		insurance, _ := v.InsuranceValue.Float64()
		body.Products = append(body.Products, calcProduct{
			Width:          v.Width,
			Height:         v.Height,
			Length:         v.Length,
			Weight:         v.Weight,
			InsuranceValue: insurance,
			Quantity:       v.Quantity,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding quote request")
	}

	c.log(ctx, "request", "calculate", map[string]any{
		"from":    req.FromPostalCode,
		"to":      req.ToPostalCode,
		"volumes": len(req.Volumes),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+calculatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building quote request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log(ctx, "error", "calculate", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling melhor envio")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading melhor envio response")
	}

	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", "calculate", map[string]any{
			"status": resp.StatusCode,
			"body":   truncate(string(raw), 512),
		})
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("melhor envio returned status %d", resp.StatusCode))
	}

	var items []calculateResponseItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding melhor envio response")
	}

	rates := make([]Rate, 0, len(items))
	for _, item := range items {
		if item.Error != "" {
			continue
		}
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			c.log(ctx, "error", "calculate", map[string]any{
				"rate_id": item.ID,
				"error":   fmt.Sprintf("unparseable price %q", item.Price),
			})
			continue
		}
		rates = append(rates, Rate{
			ID:           item.ID,
			Carrier:      item.Company.Name,
			Service:      item.Name,
			Price:        price,
			DeliveryDays: item.DeliveryTime,
		})
	}

	c.log(ctx, "response", "calculate", map[string]any{"rates": len(rates)})
	return rates, nil
}

func normalizeEnv(env string) (string, error) {
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	case "":
		return sandboxEnv, nil
	default:
		return "", errInvalidEnv
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("melhor envio %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("melhor envio %s", phase))
	}
}
