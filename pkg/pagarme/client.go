package pagarme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atacadobras/atacado-backend/pkg/config"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	transactionsPath = "/1/transactions"
)

var (
	errAPIKeyRequired      = errors.New("pagarme api key is required")
	errRecipientIDRequired = errors.New("pagarme platform recipient id is required")
	errLoggerRequiredErr   = errors.New("pagarme logger is required")
	errInvalidEnv          = fmt.Errorf("pagarme environment must be %q or %q", sandboxEnv, productionEnv)
)

// Both environments share the host; sandbox is selected by the test api key.
const defaultBaseURL = "https://api.pagar.me"

// SplitRule routes a slice of a transaction to one recipient. Amounts are centavos.
type SplitRule struct {
	RecipientID         string `json:"recipient_id"`
	AmountCents         int64  `json:"amount"`
	Liable              bool   `json:"liable"`
	ChargeProcessingFee bool   `json:"charge_processing_fee"`
}

// TransactionParams describes one charge with its split.
type TransactionParams struct {
	AmountCents int64
	Method      string
	SplitRules  []SplitRule
	OrderID     string
	CardHash    string
}

// Transaction is the gateway's view of a created charge.
type Transaction struct {
	ID        int64
	Status    string
	PixQRCode string
	BoletoURL string
}

// Client wraps the Pagar.me transactions API with centralized auth, logging, and error mapping.
type Client struct {
	httpClient          *http.Client
	apiKey              string
	environment         string
	baseURL             string
	platformRecipientID string
	callbackURL         string
	logger              *logger.Logger
}

// NewClient initializes the Pagar.me wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PagarmeConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequiredErr
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	recipientID := strings.TrimSpace(cfg.PlatformRecipientID)
	if recipientID == "" {
		return nil, errRecipientIDRequired
	}

	baseURL := defaultBaseURL
	if override := strings.TrimSpace(cfg.BaseURLOver); override != "" {
		baseURL = strings.TrimRight(override, "/")
	}

	c := &Client{
		httpClient:          &http.Client{Timeout: 20 * time.Second},
		apiKey:              apiKey,
		environment:         env,
		baseURL:             baseURL,
		platformRecipientID: recipientID,
		callbackURL:         strings.TrimSpace(cfg.CallbackURL),
		logger:              logg,
	}

	logg.Info(ctx, "pagarme client initialized")
	return c, nil
}

// Environment reports the normalized Pagar.me environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// PlatformRecipientID returns the marketplace's own recipient id.
func (c *Client) PlatformRecipientID() string {
	if c == nil {
		return ""
	}
	return c.platformRecipientID
}

type createTransactionRequest struct {
	APIKey        string            `json:"api_key"`
	Amount        int64             `json:"amount"`
	PaymentMethod string            `json:"payment_method"`
	CardHash      string            `json:"card_hash,omitempty"`
	SplitRules    []SplitRule       `json:"split_rules"`
	PostbackURL   string            `json:"postback_url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Async         bool              `json:"async"`
}

type createTransactionResponse struct {
	ID        json.Number `json:"id"`
	TID       json.Number `json:"tid"`
	Status    string      `json:"status"`
	PixQRCode string      `json:"pix_qr_code"`
	BoletoURL string      `json:"boleto_url"`
}

// CreateTransaction charges the buyer and applies the split rules atomically.
func (c *Client) CreateTransaction(ctx context.Context, params TransactionParams) (*Transaction, error) {
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction amount must be positive")
	}
	if len(params.SplitRules) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction requires split rules")
	}

	body := createTransactionRequest{
		APIKey:        c.apiKey,
		Amount:        params.AmountCents,
		PaymentMethod: params.Method,
		CardHash:      params.CardHash,
		SplitRules:    params.SplitRules,
		PostbackURL:   c.callbackURL,
	}
	if params.OrderID != "" {
		body.Metadata = map[string]string{"order_id": params.OrderID}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding transaction request")
	}

	c.log(ctx, "request", "create_transaction", map[string]any{
		"order_id": params.OrderID,
		"amount":   params.AmountCents,
		"method":   params.Method,
		"splits":   len(params.SplitRules),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transactionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building transaction request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log(ctx, "error", "create_transaction", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling pagarme")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading pagarme response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log(ctx, "error", "create_transaction", map[string]any{
			"status": resp.StatusCode,
			"body":   truncate(string(raw), 512),
		})
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("pagarme returned status %d", resp.StatusCode))
	}

	var decoded createTransactionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding pagarme response")
	}

	id, err := decoded.ID.Int64()
	if err != nil {
		id, _ = strconv.ParseInt(decoded.TID.String(), 10, 64)
	}

	tx := &Transaction{
		ID:        id,
		Status:    decoded.Status,
		PixQRCode: decoded.PixQRCode,
		BoletoURL: decoded.BoletoURL,
	}

	c.log(ctx, "response", "create_transaction", map[string]any{
		"transaction_id": tx.ID,
		"status":         tx.Status,
	})
	return tx, nil
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
		c.logger.Error(ctx, fmt.Sprintf("pagarme %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("pagarme %s", phase))
	}
}
