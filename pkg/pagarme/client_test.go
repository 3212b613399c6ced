package pagarme

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atacadobras/atacado-backend/pkg/config"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), config.PagarmeConfig{
		APIKey:              "ak_test_123",
		Env:                 "sandbox",
		BaseURLOver:         baseURL,
		PlatformRecipientID: "re_platform",
		CallbackURL:         "https://api.atacadobras.com.br/webhooks/payment",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	cfg := config.PagarmeConfig{APIKey: "ak", PlatformRecipientID: "re"}
	if _, err := NewClient(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
	if _, err := NewClient(context.Background(), config.PagarmeConfig{PlatformRecipientID: "re"}, testLogger()); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient(context.Background(), config.PagarmeConfig{APIKey: "ak"}, testLogger()); err == nil {
		t.Fatal("expected error for missing recipient id")
	}
}

func TestCreateTransaction(t *testing.T) {
	var gotBody createTransactionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":7421337,"tid":7421337,"status":"waiting_payment","pix_qr_code":"00020126330014BR.GOV.BCB.PIX"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	tx, err := c.CreateTransaction(context.Background(), TransactionParams{
		AmountCents: 16550,
		Method:      "pix",
		OrderID:     "ord-1",
		SplitRules: []SplitRule{
			{RecipientID: "re_supplier", AmountCents: 14550, Liable: true, ChargeProcessingFee: false},
			{RecipientID: "re_platform", AmountCents: 2000, Liable: false, ChargeProcessingFee: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if gotBody.APIKey != "ak_test_123" {
		t.Fatalf("unexpected api key %q", gotBody.APIKey)
	}
	if gotBody.Amount != 16550 || gotBody.PaymentMethod != "pix" {
		t.Fatalf("unexpected charge fields: %+v", gotBody)
	}
	if len(gotBody.SplitRules) != 2 {
		t.Fatalf("expected 2 split rules, got %d", len(gotBody.SplitRules))
	}
	if gotBody.SplitRules[0].AmountCents+gotBody.SplitRules[1].AmountCents != gotBody.Amount {
		t.Fatal("split rules do not sum to charged amount")
	}
	if !gotBody.SplitRules[0].Liable || gotBody.SplitRules[1].Liable {
		t.Fatalf("unexpected liability flags: %+v", gotBody.SplitRules)
	}
	if gotBody.Metadata["order_id"] != "ord-1" {
		t.Fatalf("unexpected metadata: %+v", gotBody.Metadata)
	}
	if gotBody.PostbackURL == "" {
		t.Fatal("expected postback url")
	}

	if tx.ID != 7421337 || tx.Status != "waiting_payment" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.PixQRCode == "" {
		t.Fatal("expected pix qr code")
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	c := testClient(t, "http://unreachable.invalid")

	_, err := c.CreateTransaction(context.Background(), TransactionParams{AmountCents: 0, Method: "pix", SplitRules: []SplitRule{{}}})
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	_, err = c.CreateTransaction(context.Background(), TransactionParams{AmountCents: 100, Method: "pix"})
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing split rules, got %v", err)
	}
}

func TestCreateTransactionRefusedUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"errors":[{"type":"action_forbidden","message":"Transação não autorizada."}]}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.CreateTransaction(context.Background(), TransactionParams{
		AmountCents: 100,
		Method:      "credit_card",
		SplitRules:  []SplitRule{{RecipientID: "re_supplier", AmountCents: 100, Liable: true}},
	})
	if err == nil {
		t.Fatal("expected error for upstream rejection")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
