package melhorenvio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/pkg/config"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), config.MelhorEnvioConfig{
		Token:       "test-token",
		Env:         "sandbox",
		BaseURLOver: baseURL,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), config.MelhorEnvioConfig{Token: "tok"}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
	if _, err := NewClient(context.Background(), config.MelhorEnvioConfig{}, testLogger()); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewClient(context.Background(), config.MelhorEnvioConfig{Token: "tok", Env: "staging"}, testLogger()); err == nil {
		t.Fatal("expected error for invalid environment")
	}
}

func TestCalculate(t *testing.T) {
	var gotAuth string
	var gotBody calculateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":1,"name":"PAC","price":"24.90","delivery_time":7,"company":{"name":"Correios"}},
			{"id":2,"name":"SEDEX","price":"41.50","delivery_time":3,"company":{"name":"Correios"}},
			{"id":3,"name":".Package","price":"0.00","delivery_time":0,"company":{"name":"Jadlog"},"error":"dimensions exceeded"}
		]`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	rates, err := c.Calculate(context.Background(), QuoteRequest{
		FromPostalCode: "01310100",
		ToPostalCode:   "20040020",
		Volumes: []Volume{{
			Width: 20, Height: 15, Length: 30, Weight: 4.8,
			InsuranceValue: decimal.RequireFromString("1200.00"),
			Quantity:       1,
		}},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotBody.From.PostalCode != "01310100" || gotBody.To.PostalCode != "20040020" {
		t.Fatalf("unexpected postal codes in request: %+v", gotBody)
	}
	if len(gotBody.Products) != 1 || gotBody.Products[0].Weight != 4.8 {
		t.Fatalf("unexpected products in request: %+v", gotBody.Products)
	}

	// Carrier-flagged errors are dropped.
	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(rates))
	}
	if rates[0].ID != 1 || rates[0].Carrier != "Correios" || rates[0].Service != "PAC" {
		t.Fatalf("unexpected first rate: %+v", rates[0])
	}
	if !rates[0].Price.Equal(decimal.RequireFromString("24.90")) {
		t.Fatalf("unexpected first rate price: %s", rates[0].Price)
	}
	if rates[1].DeliveryDays != 3 {
		t.Fatalf("unexpected delivery days: %d", rates[1].DeliveryDays)
	}
}

func TestCalculateUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Unauthenticated."}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Calculate(context.Background(), QuoteRequest{
		FromPostalCode: "01310100",
		ToPostalCode:   "20040020",
		Volumes:        []Volume{{Weight: 1, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for upstream failure")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCalculateSkipsUnparseablePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"name":"PAC","price":"not-a-number","delivery_time":7,"company":{"name":"Correios"}},
			{"id":2,"name":"SEDEX","price":"10.00","delivery_time":2,"company":{"name":"Correios"}}
		]`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	rates, err := c.Calculate(context.Background(), QuoteRequest{
		FromPostalCode: "01310100",
		ToPostalCode:   "20040020",
		Volumes:        []Volume{{Weight: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(rates) != 1 || rates[0].ID != 2 {
		t.Fatalf("expected only parseable rate, got %+v", rates)
	}
}
