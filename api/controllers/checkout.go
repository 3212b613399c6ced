package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/api/responses"
	"github.com/atacadobras/atacado-backend/api/validators"
	checkoutsvc "github.com/atacadobras/atacado-backend/internal/checkout"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

type quotesRequest struct {
	DestinationCEP string `json:"destination_cep" validate:"required"`
}

type rateView struct {
	ID           int64           `json:"id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"delivery_days"`
}

type groupQuotesView struct {
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	PhysicalUnits int             `json:"physical_units"`
	MeetsMinimum  bool            `json:"meets_minimum"`
	Rates         []rateView      `json:"rates"`
	Error         string          `json:"error,omitempty"`
	Stale         bool            `json:"stale,omitempty"`
}

type selectedRateRequest struct {
	SupplierID    uuid.UUID       `json:"supplier_id" validate:"required"`
	CarrierRateID int64           `json:"carrier_rate_id" validate:"required"`
	CarrierName   string          `json:"carrier_name" validate:"required"`
	Price         decimal.Decimal `json:"price" validate:"required"`
}

type confirmRequest struct {
	DestinationCEP string                `json:"destination_cep" validate:"required"`
	SelectedRates  []selectedRateRequest `json:"selected_rates" validate:"required,min=1,dive"`
	Method         string                `json:"method" validate:"required,oneof=pix credit_card boleto"`
	CardHash       string                `json:"card_hash,omitempty"`
}

type orderOutcomeView struct {
	OrderID      uuid.UUID `json:"order_id"`
	SupplierID   uuid.UUID `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	Charged      bool      `json:"charged"`
	Error        string    `json:"error,omitempty"`
}

type confirmResultView struct {
	State            string             `json:"state"`
	Orders           []orderOutcomeView `json:"orders"`
	AbortedSuppliers []uuid.UUID        `json:"aborted_suppliers,omitempty"`
	PaymentCode      string             `json:"payment_code,omitempty"`
}

// CheckoutQuotes groups the cart by supplier and returns shipping rates per group.
func CheckoutQuotes(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quotesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, err := svc.Quotes(r.Context(), buyerID, payload.DestinationCEP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]groupQuotesView, 0, len(groups))
		for _, group := range groups {
			view := groupQuotesView{
				SupplierID:    group.SupplierID,
				SupplierName:  group.SupplierName,
				Subtotal:      group.Subtotal,
				PhysicalUnits: group.PhysicalUnits,
				MeetsMinimum:  group.MeetsMinimum,
				Rates:         make([]rateView, 0, len(group.Rates)),
				Error:         group.QuoteError,
				Stale:         group.Stale,
			}
			for _, rate := range group.Rates {
				view.Rates = append(view.Rates, rateView{
					ID:           rate.ID,
					Carrier:      rate.Carrier,
					Service:      rate.Service,
					Price:        rate.Price,
					DeliveryDays: rate.DeliveryDays,
				})
			}
			views = append(views, view)
		}

		responses.WriteSuccess(w, views)
	}
}

// CheckoutConfirm submits the cart: one order per supplier group, then one
// payment per order.
func CheckoutConfirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing payment method"))
			return
		}

		selected := make(map[uuid.UUID]checkoutsvc.SelectedRate, len(payload.SelectedRates))
		for _, rate := range payload.SelectedRates {
			selected[rate.SupplierID] = checkoutsvc.SelectedRate{
				CarrierRateID: rate.CarrierRateID,
				CarrierName:   rate.CarrierName,
				Price:         rate.Price,
			}
		}

		result, err := svc.Confirm(r.Context(), buyerID, checkoutsvc.ConfirmInput{
			DestinationCEP: payload.DestinationCEP,
			SelectedRates:  selected,
			Method:         method,
			CardHash:       payload.CardHash,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := confirmResultView{
			State:            result.State.String(),
			Orders:           make([]orderOutcomeView, 0, len(result.Orders)),
			AbortedSuppliers: result.AbortedSuppliers,
			PaymentCode:      result.PaymentCode,
		}
		for _, outcome := range result.Orders {
			view.Orders = append(view.Orders, orderOutcomeView{
				OrderID:      outcome.Order.ID,
				SupplierID:   outcome.Order.SupplierID,
				SupplierName: outcome.SupplierName,
				Charged:      outcome.Charged,
				Error:        outcome.Error,
			})
		}

		responses.WriteSuccess(w, view)
	}
}
