package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/api/responses"
	"github.com/atacadobras/atacado-backend/api/validators"
	commissionsvc "github.com/atacadobras/atacado-backend/internal/commission"
	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/logger"
	"github.com/atacadobras/atacado-backend/pkg/pagination"
)

type setRateRequest struct {
	Percentage decimal.Decimal `json:"percentage" validate:"required"`
}

type rateHistoryView struct {
	ID         uuid.UUID       `json:"id"`
	Percentage decimal.Decimal `json:"percentage"`
	IsActive   bool            `json:"is_active"`
	SetBy      uuid.UUID       `json:"set_by"`
	SetAt      time.Time       `json:"set_at"`
}

func newRateView(rate *models.CommissionRate) rateHistoryView {
	return rateHistoryView{
		ID:         rate.ID,
		Percentage: rate.Percentage,
		IsActive:   rate.IsActive,
		SetBy:      rate.SetBy,
		SetAt:      rate.SetAt,
	}
}

// CommissionActive returns the platform's current commission percentage.
func CommissionActive(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		percentage, err := svc.ActivePercentage(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"percentage": percentage})
	}
}

// CommissionSet versions in a new active rate.
func CommissionSet(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setRateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := svc.SetRate(r.Context(), payload.Percentage, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRateView(rate))
	}
}

// CommissionHistory lists past rates, newest first.
func CommissionHistory(svc commissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rates, err := svc.History(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]rateHistoryView, 0, len(rates))
		for i := range rates {
			views = append(views, newRateView(&rates[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
