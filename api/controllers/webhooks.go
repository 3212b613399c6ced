package controllers

import (
	"net/http"

	"github.com/atacadobras/atacado-backend/api/responses"
	"github.com/atacadobras/atacado-backend/api/validators"
	webhooksvc "github.com/atacadobras/atacado-backend/internal/webhooks"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

// PaymentWebhook ingests gateway settlement events. Duplicates and unmatched
// ids are acknowledged with 200 so the sender stops retrying them.
func PaymentWebhook(svc *webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload webhooksvc.PaymentEvent
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandlePayment(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}

// ShipmentWebhook ingests carrier status events.
func ShipmentWebhook(svc *webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload webhooksvc.ShipmentEvent
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandleShipment(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
