package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/api/responses"
	"github.com/atacadobras/atacado-backend/api/validators"
	orderssvc "github.com/atacadobras/atacado-backend/internal/orders"
	"github.com/atacadobras/atacado-backend/pkg/db/models"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

type orderLineItemView struct {
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	WholesaleUnit      string          `json:"wholesale_unit"`
	WholesaleQuantity  int             `json:"wholesale_quantity"`
	UnitPriceWholesale decimal.Decimal `json:"unit_price_wholesale"`
	LineSubtotal       decimal.Decimal `json:"line_subtotal"`
}

type shippingView struct {
	CarrierName  *string         `json:"carrier_name,omitempty"`
	TrackingCode *string         `json:"tracking_code,omitempty"`
	Cost         decimal.Decimal `json:"cost"`
	Status       string          `json:"status"`
}

type paymentView struct {
	TotalCharged       decimal.Decimal `json:"total_charged"`
	SupplierPayout     decimal.Decimal `json:"supplier_payout"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	Status             string          `json:"status"`
	Method             string          `json:"method"`
	PaymentCode        *string         `json:"payment_code,omitempty"`
}

type orderView struct {
	ID              uuid.UUID           `json:"id"`
	BuyerID         uuid.UUID           `json:"buyer_id"`
	SupplierID      uuid.UUID           `json:"supplier_id"`
	ProductSubtotal decimal.Decimal     `json:"product_subtotal"`
	Status          string              `json:"status"`
	Items           []orderLineItemView `json:"items,omitempty"`
	Shipping        *shippingView       `json:"shipping,omitempty"`
	Payment         *paymentView        `json:"payment,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderPageView struct {
	Orders     []orderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type registerShipmentRequest struct {
	CarrierName  string `json:"carrier_name" validate:"required"`
	TrackingCode string `json:"tracking_code" validate:"required"`
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:              order.ID,
		BuyerID:         order.BuyerID,
		SupplierID:      order.SupplierID,
		ProductSubtotal: order.ProductSubtotal,
		Status:          order.Status.String(),
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderLineItemView{
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			WholesaleUnit:      item.WholesaleUnit.String(),
			WholesaleQuantity:  item.WholesaleQuantity,
			UnitPriceWholesale: item.UnitPriceWholesale,
			LineSubtotal:       item.LineSubtotal,
		})
	}
	if order.Shipping != nil {
		view.Shipping = &shippingView{
			CarrierName:  order.Shipping.CarrierName,
			TrackingCode: order.Shipping.TrackingCode,
			Cost:         order.Shipping.Cost,
			Status:       order.Shipping.Status.String(),
		}
	}
	if order.Payment != nil {
		view.Payment = &paymentView{
			TotalCharged:       order.Payment.TotalCharged,
			SupplierPayout:     order.Payment.SupplierPayout,
			PlatformCommission: order.Payment.PlatformCommission,
			Status:             order.Payment.Status.String(),
			Method:             order.Payment.Method.String(),
			PaymentCode:        order.Payment.PaymentCode,
		}
	}
	return view
}

func newOrderPageView(page *orderssvc.Page) orderPageView {
	view := orderPageView{
		Orders:     make([]orderView, 0, len(page.Orders)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Orders {
		view.Orders = append(view.Orders, newOrderView(&page.Orders[i]))
	}
	return view
}

// OrderList pages through the caller's own orders, scoped by role.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := roleFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var page *orderssvc.Page
		switch role {
		case enums.ActorRoleBuyer:
			buyerID, err := userIDFromRequest(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			page, err = svc.ListBuyerOrders(r.Context(), buyerID, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		case enums.ActorRoleSupplier:
			supplierID, err := supplierIDFromRequest(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			page, err = svc.ListSupplierOrders(r.Context(), supplierID, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "listing requires a buyer or supplier account"))
			return
		}

		responses.WriteSuccess(w, newOrderPageView(page))
	}
}

// OrderDetail loads one order with its line items, shipment, and payment.
func OrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := roleFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := actorIDForRole(r, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderTransition applies a manual status change by the supplier or an admin.
func OrderTransition(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := roleFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := actorIDForRole(r, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing order status"))
			return
		}

		order, err := svc.TransitionStatus(r.Context(), orderID, target, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}

// OrderRegisterShipment records a carrier and tracking code by hand.
func OrderRegisterShipment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := supplierIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload registerShipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RegisterShipment(r.Context(), orderID, supplierID, orderssvc.RegisterShipmentInput{
			CarrierName:  payload.CarrierName,
			TrackingCode: payload.TrackingCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderView(order))
	}
}

func actorIDForRole(r *http.Request, role enums.ActorRole) (uuid.UUID, error) {
	if role == enums.ActorRoleSupplier {
		return supplierIDFromRequest(r)
	}
	return userIDFromRequest(r)
}
