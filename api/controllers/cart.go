package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atacadobras/atacado-backend/api/responses"
	"github.com/atacadobras/atacado-backend/api/validators"
	cartsvc "github.com/atacadobras/atacado-backend/internal/cart"
	"github.com/atacadobras/atacado-backend/internal/checkout/helpers"
	"github.com/atacadobras/atacado-backend/pkg/enums"
	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/logger"
)

type cartLineRequest struct {
	ProductID          uuid.UUID       `json:"product_id" validate:"required"`
	SupplierID         uuid.UUID       `json:"supplier_id" validate:"required"`
	ProductName        string          `json:"product_name" validate:"required"`
	SupplierName       string          `json:"supplier_name" validate:"required"`
	ImageURL           string          `json:"image_url"`
	WholesaleUnit      string          `json:"wholesale_unit" validate:"required,oneof=DZ PC CX"`
	WholesaleQuantity  int             `json:"wholesale_quantity" validate:"required,gt=0"`
	UnitPriceWholesale decimal.Decimal `json:"unit_price_wholesale" validate:"required"`
	UnitWeightKg       float64         `json:"unit_weight_kg"`
	WidthCm            float64         `json:"width_cm"`
	HeightCm           float64         `json:"height_cm"`
	LengthCm           float64         `json:"length_cm"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

type cartLineView struct {
	ProductID          uuid.UUID       `json:"product_id"`
	SupplierID         uuid.UUID       `json:"supplier_id"`
	ProductName        string          `json:"product_name"`
	SupplierName       string          `json:"supplier_name"`
	ImageURL           string          `json:"image_url,omitempty"`
	WholesaleUnit      string          `json:"wholesale_unit"`
	WholesaleQuantity  int             `json:"wholesale_quantity"`
	UnitPriceWholesale decimal.Decimal `json:"unit_price_wholesale"`
	PhysicalUnits      int             `json:"physical_units"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type cartGroupView struct {
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	PhysicalUnits int             `json:"physical_units"`
	MeetsMinimum  bool            `json:"meets_minimum"`
}

type cartView struct {
	BuyerID            uuid.UUID       `json:"buyer_id"`
	Lines              []cartLineView  `json:"lines"`
	Groups             []cartGroupView `json:"groups"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalPhysicalUnits int             `json:"total_physical_units"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func newCartView(c *cartsvc.Cart, minimumUnits int) cartView {
	view := cartView{
		BuyerID:            c.BuyerID,
		Lines:              make([]cartLineView, 0, len(c.Lines)),
		Groups:             []cartGroupView{},
		Subtotal:           c.Subtotal(),
		TotalPhysicalUnits: c.TotalPhysicalUnits(),
		UpdatedAt:          c.UpdatedAt,
	}
	for _, group := range helpers.GroupBySupplier(c.Lines) {
		view.Groups = append(view.Groups, cartGroupView{
			SupplierID:    group.SupplierID,
			SupplierName:  group.SupplierName,
			Subtotal:      group.Subtotal(),
			PhysicalUnits: group.PhysicalUnits(),
			MeetsMinimum:  group.MeetsMinimum(minimumUnits),
		})
	}
	for _, line := range c.Lines {
		view.Lines = append(view.Lines, cartLineView{
			ProductID:          line.ProductID,
			SupplierID:         line.SupplierID,
			ProductName:        line.ProductName,
			SupplierName:       line.SupplierName,
			ImageURL:           line.ImageURL,
			WholesaleUnit:      line.WholesaleUnit.String(),
			WholesaleQuantity:  line.WholesaleQuantity,
			UnitPriceWholesale: line.UnitPriceWholesale,
			PhysicalUnits:      line.PhysicalUnits(),
			Subtotal:           line.Subtotal(),
		})
	}
	return view
}

// CartFetch returns the buyer's current session cart.
func CartFetch(svc cartsvc.Service, minimumUnits int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.Get(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(current, minimumUnits))
	}
}

// CartAddLine adds a line to the cart, merging quantity for repeated products.
func CartAddLine(svc cartsvc.Service, minimumUnits int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := enums.ParseWholesaleUnit(payload.WholesaleUnit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing wholesale unit"))
			return
		}

		current, err := svc.AddLine(r.Context(), buyerID, cartsvc.Line{
			ProductID:          payload.ProductID,
			SupplierID:         payload.SupplierID,
			ProductName:        payload.ProductName,
			SupplierName:       payload.SupplierName,
			ImageURL:           payload.ImageURL,
			WholesaleUnit:      unit,
			WholesaleQuantity:  payload.WholesaleQuantity,
			UnitPriceWholesale: payload.UnitPriceWholesale,
			UnitWeightKg:       payload.UnitWeightKg,
			WidthCm:            payload.WidthCm,
			HeightCm:           payload.HeightCm,
			LengthCm:           payload.LengthCm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(current, minimumUnits))
	}
}

// CartUpdateQuantity sets a line's wholesale quantity. Zero or below removes the line.
func CartUpdateQuantity(svc cartsvc.Service, minimumUnits int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.UpdateQuantity(r.Context(), buyerID, id, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(current, minimumUnits))
	}
}

// CartRemoveLine drops a product from the cart.
func CartRemoveLine(svc cartsvc.Service, minimumUnits int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.RemoveLine(r.Context(), buyerID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(current, minimumUnits))
	}
}

// CartClear deletes the whole session cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
