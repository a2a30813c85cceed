package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ekamauln/livo-mobile-order/api/responses"
	"github.com/ekamauln/livo-mobile-order/api/validators"
	"github.com/ekamauln/livo-mobile-order/internal/assign"
	"github.com/ekamauln/livo-mobile-order/internal/station"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// StationService is the dispatcher surface the bridge exposes.
type StationService interface {
	ListOrders(ctx context.Context) ([]backend.Order, error)
	OpenOrder(ctx context.Context, orderID int) (*backend.Order, error)
	CloseOrder()
	TargetItem(ctx context.Context, itemID int) (backend.LineItem, error)
	SubmitQuantity(ctx context.Context, itemID int, qtyText string) bool
	Complete(ctx context.Context) error
	RequestPending(ctx context.Context, username, password string) error
	StartAssign(ctx context.Context, pickerID int) (backend.User, error)
	PauseAssign()
	SubmitAssign(ctx context.Context) (*assign.Outcome, error)
	RemoveTracking(value string)
	Status() station.Status
}

// SessionService is the operator auth surface.
type SessionService interface {
	Login(ctx context.Context, username, password string) (*backend.User, error)
	Logout()
	Current() (backend.User, bool)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type pendingRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type quantityRequest struct {
	Quantity string `json:"quantity" validate:"required"`
}

type assignStartRequest struct {
	PickerID int `json:"picker_id" validate:"required,min=1"`
}

func AuthLogin(sessions SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := sessions.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AuthLogout(sessions SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Logout()
		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

func OrdersList(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func OrderOpen(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := urlParamInt(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.OpenOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderClose(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CloseOrder()
		responses.WriteSuccess(w, map[string]bool{"closed": true})
	}
}

func ItemTarget(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := urlParamInt(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.TargetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ItemQuantity(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := urlParamInt(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req quantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		applied := svc.SubmitQuantity(r.Context(), itemID, req.Quantity)
		responses.WriteSuccess(w, map[string]bool{"applied": applied})
	}
}

func OrderComplete(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Complete(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"completed": true})
	}
}

func OrderPending(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pendingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestPending(r.Context(), req.Username, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"pending": true})
	}
}

func AssignStart(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignStartRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		picker, err := svc.StartAssign(r.Context(), req.PickerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, picker)
	}
}

func AssignPause(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.PauseAssign()
		responses.WriteSuccess(w, map[string]bool{"paused": true})
	}
}

func AssignSubmit(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := svc.SubmitAssign(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

func AssignRemoveTracking(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RemoveTracking(chi.URLParam(r, "tracking"))
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

func StationStatus(svc StationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Status())
	}
}

func urlParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a positive integer")
	}
	return value, nil
}
