package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/gearstore/api/responses"
	"github.com/angelmondragon/gearstore/api/validators"
	"github.com/angelmondragon/gearstore/internal/checkout"
	"github.com/angelmondragon/gearstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// CheckoutService is the orchestrator surface exposed over HTTP.
type CheckoutService interface {
	Begin(ctx context.Context) (*checkout.View, error)
	Summarize(ctx context.Context, zoneID string) checkout.Summary
	Submit(ctx context.Context, form checkout.Form) (*checkout.Handoff, error)
	Abandon()
	State() enums.CheckoutState
	HandleCallback(ctx context.Context, reference string) (*checkout.Settlement, error)
}

type checkoutViewResponse struct {
	*checkout.View
	State enums.CheckoutState `json:"state"`
}

// CheckoutView enters checkout and returns the form model. The optional zone
// query parameter recomputes the summary for that delivery zone.
func CheckoutView(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		view, err := svc.Begin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if zone := strings.TrimSpace(r.URL.Query().Get("zone")); zone != "" {
			view.Summary = svc.Summarize(r.Context(), zone)
		}
		responses.WriteSuccess(w, checkoutViewResponse{View: view, State: svc.State()})
	}
}

// CheckoutSubmit opens the gateway session. With redirect=true the shopper is
// sent to the gateway, or back to the cart when it is empty.
func CheckoutSubmit(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		redirect, err := validators.ParseQueryBool(r, "redirect")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var form checkout.Form
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handoff, err := svc.Submit(r.Context(), form)
		if err != nil {
			if redirect && svc.State() == enums.CheckoutStateIdle && isEmptyCart(err) {
				http.Redirect(w, r, checkout.CartPath, http.StatusSeeOther)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if redirect {
			http.Redirect(w, r, handoff.AuthorizationURL, http.StatusSeeOther)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, handoff)
	}
}

// CheckoutAbandon leaves the checkout view; a submission still in flight is discarded.
func CheckoutAbandon(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		svc.Abandon()
		responses.WriteNoContent(w)
	}
}

// PaymentCallback verifies the reference the gateway redirected back with.
func PaymentCallback(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		query := r.URL.Query()
		reference := query.Get("reference")
		if strings.TrimSpace(reference) == "" {
			reference = query.Get("trxref")
		}

		settlement, err := svc.HandleCallback(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlement)
	}
}

func isEmptyCart(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		return false
	}
	details, ok := typed.Details().(map[string]string)
	return ok && details["redirect"] == checkout.CartPath
}
