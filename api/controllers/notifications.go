package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gearstore/api/responses"
	"github.com/angelmondragon/gearstore/internal/notify"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// ToastFeed exposes the live toasts.
type ToastFeed interface {
	Active() []notify.Toast
	Dismiss(id string) bool
}

// ListNotifications returns the toasts that have not yet expired, oldest first.
func ListNotifications(feed ToastFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications unavailable"))
			return
		}
		toasts := feed.Active()
		if toasts == nil {
			toasts = []notify.Toast{}
		}
		responses.WriteSuccess(w, toasts)
	}
}

// DismissNotification removes a toast before its timer fires.
func DismissNotification(feed ToastFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications unavailable"))
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if !feed.Dismiss(id) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found"))
			return
		}
		responses.WriteNoContent(w)
	}
}
