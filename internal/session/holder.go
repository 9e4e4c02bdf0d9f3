// Package session holds the shopper's bearer credentials in durable storage.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/gearstore/pkg/auth"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Tokens is the credential pair written on login.
type Tokens struct {
	Access  string
	Refresh string
}

// Holder reports authentication by token presence alone. Expired tokens are
// discovered when the API rejects them; callers pass that error to Invalidate.
type Holder struct {
	store storage.Storage
	logg  *logger.Logger
}

// NewHolder builds a holder over the shared durable store.
func NewHolder(store storage.Storage, logg *logger.Logger) (*Holder, error) {
	if store == nil {
		return nil, errors.New("session storage is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Holder{store: store, logg: logg}, nil
}

// Login persists both tokens.
func (h *Holder) Login(ctx context.Context, tokens Tokens) error {
	access := strings.TrimSpace(tokens.Access)
	if access == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access token is required")
	}
	if err := h.store.Set(ctx, AccessTokenKey, access); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist access token")
	}
	if err := h.store.Set(ctx, RefreshTokenKey, strings.TrimSpace(tokens.Refresh)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist refresh token")
	}

	ctx = h.withSubject(ctx, access)
	h.logg.Info(ctx, "session started")
	return nil
}

// Logout removes both tokens. Logging out without a session is a no-op.
func (h *Holder) Logout(ctx context.Context) error {
	if err := h.store.Delete(ctx, AccessTokenKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete access token")
	}
	if err := h.store.Delete(ctx, RefreshTokenKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete refresh token")
	}
	h.logg.Info(ctx, "session ended")
	return nil
}

// Token returns the stored access token, or "" for a guest.
func (h *Holder) Token(ctx context.Context) (string, error) {
	token, err := h.store.Get(ctx, AccessTokenKey)
	if storage.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read access token")
	}
	return token, nil
}

// IsAuthenticated is a presence check; no signature or expiry validation happens locally.
func (h *Holder) IsAuthenticated(ctx context.Context) bool {
	token, err := h.Token(ctx)
	if err != nil {
		h.logg.Warn(h.logg.WithField(ctx, "error", err.Error()), "reading session failed; treating shopper as guest")
		return false
	}
	return token != ""
}

// Subject returns the user id carried by the access token, or "" when absent
// or undecodable.
func (h *Holder) Subject(ctx context.Context) string {
	token, err := h.Token(ctx)
	if err != nil || token == "" {
		return ""
	}
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return ""
	}
	return claims.UserID
}

// Invalidate ends the session when err is an authorization rejection from
// the API and reports whether it did.
func (h *Holder) Invalidate(ctx context.Context, err error) bool {
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		return false
	}
	h.logg.Warn(ctx, "access token rejected; clearing session")
	if logoutErr := h.Logout(ctx); logoutErr != nil {
		h.logg.Error(ctx, "clearing rejected session failed", logoutErr)
	}
	return true
}

func (h *Holder) withSubject(ctx context.Context, token string) context.Context {
	claims, err := auth.ParseUnverified(token)
	if err != nil || claims.UserID == "" {
		return ctx
	}
	return h.logg.WithUserID(ctx, claims.UserID)
}
