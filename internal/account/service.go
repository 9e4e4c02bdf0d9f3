// Package account signs the shopper in and out against the remote API.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/gearstore/internal/session"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	registrationFailedMessage = "Registration failed"
)

type usersAPI interface {
	Login(ctx context.Context, username, password string) (*storeapi.Tokens, error)
	Register(ctx context.Context, username, email, password string) error
	Profile(ctx context.Context) (*storeapi.Profile, error)
}

type sessionHolder interface {
	Login(ctx context.Context, tokens session.Tokens) error
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	Invalidate(ctx context.Context, err error) bool
}

// Service defines the account operations used by the controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) error
	Register(ctx context.Context, req RegisterRequest) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*storeapi.Profile, error)
}

// LoginRequest carries the shopper's credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries a new account's details.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type service struct {
	api     usersAPI
	session sessionHolder
	logg    *logger.Logger
}

// ServiceParams bundles the dependencies required to build an account service.
type ServiceParams struct {
	API     usersAPI
	Session sessionHolder
	Logger  *logger.Logger
}

// NewService constructs the account service.
func NewService(params ServiceParams) (Service, error) {
	if params.API == nil {
		return nil, errors.New("users api is required")
	}
	if params.Session == nil {
		return nil, errors.New("session holder is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: params.API, session: params.Session, logg: logg}, nil
}

// Login exchanges credentials for tokens and stores them.
func (s *service) Login(ctx context.Context, req LoginRequest) error {
	tokens, err := s.api.Login(ctx, req.Username, req.Password)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, messageOr(err, invalidCredentialsMessage))
		}
		return err
	}
	return s.session.Login(ctx, session.Tokens{Access: tokens.Access, Refresh: tokens.Refresh})
}

// Register creates the account and signs the shopper in with the same credentials.
func (s *service) Register(ctx context.Context, req RegisterRequest) error {
	if err := s.api.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			typed := pkgerrors.As(err)
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, messageOr(err, registrationFailedMessage)).
				WithDetails(typed.Details())
		}
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "username", strings.TrimSpace(req.Username)), "account registered")
	return s.Login(ctx, LoginRequest{Username: req.Username, Password: req.Password})
}

// Logout clears the stored tokens.
func (s *service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// Profile fetches the shopper's profile. A rejected token ends the session.
func (s *service) Profile(ctx context.Context) (*storeapi.Profile, error) {
	if !s.session.IsAuthenticated(ctx) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view your profile")
	}
	profile, err := s.api.Profile(ctx)
	if err != nil {
		if s.session.Invalidate(ctx, err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "session expired; please sign in again")
		}
		return nil, err
	}
	return profile, nil
}

func messageOr(err error, fallback string) string {
	reqErr, ok := storeapi.AsRequestError(err)
	if !ok || reqErr.Message == "" || reqErr.Message == storeapi.GenericMessage {
		return fallback
	}
	return reqErr.Message
}
