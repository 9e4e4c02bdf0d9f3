package account

import (
	"context"
	"testing"

	"github.com/angelmondragon/gearstore/internal/session"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage/memory"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

type fakeUsers struct {
	loginErr    error
	registerErr error
	profileErr  error
	registered  []string
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (*storeapi.Tokens, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &storeapi.Tokens{Access: "acc-" + username, Refresh: "ref-" + username}, nil
}

func (f *fakeUsers) Register(_ context.Context, username, email, password string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, username)
	return nil
}

func (f *fakeUsers) Profile(context.Context) (*storeapi.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &storeapi.Profile{User: "ada", GearPoints: 40}, nil
}

func newService(t *testing.T, users *fakeUsers) (Service, *session.Holder) {
	t.Helper()
	holder, err := session.NewHolder(memory.New(), logger.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	svc, err := NewService(ServiceParams{API: users, Session: holder, Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, holder
}

func requestErr(code pkgerrors.Code, status int, message string) error {
	return pkgerrors.Wrap(code, &storeapi.RequestError{Status: status, Message: message}, message)
}

func TestLoginStoresTokens(t *testing.T) {
	ctx := context.Background()
	svc, holder := newService(t, &fakeUsers{})
	if err := svc.Login(ctx, LoginRequest{Username: "ada", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	token, _ := holder.Token(ctx)
	if token != "acc-ada" {
		t.Fatalf("unexpected token %q", token)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if holder.IsAuthenticated(ctx) {
		t.Fatal("expected guest after logout")
	}
}

func TestLoginRejected(t *testing.T) {
	users := &fakeUsers{loginErr: requestErr(pkgerrors.CodeUnauthorized, 401, "No active account found with the given credentials")}
	svc, holder := newService(t, users)
	err := svc.Login(context.Background(), LoginRequest{Username: "ada", Password: "wrong"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if pkgerrors.As(err).Message() != "No active account found with the given credentials" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
	if holder.IsAuthenticated(context.Background()) {
		t.Fatal("failed login must not store tokens")
	}
}

func TestRegisterAutoLogin(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{}
	svc, holder := newService(t, users)
	if err := svc.Register(ctx, RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "password1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(users.registered) != 1 || !holder.IsAuthenticated(ctx) {
		t.Fatal("expected registration followed by login")
	}
}

func TestRegisterFieldErrors(t *testing.T) {
	fieldErr := pkgerrors.Wrap(pkgerrors.CodeValidation,
		&storeapi.RequestError{Status: 400, Message: "Username taken.", Fields: map[string]string{"username": "Username taken."}},
		"Username taken.").WithDetails(map[string]string{"username": "Username taken."})
	svc, holder := newService(t, &fakeUsers{registerErr: fieldErr})

	err := svc.Register(context.Background(), RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "password1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]string)
	if details["username"] != "Username taken." {
		t.Fatalf("unexpected details %v", details)
	}
	if holder.IsAuthenticated(context.Background()) {
		t.Fatal("failed registration must not sign in")
	}
}

func TestProfileInvalidatesRejectedSession(t *testing.T) {
	ctx := context.Background()
	users := &fakeUsers{}
	svc, holder := newService(t, users)

	if _, err := svc.Profile(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("guests should get unauthorized, got %v", err)
	}

	_ = holder.Login(ctx, session.Tokens{Access: "stale"})
	profile, err := svc.Profile(ctx)
	if err != nil || profile.GearPoints != 40 {
		t.Fatalf("unexpected profile %+v err=%v", profile, err)
	}

	users.profileErr = requestErr(pkgerrors.CodeUnauthorized, 401, "Token is invalid or expired")
	if _, err := svc.Profile(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if holder.IsAuthenticated(ctx) {
		t.Fatal("rejected token should be cleared")
	}
}
