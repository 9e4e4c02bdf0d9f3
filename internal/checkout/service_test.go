package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearstore/internal/cart"
	"github.com/angelmondragon/gearstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage/memory"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

type fakeAPI struct {
	initResp  *storeapi.InitializePaymentResponse
	initErr   error
	initReq   *storeapi.InitializePaymentRequest
	initCalls int
	onInit    func()

	verifyResp  *storeapi.VerifyPaymentResponse
	verifyErr   error
	verifyCalls int

	profile    *storeapi.Profile
	profileErr error
}

func (f *fakeAPI) InitializePayment(ctx context.Context, req storeapi.InitializePaymentRequest) (*storeapi.InitializePaymentResponse, error) {
	f.initCalls++
	f.initReq = &req
	if f.onInit != nil {
		f.onInit()
	}
	return f.initResp, f.initErr
}

func (f *fakeAPI) VerifyPayment(ctx context.Context, reference string) (*storeapi.VerifyPaymentResponse, error) {
	f.verifyCalls++
	return f.verifyResp, f.verifyErr
}

func (f *fakeAPI) Profile(ctx context.Context) (*storeapi.Profile, error) {
	return f.profile, f.profileErr
}

type fakeSession struct {
	authenticated bool
	invalidated   int
}

func (f *fakeSession) IsAuthenticated(context.Context) bool {
	return f.authenticated
}

func (f *fakeSession) Invalidate(_ context.Context, err error) bool {
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		return false
	}
	f.invalidated++
	f.authenticated = false
	return true
}

type countingRecorder struct {
	submissions map[string]int
	outcomes    map[string]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{submissions: map[string]int{}, outcomes: map[string]int{}}
}

func (c *countingRecorder) CheckoutSubmitted(state string) { c.submissions[state]++ }
func (c *countingRecorder) PaymentVerified(outcome string) { c.outcomes[outcome]++ }

type fixture struct {
	orchestrator *Orchestrator
	cart         *cart.Store
	storage      *memory.Store
	api          *fakeAPI
	session      *fakeSession
	recorder     *countingRecorder
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, withItems bool) *fixture {
	t.Helper()
	backing := memory.New()
	cartStore, err := cart.NewStore(backing, logger.Nop())
	if err != nil {
		t.Fatalf("new cart: %v", err)
	}
	if withItems {
		product := cart.ProductSnapshot{ID: 12, Name: "Home Jersey"}
		if err := cartStore.AddItem(context.Background(), product, 101, "M", 2, decimal.NewFromInt(25)); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	f := &fixture{
		cart:     cartStore,
		storage:  backing,
		api:      &fakeAPI{},
		session:  &fakeSession{},
		recorder: newRecorder(),
	}
	f.orchestrator, err = NewService(ServiceParams{
		Cart:     cartStore,
		Session:  f.session,
		API:      f.api,
		Storage:  backing,
		Logger:   logger.Nop(),
		Recorder: f.recorder,
		Clock:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return f
}

func successfulInit() *storeapi.InitializePaymentResponse {
	return &storeapi.InitializePaymentResponse{
		Status: true,
		Data: &storeapi.PaymentSession{
			AuthorizationURL: "https://checkout.gateway.test/abc",
			Reference:        "ref_123",
			OrderID:          "ORD-1",
			Amount:           decimal.NewFromInt(83000),
		},
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestBeginWithEmptyCartRedirects(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.orchestrator.Begin(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]string)
	if details["redirect"] != CartPath {
		t.Fatalf("unexpected redirect hint %v", details)
	}
}

func TestBeginPrefillsAuthenticatedShopper(t *testing.T) {
	f := newFixture(t, true)
	f.session.authenticated = true
	f.api.profile = &storeapi.Profile{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}

	view, err := f.orchestrator.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !view.Authenticated || view.Prefill.Email != "ada@example.com" || view.Prefill.FirstName != "Ada" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Summary.LoyaltyPoints != 5 || len(view.Zones) != 7 {
		t.Fatalf("unexpected summary %+v", view.Summary)
	}
}

func TestBeginTreatsRejectedTokenAsGuest(t *testing.T) {
	f := newFixture(t, true)
	f.session.authenticated = true
	f.api.profileErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "Token expired")

	view, err := f.orchestrator.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin should not surface profile errors: %v", err)
	}
	if view.Authenticated || f.session.invalidated != 1 {
		t.Fatalf("expected guest view after invalidation, got %+v", view)
	}
	if view.Summary.LoyaltyPoints != 0 {
		t.Fatal("guests do not see loyalty points")
	}
}

func TestSubmitInvalidFormNeverCallsAPI(t *testing.T) {
	f := newFixture(t, true)
	form := validForm()
	form.Email = "a@b"
	form.DeliveryZone = ""

	_, err := f.orchestrator.Submit(context.Background(), form)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]string)
	if details["email"] == "" || details["delivery_zone"] == "" {
		t.Fatalf("unexpected field errors %v", details)
	}
	if f.api.initCalls != 0 {
		t.Fatal("validation failures must not reach the network")
	}
	if f.orchestrator.State() != enums.CheckoutStateValidationFailed {
		t.Fatalf("unexpected state %s", f.orchestrator.State())
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.orchestrator.Submit(context.Background(), validForm())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.initResp = successfulInit()

	handoff, err := f.orchestrator.Submit(ctx, validForm())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if handoff.AuthorizationURL != "https://checkout.gateway.test/abc" || handoff.Reference != "ref_123" {
		t.Fatalf("unexpected handoff %+v", handoff)
	}

	req := f.api.initReq
	if req.Email != "ada@example.com" || req.DeliveryFee != 2500 {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.CartItems) != 1 || req.CartItems[0] != (storeapi.PaymentItem{VariantID: 101, Quantity: 2}) {
		t.Fatalf("unexpected cart items %+v", req.CartItems)
	}
	if req.CustomerInfo.DeliveryZone != "lagos-island" || req.CustomerInfo.Phone != "0803-123 4567" {
		t.Fatalf("unexpected customer info %+v", req.CustomerInfo)
	}

	pending, err := f.orchestrator.Pending(ctx)
	if err != nil || pending == nil {
		t.Fatalf("expected pending order, got %v err=%v", pending, err)
	}
	if pending.Reference != "ref_123" || pending.OrderID != "ORD-1" || !pending.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected pending order %+v", pending)
	}
	if pending.CustomerInfo.Email != "ada@example.com" {
		t.Fatalf("pending order should snapshot the form, got %+v", pending.CustomerInfo)
	}
	if f.cart.IsEmpty() {
		t.Fatal("cart must survive until the payment verifies")
	}
	if f.orchestrator.State() != enums.CheckoutStateRedirectedToGateway {
		t.Fatalf("unexpected state %s", f.orchestrator.State())
	}
	if f.recorder.submissions["redirected_to_gateway"] != 1 {
		t.Fatalf("unexpected recorder state %v", f.recorder.submissions)
	}
}

func TestSubmitFailuresLeaveStateUntouched(t *testing.T) {
	cases := []struct {
		name    string
		resp    *storeapi.InitializePaymentResponse
		err     error
		message string
	}{
		{
			name:    "status false",
			resp:    &storeapi.InitializePaymentResponse{Status: false, Message: "Variant 101 is out of stock"},
			message: "Variant 101 is out of stock",
		},
		{
			name:    "status false without message",
			resp:    &storeapi.InitializePaymentResponse{Status: false},
			message: initializeFailedMessage,
		},
		{
			name:    "transport failure",
			err:     pkgerrors.Wrap(pkgerrors.CodeDependency, &storeapi.RequestError{Message: storeapi.GenericMessage}, storeapi.GenericMessage),
			message: storeapi.GenericMessage,
		},
		{
			name:    "server error",
			err:     pkgerrors.Wrap(pkgerrors.CodeDependency, &storeapi.RequestError{Status: 500, Message: "Paystack unavailable"}, "Paystack unavailable"),
			message: "Paystack unavailable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, true)
			f.api.initResp = tc.resp
			f.api.initErr = tc.err
			before := f.cart.Items()

			_, err := f.orchestrator.Submit(ctx, validForm())
			if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) || !pkgerrors.IsRetryable(err) {
				t.Fatalf("expected retryable dependency error, got %v", err)
			}
			if pkgerrors.As(err).Message() != tc.message {
				t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
			}
			if pending, _ := f.orchestrator.Pending(ctx); pending != nil {
				t.Fatalf("no pending order expected, got %+v", pending)
			}
			if len(f.cart.Items()) != len(before) {
				t.Fatal("cart must not change on a failed submission")
			}
			if f.orchestrator.State() != enums.CheckoutStateSubmissionFailed {
				t.Fatalf("unexpected state %s", f.orchestrator.State())
			}
		})
	}
}

func TestSubmitCanBeRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.initErr = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), storeapi.GenericMessage)
	if _, err := f.orchestrator.Submit(ctx, validForm()); err == nil {
		t.Fatal("expected first attempt to fail")
	}

	f.api.initErr = nil
	f.api.initResp = successfulInit()
	if _, err := f.orchestrator.Submit(ctx, validForm()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.api.initCalls != 2 {
		t.Fatalf("expected two initialize calls, got %d", f.api.initCalls)
	}
}

func TestAbandonDiscardsInFlightResponse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.api.initResp = successfulInit()
	f.api.onInit = f.orchestrator.Abandon

	_, err := f.orchestrator.Submit(ctx, validForm())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected stale attempt error, got %v", err)
	}
	if pending, _ := f.orchestrator.Pending(ctx); pending != nil {
		t.Fatal("a superseded attempt must not write a pending order")
	}
	if f.orchestrator.State() != enums.CheckoutStateIdle {
		t.Fatalf("unexpected state %s", f.orchestrator.State())
	}
}

func TestCancelledContextDiscardsResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, true)
	f.api.initResp = successfulInit()
	f.api.onInit = cancel

	_, err := f.orchestrator.Submit(ctx, validForm())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected stale attempt error, got %v", err)
	}
	if pending, _ := f.orchestrator.Pending(context.Background()); pending != nil {
		t.Fatal("a cancelled attempt must not write a pending order")
	}
}

func TestSubmitWithRejectedTokenInvalidatesSession(t *testing.T) {
	f := newFixture(t, true)
	f.session.authenticated = true
	f.api.initErr = pkgerrors.Wrap(pkgerrors.CodeUnauthorized, &storeapi.RequestError{Status: 401, Message: "Token expired"}, "Token expired")

	_, err := f.orchestrator.Submit(context.Background(), validForm())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if f.session.invalidated != 1 || f.session.authenticated {
		t.Fatal("expected the rejected session to be cleared")
	}
}
