// Package checkout validates the delivery form, opens a gateway payment
// session for the cart and reconciles the gateway's redirect back.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearstore/internal/cart"
	"github.com/angelmondragon/gearstore/pkg/currency"
	"github.com/angelmondragon/gearstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/storage"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

// CartPath is where the shopper is sent when checkout cannot start.
const CartPath = "/cart"

const (
	initializeFailedMessage = "Payment initialization failed"
	staleAttemptMessage     = "checkout attempt was superseded"
	emptyCartMessage        = "cart is empty"
)

type cartStore interface {
	Items() []cart.LineItem
	Clear(ctx context.Context) error
}

type sessionHolder interface {
	IsAuthenticated(ctx context.Context) bool
	Invalidate(ctx context.Context, err error) bool
}

type paymentAPI interface {
	InitializePayment(ctx context.Context, req storeapi.InitializePaymentRequest) (*storeapi.InitializePaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string) (*storeapi.VerifyPaymentResponse, error)
	Profile(ctx context.Context) (*storeapi.Profile, error)
}

// Recorder receives checkout outcomes for metrics.
type Recorder interface {
	CheckoutSubmitted(state string)
	PaymentVerified(outcome string)
}

// Prefill seeds the form for authenticated shoppers.
type Prefill struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// View is everything needed to render the checkout form.
type View struct {
	Summary       Summary `json:"summary"`
	Zones         []Zone  `json:"zones"`
	Prefill       Prefill `json:"prefill"`
	Authenticated bool    `json:"authenticated"`
}

// Handoff tells the caller where to navigate. Nothing local runs after it
// until the gateway redirects back.
type Handoff struct {
	AuthorizationURL string          `json:"authorization_url"`
	Reference        string          `json:"reference"`
	OrderID          string          `json:"order_id"`
	Amount           decimal.Decimal `json:"amount"`
}

// Settlement describes a verified payment.
type Settlement struct {
	Reference string          `json:"reference"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    string          `json:"paid_at,omitempty"`
}

// ServiceParams bundles the dependencies of an Orchestrator.
type ServiceParams struct {
	Cart      cartStore
	Session   sessionHolder
	API       paymentAPI
	Storage   storage.Storage
	Converter *currency.Converter
	Logger    *logger.Logger
	Recorder  Recorder
	Clock     func() time.Time
}

// Orchestrator runs one shopper's checkout. Each Submit is an attempt with a
// sequence number; a response for an attempt that is no longer current is
// discarded without touching state.
type Orchestrator struct {
	cart      cartStore
	session   sessionHolder
	api       paymentAPI
	store     storage.Storage
	converter *currency.Converter
	logg      *logger.Logger
	recorder  Recorder
	now       func() time.Time

	mu      sync.Mutex
	seq     uint64
	state   enums.CheckoutState
	settled map[string]Settlement
}

// NewService constructs an orchestrator with the provided dependencies.
func NewService(params ServiceParams) (*Orchestrator, error) {
	if params.Cart == nil {
		return nil, errors.New("cart store is required")
	}
	if params.Session == nil {
		return nil, errors.New("session holder is required")
	}
	if params.API == nil {
		return nil, errors.New("payment api is required")
	}
	if params.Storage == nil {
		return nil, errors.New("checkout storage is required")
	}
	o := &Orchestrator{
		cart:      params.Cart,
		session:   params.Session,
		api:       params.API,
		store:     params.Storage,
		converter: params.Converter,
		logg:      params.Logger,
		recorder:  params.Recorder,
		now:       params.Clock,
		state:     enums.CheckoutStateIdle,
		settled:   map[string]Settlement{},
	}
	if o.converter == nil {
		o.converter = currency.Default()
	}
	if o.logg == nil {
		o.logg = logger.Nop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// State returns the state of the current attempt.
func (o *Orchestrator) State() enums.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin enters the checkout view. An empty cart is refused with a redirect to
// the cart. Entering the view supersedes any attempt still in flight.
func (o *Orchestrator) Begin(ctx context.Context) (*View, error) {
	items := o.cart.Items()
	if len(items) == 0 {
		return nil, emptyCartError()
	}

	o.mu.Lock()
	o.seq++
	o.state = enums.CheckoutStateIdle
	o.mu.Unlock()

	view := &View{Zones: Zones(), Authenticated: o.session.IsAuthenticated(ctx)}
	if view.Authenticated {
		profile, err := o.api.Profile(ctx)
		switch {
		case err == nil:
			view.Prefill = Prefill{FirstName: profile.FirstName, LastName: profile.LastName, Email: profile.Email}
		case o.session.Invalidate(ctx, err):
			view.Authenticated = false
		default:
			o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "fetching profile for checkout prefill failed")
		}
	}
	view.Summary = Summarize(items, "", view.Authenticated, o.converter)
	return view, nil
}

// Summarize totals the current cart for zoneID.
func (o *Orchestrator) Summarize(ctx context.Context, zoneID string) Summary {
	return Summarize(o.cart.Items(), zoneID, o.session.IsAuthenticated(ctx), o.converter)
}

// Abandon marks the view as left; any response still in flight is discarded.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	o.state = enums.CheckoutStateIdle
}

// Submit validates form, opens a gateway session and persists the pending
// order. On any failure the cart is untouched and no pending order is written.
func (o *Orchestrator) Submit(ctx context.Context, form Form) (*Handoff, error) {
	attempt := o.startAttempt()

	items := o.cart.Items()
	if len(items) == 0 {
		o.settle(attempt, enums.CheckoutStateIdle)
		return nil, emptyCartError()
	}

	form = form.Normalized()
	if errs := Validate(form); len(errs) > 0 {
		o.settle(attempt, enums.CheckoutStateValidationFailed)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidFormTitle).WithDetails(errs)
	}
	zone, ok := LookupZone(form.DeliveryZone)
	if !ok || zone.Fee <= 0 {
		o.settle(attempt, enums.CheckoutStateValidationFailed)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidFormTitle).
			WithDetails(map[string]string{"delivery_zone": "Please select a delivery zone"})
	}

	if !o.transition(attempt, enums.CheckoutStateSubmitting) {
		return nil, staleError()
	}

	req := storeapi.InitializePaymentRequest{
		Email:        form.Email,
		CartItems:    make([]storeapi.PaymentItem, 0, len(items)),
		DeliveryFee:  zone.Fee,
		CustomerInfo: form.customerInfo(),
	}
	for _, item := range items {
		req.CartItems = append(req.CartItems, storeapi.PaymentItem{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	resp, err := o.api.InitializePayment(ctx, req)
	if ctx.Err() != nil {
		o.discard(attempt)
		return nil, staleError()
	}
	if err != nil {
		o.session.Invalidate(ctx, err)
		if !o.settle(attempt, enums.CheckoutStateSubmissionFailed) {
			return nil, staleError()
		}
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "payment initialization failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, submissionMessage(err))
	}
	if !resp.Status || resp.Data == nil {
		if !o.settle(attempt, enums.CheckoutStateSubmissionFailed) {
			return nil, staleError()
		}
		message := strings.TrimSpace(resp.Message)
		if message == "" {
			message = initializeFailedMessage
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, message)
	}

	handoff := &Handoff{
		AuthorizationURL: resp.Data.AuthorizationURL,
		Reference:        resp.Data.Reference,
		OrderID:          resp.Data.OrderID.String(),
		Amount:           resp.Data.Amount,
	}
	pending := PendingOrder{
		Reference:    handoff.Reference,
		OrderID:      handoff.OrderID,
		Amount:       handoff.Amount,
		CustomerInfo: form,
		CreatedAt:    o.now().UTC(),
	}
	if err := o.complete(ctx, attempt, pending); err != nil {
		return nil, err
	}

	ctx = o.logg.WithReference(ctx, handoff.Reference)
	o.logg.Info(o.logg.WithField(ctx, "order_id", handoff.OrderID), "handing off to payment gateway")
	return handoff, nil
}

// Pending returns the pending order, or nil when none is recorded.
func (o *Orchestrator) Pending(ctx context.Context) (*PendingOrder, error) {
	return loadPending(ctx, o.store)
}

func (o *Orchestrator) startAttempt() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	o.state = enums.CheckoutStateValidating
	return o.seq
}

// transition moves a current attempt to state and reports whether it was current.
func (o *Orchestrator) transition(attempt uint64, state enums.CheckoutState) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if attempt != o.seq {
		return false
	}
	o.state = state
	return true
}

// discard drops a current attempt whose caller went away.
func (o *Orchestrator) discard(attempt uint64) {
	o.transition(attempt, enums.CheckoutStateIdle)
}

// settle records a terminal state for a current attempt.
func (o *Orchestrator) settle(attempt uint64, state enums.CheckoutState) bool {
	if !o.transition(attempt, state) {
		return false
	}
	if o.recorder != nil && state.IsTerminal() {
		o.recorder.CheckoutSubmitted(state.String())
	}
	return true
}

// complete writes the pending order only if the attempt is still current and
// its context is live, so a superseded response never reaches storage.
func (o *Orchestrator) complete(ctx context.Context, attempt uint64, pending PendingOrder) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if attempt != o.seq || ctx.Err() != nil {
		if attempt == o.seq {
			o.state = enums.CheckoutStateIdle
		}
		o.logg.Warn(o.logg.WithReference(ctx, pending.Reference), "discarding payment session for a superseded checkout attempt")
		return staleError()
	}
	if err := savePending(ctx, o.store, pending); err != nil {
		o.state = enums.CheckoutStateSubmissionFailed
		o.record(enums.CheckoutStateSubmissionFailed)
		return err
	}
	o.state = enums.CheckoutStateRedirectedToGateway
	o.record(enums.CheckoutStateRedirectedToGateway)
	return nil
}

func (o *Orchestrator) record(state enums.CheckoutState) {
	if o.recorder != nil {
		o.recorder.CheckoutSubmitted(state.String())
	}
}

func submissionMessage(err error) string {
	if reqErr, ok := storeapi.AsRequestError(err); ok && strings.TrimSpace(reqErr.Message) != "" {
		return reqErr.Message
	}
	return storeapi.GenericMessage
}

func emptyCartError() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, emptyCartMessage).
		WithDetails(map[string]string{"redirect": CartPath})
}

func staleError() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, staleAttemptMessage)
}
