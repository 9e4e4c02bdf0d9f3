package checkout

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/gearstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

const (
	missingReferenceMessage = "No payment reference found"
	verifyFailedMessage     = "Payment verification failed"
	unverifiedMessage       = "Failed to verify payment. Please contact support."
	gatewaySuccessStatus    = "success"
)

// HandleCallback reconciles the gateway's redirect back. Only a confirmed
// success clears the cart and the pending order; every failure leaves both
// in place so the shopper can retry or quote the reference to support.
func (o *Orchestrator) HandleCallback(ctx context.Context, reference string) (*Settlement, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		o.verified(enums.PaymentOutcomeDeclined)
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, missingReferenceMessage)
	}
	ctx = o.logg.WithReference(ctx, ref)

	if settlement, ok := o.alreadySettled(ref); ok {
		o.logg.Info(ctx, "payment reference already settled")
		return &settlement, nil
	}

	resp, err := o.api.VerifyPayment(ctx, ref)
	if err != nil {
		return nil, o.verifyFailure(ctx, ref, err)
	}
	if !resp.Status || resp.Data == nil || !isGatewaySuccess(resp.Data.Status) {
		message := strings.TrimSpace(resp.Message)
		if message == "" {
			message = verifyFailedMessage
		}
		o.logg.Warn(o.logg.WithField(ctx, "message", message), "payment declined")
		o.verified(enums.PaymentOutcomeDeclined)
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, message).
			WithDetails(map[string]string{"reference": ref})
	}

	settlement := Settlement{
		Reference: resp.Data.Reference,
		OrderID:   resp.Data.OrderID.String(),
		Amount:    resp.Data.Amount,
		PaidAt:    resp.Data.PaidAt,
	}
	if err := o.finalize(ctx, ref, &settlement); err != nil {
		return nil, err
	}
	o.verified(enums.PaymentOutcomeSucceeded)
	o.logg.Info(o.logg.WithField(ctx, "order_id", settlement.OrderID), "payment verified; cart cleared")
	return &settlement, nil
}

// finalize clears the cart and removes the pending order when it belongs to ref.
func (o *Orchestrator) finalize(ctx context.Context, ref string, settlement *Settlement) error {
	pending, err := loadPending(ctx, o.store)
	if err != nil {
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "reading pending order during settlement failed")
	}
	if settlement.OrderID == "" && pending != nil && pending.Reference == ref {
		settlement.OrderID = pending.OrderID
	}
	if settlement.Reference == "" {
		settlement.Reference = ref
	}

	if err := o.cart.Clear(ctx); err != nil {
		o.logg.Error(ctx, "clearing cart after verified payment failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment verified but the cart could not be cleared").
			WithDetails(map[string]string{"reference": ref})
	}

	switch {
	case pending == nil || pending.Reference == ref:
		if err := deletePending(ctx, o.store); err != nil {
			o.logg.Error(ctx, "deleting pending order failed", err)
		}
	default:
		o.logg.Warn(o.logg.WithField(ctx, "pending_reference", pending.Reference), "pending order belongs to another reference; keeping it")
	}

	o.mu.Lock()
	o.settled[ref] = *settlement
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) verifyFailure(ctx context.Context, ref string, err error) error {
	details := map[string]string{"reference": ref}
	reqErr, ok := storeapi.AsRequestError(err)
	if ok && isDefiniteRejection(reqErr) {
		o.session.Invalidate(ctx, err)
		o.logg.Warn(o.logg.WithField(ctx, "status", reqErr.Status), "payment verification rejected")
		o.verified(enums.PaymentOutcomeDeclined)
		return pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, reqErr.Message).WithDetails(details)
	}

	o.logg.Error(ctx, "payment outcome could not be verified", err)
	o.verified(enums.PaymentOutcomeUnverified)
	return pkgerrors.Wrap(pkgerrors.CodePaymentUnverified, err, unverifiedMessage).WithDetails(details)
}

func (o *Orchestrator) alreadySettled(ref string) (Settlement, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	settlement, ok := o.settled[ref]
	return settlement, ok
}

func (o *Orchestrator) verified(outcome enums.PaymentOutcome) {
	if o.recorder != nil {
		o.recorder.PaymentVerified(outcome.String())
	}
}

// isDefiniteRejection is true for a 4xx that carried a reason from the server.
// Transport failures, 5xx and unreadable bodies leave the outcome unknown.
func isDefiniteRejection(reqErr *storeapi.RequestError) bool {
	if reqErr.Status < http.StatusBadRequest || reqErr.Status >= http.StatusInternalServerError {
		return false
	}
	return reqErr.Message != "" && reqErr.Message != storeapi.GenericMessage
}

func isGatewaySuccess(status string) bool {
	status = strings.TrimSpace(status)
	return status == "" || strings.EqualFold(status, gatewaySuccessStatus)
}
