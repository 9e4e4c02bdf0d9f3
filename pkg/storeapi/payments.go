package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
)

// ID accepts either a JSON string or number and keeps it as text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*id = ID(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return err
	}
	*id = ID(number.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// PaymentItem is a cart line reduced to what the server needs to price it.
type PaymentItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// CustomerInfo is the shipping and contact block sent with a payment.
type CustomerInfo struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	DeliveryZone   string `json:"delivery_zone"`
	AdditionalInfo string `json:"additional_info"`
}

// InitializePaymentRequest opens a hosted gateway session for the cart.
type InitializePaymentRequest struct {
	Email        string        `json:"email"`
	CartItems    []PaymentItem `json:"cart_items"`
	DeliveryFee  int64         `json:"delivery_fee"`
	CustomerInfo CustomerInfo  `json:"customer_info"`
}

// PaymentSession is the gateway handoff returned by a successful initialize.
type PaymentSession struct {
	AuthorizationURL string          `json:"authorization_url" validate:"required,url"`
	AccessCode       string          `json:"access_code"`
	Reference        string          `json:"reference" validate:"required"`
	OrderID          ID              `json:"order_id"`
	Amount           decimal.Decimal `json:"amount"`
}

// InitializePaymentResponse wraps the initialize outcome. Data is only
// checked when Status is true; a failure may carry a partial object.
type InitializePaymentResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    *PaymentSession `json:"data" validate:"-"`
}

// Verification is the gateway's account of a settled reference.
type Verification struct {
	Reference string          `json:"reference" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	PaidAt    string          `json:"paid_at"`
	OrderID   ID              `json:"order_id"`
	Metadata  json.RawMessage `json:"metadata"`
}

// VerifyPaymentResponse wraps the verify outcome. Data is only checked when
// Status is true.
type VerifyPaymentResponse struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Data    *Verification `json:"data" validate:"-"`
}

// InitializePayment asks the server to open a gateway session.
func (c *Client) InitializePayment(ctx context.Context, req InitializePaymentRequest) (*InitializePaymentResponse, error) {
	if len(req.CartItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items are required")
	}
	var resp InitializePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/store/payment/initialize/", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Status {
		if err := c.checkData(resp.Data); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// VerifyPayment asks the server to confirm the outcome of reference with the gateway.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*VerifyPaymentResponse, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	var resp VerifyPaymentResponse
	path := "/api/store/payment/verify/" + url.PathEscape(trimmed) + "/"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status {
		if err := c.checkData(resp.Data); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// checkData validates the data block of a successful payment response.
func (c *Client) checkData(data any) error {
	value := reflect.ValueOf(data)
	if data == nil || (value.Kind() == reflect.Pointer && value.IsNil()) {
		return malformed(http.StatusOK, fmt.Errorf("data is required when status is true"))
	}
	if err := c.validate.Struct(data); err != nil {
		return malformed(http.StatusOK, err)
	}
	return nil
}
