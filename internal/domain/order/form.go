package order

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/phone"
)

// Form field names.
const (
	FieldCustomer = "customer"
	FieldPhone    = "phone"
	FieldAddress  = "address"
	FieldPriority = "priority"
	FieldCart     = "cart"
	FieldPosition = "position"
)

// Field error messages.
const (
	MsgInvalidPhone    = "Please give us your correct phone number. We might need it to contact you."
	MsgMissingCustomer = "Please tell us your name."
	MsgMissingAddress  = "Please tell us where to deliver your order."
)

// RawForm holds the submitted form values as strings.
type RawForm struct {
	Customer string
	Phone    string
	Address  string
	Priority string
	Cart     string
	Position string
}

// FormFromValues reads a RawForm from posted form values.
func FormFromValues(v url.Values) RawForm {
	return RawForm{
		Customer: v.Get(FieldCustomer),
		Phone:    v.Get(FieldPhone),
		Address:  v.Get(FieldAddress),
		Priority: v.Get(FieldPriority),
		Cart:     v.Get(FieldCart),
		Position: v.Get(FieldPosition),
	}
}

// ParseForm converts raw form values into a Submission. Errors are returned
// in this order: *MalformedCartError, *ValidationError, ErrEmptyCart.
func ParseForm(raw RawForm) (*Submission, error) {
	var items []cart.Item
	if err := json.Unmarshal([]byte(raw.Cart), &items); err != nil {
		return nil, &MalformedCartError{Err: err}
	}

	fields := make(map[string]string)
	if !phone.IsValid(raw.Phone) {
		fields[FieldPhone] = MsgInvalidPhone
	}
	if strings.TrimSpace(raw.Customer) == "" {
		fields[FieldCustomer] = MsgMissingCustomer
	}
	if strings.TrimSpace(raw.Address) == "" {
		fields[FieldAddress] = MsgMissingAddress
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	return &Submission{
		Customer: raw.Customer,
		Phone:    raw.Phone,
		Address:  raw.Address,
		Cart:     items,
		Position: raw.Position,
		Priority: raw.Priority == "true",
	}, nil
}
