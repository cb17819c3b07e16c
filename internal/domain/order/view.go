package order

import (
	"encoding/json"

	"github.com/xenking/fast-pizza/internal/domain/address"
	"github.com/xenking/fast-pizza/internal/domain/cart"
)

// FormView is everything the checkout page needs. When Empty is set the cart
// placeholder is shown instead of the form and no other field is populated.
type FormView struct {
	Empty bool

	Items []cart.Item
	// CartJSON is the serialized cart snapshot for the hidden form field.
	CartJSON string
	// Position is the hidden position field value.
	Position string
	// Address prefills the address input.
	Address        string
	AddressError   string
	AddressLoading bool
	// HasPosition hides the "Get position" control once a position is known.
	HasPosition bool

	// Priced without and with the priority surcharge.
	Regular  Pricing
	Priority Pricing

	Customer string
	Phone    string
	WantPrio bool
	Errors   map[string]string
	// SubmitError is set when the order service rejected the submission.
	SubmitError string
}

// Render builds the checkout view for a cart snapshot and the session's
// address state. It performs no service calls.
func Render(items []cart.Item, addr address.State) (*FormView, error) {
	if len(items) == 0 {
		return &FormView{Empty: true}, nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, &MalformedCartError{Err: err}
	}

	return &FormView{
		Items:          items,
		CartJSON:       string(data),
		Position:       addr.PositionString(),
		Address:        addr.Address,
		AddressError:   addr.Error,
		AddressLoading: addr.Status == address.StatusLoading,
		HasPosition:    addr.Position != nil,
		Regular:        PriceCart(items, false),
		Priority:       PriceCart(items, true),
	}, nil
}

// WithInput carries the customer's previous input and errors into a re-render.
func (v *FormView) WithInput(raw RawForm, errs map[string]string) *FormView {
	v.Customer = raw.Customer
	v.Phone = raw.Phone
	if raw.Address != "" {
		v.Address = raw.Address
	}
	v.WantPrio = raw.Priority == "true"
	v.Errors = errs
	return v
}
