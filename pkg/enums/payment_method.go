package enums

import "fmt"

// PaymentMethod identifies how the buyer pays a charge.
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodPix,
	PaymentMethodCreditCard,
	PaymentMethodBoleto,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsInstant reports whether the method settles with a displayable payment
// code rather than a redirect.
func (p PaymentMethod) IsInstant() bool {
	return p == PaymentMethodPix
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
