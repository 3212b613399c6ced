package enums

import "fmt"

// PaymentStatus mirrors the gateway's view of a charge.
type PaymentStatus string

const (
	PaymentStatusWaitingPayment PaymentStatus = "waiting_payment"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusApproved       PaymentStatus = "approved"
	PaymentStatusRefused        PaymentStatus = "refused"
	PaymentStatusFailed         PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusWaitingPayment,
	PaymentStatusPaid,
	PaymentStatusApproved,
	PaymentStatusRefused,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsSettled reports whether the gateway confirmed the charge.
func (p PaymentStatus) IsSettled() bool {
	return p == PaymentStatusPaid || p == PaymentStatusApproved
}

// IsFailure reports whether the gateway rejected the charge.
func (p PaymentStatus) IsFailure() bool {
	return p == PaymentStatusRefused || p == PaymentStatusFailed
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
