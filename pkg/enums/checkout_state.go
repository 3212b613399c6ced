package enums

// CheckoutState is the gate the confirm action sits behind. States advance as
// the buyer supplies a destination and picks one rate per supplier group; the
// terminal states describe how a submission ended.
type CheckoutState string

const (
	CheckoutStateEmpty               CheckoutState = "empty"
	CheckoutStateAwaitingDestination CheckoutState = "awaiting_destination"
	CheckoutStateAwaitingRates       CheckoutState = "awaiting_rates"
	CheckoutStateReadyToConfirm      CheckoutState = "ready_to_confirm"
	CheckoutStateProcessing          CheckoutState = "processing"
	CheckoutStateAwaitingPayment     CheckoutState = "awaiting_payment"
	CheckoutStateCompleted           CheckoutState = "completed"
	CheckoutStatePartiallyFailed     CheckoutState = "partially_failed"
	CheckoutStateFailed              CheckoutState = "failed"
)

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}
