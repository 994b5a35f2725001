package payments

import (
	"context"
	"math"
	"strings"
)

// Intent statuses this service reacts to. Any other processor status is
// surfaced as an unhandled state.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentRequiresConfirmation  = "requires_confirmation"
)

// CardDetails is the charge snapshot stored on the order after a confirmed
// payment.
type CardDetails struct {
	Brand      string
	Last4      string
	ExpMonth   int
	ExpYear    int
	ReceiptURL string
}

// Intent is the processor-neutral view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Metadata     map[string]string
	Card         *CardDetails
}

// Processor abstracts the external payment provider. Amounts are in the
// currency's minor units.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (Intent, error)
	RetrieveIntent(ctx context.Context, ref string) (Intent, error)
	UpdateIntentAmount(ctx context.Context, ref string, amount int64) (Intent, error)
}

// zeroDecimal currencies are charged in whole units.
var zeroDecimal = map[string]bool{
	"JPY": true, "KRW": true, "VND": true, "CLP": true, "BIF": true, "DJF": true,
	"GNF": true, "KMF": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

// ToMinorUnits converts a decimal amount to the processor's integer amount
// for the given currency.
func ToMinorUnits(amount float64, currency string) int64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}
