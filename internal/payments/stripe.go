package payments

import (
	"context"

	"github.com/Viduth04/imax-backend/internal/apperr"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// StripeProcessor implements Processor against the Stripe PaymentIntent API.
type StripeProcessor struct{}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	stripe.Key = secretKey
	return &StripeProcessor{}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return Intent{}, apperr.Wrap(apperr.KindExternal, "Failed to create payment intent", err)
	}
	return fromStripe(pi), nil
}

func (p *StripeProcessor) RetrieveIntent(ctx context.Context, ref string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := paymentintent.Get(ref, params)
	if err != nil {
		return Intent{}, apperr.Wrap(apperr.KindExternal, "Failed to retrieve payment intent", err)
	}
	return fromStripe(pi), nil
}

func (p *StripeProcessor) UpdateIntentAmount(ctx context.Context, ref string, amount int64) (Intent, error) {
	params := &stripe.PaymentIntentParams{Amount: stripe.Int64(amount)}
	params.Context = ctx

	pi, err := paymentintent.Update(ref, params)
	if err != nil {
		return Intent{}, apperr.Wrap(apperr.KindExternal, "Failed to update payment intent", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	intent := Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Metadata:     pi.Metadata,
	}
	if ch := pi.LatestCharge; ch != nil {
		card := CardDetails{ReceiptURL: ch.ReceiptURL}
		if ch.PaymentMethodDetails != nil && ch.PaymentMethodDetails.Card != nil {
			card.Brand = string(ch.PaymentMethodDetails.Card.Brand)
			card.Last4 = ch.PaymentMethodDetails.Card.Last4
			card.ExpMonth = int(ch.PaymentMethodDetails.Card.ExpMonth)
			card.ExpYear = int(ch.PaymentMethodDetails.Card.ExpYear)
		}
		intent.Card = &card
	}
	return intent
}
