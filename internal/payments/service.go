package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/orders"
)

var (
	ErrAlreadyPaid           = errors.New("order already paid")
	ErrIntentMismatch        = errors.New("payment intent does not belong to order")
	ErrCashOnDelivery        = errors.New("cash on delivery orders have no payment intent")
	ErrPaymentIncomplete     = errors.New("payment not completed")
	ErrUnhandledPaymentState = errors.New("unhandled payment state")
)

// OrderStore is the slice of the order store the payment flow needs.
type OrderStore interface {
	Get(ctx context.Context, id string) (orders.Order, error)
	SetPaymentIntent(ctx context.Context, id, intentID string) error
	MarkPaid(ctx context.Context, id string, at time.Time, details orders.PaymentMethodDetails) (orders.Order, error)
}

// CatalogStore commits reserved stock once a payment lands. AdjustQuantity is
// the same conditional atomic update checkout relies on.
type CatalogStore interface {
	AdjustQuantity(ctx context.Context, id string, delta int) error
}

type CartStore interface {
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	store    OrderStore
	catalog  CatalogStore
	cart     CartStore
	proc     Processor
	currency string
	now      func() time.Time
}

func NewService(store OrderStore, catalog CatalogStore, cartStore CartStore, proc Processor, currency string) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		cart:     cartStore,
		proc:     proc,
		currency: currency,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateOrReuseIntent returns a client-usable payment intent for the order.
// If the order already carries one, it is retrieved and its amount reconciled
// with the current order total instead of creating a duplicate charge.
func (s *Service) CreateOrReuseIntent(ctx context.Context, caller auth.Claims, orderID string) (Intent, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Intent{}, err
	}
	if !caller.IsAdmin() && !caller.Owns(o.UserID) {
		return Intent{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	if o.PaymentMethod == orders.MethodCashOnDelivery {
		return Intent{}, apperr.Wrap(apperr.KindValidation, "Order is cash on delivery", ErrCashOnDelivery)
	}
	if o.PaymentStatus == orders.PaymentPaid {
		return Intent{}, apperr.Wrap(apperr.KindConflict, "Order is already paid", ErrAlreadyPaid)
	}

	amount := ToMinorUnits(o.Total, s.currency)

	if o.PaymentIntentID != "" {
		intent, err := s.proc.RetrieveIntent(ctx, o.PaymentIntentID)
		if err != nil {
			return Intent{}, err
		}
		if intent.Amount != amount {
			intent, err = s.proc.UpdateIntentAmount(ctx, intent.ID, amount)
			if err != nil {
				return Intent{}, err
			}
		}
		return intent, nil
	}

	intent, err := s.proc.CreateIntent(ctx, amount, s.currency, map[string]string{
		"order_id": o.ID,
		"user_id":  o.UserID,
	})
	if err != nil {
		return Intent{}, err
	}
	if err := s.store.SetPaymentIntent(ctx, o.ID, intent.ID); err != nil {
		return Intent{}, fmt.Errorf("recording payment intent: %w", err)
	}
	return intent, nil
}

// Confirm verifies the intent with the processor and settles the order. Only
// the owner or an admin may call it.
func (s *Service) Confirm(ctx context.Context, caller auth.Claims, orderID, intentRef string) (orders.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if !caller.IsAdmin() && !caller.Owns(o.UserID) {
		return orders.Order{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	return s.settle(ctx, o, intentRef)
}

// ConfirmFromWebhook settles an order from a processor event. The event is
// already authenticated by the webhook layer, so no caller check applies.
func (s *Service) ConfirmFromWebhook(ctx context.Context, orderID, intentRef string) (orders.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	return s.settle(ctx, o, intentRef)
}

// settle is idempotent on the order's payment status: stock is decremented
// and the cart cleared only on the first confirmed delivery of a succeeded
// intent. The paid flag flips last so a partial stock failure leaves the
// order retryable.
func (s *Service) settle(ctx context.Context, o orders.Order, intentRef string) (orders.Order, error) {
	intent, err := s.proc.RetrieveIntent(ctx, intentRef)
	if err != nil {
		return orders.Order{}, err
	}
	if intent.Metadata["order_id"] != o.ID {
		return orders.Order{}, apperr.Wrap(apperr.KindValidation,
			"Payment intent does not belong to this order", ErrIntentMismatch)
	}

	switch intent.Status {
	case IntentSucceeded:
		if o.PaymentStatus != orders.PaymentPaid {
			if err := s.commitStock(ctx, o.Items); err != nil {
				return orders.Order{}, err
			}
			if err := s.cart.Clear(ctx, o.UserID); err != nil {
				return orders.Order{}, fmt.Errorf("clearing cart: %w", err)
			}
		}
		var details orders.PaymentMethodDetails
		if intent.Card != nil {
			details = orders.PaymentMethodDetails{
				Brand:      intent.Card.Brand,
				Last4:      intent.Card.Last4,
				ExpMonth:   intent.Card.ExpMonth,
				ExpYear:    intent.Card.ExpYear,
				ReceiptURL: intent.Card.ReceiptURL,
			}
		}
		return s.store.MarkPaid(ctx, o.ID, s.now(), details)

	case IntentRequiresPaymentMethod, IntentRequiresConfirmation:
		return orders.Order{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Payment not completed, status: %s", intent.Status), ErrPaymentIncomplete)

	default:
		return orders.Order{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Unhandled payment status: %s", intent.Status), ErrUnhandledPaymentState)
	}
}

// commitStock mirrors the checkout-time commit: conditional decrements with a
// compensating rollback when one line runs dry.
func (s *Service) commitStock(ctx context.Context, items []orders.Item) error {
	for i, it := range items {
		if err := s.catalog.AdjustQuantity(ctx, it.ProductID, -it.Quantity); err != nil {
			for _, done := range items[:i] {
				_ = s.catalog.AdjustQuantity(ctx, done.ProductID, done.Quantity)
			}
			return err
		}
	}
	return nil
}
