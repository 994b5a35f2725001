package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/cart"
	"github.com/Viduth04/imax-backend/internal/products"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// CatalogStore is the slice of the catalog this service needs. AdjustQuantity
// must be a conditional atomic update that never drives stock negative.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (products.Product, error)
	AdjustQuantity(ctx context.Context, id string, delta int) error
}

// CartStore is the read/clear view of the cart used during checkout.
type CartStore interface {
	Items(ctx context.Context, userID string) ([]cart.Item, error)
	Clear(ctx context.Context, userID string) error
}

// Policy holds the pricing constants. The defaults match the long-standing
// storefront behavior: 10% tax, free shipping strictly above 100.
type Policy struct {
	TaxRate          float64
	FreeShippingOver float64
	ShippingFee      float64
}

func DefaultPolicy() Policy {
	return Policy{TaxRate: 0.10, FreeShippingOver: 100, ShippingFee: 10}
}

type Service struct {
	store   Store
	catalog CatalogStore
	cart    CartStore
	policy  Policy
	now     func() time.Time
	randInt func(n int) int
}

func NewService(store Store, catalog CatalogStore, cartStore CartStore, policy Policy) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		cart:    cartStore,
		policy:  policy,
		now:     time.Now,
		randInt: rand.Intn,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CheckoutInput struct {
	ShippingAddress ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   PaymentMethod   `json:"payment_method" validate:"required"`
	Notes           string          `json:"notes"`
}

// Checkout turns the caller's cart into a new order. The cart is validated
// against current stock and line items snapshot the catalog at this moment.
// Only cash-on-delivery commits stock and clears the cart here; online
// methods defer both to payment confirmation. Any precondition failure
// leaves stock and cart untouched.
func (s *Service) Checkout(ctx context.Context, caller auth.Claims, in CheckoutInput) (Order, error) {
	if !ValidPaymentMethod(in.PaymentMethod) {
		return Order{}, apperr.Newf(apperr.KindValidation, "Invalid payment method: %s", in.PaymentMethod)
	}

	cartItems, err := s.cart.Items(ctx, caller.Subject)
	if err != nil {
		return Order{}, fmt.Errorf("reading cart: %w", err)
	}
	if len(cartItems) == 0 {
		return Order{}, apperr.Wrap(apperr.KindValidation, "Cart is empty", ErrEmptyCart)
	}

	// Advisory stock check plus snapshot. The authoritative guard is the
	// conditional decrement below.
	var items []Item
	var subtotal float64
	for _, ci := range cartItems {
		p, err := s.catalog.GetProduct(ctx, ci.ProductID)
		if err != nil {
			return Order{}, err
		}
		if p.Quantity < ci.Quantity {
			return Order{}, apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("Insufficient stock for %s", p.Name), products.ErrInsufficientStock)
		}
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.FirstImage(),
			Price:     p.Price,
			Quantity:  ci.Quantity,
		})
		subtotal += p.Price * float64(ci.Quantity)
	}

	tax := subtotal * s.policy.TaxRate
	shippingCost := s.policy.ShippingFee
	if subtotal > s.policy.FreeShippingOver {
		shippingCost = 0
	}

	seq, err := s.store.Count(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("counting orders: %w", err)
	}

	now := s.now()
	order := Order{
		ID:              uuid.NewString(),
		OrderNumber:     s.orderNumber(now, seq),
		UserID:          caller.Subject,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   PaymentPending,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    shippingCost,
		Total:           subtotal + tax + shippingCost,
		Status:          StatusPending,
		Notes:           in.Notes,
		CreatedAt:       now,
	}

	created, err := s.store.Create(ctx, order)
	if err != nil {
		return Order{}, fmt.Errorf("creating order: %w", err)
	}

	if in.PaymentMethod == MethodCashOnDelivery {
		if err := s.commitStock(ctx, created.Items); err != nil {
			// A concurrent sale beat us to the stock; undo the record so the
			// caller sees an all-or-nothing failure.
			_ = s.store.Delete(ctx, created.ID)
			return Order{}, err
		}
		if err := s.cart.Clear(ctx, caller.Subject); err != nil {
			return Order{}, fmt.Errorf("clearing cart: %w", err)
		}
	}

	return created, nil
}

// commitStock decrements stock for every line item, rolling back the
// decrements already applied when one item runs dry.
func (s *Service) commitStock(ctx context.Context, items []Item) error {
	for i, it := range items {
		if err := s.catalog.AdjustQuantity(ctx, it.ProductID, -it.Quantity); err != nil {
			for _, done := range items[:i] {
				_ = s.catalog.AdjustQuantity(ctx, done.ProductID, done.Quantity)
			}
			if errors.Is(err, products.ErrInsufficientStock) {
				return apperr.Wrap(apperr.KindValidation,
					fmt.Sprintf("Insufficient stock for %s", it.Name), products.ErrInsufficientStock)
			}
			return err
		}
	}
	return nil
}

func (s *Service) restoreStock(ctx context.Context, items []Item) {
	for _, it := range items {
		_ = s.catalog.AdjustQuantity(ctx, it.ProductID, it.Quantity)
	}
}

func (s *Service) orderNumber(now time.Time, seq int) string {
	return fmt.Sprintf("ORD-%d-%d-%d", now.UnixMilli(), seq+1, s.randInt(1000))
}

// Get returns an order to its owner or an admin.
func (s *Service) Get(ctx context.Context, caller auth.Claims, id string) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !caller.IsAdmin() && !caller.Owns(o.UserID) {
		return Order{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, caller auth.Claims) ([]Order, error) {
	return s.store.ListByUser(ctx, caller.Subject)
}

func (s *Service) ListAll(ctx context.Context, f ListFilter) ([]Order, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.Newf(apperr.KindValidation, "Invalid status: %s", f.Status)
	}
	return s.store.List(ctx, f)
}

// UpdateAddress changes the shipping address. Only the owner may do this and
// only while the order is still pending; the address is the single mutable
// field exposed to owners.
func (s *Service) UpdateAddress(ctx context.Context, caller auth.Claims, id string, addr ShippingAddress) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !caller.Owns(o.UserID) {
		return Order{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	if o.Status != StatusPending {
		return Order{}, apperr.New(apperr.KindValidation, "Cannot update address for orders that are being processed")
	}
	return s.store.UpdateAddress(ctx, id, addr)
}

// Cancel moves an order to cancelled and restores the stock of every line
// item. Allowed to the owner or an admin from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, caller auth.Claims, id string) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !caller.IsAdmin() && !caller.Owns(o.UserID) {
		return Order{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	if o.Status == StatusCancelled {
		return Order{}, apperr.Wrap(apperr.KindValidation, "Order is already cancelled", ErrAlreadyCancelled)
	}
	if o.Status == StatusDelivered {
		return Order{}, apperr.Wrap(apperr.KindValidation, "Cannot cancel order that is delivered", ErrInvalidTransition)
	}

	s.restoreStock(ctx, o.Items)
	return s.store.SetCancelled(ctx, id, s.now())
}

// UpdateStatus applies an admin status change through the transition table.
// Delivery stamps deliveredAt and force-marks the payment as paid;
// cancellation restores stock.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Order, error) {
	if !ValidStatus(next) {
		return Order{}, apperr.Newf(apperr.KindValidation, "Invalid status: %s", next)
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, next) {
		return Order{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Cannot move order from %s to %s", o.Status, next), ErrInvalidTransition)
	}

	switch next {
	case StatusDelivered:
		return s.store.SetDelivered(ctx, id, s.now())
	case StatusCancelled:
		s.restoreStock(ctx, o.Items)
		return s.store.SetCancelled(ctx, id, s.now())
	default:
		return s.store.SetStatus(ctx, id, next)
	}
}

// Delete removes an order record. Stock is restored first unless the order
// already reconciled it by being delivered or cancelled.
func (s *Service) Delete(ctx context.Context, id string) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != StatusDelivered && o.Status != StatusCancelled {
		s.restoreStock(ctx, o.Items)
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}
