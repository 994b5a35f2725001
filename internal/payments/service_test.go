package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/orders"
	"github.com/Viduth04/imax-backend/internal/products"

	"github.com/golang-jwt/jwt/v5"
)

type fakeOrders struct {
	orders map[string]orders.Order
}

func (f *fakeOrders) Get(_ context.Context, id string) (orders.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return orders.Order{}, apperr.New(apperr.KindNotFound, "Order not found")
	}
	return o, nil
}

func (f *fakeOrders) SetPaymentIntent(_ context.Context, id, intentRef string) error {
	o := f.orders[id]
	o.PaymentIntentID = intentRef
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id string, at time.Time, details orders.PaymentMethodDetails) (orders.Order, error) {
	o := f.orders[id]
	o.PaymentStatus = orders.PaymentPaid
	if o.Status == orders.StatusPending {
		o.Status = orders.StatusProcessing
	}
	if o.PaidAt == nil {
		o.PaidAt = &at
	}
	o.PaymentMethodDetails = &details
	f.orders[id] = o
	return o, nil
}

type fakeCatalog struct {
	stock map[string]int
}

func (f *fakeCatalog) AdjustQuantity(_ context.Context, id string, delta int) error {
	if f.stock[id]+delta < 0 {
		return apperr.Wrap(apperr.KindValidation, "Insufficient stock", products.ErrInsufficientStock)
	}
	f.stock[id] += delta
	return nil
}

type fakeCart struct {
	cleared []string
}

func (f *fakeCart) Clear(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeProcessor struct {
	intents   map[string]Intent
	nextID    string
	created   int
	updated   int
	retrieval error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amount int64, _ string, metadata map[string]string) (Intent, error) {
	f.created++
	in := Intent{
		ID:           f.nextID,
		ClientSecret: f.nextID + "_secret",
		Status:       IntentRequiresPaymentMethod,
		Amount:       amount,
		Metadata:     metadata,
	}
	f.intents[in.ID] = in
	return in, nil
}

func (f *fakeProcessor) RetrieveIntent(_ context.Context, ref string) (Intent, error) {
	if f.retrieval != nil {
		return Intent{}, f.retrieval
	}
	in, ok := f.intents[ref]
	if !ok {
		return Intent{}, apperr.New(apperr.KindExternal, "Failed to retrieve payment intent")
	}
	return in, nil
}

func (f *fakeProcessor) UpdateIntentAmount(_ context.Context, ref string, amount int64) (Intent, error) {
	f.updated++
	in := f.intents[ref]
	in.Amount = amount
	f.intents[ref] = in
	return in, nil
}

func owner() auth.Claims {
	return auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}, Role: auth.RoleUser}
}

func testOrder() orders.Order {
	return orders.Order{
		ID:            "o1",
		UserID:        "u1",
		Items:         []orders.Item{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: orders.MethodCreditCard,
		PaymentStatus: orders.PaymentPending,
		Status:        orders.StatusPending,
		Total:         120,
	}
}

func newFixture() (*Service, *fakeOrders, *fakeCatalog, *fakeCart, *fakeProcessor) {
	store := &fakeOrders{orders: map[string]orders.Order{"o1": testOrder()}}
	catalog := &fakeCatalog{stock: map[string]int{"p1": 10}}
	ct := &fakeCart{}
	proc := &fakeProcessor{intents: map[string]Intent{}, nextID: "pi_1"}
	svc := NewService(store, catalog, ct, proc, "usd")
	svc.WithClock(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) })
	return svc, store, catalog, ct, proc
}

func succeededIntent(orderID string) Intent {
	return Intent{
		ID:       "pi_1",
		Status:   IntentSucceeded,
		Amount:   12000,
		Metadata: map[string]string{"order_id": orderID, "user_id": "u1"},
		Card:     &CardDetails{Brand: "visa", Last4: "4242", ExpMonth: 4, ExpYear: 2030, ReceiptURL: "https://r"},
	}
}

func TestCreateIntent(t *testing.T) {
	svc, store, _, _, proc := newFixture()

	in, err := svc.CreateOrReuseIntent(context.Background(), owner(), "o1")
	if err != nil {
		t.Fatalf("CreateOrReuseIntent: %v", err)
	}
	if in.Amount != 12000 {
		t.Fatalf("amount = %d, want 12000", in.Amount)
	}
	if store.orders["o1"].PaymentIntentID != "pi_1" {
		t.Fatalf("intent not recorded on order")
	}
	if proc.created != 1 {
		t.Fatalf("created = %d, want 1", proc.created)
	}
}

func TestReuseIntentReconcilesAmount(t *testing.T) {
	svc, store, _, _, proc := newFixture()

	o := store.orders["o1"]
	o.PaymentIntentID = "pi_1"
	store.orders["o1"] = o
	proc.intents["pi_1"] = Intent{ID: "pi_1", Status: IntentRequiresPaymentMethod, Amount: 9000}

	in, err := svc.CreateOrReuseIntent(context.Background(), owner(), "o1")
	if err != nil {
		t.Fatalf("CreateOrReuseIntent: %v", err)
	}
	if proc.created != 0 || proc.updated != 1 {
		t.Fatalf("created/updated = %d/%d, want 0/1", proc.created, proc.updated)
	}
	if in.Amount != 12000 {
		t.Fatalf("amount = %d, want 12000", in.Amount)
	}
}

func TestCreateIntentRejectsPaidOrder(t *testing.T) {
	svc, store, _, _, _ := newFixture()

	o := store.orders["o1"]
	o.PaymentStatus = orders.PaymentPaid
	store.orders["o1"] = o

	_, err := svc.CreateOrReuseIntent(context.Background(), owner(), "o1")
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("err = %v, want ErrAlreadyPaid", err)
	}
}

func TestCreateIntentRejectsCashOnDelivery(t *testing.T) {
	svc, store, _, _, _ := newFixture()

	o := store.orders["o1"]
	o.PaymentMethod = orders.MethodCashOnDelivery
	store.orders["o1"] = o

	_, err := svc.CreateOrReuseIntent(context.Background(), owner(), "o1")
	if !errors.Is(err, ErrCashOnDelivery) {
		t.Fatalf("err = %v, want ErrCashOnDelivery", err)
	}
}

func TestCreateIntentDeniesStrangers(t *testing.T) {
	svc, _, _, _, _ := newFixture()

	stranger := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u2"}, Role: auth.RoleUser}
	_, err := svc.CreateOrReuseIntent(context.Background(), stranger, "o1")
	if apperr.KindOf(err) != apperr.KindAccessDenied {
		t.Fatalf("err = %v, want access denied", err)
	}
}

func TestConfirmSettlesOrder(t *testing.T) {
	svc, store, catalog, ct, proc := newFixture()
	proc.intents["pi_1"] = succeededIntent("o1")

	o, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if o.PaymentStatus != orders.PaymentPaid || o.Status != orders.StatusProcessing {
		t.Fatalf("order = %s/%s, want paid/processing", o.PaymentStatus, o.Status)
	}
	if o.PaidAt == nil {
		t.Fatalf("paidAt not stamped")
	}
	if o.PaymentMethodDetails == nil || o.PaymentMethodDetails.Last4 != "4242" {
		t.Fatalf("card snapshot missing: %+v", o.PaymentMethodDetails)
	}
	if catalog.stock["p1"] != 8 {
		t.Fatalf("stock = %d, want 8", catalog.stock["p1"])
	}
	if len(ct.cleared) != 1 || ct.cleared[0] != "u1" {
		t.Fatalf("cart not cleared: %v", ct.cleared)
	}
	if store.orders["o1"].PaymentStatus != orders.PaymentPaid {
		t.Fatalf("paid flag not persisted")
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	svc, _, catalog, ct, proc := newFixture()
	proc.intents["pi_1"] = succeededIntent("o1")

	if _, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1"); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	o, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1")
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if o.PaymentStatus != orders.PaymentPaid {
		t.Fatalf("second confirm lost paid status")
	}
	if catalog.stock["p1"] != 8 {
		t.Fatalf("stock decremented twice: %d", catalog.stock["p1"])
	}
	if len(ct.cleared) != 1 {
		t.Fatalf("cart cleared twice: %v", ct.cleared)
	}
}

func TestConfirmRejectsForeignIntent(t *testing.T) {
	svc, _, catalog, _, proc := newFixture()
	proc.intents["pi_1"] = succeededIntent("some-other-order")

	_, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1")
	if !errors.Is(err, ErrIntentMismatch) {
		t.Fatalf("err = %v, want ErrIntentMismatch", err)
	}
	if catalog.stock["p1"] != 10 {
		t.Fatalf("stock changed on mismatched intent")
	}
}

func TestConfirmIncompletePayment(t *testing.T) {
	svc, store, _, _, proc := newFixture()
	in := succeededIntent("o1")
	in.Status = IntentRequiresPaymentMethod
	proc.intents["pi_1"] = in

	_, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1")
	if !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("err = %v, want ErrPaymentIncomplete", err)
	}
	if store.orders["o1"].PaymentStatus != orders.PaymentPending {
		t.Fatalf("order settled on incomplete payment")
	}
}

func TestConfirmUnhandledState(t *testing.T) {
	svc, _, _, _, proc := newFixture()
	in := succeededIntent("o1")
	in.Status = "processing"
	proc.intents["pi_1"] = in

	_, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1")
	if !errors.Is(err, ErrUnhandledPaymentState) {
		t.Fatalf("err = %v, want ErrUnhandledPaymentState", err)
	}
}

func TestConfirmProcessorFailureLeavesState(t *testing.T) {
	svc, store, catalog, ct, proc := newFixture()
	proc.retrieval = apperr.New(apperr.KindExternal, "Failed to retrieve payment intent")

	_, err := svc.Confirm(context.Background(), owner(), "o1", "pi_1")
	if apperr.KindOf(err) != apperr.KindExternal {
		t.Fatalf("err = %v, want external error", err)
	}
	if store.orders["o1"].PaymentStatus != orders.PaymentPending {
		t.Fatalf("order changed on processor failure")
	}
	if catalog.stock["p1"] != 10 || len(ct.cleared) != 0 {
		t.Fatalf("side effects ran on processor failure")
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     int64
	}{
		{120, "usd", 12000},
		{19.99, "usd", 1999},
		{10.005, "usd", 1001},
		{500, "jpy", 500},
		{500, "JPY", 500},
		{1234.56, "eur", 123456},
	}
	for _, tc := range cases {
		if got := ToMinorUnits(tc.amount, tc.currency); got != tc.want {
			t.Errorf("ToMinorUnits(%v, %s) = %d, want %d", tc.amount, tc.currency, got, tc.want)
		}
	}
}
