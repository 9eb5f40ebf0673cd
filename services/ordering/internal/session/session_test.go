package session

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/appetiteclub/seatside/pkg/enums/orderstatus"
	"github.com/appetiteclub/seatside/pkg/event"
	"github.com/appetiteclub/seatside/pkg/ledgerapi"
	"github.com/appetiteclub/seatside/services/ordering/internal/lifecycle"
	"github.com/appetiteclub/seatside/services/ordering/internal/menu"
	"github.com/appetiteclub/seatside/services/ordering/internal/reconcile"
	"github.com/appetiteclub/seatside/services/ordering/internal/window"
)

const ticket = "T-100"

func testReservation() ledgerapi.Reservation {
	return ledgerapi.Reservation{
		TicketID:  ticket,
		Date:      "2024-01-01",
		TimeRange: "6:00 PM - 9:00 PM",
		GuestName: "Asha",
		Occasion: ledgerapi.NewOccasionPayload(
			ledgerapi.Birthday{Celebrant: "Asha", Age: 30}, 500,
		),
	}
}

func calculatorAt(now time.Time) *window.Calculator {
	c := window.NewCalculator(window.DefaultLead, time.UTC)
	c.Now = func() time.Time { return now }
	return c
}

var (
	duringShow = time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)
	beforeShow = time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
	afterShow  = time.Date(2024, 1, 1, 21, 30, 0, 0, time.UTC)
)

func openSession(t *testing.T, b *MockBoundary, now time.Time) *Session {
	t.Helper()
	reg := NewRegistry(Deps{Boundary: b, Window: calculatorAt(now)})
	s, err := reg.Open(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func fillCart(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.AddToCart(ctx, "paneer-tikka", menu.VariantFull, 1); err != nil {
		t.Fatalf("AddToCart(paneer-tikka) error = %v", err)
	}
	if _, err := s.AddToCart(ctx, "brownie", "", 2); err != nil {
		t.Fatalf("AddToCart(brownie) error = %v", err)
	}
}

func TestPlaceOrderRoundTrip(t *testing.T) {
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)
	fillCart(t, s)

	if got := s.Cart().Total().InexactFloat64(); got != 540 {
		t.Fatalf("cart total = %v, want 540", got)
	}

	rec, err := s.PlaceOrder(context.Background(), ledgerapi.LedgerFood)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if rec.Total != 540 {
		t.Errorf("order total = %v, want 540", rec.Total)
	}
	if rec.Status != orderstatus.Statuses.Placed {
		t.Errorf("order status = %v, want placed", rec.Status)
	}
	for _, it := range rec.Items {
		if it.ItemID == "" {
			t.Errorf("item %s has no server id", it.LineID)
		}
	}
	if !s.Cart().IsEmpty() {
		t.Error("cart should be cleared after a successful placement")
	}
	if !reflect.DeepEqual(s.Order(ledgerapi.LedgerFood), rec) {
		t.Error("session view should equal the adopted server echo")
	}
}

func TestPlaceOrderRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		submit func(context.Context, string, string, ledgerapi.OrderMutation) (ledgerapi.MutationResult, error)
		isErr  func(error) bool
	}{
		{
			name: "networkFailure",
			submit: func(context.Context, string, string, ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
				return ledgerapi.MutationResult{}, errors.New("connection refused")
			},
			isErr: func(err error) bool { return err != nil },
		},
		{
			name: "rejected",
			submit: func(context.Context, string, string, ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
				return ledgerapi.MutationResult{Error: "kitchen closed"}, &ledgerapi.RejectedError{Message: "kitchen closed"}
			},
			isErr: func(err error) bool {
				var rejected *ledgerapi.RejectedError
				return errors.As(err, &rejected)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewMockBoundary(testReservation())
			b.SetOrder(ledgerapi.LedgerFood, ledgerapi.OrderView{
				Items:  []ledgerapi.OrderedItem{{ItemID: "item-0", LineID: "brownie", Name: "Chocolate Brownie", UnitPrice: 130, Quantity: 1}},
				Status: "placed",
				Total:  130,
			})
			s := openSession(t, b, duringShow)
			fillCart(t, s)

			beforeOrder := s.Order(ledgerapi.LedgerFood)
			beforeCart := s.Cart()

			b.SubmitFunc = tt.submit
			_, err := s.PlaceOrder(context.Background(), ledgerapi.LedgerFood)
			if !tt.isErr(err) {
				t.Fatalf("PlaceOrder() error = %v", err)
			}

			if got := s.Order(ledgerapi.LedgerFood); !reflect.DeepEqual(got, beforeOrder) {
				t.Errorf("order view after rollback = %+v, want %+v", got, beforeOrder)
			}
			if got := s.Cart(); !reflect.DeepEqual(got, beforeCart) {
				t.Errorf("cart after failed placement = %+v, want %+v", got, beforeCart)
			}
		})
	}
}

func TestCancelDeliveredOrder(t *testing.T) {
	b := NewMockBoundary(testReservation())
	b.SetOrder(ledgerapi.LedgerFood, ledgerapi.OrderView{
		Items:  []ledgerapi.OrderedItem{{ItemID: "item-0", LineID: "brownie", Name: "Chocolate Brownie", UnitPrice: 130, Quantity: 1}},
		Status: "delivered",
		Total:  130,
	})
	s := openSession(t, b, duringShow)

	_, err := s.CancelOrder(context.Background(), ledgerapi.LedgerFood)
	if !errors.Is(err, lifecycle.ErrAlreadyDelivered) {
		t.Fatalf("CancelOrder() error = %v, want ErrAlreadyDelivered", err)
	}
	if b.SubmitCount() != 0 {
		t.Error("a rejected cancel must not reach the ledger")
	}
	if got := s.Order(ledgerapi.LedgerFood).Status; got != orderstatus.Statuses.Delivered {
		t.Errorf("status = %v, want delivered", got)
	}
}

func TestCancelFlows(t *testing.T) {
	ctx := context.Background()
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)
	fillCart(t, s)

	rec, err := s.PlaceOrder(ctx, ledgerapi.LedgerFood)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	rec, err = s.CancelItem(ctx, ledgerapi.LedgerFood, rec.Items[0].ItemID)
	if err != nil {
		t.Fatalf("CancelItem() error = %v", err)
	}
	if len(rec.Items) != 1 || rec.Total != 260 {
		t.Errorf("after CancelItem: %d items, total %v", len(rec.Items), rec.Total)
	}
	if got := b.Submitted[len(b.Submitted)-1]; !got.HasRemove() || got.HasReplace() {
		t.Errorf("CancelItem sent %+v, want a remove-by-id mutation", got)
	}

	rec, err = s.ChangeOrderedQuantity(ctx, ledgerapi.LedgerFood, rec.Items[0].ItemID, -5)
	if err != nil {
		t.Fatalf("ChangeOrderedQuantity() error = %v", err)
	}
	if rec.Items[0].Quantity != 1 {
		t.Errorf("quantity = %d, want 1", rec.Items[0].Quantity)
	}

	rec, err = s.CancelOrder(ctx, ledgerapi.LedgerFood)
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if rec.Status != orderstatus.Statuses.Cancelled || !rec.IsEmpty() {
		t.Errorf("after CancelOrder: %+v", rec)
	}
}

func TestStaffToggles(t *testing.T) {
	ctx := context.Background()
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)
	fillCart(t, s)
	if _, err := s.PlaceOrder(ctx, ledgerapi.LedgerFood); err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	s.window.Now = func() time.Time { return afterShow }

	if _, err := s.MarkReady(ctx, ledgerapi.LedgerFood); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	rec, err := s.MarkDelivered(ctx, ledgerapi.LedgerFood)
	if err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}
	if rec.Status != orderstatus.Statuses.Delivered {
		t.Errorf("status = %v, want delivered", rec.Status)
	}
}

func TestWindowGate(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantKind window.Kind
	}{
		{name: "tooEarly", now: beforeShow, wantKind: window.TooEarly},
		{name: "tooLate", now: afterShow, wantKind: window.TooLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewMockBoundary(testReservation())
			s := openSession(t, b, duringShow)
			fillCart(t, s)

			s.window.Now = func() time.Time { return tt.now }

			_, err := s.PlaceOrder(context.Background(), ledgerapi.LedgerFood)
			var werr *window.Error
			if !errors.As(err, &werr) {
				t.Fatalf("PlaceOrder() error = %v, want *window.Error", err)
			}
			if werr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", werr.Kind, tt.wantKind)
			}
			if b.SubmitCount() != 0 {
				t.Error("a closed window must not reach the ledger")
			}
			if s.Cart().Len() != 2 {
				t.Error("cart must be kept while the window is closed")
			}
		})
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)

	_, err := s.PlaceOrder(context.Background(), ledgerapi.LedgerFood)
	if !errors.Is(err, lifecycle.ErrEmptyCart) {
		t.Fatalf("PlaceOrder() error = %v, want ErrEmptyCart", err)
	}
	if b.SubmitCount() != 0 {
		t.Error("empty cart must be rejected locally")
	}
}

func TestPlaceOrderInvalidLedger(t *testing.T) {
	s := openSession(t, NewMockBoundary(testReservation()), duringShow)
	fillCart(t, s)

	if _, err := s.PlaceOrder(context.Background(), "Food Court!"); !errors.Is(err, ErrInvalidLedgerName) {
		t.Fatalf("PlaceOrder() error = %v, want ErrInvalidLedgerName", err)
	}
}

func TestConcurrentMutationRejected(t *testing.T) {
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)
	fillCart(t, s)

	release := make(chan struct{})
	entered := make(chan struct{})
	b.SubmitFunc = func(ctx context.Context, _, _ string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
		close(entered)
		<-release
		return ledgerapi.MutationResult{Success: true, Order: ledgerapi.OrderView{Items: m.Items, Status: "placed"}}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.PlaceOrder(context.Background(), ledgerapi.LedgerFood)
		done <- err
	}()
	<-entered

	if _, err := s.CancelOrder(context.Background(), ledgerapi.LedgerFood); !errors.Is(err, reconcile.ErrMutationInFlight) {
		t.Errorf("CancelOrder() error = %v, want ErrMutationInFlight", err)
	}
	if _, err := s.AddDecoration(context.Background()); err != nil {
		t.Errorf("cart change during order commit: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if s.Cart().Len() != 1 {
		t.Errorf("cart should keep the line added during the commit, has %d", s.Cart().Len())
	}
}

func TestAddDecoration(t *testing.T) {
	s := openSession(t, NewMockBoundary(testReservation()), duringShow)

	for i := 0; i < 2; i++ {
		if _, err := s.AddDecoration(context.Background()); err != nil {
			t.Fatalf("AddDecoration() error = %v", err)
		}
	}

	c := s.Cart()
	line, ok := c.Get("decoration-birthday")
	if !ok {
		t.Fatalf("decoration line missing: %+v", c.Lines)
	}
	if line.Quantity != 1 || !line.IsDecorationCharge || line.UnitPrice != 500 {
		t.Errorf("decoration line = %+v", line)
	}
}

func TestDecorationChargedOnceAcrossPlacements(t *testing.T) {
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)
	ctx := context.Background()

	if _, err := s.AddDecoration(ctx); err != nil {
		t.Fatalf("AddDecoration() error = %v", err)
	}
	if _, err := s.AddToCart(ctx, "brownie", "", 1); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if _, err := s.PlaceOrder(ctx, ledgerapi.LedgerFood); err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if _, err := s.AddDecoration(ctx); !errors.Is(err, ErrDecorationOrdered) {
		t.Fatalf("second AddDecoration() error = %v, want ErrDecorationOrdered", err)
	}
	if _, err := s.AddToCart(ctx, "brownie", "", 1); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	rec, err := s.PlaceOrder(ctx, ledgerapi.LedgerFood)
	if err != nil {
		t.Fatalf("second PlaceOrder() error = %v", err)
	}

	var decorations int
	for _, it := range rec.Items {
		if it.IsDecorationCharge {
			decorations += it.Quantity
		}
	}
	if decorations != 1 {
		t.Errorf("decoration quantity = %d, want 1", decorations)
	}
	if rec.Total != 760 {
		t.Errorf("order total = %v, want 760", rec.Total)
	}
}

func TestPlaceOrderKeepsQuantityAddedDuringCommit(t *testing.T) {
	b := NewMockBoundary(testReservation())
	s := openSession(t, b, duringShow)
	ctx := context.Background()
	if _, err := s.AddToCart(ctx, "brownie", "", 2); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	release := make(chan struct{})
	entered := make(chan struct{})
	b.SubmitFunc = func(ctx context.Context, _, _ string, m ledgerapi.OrderMutation) (ledgerapi.MutationResult, error) {
		close(entered)
		<-release
		return ledgerapi.MutationResult{Success: true, Order: ledgerapi.OrderView{Items: m.Items, Status: "placed"}}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.PlaceOrder(ctx, ledgerapi.LedgerFood)
		done <- err
	}()
	<-entered

	if _, err := s.ChangeCartQuantity(ctx, "brownie", 3); err != nil {
		t.Fatalf("ChangeCartQuantity() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	line, ok := s.Cart().Get("brownie")
	if !ok || line.Quantity != 3 {
		t.Errorf("cart line = %+v (found %v), want the 3 added during the commit", line, ok)
	}
}

func TestAddDecorationWithoutOccasion(t *testing.T) {
	r := testReservation()
	r.Occasion = ledgerapi.NewOccasionPayload(ledgerapi.NoOccasion{}, 0)
	s := openSession(t, NewMockBoundary(r), duringShow)

	if _, err := s.AddDecoration(context.Background()); !errors.Is(err, ErrNoDecoration) {
		t.Fatalf("AddDecoration() error = %v, want ErrNoDecoration", err)
	}
}

func TestAddToCartErrors(t *testing.T) {
	s := openSession(t, NewMockBoundary(testReservation()), duringShow)
	ctx := context.Background()

	if _, err := s.AddToCart(ctx, "missing", "", 1); !errors.Is(err, ErrMenuItemNotFound) {
		t.Errorf("unknown item error = %v", err)
	}
	if _, err := s.AddToCart(ctx, "paneer-tikka", menu.VariantLarge, 1); !errors.Is(err, menu.ErrUnknownVariant) {
		t.Errorf("unknown variant error = %v", err)
	}
	if !s.Cart().IsEmpty() {
		t.Error("failed additions must leave the cart empty")
	}
}

func TestMenuFallback(t *testing.T) {
	b := NewMockBoundary(testReservation())
	calls := 0
	b.FetchMenuFunc = func(context.Context) ([]map[string]interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("feed down")
		}
		return b.menu, nil
	}
	s := openSession(t, b, duringShow)

	if src := s.Menu(context.Background()); !src.IsFallback() {
		t.Error("first load should fall back")
	}
	if src := s.Menu(context.Background()); src.IsFallback() || len(src.Items) != 2 {
		t.Errorf("second load = %+v, want the live menu", src)
	}
	s.Menu(context.Background())
	if calls != 2 {
		t.Errorf("live menu should be cached, feed called %d times", calls)
	}
}

func TestRegistryOpen(t *testing.T) {
	b := NewMockBoundary(testReservation())
	reg := NewRegistry(Deps{Boundary: b, Window: calculatorAt(duringShow)})

	if _, err := reg.Open(context.Background(), "T-404"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("Open() error = %v, want ErrTicketNotFound", err)
	}

	first, err := reg.Open(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	second, _ := reg.Open(context.Background(), ticket)
	if first != second {
		t.Error("Open() should return the cached session")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}

	reg.Close(ticket)
	if _, ok := reg.Get(ticket); ok {
		t.Error("Close() should drop the session")
	}
}

func TestRegistryDropsClosedSessions(t *testing.T) {
	b := NewMockBoundary(testReservation())
	now := duringShow
	calc := window.NewCalculator(window.DefaultLead, time.UTC)
	calc.Now = func() time.Time { return now }
	reg := NewRegistry(Deps{Boundary: b, Window: calc})

	first, err := reg.Open(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}

	now = afterShow
	if n := reg.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}

	again, err := reg.Open(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Open() after show error = %v", err)
	}
	if again == first {
		t.Error("Open() after show should load a fresh session")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want closed sessions left uncached", reg.Len())
	}
}

func TestOrderReadDoesNotCreateLedgers(t *testing.T) {
	s := openSession(t, NewMockBoundary(testReservation()), duringShow)

	rec := s.Order("anything-at-all")
	if !rec.IsEmpty() {
		t.Errorf("Order() = %+v, want an empty draft", rec)
	}
	if got := len(s.Orders()); got != 0 {
		t.Errorf("Orders() has %d ledgers, want 0", got)
	}
}

func TestOrderEventSubscriberRefreshes(t *testing.T) {
	ctx := context.Background()
	b := NewMockBoundary(testReservation())
	reg := NewRegistry(Deps{Boundary: b, Window: calculatorAt(duringShow)})
	s, err := reg.Open(ctx, ticket)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	sub := NewMockSubscriber()
	if err := NewOrderEventSubscriber(sub, reg, nil).Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	b.SetOrder("bar", ledgerapi.OrderView{
		Items:  []ledgerapi.OrderedItem{{ItemID: "x", LineID: "cold-coffee", Name: "Cold Coffee", UnitPrice: 150, Quantity: 1}},
		Status: "ready",
		Total:  150,
	})

	msg, _ := json.Marshal(event.OrderChangedEvent{EventType: event.EventOrderChanged, TicketID: ticket, Ledger: "bar"})
	if err := sub.Deliver(ctx, event.LedgerOrdersTopic, msg); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	rec := s.Order("bar")
	if rec.Status != orderstatus.Statuses.Ready || rec.Total != 150 {
		t.Errorf("refreshed order = %+v", rec)
	}

	other, _ := json.Marshal(event.OrderChangedEvent{EventType: event.EventOrderChanged, TicketID: "T-unknown"})
	if err := sub.Deliver(ctx, event.LedgerOrdersTopic, other); err != nil {
		t.Errorf("event for a closed session should be ignored, got %v", err)
	}
	if err := sub.Deliver(ctx, event.LedgerOrdersTopic, []byte("not json")); err != nil {
		t.Errorf("invalid event should be ignored, got %v", err)
	}
}

func TestDecorationLine(t *testing.T) {
	tests := []struct {
		name    string
		payload ledgerapi.OccasionPayload
		wantOK  bool
		wantID  string
	}{
		{name: "birthday", payload: ledgerapi.NewOccasionPayload(ledgerapi.Birthday{Celebrant: "Ravi"}, 300), wantOK: true, wantID: "decoration-birthday"},
		{name: "corporate", payload: ledgerapi.NewOccasionPayload(ledgerapi.Corporate{Company: "Acme"}, 1000), wantOK: true, wantID: "decoration-corporate"},
		{name: "noCharge", payload: ledgerapi.NewOccasionPayload(ledgerapi.Proposal{Partner: "Mira"}, 0)},
		{name: "none", payload: ledgerapi.NewOccasionPayload(ledgerapi.NoOccasion{}, 250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := DecorationLine(tt.payload)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && line.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", line.ID, tt.wantID)
			}
		})
	}
}
