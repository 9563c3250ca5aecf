package service

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/checkout"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	identity *models.Identity
	secret   string

	// When set, FindByContact signals entered and blocks until release
	// closes, so tests can observe the in-flight window deterministically.
	entered chan struct{}
	release chan struct{}
}

func (d *stubDirectory) FindByContact(ctx context.Context, contact string) (*models.Identity, error) {
	if d.entered != nil {
		close(d.entered)
		select {
		case <-d.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.identity != nil && d.identity.Contact == contact {
		return d.identity, nil
	}
	return nil, checkout.ErrIdentityNotFound
}

func (d *stubDirectory) CreateAccount(_ context.Context, profile checkout.Profile) (*models.Identity, error) {
	return &models.Identity{ID: 42, Name: profile.Name, Contact: profile.Contact}, nil
}

func (d *stubDirectory) VerifyCredential(_ context.Context, _ *models.Identity, secret string) (bool, error) {
	return secret == d.secret, nil
}

type stubSink struct {
	nextID int64
}

func (s *stubSink) Submit(_ context.Context, _ *checkout.OrderPayload) (int64, error) {
	s.nextID++
	return s.nextID, nil
}

type stubLoader struct {
	identity *models.Identity
}

func (l *stubLoader) GetUserByID(_ context.Context, id int64) (*models.Identity, error) {
	return l.identity, nil
}

func newCheckoutFixture(dir *stubDirectory) (*CheckoutService, *CartRegistry) {
	machine := checkout.NewMachine(dir, &stubSink{})
	carts := NewCartRegistry()
	svc := NewCheckoutService(machine, &stubLoader{}, carts, nil, 5*time.Second)
	return svc, carts
}

func TestCheckoutFullFlow(t *testing.T) {
	svc, carts := newCheckoutFixture(&stubDirectory{})
	ctx := context.Background()

	c := carts.Create()
	_, err := c.AddProduct(models.Product{ID: 1, Name: "Burger", Price: 2000}, 1)
	require.NoError(t, err)

	session, err := svc.Open(ctx, 7, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, checkout.StateIdentify, session.State)

	_, err = svc.Apply(ctx, session.ID, checkout.SubmitContact{Contact: "ana@shop.test"})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, session.ID, checkout.SubmitRegistration{Name: "Ana", Secret: "secret123"})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, session.ID, checkout.ChooseFulfillment{Type: models.FulfillmentPickup})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, session.ID, checkout.ConfirmPickup{})
	require.NoError(t, err)

	final, err := svc.Apply(ctx, session.ID, checkout.SubmitPayment{Method: models.PaymentMethodCash, Tendered: 2000})
	require.NoError(t, err)
	assert.Equal(t, checkout.StateFinalized, final.State)
	assert.NotZero(t, final.OrderID)

	// Finalized sessions are discarded.
	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = carts.Get(c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestOpenPreAuthenticated(t *testing.T) {
	dir := &stubDirectory{}
	machine := checkout.NewMachine(dir, &stubSink{})
	carts := NewCartRegistry()
	loader := &stubLoader{identity: &models.Identity{ID: 9, Name: "Carla", Contact: "carla@shop.test"}}
	svc := NewCheckoutService(machine, loader, carts, nil, 5*time.Second)

	c := carts.Create()
	session, err := svc.Open(context.Background(), 7, c.ID, 9)

	require.NoError(t, err)
	assert.Equal(t, checkout.StateOrderTypeSelect, session.State)
}

func TestApplyRejectsConcurrentEvents(t *testing.T) {
	dir := &stubDirectory{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, carts := newCheckoutFixture(dir)
	ctx := context.Background()

	c := carts.Create()
	_, err := c.AddProduct(models.Product{ID: 1, Name: "Burger", Price: 2000}, 1)
	require.NoError(t, err)
	session, err := svc.Open(ctx, 7, c.ID, 0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Apply(ctx, session.ID, checkout.SubmitContact{Contact: "ana@shop.test"})
		done <- err
	}()

	<-dir.entered

	// The lookup is in flight: further events are refused.
	_, err = svc.Apply(ctx, session.ID, checkout.SubmitContact{Contact: "other@shop.test"})
	assert.ErrorIs(t, err, ErrBusy)

	close(dir.release)
	require.NoError(t, <-done)

	updated, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StateRegister, updated.State)
}

func TestCancelDiscardsSessionKeepsCart(t *testing.T) {
	svc, carts := newCheckoutFixture(&stubDirectory{})
	ctx := context.Background()

	c := carts.Create()
	_, err := c.AddProduct(models.Product{ID: 1, Name: "Burger", Price: 2000}, 1)
	require.NoError(t, err)
	session, err := svc.Open(ctx, 7, c.ID, 0)
	require.NoError(t, err)

	result, err := svc.Apply(ctx, session.ID, checkout.Cancel{})
	require.NoError(t, err)
	assert.Equal(t, checkout.StateAbandoned, result.State)

	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Abandonment has no external side effect; the cart is untouched.
	kept, err := carts.Get(c.ID)
	require.NoError(t, err)
	assert.False(t, kept.Empty())
}

func TestApplyUnknownSession(t *testing.T) {
	svc, _ := newCheckoutFixture(&stubDirectory{})

	_, err := svc.Apply(context.Background(), "missing", checkout.GoBack{})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}
