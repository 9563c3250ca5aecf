package checkout

import (
	"context"
	"errors"
	"testing"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	accounts  map[string]*models.Identity
	secrets   map[int64]string
	nextID    int64
	lookupErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		accounts: make(map[string]*models.Identity),
		secrets:  make(map[int64]string),
		nextID:   1,
	}
}

func (d *fakeDirectory) seed(name, contact, secret string) *models.Identity {
	id := &models.Identity{ID: d.nextID, Name: name, Contact: contact}
	d.accounts[contact] = id
	d.secrets[id.ID] = secret
	d.nextID++
	return id
}

func (d *fakeDirectory) FindByContact(_ context.Context, contact string) (*models.Identity, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	if id, ok := d.accounts[contact]; ok {
		return id, nil
	}
	return nil, ErrIdentityNotFound
}

func (d *fakeDirectory) CreateAccount(_ context.Context, profile Profile) (*models.Identity, error) {
	id := d.seed(profile.Name, profile.Contact, profile.Secret)
	return id, nil
}

func (d *fakeDirectory) VerifyCredential(_ context.Context, identity *models.Identity, secret string) (bool, error) {
	return d.secrets[identity.ID] == secret, nil
}

type fakeSink struct {
	submitted []*OrderPayload
	nextID    int64
	err       error
}

func (s *fakeSink) Submit(_ context.Context, payload *OrderPayload) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.submitted = append(s.submitted, payload)
	s.nextID++
	return s.nextID, nil
}

func testCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	_, err := c.AddProduct(models.Product{ID: 1, Name: "Burger", Price: 2000}, 1)
	require.NoError(t, err)
	_, err = c.AddProduct(models.Product{ID: 2, Name: "Soda", Price: 500}, 2)
	require.NoError(t, err)
	return c // total 3000
}

func validAddress() models.Address {
	return models.Address{
		Street:       "Main St",
		Number:       "42",
		Neighborhood: "Center",
		City:         "Springfield",
		State:        "SP",
	}
}

// advanceToPayment walks a registered shopper to the Payment state on the
// delivery branch.
func advanceToPayment(t *testing.T, m *Machine, s *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "new@shop.test"}))
	require.NoError(t, m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "secret123"}))
	require.NoError(t, m.Apply(ctx, s, ChooseFulfillment{Type: models.FulfillmentDelivery}))
	require.NoError(t, m.Apply(ctx, s, SubmitAddress{Address: validAddress()}))
	require.Equal(t, StatePayment, s.State)
}

func TestIdentifyRoutesKnownContactToAuthenticate(t *testing.T) {
	dir := newFakeDirectory()
	dir.seed("Bruno", "bruno@shop.test", "hunter22")
	m := NewMachine(dir, &fakeSink{})
	s := NewSession(7, testCart(t), nil)

	require.Equal(t, StateIdentify, s.State)
	require.NoError(t, m.Apply(context.Background(), s, SubmitContact{Contact: "bruno@shop.test"}))

	assert.Equal(t, StateAuthenticate, s.State)
	assert.Nil(t, s.Identity)
}

func TestIdentifyRoutesUnknownContactToRegister(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)

	require.NoError(t, m.Apply(context.Background(), s, SubmitContact{Contact: "ghost@shop.test"}))

	assert.Equal(t, StateRegister, s.State)
	assert.Equal(t, "ghost@shop.test", s.Contact)
}

func TestIdentifyRequiresContact(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)

	err := m.Apply(context.Background(), s, SubmitContact{Contact: "  "})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "contact", vErr.Field)
	assert.Equal(t, StateIdentify, s.State)
}

func TestIdentifyCollaboratorFailureIsRecoverable(t *testing.T) {
	dir := newFakeDirectory()
	dir.lookupErr = errors.New("directory unavailable")
	m := NewMachine(dir, &fakeSink{})
	s := NewSession(7, testCart(t), nil)

	err := m.Apply(context.Background(), s, SubmitContact{Contact: "bruno@shop.test"})

	var cErr *CollaboratorError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, StateIdentify, s.State)

	dir.lookupErr = nil
	require.NoError(t, m.Apply(context.Background(), s, SubmitContact{Contact: "bruno@shop.test"}))
	assert.Equal(t, StateRegister, s.State)
}

func TestAuthenticateRetriesOnMismatch(t *testing.T) {
	dir := newFakeDirectory()
	dir.seed("Bruno", "bruno@shop.test", "hunter22")
	m := NewMachine(dir, &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "bruno@shop.test"}))

	err := m.Apply(ctx, s, SubmitCredential{Secret: "wrong"})
	assert.ErrorIs(t, err, ErrCredentialMismatch)
	assert.Equal(t, StateAuthenticate, s.State)

	// Unlimited retries, no lockout.
	err = m.Apply(ctx, s, SubmitCredential{Secret: "still wrong"})
	assert.ErrorIs(t, err, ErrCredentialMismatch)

	require.NoError(t, m.Apply(ctx, s, SubmitCredential{Secret: "hunter22"}))
	assert.Equal(t, StateOrderTypeSelect, s.State)
	require.NotNil(t, s.Identity)
	assert.Equal(t, "Bruno", s.Identity.Name)
}

func TestRegisterBlocksShortCredential(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "ghost@shop.test"}))

	err := m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "12345"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "credential", vErr.Field)
	assert.Equal(t, StateRegister, s.State)

	require.NoError(t, m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "123456"}))
	assert.Equal(t, StateOrderTypeSelect, s.State)
	require.NotNil(t, s.Identity)
	assert.Equal(t, "ghost@shop.test", s.Identity.Contact)
}

func TestRegisterRequiresName(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "ghost@shop.test"}))

	err := m.Apply(ctx, s, SubmitRegistration{Secret: "123456"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestPreAuthenticatedSessionSkipsIdentify(t *testing.T) {
	identity := &models.Identity{ID: 9, Name: "Carla", Contact: "carla@shop.test"}
	s := NewSession(7, testCart(t), identity)

	assert.Equal(t, StateOrderTypeSelect, s.State)

	// No structurally preceding step exists.
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	err := m.Apply(context.Background(), s, GoBack{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeliveryRequiresValidAddress(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "new@shop.test"}))
	require.NoError(t, m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "secret123"}))
	require.NoError(t, m.Apply(ctx, s, ChooseFulfillment{Type: models.FulfillmentDelivery}))

	addr := validAddress()
	addr.City = ""
	err := m.Apply(ctx, s, SubmitAddress{Address: addr})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "city", vErr.Field)
	assert.Equal(t, StateDeliveryDetails, s.State)

	err = m.Apply(ctx, s, SelectAddress{AddressID: "nope"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StateDeliveryDetails, s.State)

	require.NoError(t, m.Apply(ctx, s, SubmitAddress{Address: validAddress()}))
	assert.Equal(t, StatePayment, s.State)
	require.NotNil(t, s.SelectedAddress())
	assert.Equal(t, "Springfield", s.SelectedAddress().City)
}

func TestPickupNeedsNoAddress(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "new@shop.test"}))
	require.NoError(t, m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "secret123"}))
	require.NoError(t, m.Apply(ctx, s, ChooseFulfillment{Type: models.FulfillmentPickup}))
	require.NoError(t, m.Apply(ctx, s, ConfirmPickup{}))

	assert.Equal(t, StatePayment, s.State)
	assert.Nil(t, s.SelectedAddress())
}

func TestCashGuard(t *testing.T) {
	sink := &fakeSink{}
	m := NewMachine(newFakeDirectory(), sink)
	s := NewSession(7, testCart(t), nil)
	advanceToPayment(t, m, s) // cart total 3000
	ctx := context.Background()

	err := m.Apply(ctx, s, SubmitPayment{Method: models.PaymentMethodCash, Tendered: 2999})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tendered", vErr.Field)
	assert.Equal(t, StatePayment, s.State)
	assert.Empty(t, sink.submitted)

	require.NoError(t, m.Apply(ctx, s, SubmitPayment{Method: models.PaymentMethodCash, Tendered: 5000}))
	assert.Equal(t, StateFinalized, s.State)
	assert.Equal(t, int64(2000), s.Change)

	require.Len(t, sink.submitted, 1)
	payload := sink.submitted[0]
	require.Len(t, payload.Payments, 1)
	assert.Equal(t, int64(5000), payload.Payments[0].Tendered)
	assert.Equal(t, int64(2000), payload.Payments[0].Change)
}

func TestSubmitComposesOrderPayload(t *testing.T) {
	sink := &fakeSink{}
	m := NewMachine(newFakeDirectory(), sink)
	s := NewSession(7, testCart(t), nil)
	advanceToPayment(t, m, s)

	require.NoError(t, m.Apply(context.Background(), s, SubmitPayment{Method: models.PaymentMethodCard}))

	require.Len(t, sink.submitted, 1)
	payload := sink.submitted[0]
	assert.Equal(t, int64(7), payload.BusinessID)
	assert.Equal(t, "Ana", payload.UserName)
	assert.Equal(t, int64(3000), payload.TotalAmount)
	assert.Equal(t, models.FulfillmentDelivery, payload.FulfillmentType)
	require.NotNil(t, payload.Address)
	assert.Equal(t, models.OrderStatusPending, payload.Status)
	assert.Len(t, payload.Items, 2)
	assert.False(t, payload.CreatedAt.IsZero())

	// Successful submission clears the cart.
	assert.True(t, s.Cart.Empty())
	assert.NotZero(t, s.OrderID)
}

func TestPickupOrderHasNullAddress(t *testing.T) {
	sink := &fakeSink{}
	m := NewMachine(newFakeDirectory(), sink)
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "new@shop.test"}))
	require.NoError(t, m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "secret123"}))
	require.NoError(t, m.Apply(ctx, s, ChooseFulfillment{Type: models.FulfillmentPickup}))
	require.NoError(t, m.Apply(ctx, s, ConfirmPickup{}))
	require.NoError(t, m.Apply(ctx, s, SubmitPayment{Method: models.PaymentMethodPix}))

	require.Len(t, sink.submitted, 1)
	assert.Nil(t, sink.submitted[0].Address)
}

func TestSubmissionFailureStaysAtPaymentForRetry(t *testing.T) {
	sink := &fakeSink{err: &SubmitError{Kind: SubmitTransient, Err: errors.New("sink timeout")}}
	m := NewMachine(newFakeDirectory(), sink)
	s := NewSession(7, testCart(t), nil)
	advanceToPayment(t, m, s)
	ctx := context.Background()

	err := m.Apply(ctx, s, SubmitPayment{Method: models.PaymentMethodCard})
	var sErr *SubmitError
	require.ErrorAs(t, err, &sErr)
	assert.True(t, sErr.Retryable())
	assert.Equal(t, StatePayment, s.State)
	assert.False(t, s.Cart.Empty())

	sink.err = nil
	require.NoError(t, m.Apply(ctx, s, SubmitPayment{Method: models.PaymentMethodCard}))
	assert.Equal(t, StateFinalized, s.State)
}

func TestBackNavigationPreservesCollectedData(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	advanceToPayment(t, m, s)
	ctx := context.Background()

	savedID := s.SelectedAddressID
	_ = savedID

	require.NoError(t, m.Apply(ctx, s, GoBack{}))
	assert.Equal(t, StateDeliveryDetails, s.State)
	require.NoError(t, m.Apply(ctx, s, GoBack{}))
	assert.Equal(t, StateOrderTypeSelect, s.State)
	require.NoError(t, m.Apply(ctx, s, GoBack{}))
	assert.Equal(t, StateRegister, s.State)
	require.NoError(t, m.Apply(ctx, s, GoBack{}))
	assert.Equal(t, StateIdentify, s.State)

	// Everything already collected survives the round trip.
	assert.NotNil(t, s.Identity)
	assert.Len(t, s.Addresses, 1)
	assert.Equal(t, models.FulfillmentDelivery, s.FulfillmentType)

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "new@shop.test"}))
	assert.Equal(t, StateAuthenticate, s.State)
}

func TestBackFromPickupPayment(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, SubmitContact{Contact: "new@shop.test"}))
	require.NoError(t, m.Apply(ctx, s, SubmitRegistration{Name: "Ana", Secret: "secret123"}))
	require.NoError(t, m.Apply(ctx, s, ChooseFulfillment{Type: models.FulfillmentPickup}))
	require.NoError(t, m.Apply(ctx, s, ConfirmPickup{}))

	require.NoError(t, m.Apply(ctx, s, GoBack{}))
	assert.Equal(t, StatePickupDetails, s.State)
}

func TestCancelAbandonsFromAnyState(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, s, Cancel{}))
	assert.Equal(t, StateAbandoned, s.State)

	// Terminal: nothing further is accepted.
	err := m.Apply(ctx, s, SubmitContact{Contact: "x@shop.test"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEventsRejectedInWrongState(t *testing.T) {
	m := NewMachine(newFakeDirectory(), &fakeSink{})
	s := NewSession(7, testCart(t), nil)
	ctx := context.Background()

	assert.ErrorIs(t, m.Apply(ctx, s, SubmitPayment{Method: models.PaymentMethodCard}), ErrInvalidTransition)
	assert.ErrorIs(t, m.Apply(ctx, s, ConfirmPickup{}), ErrInvalidTransition)
	assert.ErrorIs(t, m.Apply(ctx, s, SubmitCredential{Secret: "x"}), ErrInvalidTransition)
	assert.Equal(t, StateIdentify, s.State)
}
