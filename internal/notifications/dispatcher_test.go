package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/email"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type realtimeCall struct {
	channel string
	event   string
}

type fakeRealtime struct {
	calls []realtimeCall
	err   error
}

func (f *fakeRealtime) Send(_ context.Context, channel, event string, _ any) error {
	f.calls = append(f.calls, realtimeCall{channel: channel, event: event})
	return f.err
}

type fakeRecorder struct {
	counts map[string]int
}

func (f *fakeRecorder) IncDispatch(channel, outcome string) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[channel+"/"+outcome]++
}

type fakeRepository struct {
	created  []*models.Notification
	createFn func(ctx context.Context, n *models.Notification) error
}

func (f *fakeRepository) Create(ctx context.Context, n *models.Notification) error {
	f.created = append(f.created, n)
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

var testStore = config.StoreConfig{
	Name:         "GearHub",
	SupportEmail: "support@gearhub.dev",
	AdminEmails:  "ops@gearhub.dev,owner@gearhub.dev",
	PublicURL:    "https://shop.gearhub.dev/",
}

func newTestDispatcher(t *testing.T, mailer Mailer, rt Realtime, repo *fakeRepository, rec *fakeRecorder) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(DispatcherParams{
		Mailer:   mailer,
		Realtime: rt,
		Repo:     repo,
		Metrics:  rec,
		Store:    testStore,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	return d
}

func orderCreated() *payloads.OrderCreatedEvent {
	code := "SAVE10"
	return &payloads.OrderCreatedEvent{
		OrderID:         uuid.New(),
		OrderNumber:     "GH2503140001",
		Email:           "ada@example.com",
		CustomerName:    "Ada Lovelace",
		Currency:        "USD",
		Subtotal:        10000,
		DiscountTotal:   1000,
		ShippingTotal:   0,
		TaxTotal:        800,
		GrandTotal:      9800,
		ItemCount:       2,
		CouponCode:      &code,
		PaymentProvider: enums.PaymentProviderCOD,
		CreatedAt:       time.Now(),
	}
}

func TestOrderCreatedFansOut(t *testing.T) {
	mailer := &fakeMailer{}
	rt := &fakeRealtime{}
	repo := &fakeRepository{}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, mailer, rt, repo, rec)

	require.NoError(t, d.OrderCreated(context.Background(), orderCreated()))

	require.Len(t, mailer.sent, 2)
	customer := mailer.sent[0]
	assert.Equal(t, []string{"ada@example.com"}, customer.To)
	assert.Equal(t, "Order Confirmation - GH2503140001", customer.Subject)
	assert.Contains(t, customer.HTML, "Ada Lovelace")
	assert.Contains(t, customer.HTML, "$98.00")
	assert.Contains(t, customer.HTML, "SAVE10")
	assert.Contains(t, customer.HTML, "https://shop.gearhub.dev/orders/GH2503140001")

	admin := mailer.sent[1]
	assert.Equal(t, []string{"ops@gearhub.dev", "owner@gearhub.dev"}, admin.To)
	assert.Equal(t, "ada@example.com", admin.ReplyTo)
	assert.True(t, strings.HasPrefix(admin.Subject, "New Order Received"))

	require.Len(t, rt.calls, 1)
	assert.Equal(t, realtimeCall{channel: AdminChannel, event: EventOrderCreated}, rt.calls[0])

	require.Len(t, repo.created, 1)
	assert.Equal(t, enums.NotificationTypeOrderCreated, repo.created[0].Type)
	assert.Equal(t, 2, rec.counts["email/sent"])
	assert.Equal(t, 1, rec.counts["realtime/sent"])
	assert.Equal(t, 1, rec.counts["in_app/sent"])
}

func TestOrderCreatedAttemptsEveryChannel(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	rt := &fakeRealtime{}
	repo := &fakeRepository{}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, mailer, rt, repo, rec)

	err := d.OrderCreated(context.Background(), orderCreated())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_confirmation")
	assert.Contains(t, err.Error(), "admin_new_order")

	assert.Len(t, rt.calls, 1)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, 2, rec.counts["email/failed"])
}

func TestOrderStatusChangedTargetsUserChannel(t *testing.T) {
	mailer := &fakeMailer{}
	rt := &fakeRealtime{}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, mailer, rt, &fakeRepository{}, rec)
	userID := uuid.New()

	evt := &payloads.OrderStatusChangedEvent{
		OrderID:        uuid.New(),
		OrderNumber:    "GH2503140001",
		UserID:         &userID,
		Email:          "ada@example.com",
		PreviousStatus: enums.OrderStatusPending,
		Status:         enums.OrderStatusOnTheWay,
	}
	require.NoError(t, d.OrderStatusChanged(context.Background(), evt))
	require.Len(t, rt.calls, 1)
	assert.Equal(t, "user-"+userID.String(), rt.calls[0].channel)
	assert.Equal(t, EventOrderStatusUpdated, rt.calls[0].event)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].HTML, enums.OrderStatusOnTheWay.Label())

	evt.UserID = nil
	require.NoError(t, d.OrderStatusChanged(context.Background(), evt))
	assert.Len(t, rt.calls, 1)
	assert.Equal(t, 1, rec.counts["realtime/skipped"])
}

func TestContactSubmittedMailsSupport(t *testing.T) {
	mailer := &fakeMailer{}
	repo := &fakeRepository{}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, mailer, nil, repo, rec)

	err := d.ContactSubmitted(context.Background(), &payloads.ContactSubmittedEvent{
		MessageID: uuid.New(),
		Name:      "Grace",
		Email:     "grace@example.com",
		Subject:   "Sizing <help>",
		Message:   "Does the 30L pack fit carry-on limits?",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"support@gearhub.dev"}, mailer.sent[0].To)
	assert.Equal(t, "grace@example.com", mailer.sent[0].ReplyTo)
	assert.Contains(t, mailer.sent[0].HTML, "Sizing &lt;help&gt;")
	require.Len(t, repo.created, 1)
	assert.Equal(t, enums.NotificationTypeContactMessage, repo.created[0].Type)
}

func TestDispatcherSkipsMissingChannels(t *testing.T) {
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, nil, nil, &fakeRepository{}, rec)
	require.NoError(t, d.OrderCreated(context.Background(), orderCreated()))
	assert.Equal(t, 2, rec.counts["email/skipped"])
	assert.Equal(t, 1, rec.counts["realtime/skipped"])
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$12.34", formatMoney(1234, "usd"))
	assert.Equal(t, "0.05 EUR", formatMoney(5, "EUR"))
}

func TestInAppFailureDoesNotStopOtherChannels(t *testing.T) {
	mailer := &fakeMailer{}
	rt := &fakeRealtime{}
	repo := &fakeRepository{createFn: func(context.Context, *models.Notification) error {
		return errors.New("insert failed")
	}}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, mailer, rt, repo, rec)

	err := d.OrderCreated(context.Background(), orderCreated())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create notification")

	assert.Len(t, mailer.sent, 2)
	assert.Len(t, rt.calls, 1)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, 1, rec.counts[channelInApp+"/"+outcomeFailed])
	assert.Zero(t, rec.counts[channelInApp+"/"+outcomeSent])
}
