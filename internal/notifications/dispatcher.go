package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/email"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

const (
	channelEmail    = "email"
	channelRealtime = "realtime"
	channelInApp    = "in_app"

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// Mailer sends one email.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Realtime pushes an event to a browser channel.
type Realtime interface {
	Send(ctx context.Context, channel, event string, data any) error
}

type dispatchRecorder interface {
	IncDispatch(channel, outcome string)
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// DispatcherParams groups the delivery channels. Mailer and Realtime are
// optional; a missing channel is counted as skipped.
type DispatcherParams struct {
	Mailer   Mailer
	Realtime Realtime
	Repo     notificationWriter
	Metrics  dispatchRecorder
	Store    config.StoreConfig
	Logger   *logger.Logger
}

// Dispatcher fans a domain event out to email, realtime and in-app channels.
// Every channel is attempted; failures are counted and returned together.
type Dispatcher struct {
	mailer   Mailer
	realtime Realtime
	repo     notificationWriter
	metrics  dispatchRecorder
	store    config.StoreConfig
	logg     *logger.Logger
}

// NewDispatcher validates params.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Dispatcher{
		mailer:   params.Mailer,
		realtime: params.Realtime,
		repo:     params.Repo,
		metrics:  params.Metrics,
		store:    params.Store,
		logg:     params.Logger,
	}, nil
}

// OrderCreated mails the customer and admins, pushes order-created to the
// admin channel and records an in-app notification.
func (d *Dispatcher) OrderCreated(ctx context.Context, evt *payloads.OrderCreatedEvent) error {
	ctx = d.logg.WithOrderNumber(ctx, evt.OrderNumber)
	name := evt.CustomerName
	if name == "" {
		name = "there"
	}
	coupon := ""
	if evt.CouponCode != nil {
		coupon = *evt.CouponCode
	}
	view := map[string]any{
		"Store":    d.store.Name,
		"Support":  d.store.SupportEmail,
		"Name":     name,
		"Email":    evt.Email,
		"Number":   evt.OrderNumber,
		"Items":    evt.ItemCount,
		"Provider": evt.PaymentProvider,
		"Currency": evt.Currency,
		"Subtotal": evt.Subtotal,
		"Discount": evt.DiscountTotal,
		"Coupon":   coupon,
		"Shipping": evt.ShippingTotal,
		"Tax":      evt.TaxTotal,
		"Total":    evt.GrandTotal,
		"Link":     d.link("/orders/" + evt.OrderNumber),
	}

	var errs error
	errs = multierr.Append(errs, d.mail(ctx, "order_confirmation", view, email.Message{
		To:      []string{evt.Email},
		ReplyTo: d.store.SupportEmail,
		Subject: fmt.Sprintf("Order Confirmation - %s", evt.OrderNumber),
		Text: fmt.Sprintf("Thanks for your order %s. Total: %s.",
			evt.OrderNumber, formatMoney(evt.GrandTotal, evt.Currency)),
	}))

	adminView := copyView(view)
	adminView["Link"] = d.link("/admin/orders/" + evt.OrderID.String())
	errs = multierr.Append(errs, d.mail(ctx, "admin_new_order", adminView, email.Message{
		To:      d.store.AdminRecipients(),
		ReplyTo: evt.Email,
		Subject: fmt.Sprintf("New Order Received - %s", evt.OrderNumber),
		Text: fmt.Sprintf("New order %s from %s for %s.",
			evt.OrderNumber, evt.Email, formatMoney(evt.GrandTotal, evt.Currency)),
	}))

	errs = multierr.Append(errs, d.push(ctx, AdminChannel, EventOrderCreated, map[string]any{
		"order_id":     evt.OrderID,
		"order_number": evt.OrderNumber,
		"grand_total":  evt.GrandTotal,
		"currency":     evt.Currency,
		"created_at":   evt.CreatedAt,
	}))

	link := "/admin/orders/" + evt.OrderID.String()
	errs = multierr.Append(errs, d.inApp(ctx, &models.Notification{
		Type:    enums.NotificationTypeOrderCreated,
		Title:   "New order " + evt.OrderNumber,
		Message: fmt.Sprintf("%s placed an order for %s.", evt.Email, formatMoney(evt.GrandTotal, evt.Currency)),
		Link:    &link,
	}))
	return errs
}

// OrderStatusChanged tells the customer about the new status by email and,
// for signed-in customers, on their private channel.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, evt *payloads.OrderStatusChangedEvent) error {
	ctx = d.logg.WithOrderNumber(ctx, evt.OrderNumber)
	var errs error
	errs = multierr.Append(errs, d.mail(ctx, "order_status", map[string]any{
		"Store":  d.store.Name,
		"Number": evt.OrderNumber,
		"Status": evt.Status,
		"Link":   d.link("/orders/" + evt.OrderNumber),
	}, email.Message{
		To:      []string{evt.Email},
		ReplyTo: d.store.SupportEmail,
		Subject: fmt.Sprintf("Order %s: %s", evt.OrderNumber, evt.Status.Label()),
		Text:    fmt.Sprintf("Your order %s is now %s.", evt.OrderNumber, evt.Status.Label()),
	}))

	if evt.UserID == nil {
		d.record(channelRealtime, outcomeSkipped)
		return errs
	}
	errs = multierr.Append(errs, d.push(ctx, UserChannel(*evt.UserID), EventOrderStatusUpdated, map[string]any{
		"order_id":        evt.OrderID,
		"order_number":    evt.OrderNumber,
		"status":          evt.Status,
		"status_label":    evt.Status.Label(),
		"previous_status": evt.PreviousStatus,
		"changed_at":      evt.ChangedAt,
	}))
	return errs
}

// ContactSubmitted forwards a contact message to support with the sender as
// reply-to and records an in-app notification.
func (d *Dispatcher) ContactSubmitted(ctx context.Context, evt *payloads.ContactSubmittedEvent) error {
	var errs error
	errs = multierr.Append(errs, d.mail(ctx, "contact_message", map[string]any{
		"Subject": evt.Subject,
		"Name":    evt.Name,
		"Email":   evt.Email,
		"Message": evt.Message,
	}, email.Message{
		To:      []string{d.store.SupportEmail},
		ReplyTo: evt.Email,
		Subject: "[Contact] " + evt.Subject,
		Text:    fmt.Sprintf("From %s <%s>\n\n%s", evt.Name, evt.Email, evt.Message),
	}))

	errs = multierr.Append(errs, d.inApp(ctx, &models.Notification{
		Type:    enums.NotificationTypeContactMessage,
		Title:   "Contact: " + evt.Subject,
		Message: fmt.Sprintf("%s <%s> sent a message.", evt.Name, evt.Email),
	}))
	return errs
}

func (d *Dispatcher) mail(ctx context.Context, template string, data map[string]any, msg email.Message) error {
	if d.mailer == nil {
		d.record(channelEmail, outcomeSkipped)
		return nil
	}
	html, err := render(template, data)
	if err != nil {
		d.record(channelEmail, outcomeFailed)
		return err
	}
	msg.HTML = html
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.record(channelEmail, outcomeFailed)
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{"template": template, "error": err.Error()}), "email delivery failed")
		return fmt.Errorf("email %s: %w", template, err)
	}
	d.record(channelEmail, outcomeSent)
	return nil
}

func (d *Dispatcher) push(ctx context.Context, channel, event string, data any) error {
	if d.realtime == nil {
		d.record(channelRealtime, outcomeSkipped)
		return nil
	}
	if err := d.realtime.Send(ctx, channel, event, data); err != nil {
		d.record(channelRealtime, outcomeFailed)
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{"channel": channel, "event": event, "error": err.Error()}), "realtime delivery failed")
		return err
	}
	d.record(channelRealtime, outcomeSent)
	return nil
}

func (d *Dispatcher) inApp(ctx context.Context, n *models.Notification) error {
	if err := d.repo.Create(ctx, n); err != nil {
		d.record(channelInApp, outcomeFailed)
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "in-app notification failed")
		return fmt.Errorf("create notification: %w", err)
	}
	d.record(channelInApp, outcomeSent)
	return nil
}

func (d *Dispatcher) record(channel, outcome string) {
	if d.metrics != nil {
		d.metrics.IncDispatch(channel, outcome)
	}
}

func (d *Dispatcher) link(path string) string {
	base := strings.TrimRight(strings.TrimSpace(d.store.PublicURL), "/")
	return base + path
}

func copyView(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
