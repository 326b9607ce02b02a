package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/metrics"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// EventHandler applies decoded events. *Reconciler implements it.
type EventHandler interface {
	Reconcile(ctx context.Context, sub *stripe.Subscription) error
	Cancel(ctx context.Context, sub *stripe.Subscription) error
	CheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error
	InvoicePayment(ctx context.Context, inv *stripe.Invoice) error
}

// Receiver verifies webhook deliveries and dispatches them synchronously.
type Receiver struct {
	secret  string
	handler EventHandler
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewReceiver(secret string, handler EventHandler, logger *zap.Logger, m *metrics.Metrics) *Receiver {
	return &Receiver{
		secret:  secret,
		handler: handler,
		logger:  logger.Named("webhook"),
		metrics: m,
	}
}

// Receive verifies payload against the signature header and applies the
// event. Signature problems return ErrMissingSignature or ErrInvalidSignature
// and nothing is dispatched. Any other error means the delivery should be
// retried.
func (r *Receiver) Receive(ctx context.Context, payload []byte, signature string) (EventKind, error) {
	if signature == "" {
		r.metrics.WebhookEventsTotal.WithLabelValues(EventUnknown.String(), "rejected").Inc()
		return EventUnknown, ErrMissingSignature
	}

	raw, err := webhook.ConstructEventWithOptions(payload, signature, r.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		r.metrics.WebhookEventsTotal.WithLabelValues(EventUnknown.String(), "rejected").Inc()
		return EventUnknown, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev, err := DecodeEvent(raw)
	if err != nil {
		kind := ParseEventKind(string(raw.Type))
		r.metrics.WebhookEventsTotal.WithLabelValues(kind.String(), "error").Inc()
		return kind, err
	}

	if err := r.Dispatch(ctx, ev); err != nil {
		r.metrics.WebhookEventsTotal.WithLabelValues(ev.Kind().String(), "error").Inc()
		r.logger.Error("webhook handler failed",
			zap.String("event_id", ev.EventID()),
			zap.Stringer("kind", ev.Kind()),
			zap.Error(err),
		)
		return ev.Kind(), err
	}
	r.metrics.WebhookEventsTotal.WithLabelValues(ev.Kind().String(), "handled").Inc()
	return ev.Kind(), nil
}

// Dispatch routes a decoded event to its handler.
func (r *Receiver) Dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case CheckoutCompleted:
		return r.handler.CheckoutCompleted(ctx, e.Session)
	case SubscriptionChanged:
		return r.handler.Reconcile(ctx, e.Subscription)
	case SubscriptionDeleted:
		return r.handler.Cancel(ctx, e.Subscription)
	case InvoicePayment:
		return r.handler.InvoicePayment(ctx, e.Invoice)
	case UnknownEvent:
		r.logger.Info("ignoring unhandled event", zap.String("event_id", e.ID), zap.String("type", e.Type))
		return nil
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}
