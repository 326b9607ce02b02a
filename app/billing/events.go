package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
)

// EventKind is the closed set of webhook events this service acts on.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
)

var eventKindByType = map[string]EventKind{
	"checkout.session.completed":    EventCheckoutCompleted,
	"customer.subscription.created": EventSubscriptionCreated,
	"customer.subscription.updated": EventSubscriptionUpdated,
	"customer.subscription.deleted": EventSubscriptionDeleted,
	"invoice.payment_succeeded":     EventInvoicePaymentSucceeded,
	"invoice.payment_failed":        EventInvoicePaymentFailed,
}

// ParseEventKind maps a Stripe event type string to its kind.
func ParseEventKind(eventType string) EventKind {
	if kind, ok := eventKindByType[eventType]; ok {
		return kind
	}
	return EventUnknown
}

func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return "checkout_completed"
	case EventSubscriptionCreated:
		return "subscription_created"
	case EventSubscriptionUpdated:
		return "subscription_updated"
	case EventSubscriptionDeleted:
		return "subscription_deleted"
	case EventInvoicePaymentSucceeded:
		return "invoice_payment_succeeded"
	case EventInvoicePaymentFailed:
		return "invoice_payment_failed"
	default:
		return "unknown"
	}
}

// Event is one decoded webhook event. The concrete types are
// CheckoutCompleted, SubscriptionChanged, SubscriptionDeleted,
// InvoicePayment and UnknownEvent.
type Event interface {
	Kind() EventKind
	EventID() string
	isEvent()
}

type CheckoutCompleted struct {
	ID      string
	Session *stripe.CheckoutSession
}

// SubscriptionChanged covers both subscription-created and subscription-updated.
type SubscriptionChanged struct {
	ID           string
	Created      bool
	Subscription *stripe.Subscription
}

type SubscriptionDeleted struct {
	ID           string
	Subscription *stripe.Subscription
}

type InvoicePayment struct {
	ID        string
	Succeeded bool
	Invoice   *stripe.Invoice
}

// UnknownEvent is an event type this service does not handle.
type UnknownEvent struct {
	ID   string
	Type string
}

func (e CheckoutCompleted) Kind() EventKind { return EventCheckoutCompleted }
func (e SubscriptionChanged) Kind() EventKind {
	if e.Created {
		return EventSubscriptionCreated
	}
	return EventSubscriptionUpdated
}
func (e SubscriptionDeleted) Kind() EventKind { return EventSubscriptionDeleted }
func (e InvoicePayment) Kind() EventKind {
	if e.Succeeded {
		return EventInvoicePaymentSucceeded
	}
	return EventInvoicePaymentFailed
}
func (e UnknownEvent) Kind() EventKind { return EventUnknown }

func (e CheckoutCompleted) EventID() string   { return e.ID }
func (e SubscriptionChanged) EventID() string { return e.ID }
func (e SubscriptionDeleted) EventID() string { return e.ID }
func (e InvoicePayment) EventID() string      { return e.ID }
func (e UnknownEvent) EventID() string        { return e.ID }

func (CheckoutCompleted) isEvent()   {}
func (SubscriptionChanged) isEvent() {}
func (SubscriptionDeleted) isEvent() {}
func (InvoicePayment) isEvent()      {}
func (UnknownEvent) isEvent()        {}

// ErrMalformedEvent is returned when a known event kind carries a payload
// that does not decode into the expected object.
var ErrMalformedEvent = errors.New("malformed event payload")

// DecodeEvent converts a verified Stripe event into its typed variant.
func DecodeEvent(ev stripe.Event) (Event, error) {
	kind := ParseEventKind(string(ev.Type))
	if kind == EventUnknown {
		return UnknownEvent{ID: ev.ID, Type: string(ev.Type)}, nil
	}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: %s has no data", ErrMalformedEvent, ev.Type)
	}
	raw := ev.Data.Raw

	switch kind {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		if sess.ID == "" {
			return nil, fmt.Errorf("%w: checkout session missing id", ErrMalformedEvent)
		}
		return CheckoutCompleted{ID: ev.ID, Session: &sess}, nil

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		sub, err := decodeSubscription(raw)
		if err != nil {
			return nil, err
		}
		if kind == EventSubscriptionDeleted {
			return SubscriptionDeleted{ID: ev.ID, Subscription: sub}, nil
		}
		return SubscriptionChanged{ID: ev.ID, Created: kind == EventSubscriptionCreated, Subscription: sub}, nil

	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", ErrMalformedEvent, err)
		}
		if inv.ID == "" {
			return nil, fmt.Errorf("%w: invoice missing id", ErrMalformedEvent)
		}
		return InvoicePayment{ID: ev.ID, Succeeded: kind == EventInvoicePaymentSucceeded, Invoice: &inv}, nil
	}

	return UnknownEvent{ID: ev.ID, Type: string(ev.Type)}, nil
}

func decodeSubscription(raw json.RawMessage) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("%w: subscription missing id", ErrMalformedEvent)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil, fmt.Errorf("%w: subscription %s missing customer", ErrMalformedEvent, sub.ID)
	}
	return &sub, nil
}
