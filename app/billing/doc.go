// Package billing mirrors Stripe subscription state into the application's
// own tables and issues hosted checkout and portal sessions.
//
// Stripe is authoritative. Webhook deliveries are verified against the raw
// request body, decoded into one typed variant per event kind and applied by
// the Reconciler, which upserts the subscription row keyed by the Stripe
// subscription id and then updates the denormalized plan on the profile. The
// profile write is best-effort: a failure there is logged and counted but
// does not fail the delivery, so the two rows can briefly disagree.
//
// The only retry mechanism is Stripe's redelivery of webhooks answered with
// a non-2xx status, so every handler must leave state unchanged when applied
// twice to the same event.
package billing
