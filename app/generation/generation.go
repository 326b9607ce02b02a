// Package generation hands product-generation work to the external
// serverless function, either synchronously over HTTP or through a queue.
package generation

import (
	"context"
	"errors"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
)

// ErrUpstream wraps every failure of the generation function or its queue.
var ErrUpstream = errors.New("generation upstream failed")

const (
	TransportHTTP = "http"
	TransportSQS  = "sqs"
)

// Request is one unit of generation work. ProductID is assigned by the
// caller before dispatch so queued jobs can be matched to their row.
type Request struct {
	ProductID   string             `json:"productId"`
	UserID      string             `json:"userId"`
	Prompt      string             `json:"prompt"`
	ProductType models.ProductType `json:"productType"`
}

// Result is the generated content returned by the function.
type Result struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Content       string         `json:"content"`
	PriceCents    int64          `json:"priceCents"`
	Currency      string         `json:"currency"`
	MarketingCopy string         `json:"marketingCopy"`
	Assets        []models.Asset `json:"assets"`
}

// Dispatcher sends a request to the generation function. A nil Result with a
// nil error means the request was accepted for asynchronous processing.
type Dispatcher interface {
	Transport() string
	Dispatch(ctx context.Context, req Request) (*Result, error)
}
