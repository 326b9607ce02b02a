package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI is the part of the SQS client the dispatcher uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSDispatcher enqueues generation jobs for a worker that writes results
// back to the product row.
type SQSDispatcher struct {
	client   SQSAPI
	queueURL string
}

// NewSQSDispatcher loads the default AWS configuration (environment, shared
// config, or the execution role) and returns a dispatcher for queueURL.
func NewSQSDispatcher(ctx context.Context, queueURL string) (*SQSDispatcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSDispatcherWithClient(sqs.NewFromConfig(awsCfg), queueURL), nil
}

func NewSQSDispatcherWithClient(client SQSAPI, queueURL string) *SQSDispatcher {
	return &SQSDispatcher{client: client, queueURL: queueURL}
}

func (d *SQSDispatcher) Transport() string { return TransportSQS }

func (d *SQSDispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if req.ProductID == "" {
		return nil, errors.New("queued generation needs a product id")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal job message: %w", err)
	}
	_, err = d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: send job message: %v", ErrUpstream, err)
	}
	return nil, nil
}
