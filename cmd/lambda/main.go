package main

import (
	"context"
	"log"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app"
	"github.com/eliasJakobi123/sellable-sub001/app/config"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
)

var ginLambda *ginadapter.GinLambda

// init runs once per Lambda container (cold start)
func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	built, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	// Wrap Gin router with Lambda adapter
	ginLambda = ginadapter.New(built.Router)
}

// Handler is the Lambda entrypoint for API Gateway REST/HTTP API (proxy integration)
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
