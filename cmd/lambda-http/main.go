package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/bootstrap"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/server/respond"
	"careercoach-backend/internal/shared/telemetry"
)

// proxy builds the router on first use. A failed build is retried on the
// next invocation instead of poisoning the warm container.
type proxy struct {
	build func() (*gin.Engine, error)

	mu      sync.Mutex
	adapter *ginadapter.GinLambdaV2
}

func (p *proxy) get() (*ginadapter.GinLambdaV2, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adapter != nil {
		return p.adapter, nil
	}
	router, err := p.build()
	if err != nil {
		return nil, err
	}
	p.adapter = ginadapter.NewV2(router)
	return p.adapter, nil
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	adapter, err := p.get()
	if err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{
			"request_id": req.RequestContext.RequestID,
			"error":      err,
		})
		body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
			Code:      "unavailable",
			Message:   "Service is starting, try again shortly",
			RequestID: req.RequestContext.RequestID,
		}})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusServiceUnavailable,
			Body:       string(body),
			Headers:    map[string]string{"Content-Type": "application/json", "Retry-After": "1"},
		}, nil
	}
	return adapter.ProxyWithContext(ctx, req)
}

func buildRouter() (*gin.Engine, error) {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, cfg.LogFormat)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func main() {
	p := &proxy{build: buildRouter}
	lambda.Start(p.handle)
}
