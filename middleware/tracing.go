package middleware

import (
	"path"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// headerCarrier adapts fasthttp request and response headers to the propagator.
type headerCarrier struct {
	peek func(key string) []byte
	set  func(key, val string)
}

func (c headerCarrier) Get(key string) string { return string(c.peek(key)) }
func (c headerCarrier) Set(key, val string)   { c.set(key, val) }
func (c headerCarrier) Keys() []string        { return nil }

func requestCarrier(h *fasthttp.RequestHeader) headerCarrier {
	return headerCarrier{peek: h.Peek, set: h.Set}
}

func responseCarrier(h *fasthttp.ResponseHeader) headerCarrier {
	return headerCarrier{peek: h.Peek, set: h.Set}
}

// operations maps the model routes to gen_ai.operation.name values.
var operations = map[string]string{
	"/language-model/prompt":           "prompt",
	"/language-model/prompt-streaming": "prompt_streaming",
	"/language-model/count-tokens":     "count_tokens",
	"/language-model/capabilities":     "capabilities",
	"/summarizer/prompt":               "summarize",
}

// OTelFiberMiddleware opens a server span per request, continuing a W3C trace
// from the request headers, and returns the span context as traceparent.
func OTelFiberMiddleware(serviceName string) fiber.Handler {
	tr := otel.Tracer(serviceName)
	prop := otel.GetTextMapPropagator

	return func(c *fiber.Ctx) error {
		ctx := prop().Extract(c.UserContext(), requestCarrier(&c.Context().Request.Header))
		ctx, span := tr.Start(ctx, c.Method()+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		start := time.Now()

		c.SetUserContext(ctx)
		prop().Inject(ctx, responseCarrier(&c.Context().Response.Header))

		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.target", c.OriginalURL()),
			attribute.String("http.origin", c.Get(fiber.HeaderOrigin)),
			attribute.String("request.id", c.Get(HeaderRequestID)),
			attribute.String("net.peer.ip", c.IP()),
		)
		if op, ok := operations[path.Clean(c.Path())]; ok {
			span.SetAttributes(attribute.String("gen_ai.operation.name", op))
		}

		err := c.Next()

		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int64("http.duration_ms", time.Since(start).Milliseconds()),
			attribute.Bool("http.response.streamed", c.Response().IsBodyStream()),
		)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= 500:
			span.SetStatus(codes.Error, "server_error")
		case status >= 400:
			span.SetStatus(codes.Error, "client_error")
		default:
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
