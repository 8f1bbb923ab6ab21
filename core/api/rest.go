package api

import (
	"context"
	"encoding/json"

	"github.com/bravonokoth/store-sub000/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humafiber"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

type Config struct {
	// AllowedOrigins is a comma separated list for the CORS middleware.
	// Empty means same-origin only.
	AllowedOrigins string
}

// rawJSON accepts any JSON value and keeps its exact bytes. A plain
// json.RawMessage would be schemed as a string and reject objects.
type rawJSON json.RawMessage

func (rawJSON) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{}
}

func (j rawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *rawJSON) UnmarshalJSON(b []byte) error {
	*j = append((*j)[:0], b...)
	return nil
}

type broadcastInput struct {
	Body struct {
		Event   string  `json:"event" minLength:"1" maxLength:"100" required:"true"`
		Data    rawJSON `json:"data"`
		Channel string  `json:"channel" minLength:"1" maxLength:"100" required:"true"`
	}
}

type broadcastOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type recentNotificationsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"200" default:"50"`
}

type userPresenceInput struct {
	UserID string `path:"UserID" maxLength:"30" example:"42" required:"true"`
}

type presenceBody struct {
	Online bool `json:"online"`
}

type presenceSummaryBody struct {
	OnlineUsers int `json:"onlineUsers"`
}

type ResBody[T any] struct {
	Body T
}

func setFiberMiddleWares(app *fiber.App, conf Config) {
	app.Use(requestid.New())
	app.Use(pprof.New())
	app.Use(fiberRecover.New())
	if conf.AllowedOrigins != "" {
		app.Use(cors.New(cors.Config{AllowOrigins: conf.AllowedOrigins}))
	}
	app.Use(otelfiber.Middleware(otelfiber.WithTracerProvider(otel.GetTracerProvider())))
	app.Use(healthcheck.New())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func registerEndpoints(api huma.API, handler Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "broadcast-event",
		Summary:     "Broadcasting an event to a channel",
		Method:      "POST",
		Path:        "/broadcast",
	}, handler.broadcast)

	huma.Register(api, huma.Operation{
		OperationID: "list-recent-notifications",
		Method:      "GET",
		Path:        "/notifications/recent",
	}, handler.recentNotifications)

	huma.Register(api, huma.Operation{
		OperationID: "get-user-presence",
		Method:      "GET",
		Path:        "/presence/{UserID}",
	}, handler.userPresence)

	huma.Register(api, huma.Operation{
		OperationID: "get-presence-summary",
		Method:      "GET",
		Path:        "/presence",
	}, handler.presenceSummary)
}

func Initialize(relaySVC RelayService, journal JournalReader, pres PresenceReader, conf Config) (*fiber.App, error) {
	app := fiber.New()

	setFiberMiddleWares(app, conf)

	api := humafiber.New(app, huma.DefaultConfig("Storefront Relay API", version.Version))

	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		next(fiberHumaCtx{ctx}) // to use fiber's Ctx.Context() and Ctx.UserContext()
	})

	handler := Handler{relaySVC, journal, pres}

	registerEndpoints(api, handler)

	return app, nil
}

type humaCtx = huma.Context
type fiberHumaCtx struct {
	humaCtx
}

func (c fiberHumaCtx) Context() context.Context {
	return ctx{c.humaCtx.Context()}
}

// Overrides Value function to merge values from fiber's UserContext() and context.Context
type ctx struct {
	context.Context
}

func (c ctx) Value(key any) any {
	// userContextKey define the key name for storing context.Context in *fasthttp.RequestCtx
	const userContextKey = "__local_user_context__"

	v := c.Context.Value(key)
	if v != nil {
		return v
	}

	fiberUserCtx, ok := c.Context.Value(userContextKey).(context.Context)
	if ok {
		return fiberUserCtx.Value(key)
	}

	return nil
}
