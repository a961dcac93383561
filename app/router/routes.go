// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"errors"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/timeout"
	"github.com/google/uuid"
	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/app/handlers"
	"github.com/p57/feedback-hub/app/middleware"
	"github.com/p57/feedback-hub/config"
	_ "github.com/p57/feedback-hub/docs"
	"github.com/p57/feedback-hub/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

const healthPath = "/api/v1/health"

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Catalog        handlers.CatalogHandlerInterface
	Ticket         handlers.TicketHandlerInterface
	AdminCatalog   handlers.AdminCatalogHandlerInterface
	AssignmentRule *handlers.AssignmentRuleHandler
	Notification   *handlers.NotificationHandler
	User           *handlers.UserHandler
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	auth     *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, auth *middleware.AuthMiddleware) *FiberRouter {
	app := fiber.New(fiber.Config{
		AppName:      "P57 Feedback Hub",
		ServerHeader: "feedback-hub",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		cfg:      cfg,
		handlers: h,
		auth:     auth,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	api.Get("/health", r.healthCheck)
	api.Get("/swagger.json", r.serveSwaggerJSON)
	if env := r.cfg.Deployment.Environment; env == "development" || env == "local" {
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Println("API documentation enabled for development")
	}

	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	authn := r.auth.Authenticate()
	settings := r.auth.RequireSettingsRole()

	api.Get("/me", authn, r.handlers.User.Me)

	// Catalog and dynamic forms
	api.Get("/categories", authn, r.handlers.Catalog.ListCategories)
	api.Get("/categories/:id/subcategories", authn, r.handlers.Catalog.ListSubcategories)
	api.Get("/subcategories/:id/fields", authn, r.handlers.Catalog.GetSubcategoryFields)
	api.Get("/forms/fields", authn, r.handlers.Catalog.GetFormFields)
	api.Post("/forms/validate", authn, r.handlers.Catalog.ValidateForm)

	tickets := api.Group("/tickets", authn)
	tickets.Post("/", r.handlers.Ticket.Create)
	tickets.Get("/", r.handlers.Ticket.List)
	tickets.Get("/:id", r.handlers.Ticket.Get)
	tickets.Patch("/:id/status", r.handlers.Ticket.UpdateStatus)
	tickets.Patch("/:id/priority", r.handlers.Ticket.UpdatePriority)
	tickets.Patch("/:id/assignee", r.handlers.Ticket.UpdateAssignee)
	tickets.Delete("/:id", settings, r.handlers.Ticket.Delete)
	tickets.Post("/:id/comments", r.handlers.Ticket.AddComment)
	tickets.Get("/:id/comments", r.handlers.Ticket.ListComments)

	notifications := api.Group("/notifications", authn)
	notifications.Get("/", r.handlers.Notification.List)
	notifications.Patch("/:id/read", r.handlers.Notification.MarkRead)

	admin := api.Group("/admin", authn, settings)

	admin.Post("/categories", r.handlers.AdminCatalog.CreateCategory)
	admin.Put("/categories/:id", r.handlers.AdminCatalog.UpdateCategory)
	admin.Delete("/categories/:id", r.handlers.AdminCatalog.DeactivateCategory)

	admin.Post("/subcategories", r.handlers.AdminCatalog.CreateSubcategory)
	admin.Get("/subcategories/:id", r.handlers.AdminCatalog.GetSubcategory)
	admin.Put("/subcategories/:id", r.handlers.AdminCatalog.UpdateSubcategory)
	admin.Delete("/subcategories/:id", r.handlers.AdminCatalog.DeactivateSubcategory)
	admin.Post("/subcategories/:id/fields", r.handlers.AdminCatalog.AddField)
	admin.Delete("/subcategories/:id/fields/:field_id", r.handlers.AdminCatalog.RemoveField)
	admin.Patch("/subcategories/:id/fields/:field_id/hidden", r.handlers.AdminCatalog.ToggleFieldHidden)
	admin.Patch("/subcategories/:id/fields/:field_id/required", r.handlers.AdminCatalog.ToggleFieldRequired)

	admin.Post("/catalog/import", r.handlers.AdminCatalog.ImportSpreadsheet)
	admin.Get("/tickets/export", r.handlers.Ticket.Export)

	admin.Get("/assignment-rules", r.handlers.AssignmentRule.List)
	admin.Post("/assignment-rules", r.handlers.AssignmentRule.Create)
	admin.Put("/assignment-rules/:id", r.handlers.AssignmentRule.Update)
	admin.Delete("/assignment-rules/:id", r.handlers.AssignmentRule.Delete)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             r.cfg.Security.XFrameOptions,
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     r.cfg.Security.CSPPolicy,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     append(slices.Clone(r.cfg.Security.AllowedHeaders), "X-Request-ID"),
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	if r.cfg.Server.EnableMetrics {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(r.requestTimeout())

	// Access lines are info level
	if !r.cfg.Logging.Enabled("info") {
		return
	}
	format := `{"time":"${time}","pid":"${pid}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n"
	if r.cfg.Logging.Format == "text" {
		format = "${time} ${respHeader:X-Request-ID} ${status} ${method} ${path} ${ip} ${latency}\n"
	}
	r.app.Use(logger.New(logger.Config{
		Format:     format,
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath || strings.HasPrefix(c.Path(), r.cfg.Metrics.Path)
		},
	}))
}

// requestTimeout puts SERVER_REQUEST_TIMEOUT on every request context; handler
// contexts derive from it
func (r *FiberRouter) requestTimeout() fiber.Handler {
	return timeout.New(func(c fiber.Ctx) error {
		return c.Next()
	}, timeout.Config{
		Timeout: r.cfg.Server.RequestTimeout,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
		OnTimeout: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusGatewayTimeout).JSON(dto.APIResponse{
				Success: false,
				Message: "Request timed out",
				Error:   dto.ErrorDetail{Code: "TIMEOUT"},
			})
		},
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":     "ok",
			"timestamp":  utils.UTCNow().Unix(),
			"version":    r.cfg.Deployment.Version,
			"commit":     r.cfg.Deployment.CommitHash,
			"build_time": r.cfg.Deployment.BuildTime,
			"service":    "feedback-hub",
		},
	})
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load API documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(swaggerUIPage)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>P57 Feedback Hub - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`
