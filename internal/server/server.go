package server

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yashubustudio/sedefinder/finder"
)

// VersionHeader carries the digest of the dataset that answered a request.
const VersionHeader = "X-Dataset-Version"

// Options tunes New.
type Options struct {
	Logger *log.Logger
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// Server wraps the Fiber app serving the finder API.
type Server struct {
	App      *fiber.App
	Registry *prometheus.Registry

	svc    *finder.Service
	logger *log.Logger
}

// New creates a server over svc with its routes and middleware configured.
func New(svc *finder.Service, opts Options) *Server {
	app := fiber.New(fiber.Config{
		AppName: "sedefinder",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}
			return jsonError(c, code, message)
		},
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	reg, m := newMetrics(svc)
	s := &Server{App: app, Registry: reg, svc: svc, logger: opts.Logger}
	h := &handlers{svc: svc, metrics: m, logger: opts.Logger}

	app.Get("/healthz", h.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := app.Group("/api", h.datasetVersion)
	api.Post("/reload", h.reload)

	api.Get("/entities", h.requireDataset, h.entities)
	api.Get("/entities/select", h.requireDataset, h.selectEntity)
	api.Get("/categories", h.requireDataset, h.categories)
	api.Get("/categories/select", h.requireDataset, h.selectCategory)
	api.Get("/summary", h.requireDataset, h.summary)
	api.Get("/municipalities", h.requireDataset, h.municipalities)
	api.Get("/municipalities/rows", h.requireDataset, h.municipalityRows)

	return s
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logf("Starting server on %s", addr)
	return s.App.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
