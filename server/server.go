package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dnsboard/dnsboard/api"
	"github.com/dnsboard/dnsboard/appliance"
	"github.com/dnsboard/dnsboard/config"
	"github.com/dnsboard/dnsboard/export"
	"github.com/dnsboard/dnsboard/log"
	"github.com/dnsboard/dnsboard/metrics"
	"github.com/dnsboard/dnsboard/querylog"
	"github.com/dnsboard/dnsboard/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 5 * time.Second

// Server is the administrative console HTTP server
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	pipeline   *export.Pipeline
}

// NewServer creates the console server with all engine components wired up
func NewServer(cfg *config.Config) (*Server, error) {
	client := appliance.NewClient(cfg.Appliance)
	service := querylog.NewService(client, cfg.Appliance.PageSize)

	store, err := export.NewStore(cfg.Export.Database)
	if err != nil {
		return nil, err
	}

	pipeline, err := export.NewPipeline(store, service, cfg.Export)
	if err != nil {
		return nil, err
	}

	router := createRouter()

	api.RegisterEndpoint(router, service)
	api.RegisterEndpoint(router, pipeline)

	if cfg.Prometheus.Enable {
		metrics.StartCollection()
		router.Handle(cfg.Prometheus.Path, metrics.Handler())
	}

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		pipeline: pipeline,
	}, nil
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	configureCorsHandler(router)

	return router
}

func configureCorsHandler(router *chi.Mux) {
	crs := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	router.Use(crs.Handler)
}

// Start begins serving requests and launches the export workers
func (s *Server) Start() {
	s.pipeline.Start()

	go func() {
		log.Log().Infof("http server is up and running on addr/port %s", s.httpServer.Addr)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Log().Fatalf("start http listener failed: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully, running export jobs are cancelled
func (s *Server) Stop() {
	s.pipeline.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	util.LogOnError("can't stop http server: ", s.httpServer.Shutdown(ctx))
}
