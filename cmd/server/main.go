// Package main provides the HydroViewer HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.ngs.io/hydroviewer/internal/adapter/fetch"
	"go.ngs.io/hydroviewer/internal/adapter/store/ensemble"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/domain"
	httpHandler "go.ngs.io/hydroviewer/internal/http"
	"go.ngs.io/hydroviewer/internal/logging"
	"go.ngs.io/hydroviewer/internal/mapping"
	"go.ngs.io/hydroviewer/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("hydroviewer version %s\n", version)
		return
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	log.Info().Msg("Starting HydroViewer server...")
	log.Info().Str("port", cfg.Port).Msg("Port")
	log.Info().Str("routing", cfg.RoutingEnsemblePath).Str("surface", cfg.SurfaceEnsemblePath).Msg("Ensemble files")
	log.Info().Str("source", cfg.RegionsSource).Str("id_field", cfg.RegionIDField).Msg("Region layer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize stores.
	fetcher := fetch.New(cfg.FetchTimeout, cfg.FetchMaxRetries, log)
	layer, err := region.NewLoader(fetcher, cfg.RegionIDField, cfg.LabelField(), log).Load(ctx, cfg.RegionsSource)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load region layer")
	}
	log.Info().Int("regions", layer.Len()).Msg("Region layer loaded")

	deps := usecase.Deps{
		Catalog: cfg.Catalog,
		Paths: map[domain.Family]string{
			domain.FamilyRouting: cfg.DatasetPath(domain.FamilyRouting),
			domain.FamilySurface: cfg.DatasetPath(domain.FamilySurface),
		},
		Layer:   layer,
		Opener:  ensemble.NewOpener(fetcher, log),
		BaseMap: mapping.BuildRegionMap(layer),
		Log:     log,
	}

	// Initialize use cases.
	sessions := usecase.NewSessionStore(deps, cfg.SessionIdleTimeout)
	if err := sessions.Start(cfg.SessionSweepInterval); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session sweeper")
	}
	defer sessions.Stop()

	// Setup router.
	router, err := httpHandler.SetupRouter(httpHandler.Services{
		Config:   cfg,
		Layer:    layer,
		Sessions: sessions,
		Zonal:    usecase.NewZonalUseCase(deps),
		Probe:    usecase.NewProbeUseCase(deps),
		Log:      log,
		Version:  version,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up router")
	}

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", addr)
		log.Info().Msgf("Dashboard: http://localhost:%s/", cfg.Port)
		log.Info().Msgf("Health check: http://localhost:%s/health", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("HydroViewer Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  hydroviewer [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from .env):")
	fmt.Println("  PORT                     Server port (default: 8080)")
	fmt.Println("  LOG_LEVEL                trace, debug, info, warn or error (default: info)")
	fmt.Println("  LOG_FORMAT               console or json (default: console)")
	fmt.Println("  CORS_ALLOWED_ORIGINS     Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  APP_TITLE                Page title (default: The Amazon HydroViewer)")
	fmt.Println("  DOCUMENTATION_URL        Sidebar documentation link")
	fmt.Println("  REGIONS_SOURCE           GeoJSON or shapefile of basins, local path or URL")
	fmt.Println("  REGION_ID_FIELD          Region identifier property (default: PFAF_ID)")
	fmt.Println("  REGION_LABEL_FIELD       Region label property (default: PFAF_ID)")
	fmt.Println("  ROUTING_ENSEMBLE_PATH    Routing ensemble NetCDF file, local path or URL")
	fmt.Println("  SURFACE_ENSEMBLE_PATH    Surface ensemble NetCDF file, local path or URL")
	fmt.Println("  VARIABLE_CATALOG_PATH    YAML variable catalog (default: built in)")
	fmt.Println("  SESSION_IDLE_TIMEOUT     Idle time before a session expires (default: 30m)")
	fmt.Println("  SESSION_SWEEP_INTERVAL   Expiry sweep period (default: 5m)")
	fmt.Println("  FETCH_TIMEOUT            Remote download timeout (default: 60s)")
	fmt.Println("  FETCH_MAX_RETRIES        Remote download retries (default: 3)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Generate fixtures and start the server on them")
	fmt.Println("  fixture-generator -out ./data && hydroviewer")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 hydroviewer")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET    /                              Dashboard")
	fmt.Println("  GET    /health                        Health check")
	fmt.Println("  GET    /v1/variables                  Variable catalog")
	fmt.Println("  GET    /v1/regions                    Basin polygons as GeoJSON")
	fmt.Println("  GET    /v1/sidebar                    Sidebar and welcome content")
	fmt.Println("  GET    /v1/zonal                      Zonal summary (json or csv)")
	fmt.Println("  GET    /v1/probe                      Ensemble-mean value at a position")
	fmt.Println("  POST   /v1/sessions                   Create a dashboard session")
	fmt.Println("  GET    /v1/sessions/:id               Current session view")
	fmt.Println("  DELETE /v1/sessions/:id               Close a session")
	fmt.Println("  POST   /v1/sessions/:id/inputs        Change variable, time, profile or data type")
	fmt.Println("  POST   /v1/sessions/:id/click         Select a basin")
	fmt.Println("  GET    /v1/sessions/:id/events        Server-sent view updates")
	fmt.Println("  GET    /v1/sessions/:id/heatmap.png   Heatmap as PNG")
	fmt.Println("  GET    /v1/sessions/:id/boxplot.png   Box plot as PNG")
	fmt.Println()
}
