package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/ownervote/internal/auth"
	"github.com/abrezinsky/ownervote/internal/config"
	"github.com/abrezinsky/ownervote/internal/handlers"
	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/repository"
	"github.com/abrezinsky/ownervote/internal/scheduler"
	"github.com/abrezinsky/ownervote/internal/services"
	"github.com/abrezinsky/ownervote/internal/websocket"
	"github.com/abrezinsky/ownervote/pkg/registry"
)

// App holds all application dependencies
type App struct {
	log            logger.Logger
	handlers       *handlers.Handlers
	repo           *repository.Repository
	hub            *websocket.Hub
	scheduler      *scheduler.Scheduler
	cancelSchedule context.CancelFunc
}

// New creates and initializes a new application instance. registryClient
// may be nil, in which case membership is read from the local tables.
func New(log logger.Logger, cfg *config.Config, registryClient registry.Client) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var provider services.MembershipProvider = repo
	if registryClient != nil {
		provider = services.NewRegistryProvider(registryClient)
		log.Info("Membership served by registry", "url", registryClient.BaseURL())
	}

	// Initialize services
	resolver := services.NewEligibilityResolver(provider, repo)
	voteService := services.NewVoteService(log, repo, resolver)
	ballotService := services.NewBallotService(log, repo, resolver)
	ballotService.SetRejectDuplicates(cfg.RejectDuplicateBallots)
	resultsService := services.NewResultsService(log, repo, provider)
	auditService := services.NewAuditService(log, repo)
	commentService := services.NewCommentService(log, repo)
	membershipService := services.NewMembershipService(log, repo, registryClient)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, voteService)
	hub.Start()
	voteService.SetBroadcaster(hub)
	ballotService.SetBroadcaster(hub)

	// Start the lifecycle sweep with context for graceful shutdown
	sched := scheduler.New(log.With("component", "scheduler"), voteService, cfg.SweepInterval)
	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	h := handlers.New(
		voteService,
		ballotService,
		resultsService,
		auditService,
		commentService,
		membershipService,
		hub,
		repo,
		log,
	)
	h.SetAdminAuth(auth.New(cfg.AdminToken))
	if cfg.AdminToken == "" {
		log.Warn("No admin token configured, /api/admin is open")
	}

	return &App{
		log:            log,
		handlers:       h,
		repo:           repo,
		hub:            hub,
		scheduler:      sched,
		cancelSchedule: cancel,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.cancelSchedule != nil {
		a.cancelSchedule()
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails
func (a *App) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "addr", addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.log.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
