package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ticket-marketplace/config"
	"ticket-marketplace/internal/chain"
	"ticket-marketplace/internal/handlers"
	"ticket-marketplace/internal/services"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	_ "ticket-marketplace/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the chain gateway
	registry := chain.NewRegistry(chain.NewFactory())
	if err := registry.Register(ctx, chain.ProviderName(cfg.ChainProvider), &cfg.EVMConfig); err != nil {
		return err
	}
	defer registry.Close(context.Background())

	primary, err := registry.Primary()
	if err != nil {
		return err
	}
	provider := chain.NewBreakerProvider(primary)

	// Initialize services
	st := store.NewPBStore(app)
	guard := services.NewRedisGuard(redisClient, cfg.GuardTTL)
	notifier := services.NewPubNubNotifier(pn)

	ticketService := services.NewTicketService(st, provider, guard, notifier,
		cfg.TicketMetadataURI, cfg.ConfirmTimeout, cfg.ReconcileInterval)
	resaleService := services.NewResaleService(st, provider, guard, notifier, cfg.ConfirmTimeout)
	organizerService := services.NewOrganizerService(st, notifier)
	reputationService := services.NewReputationService(st, notifier, cfg.PenaltyInterval)
	profileService := services.NewProfileService(redisClient, st, cfg.ProfileCacheTTL)

	// Gateway confirmations can land out of band. Run a reconcile pass
	// whenever one arrives instead of waiting for the next tick.
	txChannel := make(chan *chain.TxNotification, 1)
	provider.SetTransactionChannel(txChannel)
	go ticketService.ProcessTxNotifications(ctx, txChannel)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(app, st, organizerService)
	ticketHandler := handlers.NewTicketHandler(app, ticketService)
	resaleHandler := handlers.NewResaleHandler(app, resaleService)
	organizerHandler := handlers.NewOrganizerHandler(app, organizerService)
	profileHandler := handlers.NewProfileHandler(app, profileService)

	// The HTTP settlement callback is only exposed when a callback
	// secret is registered with the gateway.
	var chainHandler *handlers.ChainHandler
	if cfg.ChainCallbackSecret != "" {
		chainHandler, err = handlers.NewChainHandler(app, ticketService,
			cfg.EVMConfig.HMACKey, cfg.ChainCallbackSecret)
		if err != nil {
			return err
		}
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go ticketService.StartReconcileLoop(ctx)
	go reputationService.StartPenaltyLoop(ctx)

	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		ops := monitoring.NewOpsServer(cfg.MetricsPort, redisClient)
		ops.Start()
		defer ops.Shutdown(context.Background())
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Event endpoints
		e.Router.GET("/api/v1/events", eventHandler.ListEvents)
		e.Router.GET("/api/v1/events/{eventId}", eventHandler.GetEvent)
		e.Router.POST("/api/v1/events", eventHandler.CreateEvent)

		// Ticket endpoints
		e.Router.POST("/api/v1/tickets/mint", ticketHandler.Mint)
		e.Router.GET("/api/v1/tickets/mine", ticketHandler.MyTickets)

		// Resale endpoints
		e.Router.GET("/api/v1/events/{eventId}/resale", resaleHandler.ListForEvent)
		e.Router.POST("/api/v1/resale/list", resaleHandler.Create)
		e.Router.POST("/api/v1/resale/cancel", resaleHandler.Cancel)
		e.Router.POST("/api/v1/resale/buy", resaleHandler.Buy)

		// Organizer endpoints
		e.Router.POST("/api/v1/organizer/attendance", organizerHandler.MarkAttendance)
		e.Router.POST("/api/v1/events/{eventId}/cancel", organizerHandler.CancelEvent)

		// Profile endpoints
		e.Router.GET("/api/v1/profile/me", profileHandler.Me)
		e.Router.POST("/api/v1/profile/logout", profileHandler.Logout)

		// Gateway settlement callback
		if chainHandler != nil {
			e.Router.POST("/api/v1/chain/callback", chainHandler.SettlementCallback)
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
