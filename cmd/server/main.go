package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colib/colib-backend/internal/config"
	"github.com/colib/colib-backend/internal/database"
	"github.com/colib/colib-backend/internal/events"
	"github.com/colib/colib-backend/internal/geo"
	"github.com/colib/colib-backend/internal/handlers"
	"github.com/colib/colib-backend/internal/jobs"
	"github.com/colib/colib-backend/internal/matching"
	"github.com/colib/colib-backend/internal/push"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/internal/repository/sqlstore"
	cron "github.com/colib/colib-backend/internal/scheduler"
	"github.com/colib/colib-backend/internal/services"
	"github.com/colib/colib-backend/internal/storage"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/colib/colib-backend/pkg/middleware"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	ctx := context.Background()

	// --- Stores ---
	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}
	defer closeStores()

	// --- External providers ---
	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Object storage error: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		logger.Log.WithField("topic", cfg.KafkaTopic).Info("Publishing shipment events to Kafka")
	}
	defer publisher.Close()

	nominatim, err := geo.NewNominatimClient(cfg.NominatimURL, cfg.GeoUserAgent, cfg.HTTPTimeout)
	if err != nil {
		logger.Log.Fatalf("Geocoder setup error: %v", err)
	}
	osrm := geo.NewOSRMClient(cfg.OSRMURL, cfg.HTTPTimeout)
	expo := push.NewExpoClient(cfg.ExpoPushURL, cfg.ExpoAccessToken, cfg.HTTPTimeout)

	// --- Services ---
	notificationService := services.NewNotificationService(stores.Notifications, stores.Devices, expo)
	verificationService := services.NewVerificationService(stores.Verifications, notificationService)
	listingService := services.NewListingService(stores.Listings)
	tripService := services.NewTripService(stores.Trips, stores.TripLocations, stores.Proposals, verificationService)
	proposalService := services.NewProposalService(stores, verificationService, notificationService, publisher)
	shipmentService := services.NewShipmentService(stores, notificationService, publisher, uploader)
	engine := matching.NewEngine(nominatim, osrm, stores.Listings, stores.Trips, stores.TripLocations)

	// --- Handlers ---
	hub := handlers.NewTrackingHub()
	router := handlers.NewRouter(&handlers.Handlers{
		Listings:      handlers.NewListingHandler(listingService),
		Trips:         handlers.NewTripHandler(tripService, hub),
		Tracking:      handlers.NewTrackingHandler(tripService, hub, cfg.JWTSecret),
		Proposals:     handlers.NewProposalHandler(proposalService),
		Shipments:     handlers.NewShipmentHandler(shipmentService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Verification:  handlers.NewVerificationHandler(verificationService),
		Matches:       handlers.NewMatchHandler(engine, nominatim),
	}, cfg.JWTSecret)

	if local, ok := uploader.(*storage.LocalUploader); ok {
		router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir()))))
	}

	if cfg.CronEnabled {
		reminder := jobs.NewPickupReminder(stores, notificationService)
		scheduler, err := cron.StartNotificationCronJobs(reminder, notificationService)
		if err != nil {
			logger.Log.Fatalf("Cron setup error: %v", err)
		}
		defer scheduler.Stop()
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	limiter := middleware.NewRateLimiter(20, 40)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(limiter.RateLimit(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
}

// openStores connects the configured backend and returns its stores with a
// matching close function.
func openStores(ctx context.Context, cfg *config.Config) (*repository.Stores, func(), error) {
	switch cfg.StorageDriver {
	case "postgres", "sqlite":
		db, err := database.ConnectSQL(cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return sqlstore.NewStores(db), closeFn, nil
	default:
		client, err := database.ConnectDB(cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDB)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Log.WithError(err).Warn("MongoDB disconnect failed")
			}
		}
		return repository.NewMongoStores(client, db), closeFn, nil
	}
}

func newUploader(ctx context.Context, cfg *config.Config) (storage.Uploader, error) {
	if cfg.StorageBackend == "s3" {
		client, err := storage.NewS3Client(ctx, cfg.AWSRegion, cfg.AWSEndpointURL)
		if err != nil {
			return nil, err
		}
		logger.Log.WithField("bucket", cfg.S3Bucket).Info("Storing proofs in S3")
		return storage.NewS3Uploader(client, cfg.S3Bucket), nil
	}
	return storage.NewLocalUploader(cfg.UploadDir, cfg.PublicBaseURL), nil
}
