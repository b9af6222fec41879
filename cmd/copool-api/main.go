// README: Entry point; loads config, wires services, starts HTTP server and background schedulers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copool/internal/ai"
	"copool/internal/config"
	httptransport "copool/internal/http"
	"copool/internal/infra"
	"copool/internal/maps"
	"copool/internal/modules/booking"
	"copool/internal/modules/chat"
	"copool/internal/modules/notify"
	"copool/internal/modules/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier infra.TokenVerifier
	var sender notify.Sender
	if cfg.Firebase.ProjectID != "" {
		app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatalf("firebase init: %v", err)
		}
		verifier = app
		sender = notify.NewFCMSender(app.Messaging)
	} else if !cfg.AllowInsecureAuth {
		log.Fatal("COPOOL_FIREBASE_PROJECT_ID is required unless COPOOL_ALLOW_INSECURE_AUTH=1")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	tripStore := trip.NewStore(dbPool)
	tripSvc := trip.NewService(tripStore)

	notifyStore := notify.NewStore(dbPool)
	dispatcher := notify.NewDispatcher(notifyStore, sender)

	bookingStore := booking.NewStore(dbPool)
	bookingSvc := booking.NewService(
		bookingStore,
		tripStore,
		dispatcher,
		time.Duration(cfg.Booking.DeadlineHours)*time.Hour,
	)

	chatSvc := chat.NewService(chat.NewStore(dbPool), chat.NewRedisLive(redisClient))

	var routes *maps.RouteService
	if cfg.Maps.APIKey != "" {
		routes, err = maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
	}

	var suggester ai.ReplySuggester
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiSuggester(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer gemini.Close()
		suggester = gemini
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Trips:             tripSvc,
		Bookings:          bookingSvc,
		Chat:              chatSvc,
		Routes:            routes,
		Suggester:         suggester,
		Devices:           notifyStore,
		Verifier:          verifier,
		AllowInsecureAuth: cfg.AllowInsecureAuth,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go tripSvc.RunStatusSweeper(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("copool-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}

	// Let in-flight notification goroutines drain before exit.
	dispatcher.Wait()
}
