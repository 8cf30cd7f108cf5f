// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"citypass/internal/config"
	httptransport "citypass/internal/http"
	"citypass/internal/infra"
	"citypass/internal/ledger"
	"citypass/internal/maps"
	"citypass/internal/modules/card"
	"citypass/internal/modules/fare"
	"citypass/internal/modules/routes"
	"citypass/internal/modules/settlement"
	"citypass/internal/modules/tap"
)

const serverShutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("CITYPASS_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	transit, err := maps.NewTransitService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	stations, err := maps.NewStationService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}

	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.Timeout, log)

	settlementStore := settlement.NewStore(dbPool)
	settlementSvc := settlement.NewService(settlementStore, ledgerClient, log)

	fareCalc := fare.NewCalculator(fare.NewTable(), transit, log)

	cardStore := card.NewStore(dbPool)
	cardSvc := card.NewService(cardStore, ledgerClient, settlementSvc, log)

	tapStore := tap.NewStore(dbPool)
	tapSvc := tap.NewService(tapStore, cardStore, fareCalc, settlementSvc, tap.NewRedisLock(redisClient), log)

	routeSvc := routes.NewService(transit, stations, fareCalc, log)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Tap:      tapSvc,
		Cards:    cardSvc,
		Routes:   routeSvc,
		Verifier: verifier,
		Log:      log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("citypass api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
