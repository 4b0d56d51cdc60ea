package main

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/urbanflow/traffic-sim/internal/analysis"
	"github.com/urbanflow/traffic-sim/internal/config"
	"github.com/urbanflow/traffic-sim/internal/ext"
	"github.com/urbanflow/traffic-sim/internal/orchestrator"
	"github.com/urbanflow/traffic-sim/internal/providers"
	"github.com/urbanflow/traffic-sim/internal/storage"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer store.Close()

	providers.InitCache(cfg.RoadCacheTTL)

	orch := orchestrator.New(
		providers.NewOverpassProvider(cfg.OverpassEndpoint, log),
		providers.NewTrafficProvider(cfg.TrafficEndpoint, cfg.TrafficAPIKey, log),
		providers.NewPopulationProvider(cfg.PopulationEndpoint, log),
		log,
		orchestrator.Options{
			MaxVehicles:    cfg.MaxVehicles,
			LiveSampleSize: cfg.LiveSampleSize,
			LiveTickS:      cfg.LiveTickSeconds,
			Seed:           cfg.Seed,
		},
	)

	api := &ext.API{
		Store:              store,
		Runner:             orch,
		Analyst:            analysis.RuleBased{},
		Log:                log,
		DefaultDurationMin: cfg.DefaultDurationMin,
		DefaultRadiusKm:    cfg.DefaultRadiusKm,
	}

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("traffic simulation service listening")
	if err := http.ListenAndServe(addr, api.Router()); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
