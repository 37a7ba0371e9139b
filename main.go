package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ar-navigation/algo"
	"ar-navigation/config"
	"ar-navigation/db"
	"ar-navigation/handler"
	"ar-navigation/mapdata"
	"ar-navigation/model"
	"ar-navigation/navigation"
	"ar-navigation/positionfeed"
	"ar-navigation/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	utils.InitLogging()
	config.LoadEnv()

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. database: users, routes, navigation events
	store, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := store.SeedDefaultRoute(cfg.Navigation.Route); err != nil {
		log.Fatalf("seed route: %v", err)
	}

	// 2. projection and walk graph
	projector, err := utils.NewProjector(
		model.GeodeticPoint{Latitude: *cfg.Projection.ReferenceLatitude, Longitude: *cfg.Projection.ReferenceLongitude},
		cfg.Projection.MetersPerDegreeLat, cfg.Projection.MetersPerDegreeLon,
	)
	if err != nil {
		log.Fatalf("projection: %v", err)
	}
	graph, err := buildGraph(ctx, cfg, projector)
	if err != nil {
		log.Fatalf("graph: %v", err)
	}

	// 3. navigation session over the stored route
	route, err := store.LoadRoute(cfg.Navigation.Route)
	if err != nil {
		log.Fatalf("route: %v", err)
	}
	tracker, err := navigation.NewTracker(route.NavigationInstructions(), navigation.SettingsFromConfig(cfg.Navigation))
	if err != nil {
		log.Fatalf("tracker: %v", err)
	}
	session, err := navigation.NewSession(tracker, navigation.WithEyeHeight(cfg.Navigation.EyeHeight))
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	// 4. position feed: HTTP pushes always, Kafka when configured
	provider := positionfeed.NewProvider()
	if k := cfg.Feed.Kafka; k.Topic != "" {
		feed := positionfeed.NewKafkaFeed(k.Brokers, k.Topic, k.GroupID, provider)
		feed.Start(ctx)
		defer feed.Stop()
	}
	go func() {
		if err := provider.AwaitRunning(ctx, 20*time.Second, 500*time.Millisecond); err != nil && ctx.Err() == nil {
			log.Printf("no position fix yet: %v", err)
		}
	}()

	runner, err := navigation.NewRunner(session, provider, projector,
		time.Duration(cfg.Navigation.TickIntervalMS)*time.Millisecond, store)
	if err != nil {
		log.Fatalf("runner: %v", err)
	}
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("navigation runner: %v", err)
		}
	}()

	// 5. HTTP API
	handler.Graph = graph
	handler.Projector = projector
	handler.Session = session
	handler.Feed = provider
	handler.CurrentRoute = route
	handler.Users = store
	handler.Events = store
	handler.SetJWTSecret(cfg.Server.JWTSecret, time.Duration(cfg.Server.TokenTTLHours)*time.Hour)
	handler.StreamInterval = time.Duration(cfg.Server.StreamIntervalMS) * time.Millisecond

	r := gin.Default()
	handler.SetupRoutes(r)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}

	go func() {
		log.Printf("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// buildGraph loads every configured source from MinIO or the local filesystem.
func buildGraph(ctx context.Context, cfg *config.AppConfig, projector *utils.Projector) (*algo.GraphBuildResult, error) {
	builder, err := algo.NewGraphBuilder(projector, algo.BuilderOptions{
		Tolerance:      cfg.Graph.Tolerance,
		OneWayProperty: cfg.Graph.OneWayProperty,
		POIProperty:    cfg.Graph.POIProperty,
	})
	if err != nil {
		return nil, err
	}

	var fetcher mapdata.Fetcher = mapdata.FileSource{Root: cfg.Graph.Root}
	if m := cfg.Storage.Minio; m.Endpoint != "" {
		s3, err := mapdata.NewS3Source(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
		if err != nil {
			return nil, err
		}
		fetcher = s3
	}

	specs := make([]mapdata.SourceSpec, 0, len(cfg.Graph.Sources))
	for _, s := range cfg.Graph.Sources {
		specs = append(specs, mapdata.SourceSpec{Name: s.Name, Location: s.Location, Format: mapdata.Format(s.Format)})
	}
	res := builder.Ingest(mapdata.Load(ctx, fetcher, specs))
	if len(res.Errors) > 0 {
		log.Printf("%d of %d map sources were skipped", len(res.Errors), len(specs))
	}
	return res, nil
}
