package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batter-scatter/chart"
	"batter-scatter/force"
	"batter-scatter/live"
	"batter-scatter/roster"
	"batter-scatter/scene"
)

func main() {
	fmt.Println("🚀 Starting Batter Scatter...")

	cfg, err := loadConfig(configFileFromEnv())
	if err != nil {
		fmt.Printf("❌ Config error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openPlayerStore(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to open player store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := live.NewHub()
	go hub.Run(ctx)

	srv := newServer(ctx, cfg, store, hub)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.routes(cfg.CORSOrigins),
	}

	go func() {
		fmt.Printf("🎨 Batter Scatter is running on %s\n", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("❌ Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n🛑 Shutting down...")
	cancel()
	if srv.selector != nil {
		srv.renderer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("⚠️  Server shutdown error: %v\n", err)
	}
	fmt.Println("✓ Shutdown complete")
}

// newServer loads the roster and paints the first chart. A roster that
// cannot be loaded is logged once and leaves the server without a chart.
func newServer(ctx context.Context, cfg *ServiceConfig, store *PlayerStore, hub *live.Hub) *server {
	dims := cfg.Dimensions()
	s := &server{ctx: ctx, hub: hub, scene: scene.New(dims), store: store}

	players, err := loadPlayers(ctx, cfg, store)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		s.loadErr = err
		return s
	}
	fmt.Printf("✅ Loaded %d players from %s\n", len(players), cfg.DataSource)

	s.scene.OnFrame(func(f scene.Frame) { hub.Broadcast(live.NewFrameMessage(f)) })
	runner := force.NewRunner(ctx, cfg.TickInterval(), cfg.CollideRadius(), uint64(cfg.Layout.Seed))
	s.renderer = chart.NewRenderer(players, dims, s.scene, runner)
	s.selector = chart.NewSelector(s.renderer)
	s.players = len(players)

	st := s.selector.Paint()
	fmt.Printf("📊 Drew %d points for %s by %s\n", len(st.Groups), st.Y, st.X)
	return s
}

func loadPlayers(ctx context.Context, cfg *ServiceConfig, store *PlayerStore) ([]roster.Player, error) {
	loadCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.LoadTimeoutSec)*time.Second)
	defer cancel()

	players, err := roster.Load(loadCtx, nil, cfg.DataSource)
	if err != nil {
		return nil, err
	}
	if err := store.Replace(ctx, players); err != nil {
		return nil, fmt.Errorf("store roster: %w", err)
	}
	return store.All(ctx)
}
