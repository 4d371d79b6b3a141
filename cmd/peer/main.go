package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tuttifrutti/internal/config"
	"tuttifrutti/internal/handlers"
	"tuttifrutti/internal/identity"
	"tuttifrutti/internal/peer"
	"tuttifrutti/internal/prefs"
	"tuttifrutti/internal/store"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	log.Printf("Loaded configuration: store driver = %s", cfg.Store.Driver)

	// Local preferences and the stable device uid
	p := prefs.Open(cfg.Store.PrefsPath)
	defer p.Close()

	uid := identity.DeviceUID(p)
	name, _ := p.Get(prefs.KeyName)
	if name == "" {
		name = "Player"
	}

	// Shared document store
	var st store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLiteStore(cfg.Store.Path, cfg.Store.PollInterval)
		if err != nil {
			log.Fatal("Failed to open store: ", err)
		}
	default:
		st = store.NewMemoryStore()
	}
	defer st.Close()

	// Engine and presentation bridge
	session := peer.NewSession(cfg, st, uid, name)
	defer session.Close()

	h := handlers.New(session, p, cfg)
	r := handlers.SetupRouter(h, cfg, nil)

	addr := cfg.Bridge.Host + ":" + cfg.Bridge.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Bridge.ReadTimeout,
		WriteTimeout: cfg.Bridge.WriteTimeout,
		IdleTimeout:  cfg.Bridge.IdleTimeout, // 0 for SSE support
	}

	go func() {
		log.Printf("Starting bridge on %s as %s (%s)", addr, name, uid)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Bridge failed to start:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Leave the room first so other peers see a clean exit instead of
	// waiting out the inactivity threshold.
	leaveCtx, cancelLeave := context.WithTimeout(context.Background(), cfg.Bridge.ShutdownTimeout)
	if err := session.LeaveRoom(leaveCtx); err != nil {
		log.Printf("Leaving room on shutdown failed: %v", err)
	}
	cancelLeave()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Bridge.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Bridge forced to shutdown:", err)
	}

	log.Println("Stopped")
}
