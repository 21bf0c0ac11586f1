package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mcmalerts/internal/alerts"
	"mcmalerts/internal/audit"
	"mcmalerts/internal/auth"
	"mcmalerts/internal/config"
	"mcmalerts/internal/db"
	"mcmalerts/internal/feed"
	"mcmalerts/internal/handlers"
	"mcmalerts/internal/middleware"
	"mcmalerts/internal/push"
	"mcmalerts/internal/topics"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer conn.Close()
	log.Printf("database connected (%s)", cfg.DBPath)

	sessions := auth.NewSessions(conn, cfg.AuthEnabled)
	sessions.CreateDefaultAdmin(cfg.AdminUser, cfg.AdminPass)

	store := alerts.NewStore(conn)
	recorder := audit.NewRecorder(conn)
	hub := feed.NewHub()
	registry := push.NewRegistry(conn)
	deliveryLog := push.NewDeliveryLog(conn)
	broadcaster := push.NewBroadcaster(registry, deliveryLog, nil, cfg.PushTimeout)
	service := alerts.NewService(store, hub, broadcaster)
	topicStore := topics.NewStore(conn, cfg.PublicBaseURL)

	ingest := handlers.NewIngestHandler(service)
	notifications := handlers.NewNotificationHandler(service, store)
	auditHandler := handlers.NewAuditHandler(recorder)
	subscriptions := handlers.NewSubscriptionHandler(registry, deliveryLog)
	topicHandler := handlers.NewTopicHandler(topicStore)
	authHandler := handlers.NewAuthHandler(sessions)
	feedWS := feed.NewWebSocketHandler(hub)

	ingestLimiter := middleware.NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONResponse(w, map[string]string{"status": "ok"})
	})

	// Open endpoints: external senders and device registration.
	mux.HandleFunc("POST /api/ingest", ingestLimiter.Middleware(ingest.Ingest))
	mux.HandleFunc("POST /api/push/subscriptions", subscriptions.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Dashboard API.
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/notifications", sessions.Middleware(notifications.List))
	mux.HandleFunc("GET /api/notifications/stats", sessions.Middleware(notifications.Stats))
	mux.HandleFunc("GET /api/notifications/{id}", sessions.Middleware(notifications.Get))
	mux.HandleFunc("POST /api/notifications/{id}/ack", sessions.Middleware(notifications.Acknowledge))
	mux.HandleFunc("POST /api/notifications/{id}/resolve", sessions.Middleware(notifications.Resolve))
	mux.HandleFunc("POST /api/notifications/{id}/snooze", sessions.Middleware(notifications.Snooze))
	mux.HandleFunc("POST /api/notifications/{id}/comments", sessions.Middleware(notifications.AddComment))
	mux.HandleFunc("GET /api/audit", sessions.Middleware(auditHandler.Query))
	mux.HandleFunc("GET /api/feed", sessions.Middleware(feedWS.ServeHTTP))
	mux.HandleFunc("GET /api/topics", sessions.Middleware(topicHandler.List))
	mux.HandleFunc("POST /api/topics", sessions.Middleware(topicHandler.Create))
	mux.HandleFunc("POST /api/topics/{id}/toggle", sessions.Middleware(topicHandler.Toggle))
	mux.HandleFunc("GET /api/push/subscriptions", sessions.Middleware(subscriptions.List))
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", sessions.Middleware(subscriptions.Remove))
	mux.HandleFunc("GET /api/push/deliveries", sessions.Middleware(subscriptions.Deliveries))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: middleware.CORS(middleware.Logging(mux)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expired sessions are swept hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessions.CleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		log.Printf("MCM Alerts server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	hub.Close()
	service.Close() // wait for in-flight push fan-out
}
