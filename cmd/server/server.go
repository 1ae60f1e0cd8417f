package main

import (
	"fmt"
	"log"
	"net/http"

	"calassist/config"
	"calassist/db"
	"calassist/handlers"
	"calassist/services/assistant"
	"calassist/services/store"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	calendarStore, cleanup := buildStore(cfg)
	defer cleanup()

	gateway := buildGateway(cfg)

	registry := assistant.NewRegistry(calendarStore, cfg.StrictTimezones)
	session := assistant.NewSession(gateway, registry, calendarStore, cfg.DefaultYear)

	chatHandler := handlers.NewChatHandler(session)
	eventHandler := handlers.NewEventHandler(calendarStore)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	chatHandler.RegisterRoutes(router)
	eventHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func buildStore(cfg *config.Config) (store.Store, func()) {
	if cfg.GoogleCredentialsFile != "" {
		googleStore, err := store.NewGoogleStore(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile, cfg.DefaultTimezone)
		if err != nil {
			log.Fatalf("Failed to initialize Google Calendar store: %v", err)
		}
		return googleStore, func() {}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("Either GOOGLE_CREDENTIALS_FILE or DB_URL is required")
	}

	eventRepo, err := db.NewPostgresEventRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize event database: %v", err)
	}

	localStore, err := store.NewLocalStore(eventRepo, cfg.DefaultTimezone)
	if err != nil {
		log.Fatalf("Failed to initialize local event store: %v", err)
	}
	return localStore, func() { eventRepo.Close() }
}

func buildGateway(cfg *config.Config) assistant.Gateway {
	switch cfg.AIProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY environment variable is required")
		}
		return assistant.NewAnthropicGateway(cfg.AnthropicAPIKey)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required")
		}
		gateway, err := assistant.NewOpenAIGateway(cfg.OpenAIAPIKey, "")
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI gateway: %v", err)
		}
		return gateway
	default:
		log.Fatalf("Unknown AI_PROVIDER %q, expected openai or anthropic", cfg.AIProvider)
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
