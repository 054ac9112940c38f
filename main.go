package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streetLearnAPI/handlers"
	"streetLearnAPI/internal/cache"
	"streetLearnAPI/internal/notification"
	"streetLearnAPI/internal/storage"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/summary"
	"streetLearnAPI/middleware"
	"streetLearnAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	collectionCache     *cache.Cache
	broker              *subscribe.Broker
	storageService      *storage.Service
	summaryService      *summary.Service
	fcmService          *notification.FCMService
	notificationService *services.NotificationService
	userService         *services.UserService
	studyService        *services.StudyService
	leaderboardService  *services.LeaderboardService
	deadlineService     *services.DeadlineService
	messageService      *services.MessageService
	postService         *services.PostService
	fileService         *services.FileService
	deadlineNotifier    *services.DeadlineNotifier
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to NeonDB")

	broker = subscribe.NewBroker()
	collectionCache = cache.New(5 * time.Minute)
	collectionCache.SetInvalidationCallback(func(collection string) {
		broker.Publish(collection, "", "invalidated")
	})

	bucket := os.Getenv("STORAGE_BUCKET")
	if bucket == "" {
		log.Fatal("STORAGE_BUCKET environment variable is not set")
	}
	storageService, err = storage.NewService(ctx, bucket, "./serviceAccountKey.json")
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	summaryService, err = summary.NewService(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.Printf("Warning: Could not initialize Gemini, summaries disabled: %v", err)
		summaryService = nil
	}

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool, collectionCache, storageService, broker)
	studyService = services.NewStudyService(dbPool, summaryService, broker)
	leaderboardService = services.NewLeaderboardService(dbPool, userService)
	deadlineService = services.NewDeadlineService(dbPool, notificationService, broker)
	messageService = services.NewMessageService(dbPool, notificationService, broker)
	postService = services.NewPostService(dbPool, storageService, broker)
	fileService = services.NewFileService(dbPool, storageService, summaryService, broker)

	if err := userService.SeedRoles(ctx); err != nil {
		log.Fatal("Failed to seed role seats:", err)
	}

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	deadlineNotifier = services.NewDeadlineNotifier(deadlineService, notificationService)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	studyHandler := handlers.NewStudyHandler(studyService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	deadlineHandler := handlers.NewDeadlineHandler(deadlineService)
	messageHandler := handlers.NewMessageHandler(messageService, storageService)
	postHandler := handlers.NewPostHandler(postService, storageService)
	fileHandler := handlers.NewFileHandler(fileService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)
	eventsHandler := handlers.NewEventsHandler(broker)

	r := mux.NewRouter()

	// Websocket feed stays off the standard middleware chain; the
	// handler verifies the Clerk token from the query string itself.
	r.HandleFunc("/api/v1/events/ws", eventsHandler.Subscribe)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "streetLearn-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// Signup screen needs the seat list before the user has an account.
	api.HandleFunc("/roles", userHandler.GetRoles).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.CreateAccount).Methods("POST")
	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/photo", userHandler.UploadProfilePhoto).Methods("POST")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/members", userHandler.GetMembers).Methods("GET")

	protected.HandleFunc("/study/log", studyHandler.LogStudy).Methods("POST")
	protected.HandleFunc("/study/history", studyHandler.GetStudyHistory).Methods("GET")
	protected.HandleFunc("/study/streak-history", studyHandler.GetStreakHistory).Methods("GET")
	protected.HandleFunc("/study/streak-series", studyHandler.GetStreakSeries).Methods("GET")
	protected.HandleFunc("/study/calendar", studyHandler.GetCalendar).Methods("GET")

	protected.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/deadlines", deadlineHandler.CreateDeadline).Methods("POST")
	protected.HandleFunc("/deadlines", deadlineHandler.GetDeadlines).Methods("GET")
	protected.HandleFunc("/deadlines/{deadlineID}/complete", deadlineHandler.CompleteDeadline).Methods("PUT")
	protected.HandleFunc("/deadlines/{deadlineID}", deadlineHandler.DeleteDeadline).Methods("DELETE")

	protected.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/messages", messageHandler.GetMessages).Methods("GET")
	protected.HandleFunc("/messages/file", messageHandler.SendFileMessage).Methods("POST")
	protected.HandleFunc("/messages", messageHandler.ClearChat).Methods("DELETE")

	protected.HandleFunc("/posts", postHandler.CreatePost).Methods("POST")
	protected.HandleFunc("/posts", postHandler.GetPosts).Methods("GET")
	protected.HandleFunc("/posts/{postID}/comments", postHandler.AddComment).Methods("POST")
	protected.HandleFunc("/posts/{postID}/like", postHandler.ToggleLike).Methods("PUT")
	protected.HandleFunc("/posts/{postID}", postHandler.DeletePost).Methods("DELETE")

	protected.HandleFunc("/files", fileHandler.UploadFile).Methods("POST")
	protected.HandleFunc("/files", fileHandler.GetFiles).Methods("GET")
	protected.HandleFunc("/files/download", fileHandler.DownloadFile).Methods("GET")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/remove-device", notificationHandler.RemoveDevice).Methods("POST")
	protected.HandleFunc("/notifications/test", notificationHandler.SendTestNotification).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	deadlineNotifier.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if summaryService != nil {
		summaryService.Close()
	}
	storageService.Close()

	log.Println("Server shutdown complete")
}
