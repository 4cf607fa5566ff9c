package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"disputedesk/internal/adapter/api"
	"disputedesk/internal/adapter/api/handler"
	apimiddleware "disputedesk/internal/adapter/api/middleware"
	"disputedesk/internal/adapter/api/router"
	"disputedesk/internal/adapter/repository"
	domainrepo "disputedesk/internal/domain/repository"
	"disputedesk/internal/domain/service"
	"disputedesk/internal/infrastructure/cache"
	"disputedesk/internal/infrastructure/firebase"
	"disputedesk/internal/infrastructure/ratelimit"
	"disputedesk/internal/infrastructure/storage"
	"disputedesk/internal/infrastructure/websocket"
	"disputedesk/internal/usecase"
	"disputedesk/pkg/config"
	"disputedesk/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("disputedesk", pflag.ExitOnError)
	configPath := flags.String("config", "config.yaml", "path to the YAML config file")
	port := flags.String("port", "", "override the HTTP listen port")
	debug := flags.Bool("debug", false, "enable debug logging")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.ServerPort = *port
	}
	if *debug {
		logger.SetDebug(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	switch {
	case cfg.FirebaseCredentialsJSON != "":
		logger.Info("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
	case cfg.FirebaseCredentialsPath != "":
		if _, err := os.Stat(cfg.FirebaseCredentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.FirebaseCredentialsPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseCredentialsPath)
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	default:
		logger.Info("Using application default credentials")
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	files, err := storage.NewFileUploadService(ctx, cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.StorageProvider, err)
	}
	defer files.Close()

	var statsCache domainrepo.StatisticsCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		statsCache = cache.NewRedisStatisticsCache(redisClient, cfg.StatsCacheTTL)
		logger.Info("Caching dashboard statistics in Redis at %s", cfg.RedisAddr)
	} else {
		statsCache = cache.NewMemoryStatisticsCache(cfg.StatsCacheTTL)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid statistics time zone: %v", err)
	}

	disputeRepo := repository.NewFirestoreDisputeRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	supportUserRepo := repository.NewFirestoreSupportUserRepository(firestoreClient)

	identity := firebase.NewFirebaseAuthClient(authClient, firebase.Options{
		APIKey:             cfg.FirebaseAPIKey,
		IdentityToolkitURL: cfg.IdentityToolkitURL,
		SecureTokenURL:     cfg.SecureTokenURL,
	})

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine(ctx, 10*time.Minute)

	disputeUseCase := usecase.NewDisputeUseCase(disputeRepo, statsCache, service.NewStatisticsAggregator(loc, nil))
	chatUseCase := usecase.NewChatUseCase(messageRepo, disputeRepo, disputeUseCase, files, limiter)
	sessionUseCase := usecase.NewSessionUseCase(identity, supportUserRepo)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	handler.Setup(sessionUseCase, disputeUseCase, chatUseCase, wsManager, cfg.MaxUploadBytes)
	wsHandler := handler.NewWebSocketHandler(wsManager, sessionUseCase, disputeUseCase, chatUseCase, cfg.AllowedOrigins)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))

	authMiddleware := apimiddleware.NewAuthMiddleware(identity)
	supportMiddleware := apimiddleware.NewSupportMiddleware(supportUserRepo)

	router.Setup(e, authMiddleware, supportMiddleware, limiter, wsHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server on port %s (%s)...", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	logger.Info("Server stopped")
}

// bodyLimit leaves headroom above the attachment size for multipart framing.
func bodyLimit(maxUpload int64) string {
	mb := (maxUpload + (1 << 20) + (1<<20 - 1)) >> 20
	return strconv.FormatInt(mb, 10) + "M"
}
