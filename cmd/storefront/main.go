package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motoshop/catalog/pkg/cart"
	"github.com/motoshop/catalog/pkg/catalog"
	"github.com/motoshop/catalog/pkg/common"
	"github.com/motoshop/catalog/pkg/config"
	"github.com/motoshop/catalog/pkg/favorites"
	"github.com/motoshop/catalog/pkg/identity"
	"github.com/motoshop/catalog/pkg/notify"
	"github.com/motoshop/catalog/pkg/server"
	"github.com/motoshop/catalog/pkg/storage"
	"github.com/motoshop/catalog/pkg/tracking"
	"github.com/motoshop/catalog/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const sessionIdleTimeout = 30 * time.Minute

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := common.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("storefront stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func productSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ProductSource, func(context.Context) error, error) {
	if cfg.PostgresDsn == "" {
		logger.Info("using disk product source", zap.String("file", cfg.ProductsPath()))
		return storage.NewDiskStorage(cfg.DataDir, cfg.ProductsFile), nil, nil
	}
	db, err := storage.OpenPostgres(ctx, cfg.PostgresDsn)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using postgres product source")
	return storage.NewPostgresSource(db), func(context.Context) error { return db.Close() }, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var hooks []common.ShutdownHook

	source, closeSource, err := productSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closeSource != nil {
		hooks = append(hooks, closeSource)
	}
	repo := storage.NewRepository(source, logger)
	if err := repo.Reload(ctx); err != nil {
		return err
	}

	pages, err := catalog.LoadPages(cfg.CategoriesFile)
	if err != nil {
		return err
	}

	var favoritesStore favorites.Store = favorites.NewDiskStore(cfg.DataDir)
	var redisStore *favorites.RedisStore
	if cfg.RedisUrl != "" {
		client := favorites.NewRedisClient(cfg.RedisUrl, cfg.RedisPassword, cfg.RedisDb)
		hooks = append(hooks, func(context.Context) error { return client.Close() })
		redisStore = favorites.NewRedisStore(client, logger)
		favoritesStore = redisStore
	}
	favs := favorites.New(favoritesStore, logger)
	if redisStore != nil {
		go favs.Watch(ctx, redisStore)
	}

	verifiers := identity.Chain{}
	if cfg.FirebaseProjectId != "" {
		firebase, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectId, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Warn("firebase disabled", zap.Error(err))
		} else {
			verifiers = append(verifiers, firebase)
		}
	}
	mockSessions := identity.NewMockSessions(cfg.MockSessionSecret, 0)
	verifiers = append(verifiers, mockSessions)

	hub := notify.NewHub(cfg.NotificationTtl, logger)
	hooks = append(hooks, func(context.Context) error {
		hub.Close()
		return nil
	})

	var tracker tracking.Tracking = tracking.NopTracking{}
	if cfg.RabbitUrl != "" {
		conn, err := amqp.DialConfig(cfg.RabbitUrl, amqp.Config{
			Properties: amqp.NewConnectionProperties(),
		})
		if err != nil {
			return err
		}
		hooks = append(hooks, func(context.Context) error { return conn.Close() })
		if err := repo.ListenForChanges(ctx, conn, cfg.RabbitPrefix); err != nil {
			return err
		}
		rabbitTracking, err := tracking.NewRabbitTracking(conn, cfg.RabbitPrefix, logger)
		if err != nil {
			logger.Warn("tracking disabled", zap.Error(err))
		} else {
			tracker = rabbitTracking
			// runs before the connection hook
			hooks = append([]common.ShutdownHook{func(context.Context) error { return rabbitTracking.Close() }}, hooks...)
		}
	}

	indexes := catalog.NewIndexCache(repo, cfg.DefaultMaxPrice)
	repo.Subscribe(func(products []types.Product, version uint64) {
		indexes.Reset()
		logger.Info("product collection replaced", zap.Int("products", len(products)), zap.Uint64("version", version))
	})

	sessions := catalog.NewSessions(pages, repo, cfg.PageSize, catalog.SessionOptions{
		Debounce:   cfg.QueryDebounce,
		DefaultMax: cfg.DefaultMaxPrice,
	})
	sessions.OnChange(func(sessionId string, view catalog.View) {
		hub.Push(sessionId, fmt.Sprintf("Найдено товаров: %d", view.Total), notify.KindInfo)
	})
	go pruneSessions(ctx, sessions, logger)

	ws := &server.WebServer{
		Products:      repo,
		Pages:         pages,
		Sessions:      sessions,
		Favorites:     favs,
		Carts:         cart.NewDiskCartStorage(cfg.DataDir),
		Notifications: hub,
		Identity:      verifiers,
		MockSessions:  mockSessions,
		Tracking:      tracker,
		Indexes:       indexes,
		Logger:        logger,
		PageSize:      cfg.PageSize,
	}

	servers := []*http.Server{
		common.NewServerWithTimeouts(&http.Server{Addr: cfg.HttpAddr, Handler: ws.Router()}, cfg.TimeoutConfig),
	}
	if cfg.DebugAddr != "" {
		servers = append(servers, common.NewServerWithTimeouts(&http.Server{Addr: cfg.DebugAddr, Handler: server.DebugRouter()}, cfg.TimeoutConfig))
	}

	err = common.RunServersWithShutdown(ctx, logger, cfg.TimeoutConfig, servers, hooks...)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pruneSessions(ctx context.Context, sessions *catalog.Sessions, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(sessionIdleTimeout); n > 0 {
				logger.Debug("pruned idle sessions", zap.Int("count", n))
			}
		}
	}
}
