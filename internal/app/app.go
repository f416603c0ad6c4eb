// Package app assembles the blog API from its repositories, services and
// controllers.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/config"
	"github.com/klass-lk/blogboot/internal/controller"
	"github.com/klass-lk/blogboot/internal/middleware"
	"github.com/klass-lk/blogboot/internal/repository"
	"github.com/klass-lk/blogboot/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	BasePath   = "/api"
	apiVersion = "1.0.0"
)

type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Database *mongo.Database
	// Pinger backs the health endpoint; usually the *blogboot.MongoStore.
	Pinger controller.Pinger
	// Files stores featured images. Nil disables uploads.
	Files blogboot.FileService
	// Revocations records logged out tokens. Nil keeps them in memory.
	Revocations service.TokenStore
}

type App struct {
	Server     *blogboot.Server
	Posts      *service.PostService
	Categories *service.CategoryService
	Auth       *service.AuthService
	Tokens     *blogboot.TokenIssuer

	db     *mongo.Database
	logger *zap.Logger
}

func New(deps Dependencies) *App {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	revocations := deps.Revocations
	if revocations == nil {
		revocations = service.NewMemoryTokenStore()
	}

	postRepo := repository.NewPostRepository(deps.Database)
	categoryRepo := repository.NewCategoryRepository(deps.Database)
	userRepo := repository.NewUserRepository(deps.Database)

	tokens := blogboot.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	a := &App{
		Posts: service.NewPostService(postRepo, categoryRepo, userRepo, deps.Files,
			service.CategoryUpdatePolicy(cfg.CategoryUpdatePolicy), logger),
		Categories: service.NewCategoryService(categoryRepo, logger),
		Auth: service.NewAuthService(userRepo, tokens, blogboot.NewCrypt(cfg.BcryptCost), revocations,
			cfg.IsAdminEmail, logger),
		Tokens: tokens,
		db:     deps.Database,
		logger: logger,
	}

	server := blogboot.New(logger)
	server.SetProduction(cfg.IsProduction())
	if cfg.LambdaRuntime {
		server.SetRuntime(blogboot.RuntimeLambda)
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		server.DefaultCORS()
	} else {
		server.CustomCORS(
			cfg.AllowedOrigins,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			[]string{"Origin", "Content-Type", "Authorization", "Accept"},
			12*time.Hour,
		)
	}
	server.SetBasePath(BasePath)

	protect := middleware.Protect(tokens, revocations, logger)
	limit := middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware()

	server.RegisterController("/posts", controller.NewPostController(a.Posts, protect, limit))
	server.RegisterController("/categories", controller.NewCategoryController(a.Categories, limit))
	server.RegisterController("/auth", controller.NewAuthController(a.Auth, protect, limit))
	if deps.Pinger != nil {
		server.RegisterController("/health", controller.NewHealthController(deps.Pinger))
	}

	engine := server.Engine()
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Blog API",
			"version": apiVersion,
			"docs":    BasePath,
		})
	})
	engine.NoRoute(func(c *gin.Context) {
		server.SendError(c, blogboot.ErrNotFound.New("Route "+c.Request.URL.Path))
	})

	a.Server = server
	return a
}

// Prepare creates indexes and seeds the default categories. It is safe to
// run on every start.
func (a *App) Prepare(ctx context.Context) error {
	if err := repository.EnsureIndexes(ctx, a.db); err != nil {
		return err
	}
	if err := a.Categories.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}

func (a *App) Handler() http.Handler {
	return a.Server.Engine()
}
