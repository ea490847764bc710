package router

import (
	"time"

	"partdepot/internal/config"
	"partdepot/internal/handler"
	"partdepot/internal/middleware"
	"partdepot/internal/repository"
	"partdepot/internal/service"
	"partdepot/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	partRepo := repository.NewPartRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	partSvc := service.NewPartService(partRepo, rdb, dispatcher, cfg.AlertEmail)

	// ── Handlers ─────────────────────────────────────────────────────────────
	partsH := handler.NewPartsHandler(partSvc)
	lookupH := handler.NewLookupHandler(partSvc)
	labelsH := handler.NewLabelsHandler(dispatcher, cfg.PDFStoragePath)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		v1.GET("/parts", partsH.List)
		v1.POST("/parts", partsH.Create)
		v1.GET("/parts/by-number/:partNumber", partsH.GetByPartNumber)
		v1.GET("/parts/:id", partsH.GetByID)
		v1.PUT("/parts/:id", partsH.Update)
		v1.POST("/parts/:id/move", partsH.Move)
		v1.POST("/parts/:id/quantity", partsH.UpdateQuantity)
		v1.POST("/parts/:id/events", partsH.AddEvent)

		v1.GET("/lookup/:code", lookupH.Lookup)
		v1.GET("/locations", partsH.Locations)
		v1.GET("/stats", partsH.Stats)

		v1.POST("/labels", labelsH.Enqueue)
		v1.GET("/labels/:job_id", labelsH.Download)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
