package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/mediascan/internal/api/handlers"
	"github.com/your-org/mediascan/internal/api/ws"
	"github.com/your-org/mediascan/internal/auth"
	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/queue"
	"github.com/your-org/mediascan/internal/scan"
	"github.com/your-org/mediascan/internal/swipe"
)

type RouterConfig struct {
	APIKey   string
	Library  *library.MediaLibrary
	Objects  *library.ObjectStore
	Producer *queue.Producer
	Scan     *scan.Service
	Ledger   *swipe.Ledger
	Hub      *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Library, cfg.Objects, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Scans
	scanH := handlers.NewScanHandler(cfg.Scan)
	v1.GET("/scans", scanH.Status)
	v1.POST("/scans/images", scanH.StartImages)
	v1.POST("/scans/videos", scanH.StartVideos)
	v1.POST("/scans/reset", scanH.Reset)

	// Categories & media
	ledger := cfg.Ledger
	mediaH := handlers.NewMediaHandler(cfg.Scan, cfg.Library, ledger)
	v1.GET("/categories", mediaH.Categories)
	v1.GET("/categories/:category/media", mediaH.Media)
	v1.GET("/media/:id/thumbnail", mediaH.Thumbnail)
	v1.POST("/media/delete", mediaH.Delete)

	// Swipe review
	swipeH := handlers.NewSwipeHandler(ledger, cfg.Library)
	v1.GET("/swipe", swipeH.Status)
	v1.PUT("/media/:id/swipe", swipeH.Mark)
	v1.DELETE("/media/:id/swipe", swipeH.Clear)
	v1.POST("/swipe/commit", swipeH.Commit)

	return r
}
