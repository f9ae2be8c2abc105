// Package api exposes the extractor, the bridge and the store to the browser
// extension over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"benchmarkbox/internal/bridge"
	"benchmarkbox/internal/store"
)

// APIResponse is the envelope of every API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Options configures the router
type Options struct {
	Environment    string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	PendingMaxAge  time.Duration
}

// Server holds the dependencies of the HTTP handlers
type Server struct {
	store   *store.Store
	bridge  *bridge.Bridge
	logger  *logrus.Logger
	options Options
}

// NewServer creates the API server
func NewServer(s *store.Store, b *bridge.Bridge, logger *logrus.Logger, options Options) *Server {
	if options.PendingMaxAge <= 0 {
		options.PendingMaxAge = 30 * time.Second
	}
	return &Server{
		store:   s,
		bridge:  b,
		logger:  logger,
		options: options,
	}
}

// Router creates and configures the gin router
func (s *Server) Router() *gin.Engine {
	if s.options.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware(s.logger))
	router.Use(LoggerMiddleware(s.logger))
	router.Use(CORSMiddleware(s.options.AllowedOrigins))
	router.Use(RateLimitMiddleware(s.options.RateLimit, s.options.RateBurst))

	router.GET("/health", s.handleHealth)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/extract", s.handleExtract)
		v1.POST("/messages", s.handleMessage)
		v1.GET("/pending", s.handlePending)
		v1.POST("/capture", s.handleCapture)

		products := v1.Group("/products")
		{
			products.GET("", s.handleListProducts)
			products.POST("", s.handleCreateProduct)
			products.GET("/:id", s.handleGetProduct)
			products.PUT("/:id", s.handleUpdateProduct)
			products.DELETE("/:id", s.handleDeleteProduct)
			products.POST("/:id/duplicate", s.handleDuplicateProduct)
			products.POST("/:id/move", s.handleMoveProduct)
			products.GET("/:id/lists", s.handleProductLists)
		}

		folders := v1.Group("/folders")
		{
			folders.GET("", s.handleListFolders)
			folders.POST("", s.handleCreateFolder)
			folders.PUT("/:id", s.handleUpdateFolder)
			folders.DELETE("/:id", s.handleDeleteFolder)
			folders.POST("/:id/default", s.handleSetDefaultFolder)
			folders.DELETE("/:id/products", s.handleClearFolder)
		}

		tags := v1.Group("/tags")
		{
			tags.GET("", s.handleListTags)
			tags.POST("", s.handleCreateTag)
			tags.DELETE("/:id", s.handleDeleteTag)
		}

		lists := v1.Group("/lists")
		{
			lists.GET("", s.handleListShoppingLists)
			lists.POST("", s.handleCreateShoppingList)
			lists.PUT("/:id", s.handleUpdateShoppingList)
			lists.DELETE("/:id", s.handleDeleteShoppingList)
			lists.GET("/:id/total", s.handleShoppingListTotal)
			lists.POST("/:id/products/:productId", s.handleAddToShoppingList)
			lists.DELETE("/:id/products/:productId", s.handleRemoveFromShoppingList)
		}

		v1.GET("/sites", s.handleSites)
		v1.GET("/settings", s.handleGetSettings)
		v1.PUT("/settings", s.handleUpdateSettings)
		v1.GET("/export", s.handleExport)
		v1.POST("/import", s.handleImport)
	}

	return router
}

// Run starts serving on addr
func (s *Server) Run(addr string) error {
	s.logger.Infof("Starting API server on %s", addr)
	return s.Router().Run(addr)
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, APIResponse{Error: message})
}

// respondStoreError maps store and bridge errors to HTTP statuses
func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrSystemFolder), errors.Is(err, store.ErrInvalidImport):
		respondError(c, http.StatusBadRequest, err.Error())
	case bridge.IsUserError(err):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, bridge.ErrBridgeUnavailable):
		respondError(c, http.StatusBadGateway, err.Error())
	default:
		s.logger.Errorf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
