package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manash/adhook/internal/logger"
)

type RouterConfig struct {
	Handler        *Handler
	Log            *logger.Logger
	CORSOrigins    []string
	MaxMultipartMB int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(cfg.Log), RequestLogger(cfg.Log), CORS(cfg.CORSOrigins))
	if cfg.MaxMultipartMB > 0 {
		router.MaxMultipartMemory = int64(cfg.MaxMultipartMB) << 20
	}

	router.GET("/healthcheck", HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/generate-adcopy", cfg.Handler.GenerateCopy)
		api.POST("/generate-image", cfg.Handler.GenerateImage)
		api.POST("/edit-image", cfg.Handler.EditImage)
		api.POST("/save-adcopy", cfg.Handler.SaveAdCopy)
		api.POST("/save-images", cfg.Handler.SaveImages)
		api.GET("/list-adcopy", cfg.Handler.ListAdCopy)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	})
	return router
}
