package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	apiGroup.GET("/combinations", s.combinations)
	apiGroup.GET("/parameters", s.parameters)
	apiGroup.GET("/performance-data", s.performanceData)
	apiGroup.POST("/comparison-data", s.comparisonData)
	apiGroup.GET("/tree-structure", s.treeStructure)
	apiGroup.GET("/stats", s.stats)
	apiGroup.POST("/reload", s.reload)

	return router
}
