package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/daryltucker/forest-bench/internal/results"
)

type parametersQuery struct {
	Runtime      string `form:"runtime" binding:"required"`
	InstanceType string `form:"instance_type" binding:"required"`
	ModelName    string `form:"model_name" binding:"required"`
}

type comparisonRequest struct {
	Combinations []results.Filters `json:"combinations" binding:"required"`
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, "ok")
}

func (s *Server) combinations(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.agg.Combinations())
}

func (s *Server) parameters(ctx *gin.Context) {
	var q parametersQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, s.agg.Parameters(q.Runtime, q.InstanceType, q.ModelName))
}

var (
	stringFilters = []string{"runtime", "instance_type", "model_name"}
	intFilters    = []string{"input_tokens", "output_tokens", "random_tokens"}
)

func (s *Server) performanceData(ctx *gin.Context) {
	filters := results.Filters{}
	for _, key := range stringFilters {
		if v := ctx.Query(key); v != "" {
			filters[key] = v
		}
	}
	for _, key := range intFilters {
		v, ok := ctx.GetQuery(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": key + " must be an integer"})
			return
		}
		filters[key] = n
	}
	ctx.JSON(http.StatusOK, s.agg.Query(filters))
}

func (s *Server) comparisonData(ctx *gin.Context) {
	var req comparisonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, s.agg.Compare(req.Combinations))
}

func (s *Server) treeStructure(ctx *gin.Context) {
	tree, err := s.agg.Tree(ctx.Request.Context())
	if err != nil {
		s.logger.Error("Failed to reload results for tree", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tree": tree})
}

func (s *Server) stats(ctx *gin.Context) {
	st, err := s.agg.Stats()
	if errors.Is(err, results.ErrEmptyDataset) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No data available"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, st)
}

func (s *Server) reload(ctx *gin.Context) {
	d, err := s.agg.Reload(ctx.Request.Context())
	if err != nil {
		s.logger.Error("Reload failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"records": d.Len()})
}
