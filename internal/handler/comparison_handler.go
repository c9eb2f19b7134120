package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/vision-eval/internal/service/comparison"
)

// ComparisonHandler 跨运行对比处理器
type ComparisonHandler struct {
	comparisonService *comparison.Service
}

// NewComparisonHandler 创建对比处理器
func NewComparisonHandler(comparisonService *comparison.Service) *ComparisonHandler {
	return &ComparisonHandler{comparisonService: comparisonService}
}

// CompareRequest 对比请求，选择 2-5 个已完成的运行
type CompareRequest struct {
	RunIDs []string `json:"run_ids" binding:"required,min=2,max=5"`
}

// CompareRuns 对比多个运行的公共维度得分
// POST /api/v1/results/compare
func (h *ComparisonHandler) CompareRuns(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.comparisonService.CompareRuns(c.Request.Context(), req.RunIDs)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, result)
}
