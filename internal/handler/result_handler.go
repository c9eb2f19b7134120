package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/vision-eval/internal/repository"
	"github.com/ashwinyue/vision-eval/internal/service/results"
)

// ResultHandler 评估运行处理器
type ResultHandler struct {
	resultsService *results.Service
}

// NewResultHandler 创建评估运行处理器
func NewResultHandler(resultsService *results.Service) *ResultHandler {
	return &ResultHandler{resultsService: resultsService}
}

// ImportResults 从结果 JSONL 导入一次评估运行
// POST /api/v1/results/import
func (h *ResultHandler) ImportResults(c *gin.Context) {
	var req results.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	run, err := h.resultsService.ImportResults(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, run)
}

// ListRuns 分页列出运行汇总
// GET /api/v1/results
func (h *ResultHandler) ListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	runs, total, err := h.resultsService.ListRuns(c.Request.Context(), page, size)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, runs, total, page, size)
}

// GetRun 获取运行汇总
// GET /api/v1/results/:id
func (h *ResultHandler) GetRun(c *gin.Context) {
	run, err := h.resultsService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "evaluation run not found")
			return
		}
		Error(c, err)
		return
	}
	Success(c, run)
}

// GetRunDetail 获取运行汇总并懒加载逐条明细
// GET /api/v1/results/:id/detail
func (h *ResultHandler) GetRunDetail(c *gin.Context) {
	run, err := h.resultsService.GetRunDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "evaluation run not found")
			return
		}
		Error(c, err)
		return
	}
	Success(c, run)
}

// GetRunSummary 获取运行各维度的箱线图摘要
// GET /api/v1/results/:id/summary
func (h *ResultHandler) GetRunSummary(c *gin.Context) {
	summaries, err := h.resultsService.CriterionSummaries(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, summaries)
}

// DeleteRun 删除运行及其明细
// DELETE /api/v1/results/:id
func (h *ResultHandler) DeleteRun(c *gin.Context) {
	if err := h.resultsService.DeleteRun(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "evaluation run not found")
			return
		}
		Error(c, err)
		return
	}
	NoContent(c)
}
