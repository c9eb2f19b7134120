package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/vision-eval/internal/model"
	"github.com/ashwinyue/vision-eval/internal/service/ingest"
)

// DatasetHandler 数据集摄取与校验处理器
type DatasetHandler struct {
	ingestService *ingest.Service
}

// NewDatasetHandler 创建数据集处理器
func NewDatasetHandler(ingestService *ingest.Service) *DatasetHandler {
	return &DatasetHandler{ingestService: ingestService}
}

// ValidateJSONLRequest 单文件校验请求
type ValidateJSONLRequest struct {
	FilePath string `json:"file_path" binding:"required"`
	Mode     string `json:"mode" binding:"required"`
}

// ScanFolderRequest 文件夹扫描请求
type ScanFolderRequest struct {
	FolderPath string `json:"folder_path" binding:"required"`
}

// TwoPartRequest 两部分摄取请求
type TwoPartRequest struct {
	ImageFolder string `json:"image_folder" binding:"required"`
	FilePath    string `json:"file_path" binding:"required"`
	Mode        string `json:"mode" binding:"required"`
}

// parseMode 校验工作流模式取值
func parseMode(mode string) (model.WorkflowMode, error) {
	switch model.WorkflowMode(mode) {
	case model.WorkflowTestModel, model.WorkflowEvaluateResponses, model.WorkflowImportResults:
		return model.WorkflowMode(mode), nil
	default:
		return "", fmt.Errorf("unknown workflow mode: %s", mode)
	}
}

// ValidateJSONL 校验并摄取自包含的 JSONL 数据集
// POST /api/v1/datasets/validate
func (h *DatasetHandler) ValidateJSONL(c *gin.Context) {
	var req ValidateJSONLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	cfg, err := h.ingestService.IngestJSONL(c.Request.Context(), req.FilePath, mode)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, cfg)
}

// ScanFolder 递归扫描图片文件夹构建数据集
// POST /api/v1/datasets/scan
func (h *DatasetHandler) ScanFolder(c *gin.Context) {
	var req ScanFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	cfg, err := h.ingestService.ScanImageFolder(c.Request.Context(), req.FolderPath)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, cfg)
}

// TwoPart 摄取图片文件夹 + JSONL 两部分数据集
// POST /api/v1/datasets/two-part
func (h *DatasetHandler) TwoPart(c *gin.Context) {
	var req TwoPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	cfg, err := h.ingestService.IngestTwoPart(c.Request.Context(), req.ImageFolder, req.FilePath, mode)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, cfg)
}
