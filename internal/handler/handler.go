// Package handler 提供HTTP请求处理
package handler

import (
	"github.com/ashwinyue/vision-eval/internal/service"
)

// Handlers 处理器集合，用于统一管理所有处理器
type Handlers struct {
	Dataset    *DatasetHandler
	Result     *ResultHandler
	Comparison *ComparisonHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Dataset:    NewDatasetHandler(services.Ingest),
		Result:     NewResultHandler(services.Results),
		Comparison: NewComparisonHandler(services.Comparison),
	}
}
