// Package service 提供业务服务集合
package service

import (
	"github.com/ashwinyue/vision-eval/internal/config"
	"github.com/ashwinyue/vision-eval/internal/repository"
	"github.com/ashwinyue/vision-eval/internal/service/comparison"
	"github.com/ashwinyue/vision-eval/internal/service/ingest"
	"github.com/ashwinyue/vision-eval/internal/service/results"
)

// Services 服务集合，用于统一管理所有服务
type Services struct {
	Ingest     *ingest.Service
	Results    *results.Service
	Comparison *comparison.Service
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Ingest:     ingest.NewService(cfg.Dataset.MaxEntries, cfg.Dataset.MaxFileSize),
		Results:    results.NewService(repos, cfg.Dataset.RepairJSON),
		Comparison: comparison.NewService(repos),
	}
}
