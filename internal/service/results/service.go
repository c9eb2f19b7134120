// Package results 提供评估运行的存储与导入
package results

import (
	"context"
	"fmt"
	"log"

	"github.com/ashwinyue/vision-eval/internal/model"
	"github.com/ashwinyue/vision-eval/internal/repository"
	"github.com/ashwinyue/vision-eval/internal/service/stats"
)

// Service 评估结果服务
// 持有运行汇总与明细的仓库，并负责把外部产出的结果 JSONL 转为聚合运行
type Service struct {
	repo       *repository.Repositories
	repairJSON bool
}

// NewService 创建评估结果服务
func NewService(repo *repository.Repositories, repairJSON bool) *Service {
	return &Service{repo: repo, repairJSON: repairJSON}
}

// GetRun 获取运行汇总，不携带明细
func (s *Service) GetRun(ctx context.Context, id string) (*model.EvaluationResult, error) {
	result, err := s.repo.Result.LoadSummary(id)
	if err != nil {
		return nil, fmt.Errorf("evaluation run not found: %w", err)
	}
	return result, nil
}

// GetRunDetail 获取运行汇总并懒加载明细
// 明细文档缺失时返回的汇总不带明细，不报错
func (s *Service) GetRunDetail(ctx context.Context, id string) (*model.EvaluationResult, error) {
	result, err := s.repo.Result.LoadSummary(id)
	if err != nil {
		return nil, fmt.Errorf("evaluation run not found: %w", err)
	}

	items, folders, err := s.repo.Result.LoadDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load run detail: %w", err)
	}
	result.ItemResults = items
	result.FolderStatistics = folders
	return result, nil
}

// ListRuns 按时间倒序列出运行汇总
func (s *Service) ListRuns(ctx context.Context, page, size int) ([]*model.EvaluationResult, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	runs, total, err := s.repo.Result.ListSummaries(offset, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	return runs, total, nil
}

// ListCompletedRuns 列出全部已完成的运行，用于对比选择
func (s *Service) ListCompletedRuns(ctx context.Context) ([]*model.EvaluationResult, error) {
	runs, _, err := s.repo.Result.ListSummaries(0, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	completed := make([]*model.EvaluationResult, 0, len(runs))
	for _, run := range runs {
		if run.Status == model.EvaluationStatusCompleted {
			completed = append(completed, run)
		}
	}
	return completed, nil
}

// DeleteRun 删除运行及其明细
func (s *Service) DeleteRun(ctx context.Context, id string) error {
	if err := s.repo.Result.Delete(id); err != nil {
		return fmt.Errorf("failed to delete evaluation run: %w", err)
	}
	return nil
}

// SaveRun 持久化一个已聚合的运行（汇总 + 明细）
func (s *Service) SaveRun(ctx context.Context, result *model.EvaluationResult) error {
	if err := s.repo.Result.Create(result); err != nil {
		return fmt.Errorf("failed to save evaluation run: %w", err)
	}
	if len(result.ItemResults) > 0 || len(result.FolderStatistics) > 0 {
		if err := s.repo.Result.SaveDetail(ctx, result.ID, result.ItemResults, result.FolderStatistics); err != nil {
			return fmt.Errorf("failed to save run detail: %w", err)
		}
	}
	return nil
}

// CriterionSummaries 基于明细为每个维度计算箱线图摘要
func (s *Service) CriterionSummaries(ctx context.Context, id string) (map[string]stats.BoxPlot, error) {
	items, _, err := s.repo.Result.LoadDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load run detail: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("run %s has no item-level detail", id)
	}

	byCriterion := make(map[string][]float64)
	for _, item := range items {
		for name, score := range item.CriteriaScores {
			byCriterion[name] = append(byCriterion[name], score)
		}
	}

	summaries := make(map[string]stats.BoxPlot, len(byCriterion))
	for name, scores := range byCriterion {
		summaries[name] = stats.BoxPlotSummary(scores)
	}
	return summaries, nil
}

// VerifyAggregate 校验汇总分数可由明细重新聚合得到
// 汇总与明细不允许分叉，发现偏差时记录日志并返回 false
func (s *Service) VerifyAggregate(result *model.EvaluationResult) bool {
	if len(result.ItemResults) == 0 {
		return true
	}
	recomputed := AggregateCriteria(result.ItemResults)
	if len(recomputed) != len(result.CriteriaScores) {
		log.Printf("run %s: aggregate criteria count mismatch", result.ID)
		return false
	}
	for name, score := range recomputed {
		if stored, ok := result.CriteriaScores[name]; !ok || stored != score {
			log.Printf("run %s: aggregate score for %s diverged (stored %.1f, recomputed %.1f)", result.ID, name, stored, score)
			return false
		}
	}
	return true
}
