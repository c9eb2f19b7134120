// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"
	"errors"

	"github.com/ashwinyue/vision-eval/internal/model"
)

// ErrNotFound 评估运行不存在
var ErrNotFound = errors.New("evaluation run not found")

// ResultRepository 评估运行数据访问接口
// 汇总与明细分开存取：汇总走数据库，明细(条目结果/文件夹统计)为按需加载的文档。
// 不同运行 ID 之间可安全并发操作；同一 ID 的写入由调用方串行化
type ResultRepository interface {
	// 汇总操作
	Create(result *model.EvaluationResult) error
	LoadSummary(id string) (*model.EvaluationResult, error)
	ListSummaries(offset, limit int) ([]*model.EvaluationResult, int64, error)
	Update(result *model.EvaluationResult) error
	Delete(id string) error

	// 明细操作，允许明细文档缺失
	SaveDetail(ctx context.Context, id string, items []model.EvaluationItemResult, folders map[string]model.FolderStats) error
	LoadDetail(ctx context.Context, id string) ([]model.EvaluationItemResult, map[string]model.FolderStats, error)
}

// 确保实现满足接口
var _ ResultRepository = (*EvaluationResultRepository)(nil)
