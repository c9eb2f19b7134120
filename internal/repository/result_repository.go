// Package repository 数据访问层
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ashwinyue/vision-eval/internal/model"
)

// EvaluationResultRepository 评估运行仓库
// 汇总行落数据库，明细走 DetailStore，可选 Redis 读缓存
type EvaluationResultRepository struct {
	db      *gorm.DB
	details *DetailStore
	cache   *DetailCache // 可为 nil
}

// NewEvaluationResultRepository 创建评估运行仓库
func NewEvaluationResultRepository(db *gorm.DB, details *DetailStore, cache *DetailCache) *EvaluationResultRepository {
	return &EvaluationResultRepository{db: db, details: details, cache: cache}
}

// Create 创建评估运行汇总
func (r *EvaluationResultRepository) Create(result *model.EvaluationResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	return r.db.Create(result).Error
}

// LoadSummary 按 ID 加载汇总，不携带明细
func (r *EvaluationResultRepository) LoadSummary(id string) (*model.EvaluationResult, error) {
	var result model.EvaluationResult
	err := r.db.Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// ListSummaries 按创建时间倒序列出汇总
func (r *EvaluationResultRepository) ListSummaries(offset, limit int) ([]*model.EvaluationResult, int64, error) {
	var results []*model.EvaluationResult
	var total int64

	if err := r.db.Model(&model.EvaluationResult{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&results).Error
	return results, total, err
}

// Update 更新汇总
func (r *EvaluationResultRepository) Update(result *model.EvaluationResult) error {
	return r.db.Save(result).Error
}

// Delete 删除汇总、明细与缓存
func (r *EvaluationResultRepository) Delete(id string) error {
	if err := r.db.Delete(&model.EvaluationResult{}, "id = ?", id).Error; err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Invalidate(context.Background(), id)
	}
	return r.details.Delete(id)
}

// SaveDetail 写入明细文档并使缓存失效
func (r *EvaluationResultRepository) SaveDetail(ctx context.Context, id string, items []model.EvaluationItemResult, folders map[string]model.FolderStats) error {
	if err := r.details.Save(id, items, folders); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx, id)
	}
	return nil
}

// LoadDetail 按需加载明细，先查缓存后回源文件系统
// 明细文档缺失不视为错误
func (r *EvaluationResultRepository) LoadDetail(ctx context.Context, id string) ([]model.EvaluationItemResult, map[string]model.FolderStats, error) {
	if r.cache != nil {
		if items, folders, ok := r.cache.Get(ctx, id); ok {
			return items, folders, nil
		}
	}

	items, folders, err := r.details.Load(id)
	if err != nil {
		return nil, nil, err
	}

	if r.cache != nil && (len(items) > 0 || len(folders) > 0) {
		r.cache.Set(ctx, id, items, folders)
	}
	return items, folders, nil
}
