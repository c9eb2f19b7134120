package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB     *gorm.DB // 直接访问数据库
	Result ResultRepository
}

// NewRepositories 创建所有仓库，cache 可为 nil
func NewRepositories(db *gorm.DB, details *DetailStore, cache *DetailCache) *Repositories {
	return &Repositories{
		DB:     db,
		Result: NewEvaluationResultRepository(db, details, cache),
	}
}
