package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/vision-eval/internal/model"
)

// cachedDetail 缓存中的明细文档形态
type cachedDetail struct {
	Items   []model.EvaluationItemResult `json:"items"`
	Folders map[string]model.FolderStats `json:"folders"`
}

// DetailCache 基于 Redis 的明细读缓存，可选组件
// 缓存未命中或 Redis 不可用时调用方直接回源文件系统
type DetailCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDetailCache 创建明细缓存
func NewDetailCache(client *redis.Client, ttl time.Duration) *DetailCache {
	return &DetailCache{client: client, ttl: ttl}
}

func cacheKey(id string) string {
	return fmt.Sprintf("vision-eval:detail:%s", id)
}

// Get 读取缓存的明细，未命中或解码失败返回 false
func (c *DetailCache) Get(ctx context.Context, id string) ([]model.EvaluationItemResult, map[string]model.FolderStats, bool) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, nil, false
	}
	var detail cachedDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, nil, false
	}
	return detail.Items, detail.Folders, true
}

// Set 写入明细缓存，失败静默忽略
func (c *DetailCache) Set(ctx context.Context, id string, items []model.EvaluationItemResult, folders map[string]model.FolderStats) {
	data, err := json.Marshal(cachedDetail{Items: items, Folders: folders})
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(id), data, c.ttl)
}

// Invalidate 删除缓存条目
func (c *DetailCache) Invalidate(ctx context.Context, id string) {
	c.client.Del(ctx, cacheKey(id))
}
