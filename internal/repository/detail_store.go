package repository

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ashwinyue/vision-eval/internal/model"
)

// 明细文档文件名，每个运行 ID 一个子目录
const (
	itemsFileName       = "items.json"
	folderStatsFileName = "folder_stats.json"
)

// DetailStore 本地文件系统明细存储
// 目录布局: {baseDir}/{runID}/items.json + folder_stats.json，两个文档均可缺失
type DetailStore struct {
	baseDir string
}

// NewDetailStore 创建明细存储，基础目录不存在时自动创建
func NewDetailStore(baseDir string) (*DetailStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create detail directory: %w", err)
	}
	return &DetailStore{baseDir: baseDir}, nil
}

// Save 写入一个运行的明细文档
func (s *DetailStore) Save(id string, items []model.EvaluationItemResult, folders map[string]model.FolderStats) error {
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run detail directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, itemsFileName), items); err != nil {
		return fmt.Errorf("failed to write item results: %w", err)
	}
	if len(folders) > 0 {
		if err := writeJSON(filepath.Join(dir, folderStatsFileName), folders); err != nil {
			return fmt.Errorf("failed to write folder statistics: %w", err)
		}
	}
	return nil
}

// Load 读取一个运行的明细文档
// 文档缺失返回空值不报错；单个文档损坏时跳过该文档并记录日志，不影响另一个
func (s *DetailStore) Load(id string) ([]model.EvaluationItemResult, map[string]model.FolderStats, error) {
	dir := filepath.Join(s.baseDir, id)

	var items []model.EvaluationItemResult
	if err := readJSON(filepath.Join(dir, itemsFileName), &items); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("skipping corrupted item results for run %s: %v", id, err)
		}
		items = nil
	}

	var folders map[string]model.FolderStats
	if err := readJSON(filepath.Join(dir, folderStatsFileName), &folders); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("skipping corrupted folder statistics for run %s: %v", id, err)
		}
		folders = nil
	}

	return items, folders, nil
}

// Delete 删除一个运行的全部明细
func (s *DetailStore) Delete(id string) error {
	dir := filepath.Join(s.baseDir, id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete run detail: %w", err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
