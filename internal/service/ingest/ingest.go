// Package ingest 提供评估数据集摄取与校验
// 支持三种来源: 单个 JSONL 文件、图片文件夹、图片文件夹 + JSONL 两部分组合
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ashwinyue/vision-eval/internal/model"
	"github.com/ashwinyue/vision-eval/internal/service/matcher"
)

// allowedExtensions 图片扩展名白名单，匹配时忽略大小写
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsAllowedImage 路径扩展名是否在白名单内
func IsAllowedImage(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Service 数据集摄取服务
type Service struct {
	maxEntries  int
	maxFileSize int64
}

// NewService 创建摄取服务，参数为 0 时使用默认限制
func NewService(maxEntries int, maxFileSize int64) *Service {
	if maxEntries <= 0 {
		maxEntries = model.MaxDatasetSize
	}
	if maxFileSize <= 0 {
		maxFileSize = model.MaxFileSize
	}
	return &Service{maxEntries: maxEntries, maxFileSize: maxFileSize}
}

// ========== 单文件 JSONL 模式 ==========

// IngestJSONL 摄取自包含的 JSONL 文件
// 逐行流式读取；条目数达到上限后停止接收新条目但继续统计总行数，
// 超限判断基于真实总数。本模式下超限为硬拒绝(Error)
func (s *Service) IngestJSONL(ctx context.Context, path string, mode model.WorkflowMode) (*model.DatasetConfiguration, error) {
	cfg := &model.DatasetConfiguration{
		Name:          strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		SourcePath:    path,
		SourceType:    model.SourceJSONLFile,
		BaseDirectory: filepath.Dir(path),
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset file: %w", err)
	}
	if info.Size() > s.maxFileSize {
		cfg.Validation.AddError(0, fmt.Sprintf("file size %d exceeds maximum of %d bytes", info.Size(), s.maxFileSize))
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		// 取消只在整行边界检查
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cfg.TotalEntries++

		// 达到上限后仅计数
		if len(cfg.Entries) >= s.maxEntries {
			continue
		}

		entry, err := s.parseLine([]byte(line), mode, cfg.BaseDirectory)
		if err != nil {
			cfg.Validation.AddError(lineNum, err.Error())
			continue
		}
		cfg.Entries = append(cfg.Entries, *entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	cfg.ValidEntries = len(cfg.Entries)
	cfg.ExceedsLimit = cfg.TotalEntries > s.maxEntries
	if cfg.ExceedsLimit {
		// 单文件上传超限直接拒绝
		cfg.Validation.AddError(0, fmt.Sprintf("dataset has %d entries, exceeding the maximum of %d; single-file uploads over the limit are rejected", cfg.TotalEntries, s.maxEntries))
	}
	if cfg.ValidEntries == 0 {
		cfg.Validation.AddError(0, "no valid entries found in dataset")
	}

	cfg.FolderStructure = folderStructure(cfg.BaseDirectory, cfg.Entries)
	cfg.Validation.IsValid = cfg.ValidEntries > 0 && !cfg.Validation.HasErrors()
	return cfg, nil
}

// ========== 文件夹扫描模式 ==========

// ScanImageFolder 递归扫描图片文件夹构建数据集
// 超限时自动截断并给出警告；仅在一张图片都没有时判定无效
func (s *Service) ScanImageFolder(ctx context.Context, dir string) (*model.DatasetConfiguration, error) {
	cfg := &model.DatasetConfiguration{
		Name:          filepath.Base(dir),
		SourcePath:    dir,
		SourceType:    model.SourceImageFolder,
		BaseDirectory: dir,
	}

	images, err := s.listImages(ctx, dir)
	if err != nil {
		return nil, err
	}

	cfg.TotalEntries = len(images)
	limit := len(images)
	if limit > s.maxEntries {
		limit = s.maxEntries
	}
	for _, abs := range images[:limit] {
		cfg.Entries = append(cfg.Entries, model.DatasetEntry{
			OriginalImagePath: abs,
			ResolvedImagePath: abs,
		})
	}

	cfg.ValidEntries = len(cfg.Entries)
	cfg.ExceedsLimit = cfg.TotalEntries > s.maxEntries
	if cfg.ExceedsLimit {
		cfg.Validation.AddWarning(0, fmt.Sprintf("folder contains %d images, truncated to the first %d", cfg.TotalEntries, s.maxEntries))
	}
	if cfg.ValidEntries == 0 {
		cfg.Validation.AddError(0, "no images with supported extensions found in folder")
	}

	cfg.FolderStructure = folderStructure(dir, cfg.Entries)
	cfg.Validation.IsValid = cfg.ValidEntries > 0 && !cfg.Validation.HasErrors()
	return cfg, nil
}

// ========== 两部分模式 ==========

// IngestTwoPart 摄取图片文件夹 + 引用这些图片的 JSONL 文件
// 通过匹配器对账图片引用；未匹配的引用记为警告并计数，
// 仅当没有任何引用匹配成功时判定为错误。超限时截断并警告
func (s *Service) IngestTwoPart(ctx context.Context, imageDir, jsonlPath string, mode model.WorkflowMode) (*model.DatasetConfiguration, error) {
	cfg := &model.DatasetConfiguration{
		Name:          strings.TrimSuffix(filepath.Base(jsonlPath), filepath.Ext(jsonlPath)),
		SourcePath:    jsonlPath,
		SourceType:    model.SourceJSONLFile,
		BaseDirectory: imageDir,
	}

	info, err := os.Stat(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset file: %w", err)
	}
	if info.Size() > s.maxFileSize {
		cfg.Validation.AddError(0, fmt.Sprintf("file size %d exceeds maximum of %d bytes", info.Size(), s.maxFileSize))
		return cfg, nil
	}

	images, err := s.listImages(ctx, imageDir)
	if err != nil {
		return nil, err
	}
	m := matcher.New(imageDir, images)

	file, err := os.Open(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	lineNum := 0
	unmatched := 0
	for scanner.Scan() {
		lineNum++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cfg.TotalEntries++

		if len(cfg.Entries) >= s.maxEntries {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			cfg.Validation.AddError(lineNum, fmt.Sprintf("malformed JSON: %v", err))
			continue
		}

		ref, _ := raw["image_path"].(string)
		if ref == "" {
			cfg.Validation.AddError(lineNum, "missing required field: image_path")
			continue
		}

		abs, ok := m.Resolve(ref)
		if !ok {
			unmatched++
			continue
		}

		if err := validateFields(raw, mode); err != nil {
			cfg.Validation.AddError(lineNum, err.Error())
			continue
		}

		cfg.Entries = append(cfg.Entries, buildEntry(raw, ref, abs))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	cfg.ValidEntries = len(cfg.Entries)
	cfg.ExceedsLimit = cfg.TotalEntries > s.maxEntries
	if cfg.ExceedsLimit {
		cfg.Validation.AddWarning(0, fmt.Sprintf("dataset has %d entries, truncated to the first %d", cfg.TotalEntries, s.maxEntries))
	}
	if unmatched > 0 {
		cfg.Validation.AddWarning(0, fmt.Sprintf("%d image references could not be matched to files in the folder", unmatched))
	}
	if cfg.ValidEntries == 0 {
		cfg.Validation.AddError(0, "no image references matched files in the folder")
	}

	cfg.FolderStructure = folderStructure(imageDir, cfg.Entries)
	cfg.Validation.IsValid = cfg.ValidEntries > 0 && !cfg.Validation.HasErrors()
	return cfg, nil
}

// ========== 内部辅助 ==========

// parseLine 解析单行记录并完成字段校验与路径解析
func (s *Service) parseLine(data []byte, mode model.WorkflowMode, baseDir string) (*model.DatasetEntry, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %v", err)
	}

	if err := validateFields(raw, mode); err != nil {
		return nil, err
	}

	ref, _ := raw["image_path"].(string)
	abs, err := resolveImagePath(ref, baseDir)
	if err != nil {
		return nil, err
	}

	entry := buildEntry(raw, ref, abs)
	return &entry, nil
}

// validateFields 按工作流模式检查必填字段
func validateFields(raw map[string]interface{}, mode model.WorkflowMode) error {
	required := []string{"image_path"}
	switch mode {
	case model.WorkflowEvaluateResponses:
		required = append(required, "prompt", "response", "model")
	case model.WorkflowImportResults:
		required = append(required, "prompt", "response", "model", "criteria_scores")
	}

	for _, field := range required {
		v, ok := raw[field]
		if !ok || v == nil {
			return fmt.Errorf("missing required field: %s", field)
		}
		if str, isStr := v.(string); isStr && str == "" {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	return nil
}

// buildEntry 从已解析的记录构建数据集条目
func buildEntry(raw map[string]interface{}, ref, abs string) model.DatasetEntry {
	entry := model.DatasetEntry{
		OriginalImagePath: ref,
		ResolvedImagePath: abs,
	}
	entry.Prompt, _ = raw["prompt"].(string)
	entry.Response, _ = raw["response"].(string)
	entry.Model, _ = raw["model"].(string)

	// 原始分数不做归一化，仅提取数值形态
	if scores, ok := raw["criteria_scores"].(map[string]interface{}); ok {
		entry.Scores = make(map[string]float64, len(scores))
		for name, v := range scores {
			switch val := v.(type) {
			case float64:
				entry.Scores[name] = val
			case map[string]interface{}:
				if s, ok := val["score"].(float64); ok {
					entry.Scores[name] = s
				}
			}
		}
	}
	return entry
}

// fileExists 判断路径是否存在
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// resolveImagePath 解析图片路径
// 顺序: 绝对路径且存在 -> 与文件所在目录拼接 -> 分隔符归一化后拼接
func resolveImagePath(ref, baseDir string) (string, error) {
	if !IsAllowedImage(ref) {
		return "", fmt.Errorf("unsupported image extension: %s", filepath.Ext(ref))
	}

	if filepath.IsAbs(ref) {
		if fileExists(ref) {
			return ref, nil
		}
	}

	joined := filepath.Join(baseDir, ref)
	if fileExists(joined) {
		return joined, nil
	}

	normalized := filepath.Join(baseDir, normalizeSeparators(ref))
	if fileExists(normalized) {
		return normalized, nil
	}

	return "", fmt.Errorf("image file not found: %s", ref)
}

// listImages 递归枚举白名单图片，按路径排序保证枚举顺序确定
// 大小写变体（如 .JPG 与 .jpg 指向同一文件）去重
func (s *Service) listImages(ctx context.Context, dir string) ([]string, error) {
	seen := make(map[string]bool)
	var images []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// 取消只在整个文件边界检查
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsAllowedImage(path) {
			return nil
		}
		key := strings.ToLower(path)
		if seen[key] {
			return nil
		}
		seen[key] = true
		images = append(images, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan image folder: %w", err)
	}

	sort.Strings(images)
	return images, nil
}

// folderStructure 按相对目录统计条目分布
func folderStructure(baseDir string, entries []model.DatasetEntry) map[string]int {
	if len(entries) == 0 {
		return nil
	}
	structure := make(map[string]int)
	for _, entry := range entries {
		rel, err := filepath.Rel(baseDir, entry.ResolvedImagePath)
		if err != nil {
			rel = entry.ResolvedImagePath
		}
		folder := filepath.Dir(rel)
		structure[folder]++
	}
	return structure
}

// normalizeSeparators 将正反斜杠统一为当前系统的路径分隔符
func normalizeSeparators(path string) string {
	sep := string(filepath.Separator)
	path = strings.ReplaceAll(path, "\\", sep)
	path = strings.ReplaceAll(path, "/", sep)
	return path
}
