package results

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/ashwinyue/vision-eval/internal/model"
	"github.com/ashwinyue/vision-eval/internal/service/stats"
)

// knownItemFields 结果记录的已识别顶层字段，其余字段原样进入自定义元数据
var knownItemFields = map[string]bool{
	"id":              true,
	"image_path":      true,
	"relative_path":   true,
	"prompt":          true,
	"response":        true,
	"model_response":  true,
	"model":           true,
	"criteria_scores": true,
	"processing_time": true,
	"error":           true,
}

// defaultCriteria 整个文件未提取到任何分数时的占位维度
// 保留该回退行为，避免导入产生空运行；见 DESIGN.md
var defaultCriteria = []string{"Accuracy", "Completeness", "Relevance"}

// ImportRequest 结果导入请求
type ImportRequest struct {
	Name          string `json:"name" binding:"required"`
	ModelName     string `json:"model_name"`
	DatasetName   string `json:"dataset_name"`
	FilePath      string `json:"file_path" binding:"required"`
	BaseDirectory string `json:"base_directory"`
}

// ImportResults 将外部产出的结果 JSONL 导入为已聚合的评估运行
// 逐行解析，损坏行跳过；聚合维度分数并计算文件夹级汇总后整体落库
func (s *Service) ImportResults(ctx context.Context, req *ImportRequest) (*model.EvaluationResult, error) {
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat results file: %w", err)
	}
	if info.Size() > model.MaxFileSize {
		return nil, fmt.Errorf("results file size %d exceeds maximum of %d bytes", info.Size(), int64(model.MaxFileSize))
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	var items []model.EvaluationItemResult
	skipped := 0
	totalProcessing := 0.0
	for scanner.Scan() {
		// 取消只在整行边界检查
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		raw, ok := s.parseLine(line)
		if !ok {
			skipped++
			continue
		}

		item := buildItem(raw, req.BaseDirectory)
		totalProcessing += item.ProcessingTime
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	if skipped > 0 {
		log.Printf("import %s: skipped %d malformed lines", req.Name, skipped)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no valid entries produced from results file")
	}

	criteria := AggregateCriteria(items)
	if len(criteria) == 0 {
		// 回退: 合成占位维度，避免空运行；会掩盖摄取失败，保留原有行为
		log.Printf("import %s: no criteria scores extracted, falling back to placeholder criteria", req.Name)
		criteria = make(model.ScoreMap, len(defaultCriteria))
		for _, name := range defaultCriteria {
			criteria[name] = 0
		}
	}

	run := &model.EvaluationResult{
		Name:             req.Name,
		ModelName:        req.ModelName,
		DatasetName:      req.DatasetName,
		DatasetItemCount: len(items),
		Status:           model.EvaluationStatusCompleted,
		Timestamp:        time.Now(),
		Duration:         totalProcessing,
		CriteriaScores:   criteria,
		ItemResults:      items,
		FolderStatistics: FolderRollup(items),
	}

	if err := s.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// parseLine 解析一行 JSON，启用修复时对损坏行先修复再重试
func (s *Service) parseLine(line string) (map[string]interface{}, bool) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err == nil {
		return raw, true
	}
	if !s.repairJSON {
		return nil, false
	}
	repaired, err := jsonrepair.JSONRepair(line)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return nil, false
	}
	return raw, true
}

// buildItem 从已解析的记录构建条目结果
func buildItem(raw map[string]interface{}, baseDir string) model.EvaluationItemResult {
	item := model.EvaluationItemResult{}

	item.ID, _ = raw["id"].(string)
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.ImagePath, _ = raw["image_path"].(string)
	item.Prompt, _ = raw["prompt"].(string)
	item.Error, _ = raw["error"].(string)
	if v, ok := raw["processing_time"].(float64); ok {
		item.ProcessingTime = v
	}

	// model_response 优先，兼容 response 字段
	if v, ok := raw["model_response"].(string); ok && v != "" {
		item.ModelResponse = v
	} else {
		item.ModelResponse, _ = raw["response"].(string)
	}

	item.RelativePath = relativePath(raw, baseDir)

	if scores, ok := raw["criteria_scores"].(map[string]interface{}); ok {
		item.CriteriaScores = make(map[string]float64, len(scores))
		for name, v := range scores {
			if score, ok := extractScore(v); ok {
				item.CriteriaScores[name] = NormalizeScore(score)
			}
		}
	}

	// 未识别字段透传为自定义元数据
	for key, v := range raw {
		if knownItemFields[key] {
			continue
		}
		if item.CustomMetadata == nil {
			item.CustomMetadata = make(map[string]model.MetaValue)
		}
		item.CustomMetadata[key] = model.MetaFromAny(v)
	}

	return item
}

// relativePath 记录自带 relative_path 时优先使用，否则基于基准目录推导
func relativePath(raw map[string]interface{}, baseDir string) string {
	if rel, ok := raw["relative_path"].(string); ok && rel != "" {
		return rel
	}
	imagePath, _ := raw["image_path"].(string)
	if imagePath == "" {
		return ""
	}
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, imagePath); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(imagePath)
}

// extractScore 接受裸数值或含 score 字段的对象
func extractScore(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case map[string]interface{}:
		if s, ok := val["score"].(float64); ok {
			return s, true
		}
	}
	return 0, false
}

// NormalizeScore 统一到 0-5 分制
// [0,1] 闭区间视为归一化分数放大 5 倍，其余仅做 [0,5] 截断
func NormalizeScore(v float64) float64 {
	if v >= 0 && v <= 1 {
		v *= 5
	}
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

// AggregateCriteria 按维度聚合各条目分数，均值保留 1 位小数
func AggregateCriteria(items []model.EvaluationItemResult) model.ScoreMap {
	byCriterion := make(map[string][]float64)
	for _, item := range items {
		for name, score := range item.CriteriaScores {
			byCriterion[name] = append(byCriterion[name], score)
		}
	}
	if len(byCriterion) == 0 {
		return nil
	}

	aggregated := make(model.ScoreMap, len(byCriterion))
	for name, scores := range byCriterion {
		aggregated[name] = stats.Round1(stats.Mean(scores))
	}
	return aggregated
}

// FolderRollup 按相对路径的目录部分分组计算文件夹级统计
// 维度均值只计入成功条目，成功率基于文件夹内全部条目
func FolderRollup(items []model.EvaluationItemResult) map[string]model.FolderStats {
	type group struct {
		total     int
		succeeded int
		scores    map[string][]float64
	}
	groups := make(map[string]*group)

	for _, item := range items {
		folder := filepath.Dir(item.RelativePath)
		g, ok := groups[folder]
		if !ok {
			g = &group{scores: make(map[string][]float64)}
			groups[folder] = g
		}
		g.total++
		if !item.IsSuccess() {
			continue
		}
		g.succeeded++
		for name, score := range item.CriteriaScores {
			g.scores[name] = append(g.scores[name], score)
		}
	}

	rollup := make(map[string]model.FolderStats, len(groups))
	for folder, g := range groups {
		averages := make(map[string]float64, len(g.scores))
		for name, scores := range g.scores {
			averages[name] = stats.Round1(stats.Mean(scores))
		}
		rollup[folder] = model.FolderStats{
			FolderPath:    folder,
			ItemCount:     g.total,
			AverageScores: averages,
			SuccessRate:   stats.Round1(float64(g.succeeded) / float64(g.total) * 100),
		}
	}
	return rollup
}
