// Package comparison 提供跨运行对比分析
package comparison

import (
	"context"
	"fmt"
	"sort"

	"github.com/ashwinyue/vision-eval/internal/model"
	"github.com/ashwinyue/vision-eval/internal/repository"
	"github.com/ashwinyue/vision-eval/internal/service/stats"
)

// 对比支持的运行数量范围
const (
	MinRuns = 2
	MaxRuns = 5
)

// Entry 单个运行在对比中的结果
type Entry struct {
	RunID     string             `json:"run_id"`
	RunName   string             `json:"run_name"`
	ModelName string             `json:"model_name"`
	Scores    map[string]float64 `json:"scores"` // 公共维度 -> 分数
	Mean      float64            `json:"mean"`   // 公共维度均值
	StdDev    float64            `json:"std_dev"`
	Wins      int                `json:"wins"` // 得分并列最高的维度数
	Rank      int                `json:"rank"` // 从 1 开始
}

// Result 对比结果
type Result struct {
	CommonCriteria         []string `json:"common_criteria"`           // 字典序
	Entries                []Entry  `json:"entries"`                   // 按排名排序
	MostConsistentRunID    string   `json:"most_consistent_run_id"`    // 自身分数样本标准差最小
	LargestSpreadCriterion string   `json:"largest_spread_criterion"`  // max-min 差距最大的维度
	LargestSpreadLeaderID  string   `json:"largest_spread_leader_id"`  // 该维度得分最高的运行
	MostAgreementCriterion string   `json:"most_agreement_criterion"`  // 总体方差最小的维度
}

// Service 对比服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建对比服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// CompareRuns 按 ID 加载运行汇总并执行对比
func (s *Service) CompareRuns(ctx context.Context, ids []string) (*Result, error) {
	if len(ids) < MinRuns || len(ids) > MaxRuns {
		return nil, fmt.Errorf("comparison requires %d to %d runs, got %d", MinRuns, MaxRuns, len(ids))
	}

	runs := make([]*model.EvaluationResult, 0, len(ids))
	for _, id := range ids {
		run, err := s.repo.Result.LoadSummary(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	return Compare(runs)
}

// Compare 对 2-5 个已完成的运行执行对比分析
// 公共维度为空时对比无效，不产生部分结果
func Compare(runs []*model.EvaluationResult) (*Result, error) {
	if len(runs) < MinRuns || len(runs) > MaxRuns {
		return nil, fmt.Errorf("comparison requires %d to %d runs, got %d", MinRuns, MaxRuns, len(runs))
	}
	for _, run := range runs {
		if run.Status != model.EvaluationStatusCompleted {
			return nil, fmt.Errorf("run %s is not completed (status %s)", run.ID, run.Status)
		}
	}

	common := commonCriteria(runs)
	if len(common) == 0 {
		return nil, fmt.Errorf("runs share no common criteria")
	}

	entries := make([]Entry, len(runs))
	for i, run := range runs {
		scores := make(map[string]float64, len(common))
		values := make([]float64, len(common))
		for j, name := range common {
			// 交集之后理论上必然存在，缺失时保守取 0
			score := run.CriteriaScores[name]
			scores[name] = score
			values[j] = score
		}
		entries[i] = Entry{
			RunID:     run.ID,
			RunName:   run.Name,
			ModelName: run.ModelName,
			Scores:    scores,
			Mean:      stats.Mean(values),
			StdDev:    stats.StdDev(values),
		}
	}

	countWins(entries, common)

	// 稳定排序: 均值相同时保持输入顺序
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Mean > entries[j].Mean
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	result := &Result{
		CommonCriteria: common,
		Entries:        entries,
	}
	result.MostConsistentRunID = mostConsistent(entries)
	result.LargestSpreadCriterion, result.LargestSpreadLeaderID = largestSpread(entries, common)
	result.MostAgreementCriterion = mostAgreement(entries, common)
	return result, nil
}

// commonCriteria 各运行维度集合的交集，字典序输出
func commonCriteria(runs []*model.EvaluationResult) []string {
	counts := make(map[string]int)
	for _, run := range runs {
		for name := range run.CriteriaScores {
			counts[name]++
		}
	}

	var common []string
	for name, count := range counts {
		if count == len(runs) {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

// countWins 统计每个运行得分并列最高的维度数
func countWins(entries []Entry, common []string) {
	for _, name := range common {
		best := entries[0].Scores[name]
		for _, e := range entries[1:] {
			if e.Scores[name] > best {
				best = e.Scores[name]
			}
		}
		for i := range entries {
			if entries[i].Scores[name] == best {
				entries[i].Wins++
			}
		}
	}
}

// mostConsistent 自身公共维度分数样本标准差最小的运行，并列取排名靠前者
func mostConsistent(entries []Entry) string {
	best := entries[0]
	for _, e := range entries[1:] {
		if e.StdDev < best.StdDev {
			best = e
		}
	}
	return best.RunID
}

// largestSpread 跨运行 max-min 差距最大的维度及该维度的领先运行
func largestSpread(entries []Entry, common []string) (string, string) {
	bestCriterion := ""
	bestLeader := ""
	bestSpread := -1.0

	for _, name := range common {
		minScore := entries[0].Scores[name]
		maxScore := minScore
		leader := entries[0].RunID
		for _, e := range entries[1:] {
			score := e.Scores[name]
			if score > maxScore {
				maxScore = score
				leader = e.RunID
			}
			if score < minScore {
				minScore = score
			}
		}
		if spread := maxScore - minScore; spread > bestSpread {
			bestSpread = spread
			bestCriterion = name
			bestLeader = leader
		}
	}
	return bestCriterion, bestLeader
}

// mostAgreement 跨运行总体方差最小的维度
func mostAgreement(entries []Entry, common []string) string {
	bestCriterion := ""
	bestVariance := -1.0

	for _, name := range common {
		values := make([]float64, len(entries))
		for i, e := range entries {
			values[i] = e.Scores[name]
		}
		if v := stats.Variance(values); bestVariance < 0 || v < bestVariance {
			bestVariance = v
			bestCriterion = name
		}
	}
	return bestCriterion
}
