package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvaluationStatus 评估运行状态
type EvaluationStatus string

const (
	EvaluationStatusPending   EvaluationStatus = "pending"   // 待执行
	EvaluationStatusRunning   EvaluationStatus = "running"   // 执行中
	EvaluationStatusCompleted EvaluationStatus = "completed" // 已完成
	EvaluationStatusFailed    EvaluationStatus = "failed"    // 失败
)

// ScoreMap 评估维度 -> 分数，以 JSON 文本形式落库
type ScoreMap map[string]float64

// Value 实现 driver.Valuer
func (m ScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (m *ScoreMap) Scan(value interface{}) error {
	if value == nil {
		*m = ScoreMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported score map type: %T", value)
	}
	return json.Unmarshal(data, m)
}

// EvaluationItemResult 单条评估结果
type EvaluationItemResult struct {
	ID             string               `json:"id"`
	ImagePath      string               `json:"image_path"`
	RelativePath   string               `json:"relative_path"`
	Prompt         string               `json:"prompt,omitempty"`
	ModelResponse  string               `json:"model_response,omitempty"`
	CriteriaScores map[string]float64   `json:"criteria_scores"` // 分数区间 [0,5]
	ProcessingTime float64              `json:"processing_time,omitempty"`
	Error          string               `json:"error,omitempty"`
	CustomMetadata map[string]MetaValue `json:"custom_metadata,omitempty"` // 未识别字段透传
}

// IsSuccess 条目是否成功
func (r *EvaluationItemResult) IsSuccess() bool {
	return r.Error == ""
}

// AverageScore 条目各维度分数均值，无分数时为 0
func (r *EvaluationItemResult) AverageScore() float64 {
	if len(r.CriteriaScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, score := range r.CriteriaScores {
		sum += score
	}
	return sum / float64(len(r.CriteriaScores))
}

// FolderStats 文件夹级汇总统计
type FolderStats struct {
	FolderPath    string             `json:"folder_path"`
	ItemCount     int                `json:"item_count"`
	AverageScores map[string]float64 `json:"average_scores"`
	SuccessRate   float64            `json:"success_rate"` // 百分比，保留 1 位小数
}

// EvaluationResult 评估运行汇总
// ItemResults/FolderStatistics 为明细，按需懒加载，允许缺失
// 不变式: CriteriaScores 必须可由 ItemResults 重新聚合得到，两者不允许分叉
type EvaluationResult struct {
	ID               string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name             string           `json:"name" gorm:"type:varchar(255);not null"`
	ModelName        string           `json:"model_name" gorm:"type:varchar(255)"`
	DatasetName      string           `json:"dataset_name" gorm:"type:varchar(255);index"`
	DatasetItemCount int              `json:"dataset_item_count" gorm:"default:0"`
	Status           EvaluationStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Timestamp        time.Time        `json:"timestamp"`
	Duration         float64          `json:"duration,omitempty"` // 秒
	CriteriaScores   ScoreMap         `json:"criteria_scores" gorm:"type:text"`

	// 明细，不落汇总表
	ItemResults      []EvaluationItemResult `json:"item_results,omitempty" gorm:"-"`
	FolderStatistics map[string]FolderStats `json:"folder_statistics,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AverageScore 运行总分，各维度均值保留 1 位小数
func (e *EvaluationResult) AverageScore() float64 {
	if len(e.CriteriaScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, score := range e.CriteriaScores {
		sum += score
	}
	return math.Round(sum/float64(len(e.CriteriaScores))*10) / 10
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (e *EvaluationResult) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (EvaluationResult) TableName() string {
	return "evaluation_results"
}
