// Package model 提供评估相关的数据模型
package model

// 数据集限制
const (
	// MaxDatasetSize 单次评估最大条目数
	MaxDatasetSize = 1000
	// MaxFileSize JSONL 文件最大字节数 (100MB)
	MaxFileSize = 100 * 1024 * 1024
)

// WorkflowMode 工作流模式，决定 JSONL 记录的必填字段
type WorkflowMode string

const (
	WorkflowTestModel         WorkflowMode = "test_model"         // 仅需 image_path，prompt 后续提供
	WorkflowEvaluateResponses WorkflowMode = "evaluate_responses" // 需要 image_path/prompt/response/model
	WorkflowImportResults     WorkflowMode = "import_results"     // 额外需要 criteria_scores
)

// SourceType 数据集来源类型
type SourceType string

const (
	SourceJSONLFile   SourceType = "jsonl_file"   // 单个 JSONL 文件
	SourceImageFolder SourceType = "image_folder" // 图片文件夹
)

// IssueKind 校验问题级别
type IssueKind string

const (
	IssueError   IssueKind = "error"
	IssueWarning IssueKind = "warning"
)

// ValidationIssue 单条校验问题，Line 为 0 时表示与具体行无关
type ValidationIssue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`
}

// ValidationResult 数据集校验结果
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Issues   []ValidationIssue `json:"issues"`
	Warnings []ValidationIssue `json:"warnings"`
}

// AddError 记录一条错误
func (r *ValidationResult) AddError(line int, message string) {
	r.Issues = append(r.Issues, ValidationIssue{Kind: IssueError, Message: message, Line: line})
}

// AddWarning 记录一条警告
func (r *ValidationResult) AddWarning(line int, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Kind: IssueWarning, Message: message, Line: line})
}

// HasErrors 是否存在错误级别的问题
func (r *ValidationResult) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Kind == IssueError {
			return true
		}
	}
	return false
}

// DatasetEntry 数据集条目，构建完成后不可变
type DatasetEntry struct {
	OriginalImagePath string             `json:"original_image_path"` // 来源文件中声明的路径
	ResolvedImagePath string             `json:"resolved_image_path"` // 解析后的绝对路径，已验证存在
	Prompt            string             `json:"prompt,omitempty"`
	Response          string             `json:"response,omitempty"`
	Model             string             `json:"model,omitempty"`
	Scores            map[string]float64 `json:"scores,omitempty"` // 原始分数，未归一化
}

// DatasetConfiguration 一次上传产生的数据集快照
// 每次重新上传整体替换，构建后仅允许回填模型名称
type DatasetConfiguration struct {
	Name            string           `json:"name"`
	SourcePath      string           `json:"source_path"`
	SourceType      SourceType       `json:"source_type"`
	BaseDirectory   string           `json:"base_directory"`
	Entries         []DatasetEntry   `json:"entries"`       // 上限 MaxDatasetSize
	TotalEntries    int              `json:"total_entries"` // 实际扫描到的总数，不受上限影响
	ValidEntries    int              `json:"valid_entries"`
	ExceedsLimit    bool             `json:"exceeds_limit"`
	FolderStructure map[string]int   `json:"folder_structure,omitempty"` // 文件夹 -> 条目数
	Validation      ValidationResult `json:"validation"`
}

// BackfillModel 回填模型名称，唯一允许的构建后修改
func (d *DatasetConfiguration) BackfillModel(modelName string) {
	for i := range d.Entries {
		if d.Entries[i].Model == "" {
			d.Entries[i].Model = modelName
		}
	}
}
