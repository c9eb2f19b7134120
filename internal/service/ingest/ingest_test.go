package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashwinyue/vision-eval/internal/model"
	"github.com/ashwinyue/vision-eval/internal/testutil"
)

// line 构造一行 test_model 模式的记录
func line(imagePath string) string {
	return fmt.Sprintf(`{"image_path": %q}`, imagePath)
}

// fullLine 构造一行 evaluate_responses 模式的记录
func fullLine(imagePath string) string {
	return fmt.Sprintf(`{"image_path": %q, "prompt": "describe", "response": "a cat", "model": "gpt-4o"}`, imagePath)
}

// ========== 单文件 JSONL 模式 ==========

func TestIngestJSONL_WellFormed(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 0; i < 5; i++ {
		rel := fmt.Sprintf("img%d.jpg", i)
		testutil.WriteImage(t, dir, rel)
		lines = append(lines, line(rel))
	}
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", lines)

	svc := NewService(0, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}

	if cfg.ValidEntries != 5 {
		t.Errorf("ValidEntries = %d, want 5", cfg.ValidEntries)
	}
	if cfg.ExceedsLimit {
		t.Error("ExceedsLimit = true, want false")
	}
	if !cfg.Validation.IsValid {
		t.Errorf("IsValid = false, issues: %+v", cfg.Validation.Issues)
	}
	if cfg.Entries[0].ResolvedImagePath == "" {
		t.Error("ResolvedImagePath is empty")
	}
}

func TestIngestJSONL_BlankLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", []string{
		line("a.jpg"),
		"",
		"   ",
		line("a.jpg"),
	})

	svc := NewService(0, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}
	if cfg.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2 (blank lines not counted)", cfg.TotalEntries)
	}
	if cfg.ValidEntries != 2 {
		t.Errorf("ValidEntries = %d, want 2", cfg.ValidEntries)
	}
}

func TestIngestJSONL_MalformedLineSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", []string{
		line("a.jpg"),
		`{not valid json`,
		line("a.jpg"),
	})

	svc := NewService(0, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}

	if cfg.ValidEntries != 2 {
		t.Errorf("ValidEntries = %d, want 2", cfg.ValidEntries)
	}
	if len(cfg.Validation.Issues) != 1 {
		t.Fatalf("Issues = %+v, want exactly one", cfg.Validation.Issues)
	}
	if cfg.Validation.Issues[0].Line != 2 {
		t.Errorf("issue line = %d, want 2", cfg.Validation.Issues[0].Line)
	}
	// 存在错误级问题，数据集整体不可用
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false when an error issue exists")
	}
}

func TestIngestJSONL_RequiredFieldsByMode(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")

	tests := []struct {
		name      string
		mode      model.WorkflowMode
		record    string
		wantValid bool
	}{
		{
			name:      "test_model only needs image_path",
			mode:      model.WorkflowTestModel,
			record:    line("a.jpg"),
			wantValid: true,
		},
		{
			name:      "evaluate_responses missing response",
			mode:      model.WorkflowEvaluateResponses,
			record:    `{"image_path": "a.jpg", "prompt": "p", "model": "m"}`,
			wantValid: false,
		},
		{
			name:      "evaluate_responses complete",
			mode:      model.WorkflowEvaluateResponses,
			record:    fullLine("a.jpg"),
			wantValid: true,
		},
		{
			name:      "import_results missing criteria_scores",
			mode:      model.WorkflowImportResults,
			record:    fullLine("a.jpg"),
			wantValid: false,
		},
		{
			name:      "import_results complete",
			mode:      model.WorkflowImportResults,
			record:    `{"image_path": "a.jpg", "prompt": "p", "response": "r", "model": "m", "criteria_scores": {"Accuracy": 4}}`,
			wantValid: true,
		},
	}

	svc := NewService(0, 0)
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteJSONL(t, dir, fmt.Sprintf("d%d.jsonl", i), []string{tt.record})
			cfg, err := svc.IngestJSONL(context.Background(), path, tt.mode)
			if err != nil {
				t.Fatalf("IngestJSONL() error = %v", err)
			}
			if cfg.Validation.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v (issues: %+v)", cfg.Validation.IsValid, tt.wantValid, cfg.Validation.Issues)
			}
		})
	}
}

func TestIngestJSONL_RawScoresExtracted(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", []string{
		`{"image_path": "a.jpg", "prompt": "p", "response": "r", "model": "m", "criteria_scores": {"Accuracy": 4, "Clarity": {"score": 3.5}}}`,
	})

	svc := NewService(0, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowImportResults)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}
	scores := cfg.Entries[0].Scores
	if scores["Accuracy"] != 4 || scores["Clarity"] != 3.5 {
		t.Errorf("Scores = %v, want Accuracy=4 Clarity=3.5", scores)
	}
}

func TestIngestJSONL_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "doc.txt")
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", []string{line("doc.txt")})

	svc := NewService(0, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false for unsupported extension")
	}
}

func TestIngestJSONL_ImageNotFound(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", []string{line("ghost.jpg")})

	svc := NewService(0, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false when image file is missing")
	}
	if len(cfg.Validation.Issues) == 0 || cfg.Validation.Issues[0].Line != 1 {
		t.Errorf("Issues = %+v, want not-found error on line 1", cfg.Validation.Issues)
	}
}

// TestIngestJSONL_ExceedsLimitHardReject 单文件超限为硬拒绝，
// 且 totalEntries 基于真实总数而非截断后的数目
func TestIngestJSONL_ExceedsLimitHardReject(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, line("a.jpg"))
	}
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", lines)

	svc := NewService(3, 0)
	cfg, err := svc.IngestJSONL(context.Background(), path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestJSONL() error = %v", err)
	}

	if cfg.TotalEntries != 5 {
		t.Errorf("TotalEntries = %d, want 5", cfg.TotalEntries)
	}
	if cfg.ValidEntries != 3 {
		t.Errorf("ValidEntries = %d, want capped at 3", cfg.ValidEntries)
	}
	if !cfg.ExceedsLimit {
		t.Error("ExceedsLimit = false, want true")
	}
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false (single-file overflow is rejected)")
	}
}

func TestIngestJSONL_Canceled(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")
	path := testutil.WriteJSONL(t, dir, "dataset.jsonl", []string{line("a.jpg")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(0, 0)
	if _, err := svc.IngestJSONL(ctx, path, model.WorkflowTestModel); err == nil {
		t.Error("IngestJSONL() with canceled context returned nil error")
	}
}

// ========== 文件夹扫描模式 ==========

func TestScanImageFolder(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "a.jpg")
	testutil.WriteImage(t, dir, "sub/b.png")
	testutil.WriteImage(t, dir, "sub/c.webp")
	testutil.WriteImage(t, dir, "notes.txt") // 非图片，应被忽略

	svc := NewService(0, 0)
	cfg, err := svc.ScanImageFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("ScanImageFolder() error = %v", err)
	}

	if cfg.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", cfg.TotalEntries)
	}
	if !cfg.Validation.IsValid {
		t.Errorf("IsValid = false, issues: %+v", cfg.Validation.Issues)
	}
	if cfg.FolderStructure["sub"] != 2 {
		t.Errorf("FolderStructure = %v, want sub=2", cfg.FolderStructure)
	}
}

// TestScanImageFolder_SoftTruncation 文件夹超限为软截断 + 警告，数据集仍然有效
func TestScanImageFolder_SoftTruncation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		testutil.WriteImage(t, dir, fmt.Sprintf("img%d.jpg", i))
	}

	svc := NewService(2, 0)
	cfg, err := svc.ScanImageFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("ScanImageFolder() error = %v", err)
	}

	if cfg.ValidEntries != 2 {
		t.Errorf("ValidEntries = %d, want truncated to 2", cfg.ValidEntries)
	}
	if cfg.TotalEntries != 5 {
		t.Errorf("TotalEntries = %d, want 5", cfg.TotalEntries)
	}
	if !cfg.ExceedsLimit {
		t.Error("ExceedsLimit = false, want true")
	}
	if !cfg.Validation.IsValid {
		t.Error("IsValid = false, want true (folder overflow is soft)")
	}
	if len(cfg.Validation.Warnings) == 0 {
		t.Error("expected a truncation warning")
	}
}

func TestScanImageFolder_Empty(t *testing.T) {
	dir := t.TempDir()

	svc := NewService(0, 0)
	cfg, err := svc.ScanImageFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("ScanImageFolder() error = %v", err)
	}
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false for empty folder")
	}
}

// TestScanImageFolder_CaseVariantDedup 大小写变体不得重复计数
func TestScanImageFolder_CaseVariantDedup(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "photo.jpg")
	testutil.WriteImage(t, dir, "PHOTO.JPG")

	svc := NewService(0, 0)
	cfg, err := svc.ScanImageFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("ScanImageFolder() error = %v", err)
	}
	if cfg.TotalEntries != 1 {
		t.Errorf("TotalEntries = %d, want 1 after case-variant dedup", cfg.TotalEntries)
	}
}

// ========== 两部分模式 ==========

func TestIngestTwoPart_MatchedAndUnmatched(t *testing.T) {
	imgDir := t.TempDir()
	testutil.WriteImage(t, imgDir, "a/cat.jpg")
	testutil.WriteImage(t, imgDir, "dog.png")

	jsonlDir := t.TempDir()
	path := testutil.WriteJSONL(t, jsonlDir, "refs.jsonl", []string{
		line("cat.jpg"),   // 纯文件名匹配
		line("dog"),       // 去扩展名匹配
		line("ghost.jpg"), // 未匹配
	})

	svc := NewService(0, 0)
	cfg, err := svc.IngestTwoPart(context.Background(), imgDir, path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestTwoPart() error = %v", err)
	}

	if cfg.ValidEntries != 2 {
		t.Errorf("ValidEntries = %d, want 2", cfg.ValidEntries)
	}
	if !cfg.Validation.IsValid {
		t.Errorf("IsValid = false, issues: %+v", cfg.Validation.Issues)
	}
	// 未匹配的引用作为警告计数给出，不逐行报错
	if len(cfg.Validation.Warnings) == 0 {
		t.Error("expected an unmatched-references warning")
	}
	if len(cfg.Validation.Issues) != 0 {
		t.Errorf("Issues = %+v, want none", cfg.Validation.Issues)
	}
}

func TestIngestTwoPart_NothingMatched(t *testing.T) {
	imgDir := t.TempDir()
	testutil.WriteImage(t, imgDir, "a.jpg")

	jsonlDir := t.TempDir()
	path := testutil.WriteJSONL(t, jsonlDir, "refs.jsonl", []string{
		line("x.jpg"),
		line("y.jpg"),
	})

	svc := NewService(0, 0)
	cfg, err := svc.IngestTwoPart(context.Background(), imgDir, path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestTwoPart() error = %v", err)
	}
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false when nothing matched")
	}
}

// TestIngestTwoPart_SoftTruncation 两部分模式超限为软截断 + 警告
func TestIngestTwoPart_SoftTruncation(t *testing.T) {
	imgDir := t.TempDir()
	testutil.WriteImage(t, imgDir, "a.jpg")

	jsonlDir := t.TempDir()
	var lines []string
	for i := 0; i < 4; i++ {
		lines = append(lines, line("a.jpg"))
	}
	path := testutil.WriteJSONL(t, jsonlDir, "refs.jsonl", lines)

	svc := NewService(2, 0)
	cfg, err := svc.IngestTwoPart(context.Background(), imgDir, path, model.WorkflowTestModel)
	if err != nil {
		t.Fatalf("IngestTwoPart() error = %v", err)
	}
	if cfg.ValidEntries != 2 {
		t.Errorf("ValidEntries = %d, want 2", cfg.ValidEntries)
	}
	if !cfg.ExceedsLimit {
		t.Error("ExceedsLimit = false, want true")
	}
	if !cfg.Validation.IsValid {
		t.Error("IsValid = false, want true (two-part overflow is soft)")
	}
}

func TestIngestTwoPart_FieldValidationAfterMatch(t *testing.T) {
	imgDir := t.TempDir()
	testutil.WriteImage(t, imgDir, "a.jpg")

	jsonlDir := t.TempDir()
	path := testutil.WriteJSONL(t, jsonlDir, "refs.jsonl", []string{
		`{"image_path": "a.jpg", "prompt": "p"}`, // 缺 response/model
	})

	svc := NewService(0, 0)
	cfg, err := svc.IngestTwoPart(context.Background(), imgDir, path, model.WorkflowEvaluateResponses)
	if err != nil {
		t.Fatalf("IngestTwoPart() error = %v", err)
	}
	if cfg.Validation.IsValid {
		t.Error("IsValid = true, want false for missing required fields")
	}
	if len(cfg.Validation.Issues) == 0 || cfg.Validation.Issues[0].Line != 1 {
		t.Errorf("Issues = %+v, want field error on line 1", cfg.Validation.Issues)
	}
}
