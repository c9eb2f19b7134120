package matcher

import (
	"path/filepath"
	"testing"
)

func buildMatcher(base string, rels ...string) (*Matcher, []string) {
	files := make([]string, len(rels))
	for i, rel := range rels {
		files[i] = filepath.Join(base, filepath.FromSlash(rel))
	}
	return New(base, files), files
}

func TestResolve_ByBareFilename(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, files := buildMatcher(base, "sub/cat.jpg")

	got, ok := m.Resolve("cat.jpg")
	if !ok || got != files[0] {
		t.Errorf("Resolve(cat.jpg) = %q, %v; want %q, true", got, ok, files[0])
	}
}

func TestResolve_ByStem(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, files := buildMatcher(base, "dog.png")

	got, ok := m.Resolve("dog")
	if !ok || got != files[0] {
		t.Errorf("Resolve(dog) = %q, %v; want %q, true", got, ok, files[0])
	}
}

func TestResolve_ByRelativePath(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, files := buildMatcher(base, "a/b/x.jpg")

	// 正斜杠写法
	got, ok := m.Resolve("a/b/x.jpg")
	if !ok || got != files[0] {
		t.Errorf("Resolve(a/b/x.jpg) = %q, %v; want %q, true", got, ok, files[0])
	}

	// 反斜杠写法经归一化后命中
	got, ok = m.Resolve(`a\b\x.jpg`)
	if !ok || got != files[0] {
		t.Errorf(`Resolve(a\b\x.jpg) = %q, %v; want %q, true`, got, ok, files[0])
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, files := buildMatcher(base, "Cat.JPG")

	got, ok := m.Resolve("cat.jpg")
	if !ok || got != files[0] {
		t.Errorf("Resolve(cat.jpg) = %q, %v; want %q, true", got, ok, files[0])
	}
}

// TestResolve_CollisionLastWriteWins 同名文件位于不同子目录时，
// 纯文件名键由后插入者覆盖；相对路径键仍各自精确命中
func TestResolve_CollisionLastWriteWins(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, files := buildMatcher(base, "a/x.jpg", "b/x.jpg")

	got, ok := m.Resolve("x.jpg")
	if !ok || got != files[1] {
		t.Errorf("Resolve(x.jpg) = %q, %v; want last inserted %q", got, ok, files[1])
	}

	got, ok = m.Resolve("a/x.jpg")
	if !ok || got != files[0] {
		t.Errorf("Resolve(a/x.jpg) = %q, %v; want %q", got, ok, files[0])
	}
	got, ok = m.Resolve("b/x.jpg")
	if !ok || got != files[1] {
		t.Errorf("Resolve(b/x.jpg) = %q, %v; want %q", got, ok, files[1])
	}
}

func TestResolve_Unmatched(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, _ := buildMatcher(base, "a/x.jpg")

	if got, ok := m.Resolve("missing.jpg"); ok {
		t.Errorf("Resolve(missing.jpg) = %q, true; want unmatched", got)
	}
	if _, ok := m.Resolve(""); ok {
		t.Error("Resolve(\"\") matched; want unmatched")
	}
}

func TestResolve_FilenameOfNestedReference(t *testing.T) {
	base := filepath.FromSlash("/data/images")
	m, files := buildMatcher(base, "deep/cat.jpg")

	// 引用带有无法对应的目录前缀，回退到纯文件名匹配
	got, ok := m.Resolve("some/other/prefix/cat.jpg")
	if !ok || got != files[0] {
		t.Errorf("Resolve(prefixed ref) = %q, %v; want %q, true", got, ok, files[0])
	}
}
