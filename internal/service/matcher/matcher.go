// Package matcher 提供图片路径匹配
// 将结果文件中声明的图片引用与文件夹中实际发现的图片对账，容忍路径写法漂移
package matcher

import (
	"path/filepath"
	"strings"
)

// Matcher 图片路径查找表
// 构建后只读，可安全并发查询
type Matcher struct {
	baseDir string
	lookup  map[string]string // 小写键 -> 绝对路径
}

// New 基于基准目录与目录下发现的绝对路径列表构建查找表
// 每个文件注册四种键: 纯文件名、去扩展名文件名、相对路径(原生分隔符)、相对路径(正斜杠)
// 纯文件名与去扩展名键发生冲突时后插入者覆盖，相对路径键保持唯一
func New(baseDir string, files []string) *Matcher {
	m := &Matcher{
		baseDir: baseDir,
		lookup:  make(map[string]string, len(files)*4),
	}
	for _, abs := range files {
		m.add(abs)
	}
	return m
}

func (m *Matcher) add(abs string) {
	name := filepath.Base(abs)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	m.lookup[strings.ToLower(name)] = abs
	m.lookup[strings.ToLower(stem)] = abs

	rel, err := filepath.Rel(m.baseDir, abs)
	if err == nil && !strings.HasPrefix(rel, "..") {
		m.lookup[strings.ToLower(rel)] = abs
		m.lookup[strings.ToLower(filepath.ToSlash(rel))] = abs
	}
}

// Size 查找表键数量
func (m *Matcher) Size() int {
	return len(m.lookup)
}

// Resolve 解析引用字符串，依次尝试:
// 1. 原样匹配任一键 2. 引用的纯文件名 3. 去扩展名文件名 4. 分隔符归一化后的引用
// 命中即返回，全部落空则视为未匹配
func (m *Matcher) Resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}

	if abs, ok := m.lookup[strings.ToLower(ref)]; ok {
		return abs, true
	}

	name := filepath.Base(normalizeSeparators(ref))
	if abs, ok := m.lookup[strings.ToLower(name)]; ok {
		return abs, true
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if abs, ok := m.lookup[strings.ToLower(stem)]; ok {
		return abs, true
	}

	if abs, ok := m.lookup[strings.ToLower(normalizeSeparators(ref))]; ok {
		return abs, true
	}

	return "", false
}

// normalizeSeparators 将正反斜杠统一为当前系统的路径分隔符
func normalizeSeparators(path string) string {
	sep := string(filepath.Separator)
	path = strings.ReplaceAll(path, "\\", sep)
	path = strings.ReplaceAll(path, "/", sep)
	return path
}
