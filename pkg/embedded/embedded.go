// Package embedded 提供内置示例课程的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量声明在项目根目录（embed.go）和 mobile 包中，
// 启动时通过 Init 传入。内置课程和它们引用的模型都位于 "lessons/" 下。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotInitialized Init 尚未调用
var ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")

// lessonsDir 内置课程所在目录
const lessonsDir = "lessons"

var lessonsFS fs.FS

// Init 设置内置课程文件系统
// 必须在 main() 开始时、任何课程加载之前调用
func Init(lessons fs.FS) {
	lessonsFS = lessons
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return lessonsFS != nil
}

// FS 返回内置文件系统，未初始化时返回 nil
// ResourceManager 用它解析课程中的相对模型路径
func FS() fs.FS {
	return lessonsFS
}

// clean 标准化路径：正斜杠、去掉 "./" 和开头的 "/"
func clean(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

// ReadFile 读取内置文件，路径必须以 "lessons/" 开头
func ReadFile(p string) ([]byte, error) {
	if !IsInitialized() {
		return nil, ErrNotInitialized
	}
	p = clean(p)
	if !strings.HasPrefix(p, lessonsDir+"/") {
		return nil, fmt.Errorf("unknown resource path prefix: %s (must start with '%s/')", p, lessonsDir)
	}
	return fs.ReadFile(lessonsFS, p)
}

// Exists 检查文件是否存在于内置文件系统中
func Exists(p string) bool {
	if !IsInitialized() {
		return false
	}
	_, err := fs.Stat(lessonsFS, clean(p))
	return err == nil
}

// Lessons 按名称排序返回所有内置课程文件（.json/.yaml/.yml）
func Lessons() ([]string, error) {
	if !IsInitialized() {
		return nil, ErrNotInitialized
	}
	entries, err := fs.ReadDir(lessonsFS, lessonsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in lessons: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			out = append(out, path.Join(lessonsDir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
