//go:build mobile

// embed.go - 移动端内置课程的嵌入声明
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 构建前需要把项目根目录的 lessons/ 复制到此目录：
//
//	cp -r lessons mobile/
//	go build -tags mobile ./mobile
package mobile

import "embed"

//go:embed all:lessons
var lessonsFS embed.FS
