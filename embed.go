// embed.go - 内置示例课程的嵌入声明
// 必须放在项目根目录（与 lessons/ 同级），
// 因为 //go:embed 指令只能嵌入当前包目录及其子目录的文件
package main

import "embed"

//go:embed lessons
var lessonsFS embed.FS
