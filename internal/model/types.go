package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Model 解码后的外部模型
type Model struct {
	// Parts 每个带网格的节点对应一个部件，包围盒已变换到模型根空间
	Parts []Part
	// Doc 原始 glTF 文档，材质修改直接作用于此
	Doc *gltf.Document
}

// Part 模型中的一个网格部件
type Part struct {
	Name string
	Min  mgl32.Vec3
	Max  mgl32.Vec3
	// Materials 该部件引用的材质下标
	Materials []int
}

// Bounds 返回整个模型的包围盒
func (m *Model) Bounds() (min, max mgl32.Vec3, ok bool) {
	for i, p := range m.Parts {
		if i == 0 {
			min, max = p.Min, p.Max
			continue
		}
		for k := 0; k < 3; k++ {
			if p.Min[k] < min[k] {
				min[k] = p.Min[k]
			}
			if p.Max[k] > max[k] {
				max[k] = p.Max[k]
			}
		}
	}
	return min, max, len(m.Parts) > 0
}
