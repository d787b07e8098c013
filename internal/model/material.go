package model

import "github.com/qmuntal/gltf"

// ApplyOpacity 把模型所有材质强制切换为透明混合模式并设置透明度
// opacity >= 1 时不做任何修改
func (m *Model) ApplyOpacity(opacity float32) {
	if opacity >= 1 || m.Doc == nil {
		return
	}
	for _, mat := range m.Doc.Materials {
		forceTransparent(mat, opacity)
	}
	// 没有材质的图元使用默认材质，补一个透明材质给它们
	for _, mesh := range m.Doc.Meshes {
		for _, prim := range mesh.Primitives {
			if prim.Material != nil {
				continue
			}
			mat := &gltf.Material{Name: "lessonplay_default"}
			forceTransparent(mat, opacity)
			m.Doc.Materials = append(m.Doc.Materials, mat)
			prim.Material = gltf.Index(len(m.Doc.Materials) - 1)
		}
	}
}

func forceTransparent(mat *gltf.Material, opacity float32) {
	mat.AlphaMode = gltf.AlphaBlend
	if mat.PBRMetallicRoughness == nil {
		mat.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{}
	}
	factor := [4]float64{1, 1, 1, 1}
	if mat.PBRMetallicRoughness.BaseColorFactor != nil {
		factor = *mat.PBRMetallicRoughness.BaseColorFactor
	}
	factor[3] = float64(opacity)
	mat.PBRMetallicRoughness.BaseColorFactor = &factor
}

// IsTransparent 检查所有材质是否都处于混合模式
func (m *Model) IsTransparent() bool {
	if m.Doc == nil || len(m.Doc.Materials) == 0 {
		return false
	}
	for _, mat := range m.Doc.Materials {
		if mat.AlphaMode != gltf.AlphaBlend {
			return false
		}
	}
	return true
}
