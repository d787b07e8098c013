package components

import "github.com/decker502/lessonplay/pkg/types"

// 保留的控件 ID，VR 中用世界空间按钮驱动开始/下一步/重新开始
const (
	StartControlID   = "__start__"
	NextControlID    = "__next__"
	RestartControlID = "__restart__"
)

// IsReservedID 资源 ID 是否与控件 ID 冲突
func IsReservedID(id string) bool {
	return id == StartControlID || id == NextControlID || id == RestartControlID
}

// AssetTagComponent 标记对象的容器节点
// 射线命中子网格后沿父节点向上查找最近的带此组件的节点
type AssetTagComponent struct {
	AssetID string
	Kind    types.AssetKind
}
