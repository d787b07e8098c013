package components

import "github.com/decker502/lessonplay/pkg/ecs"

// NodeComponent 场景图节点
// 每个放置的对象拥有一个容器节点（带 AssetTagComponent），
// 其几何体作为子节点挂在容器下面
type NodeComponent struct {
	Name     string
	Parent   ecs.EntityID // 0 表示根节点
	Children []ecs.EntityID
	Visible  bool
}
