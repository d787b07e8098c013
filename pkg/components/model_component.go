package components

import "github.com/decker502/lessonplay/internal/model"

// ModelComponent 外部模型容器节点上的已加载模型
// ResourceKey 用于拆除时归还 ResourceManager 的引用计数
type ModelComponent struct {
	Model       *model.Model
	ResourceKey string
}
