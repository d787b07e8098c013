package game

import (
	"fmt"

	"github.com/decker502/lessonplay/pkg/config"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"
)

// LessonSession 一次回放的会话状态
//
// 由 StepSystem 独占；创建于回放开始，退出或重新开始时丢弃。
// sessionAssets 是项目资源的工作副本，搬运/放置直接修改它，
// 原始资源保持不变以便 Restart 恢复。
type LessonSession struct {
	original []config.Asset
	assets   *orderedmap.OrderedMap[string, *config.Asset]

	StepIndex      int
	Completed      bool
	Holding        bool
	HoldingAssetID string
	Snapped        bool
}

// NewLessonSession 深拷贝项目资源创建会话
func NewLessonSession(assets []config.Asset) (*LessonSession, error) {
	s := &LessonSession{}
	if err := deepCopyAssets(&s.original, assets); err != nil {
		return nil, err
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func deepCopyAssets(dst *[]config.Asset, src []config.Asset) error {
	*dst = make([]config.Asset, 0, len(src))
	if err := copier.CopyWithOption(dst, &src, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("failed to copy session assets: %w", err)
	}
	return nil
}

func (s *LessonSession) rebuild() error {
	var working []config.Asset
	if err := deepCopyAssets(&working, s.original); err != nil {
		return err
	}
	s.assets = orderedmap.NewOrderedMap[string, *config.Asset]()
	for i := range working {
		s.assets.Set(working[i].ID, &working[i])
	}
	return nil
}

// Reset 恢复到初始状态：资源重置为原始值，步骤回到 0
func (s *LessonSession) Reset() error {
	if err := s.rebuild(); err != nil {
		return err
	}
	s.StepIndex = 0
	s.Completed = false
	s.ClearInteraction()
	return nil
}

// ClearInteraction 清除携带和吸附状态（每次切换步骤时调用）
func (s *LessonSession) ClearInteraction() {
	s.Holding = false
	s.HoldingAssetID = ""
	s.Snapped = false
}

// Asset 按 ID 返回会话中的资源
func (s *LessonSession) Asset(id string) (*config.Asset, bool) {
	return s.assets.Get(id)
}

// Assets 按原始顺序返回所有会话资源
func (s *LessonSession) Assets() []*config.Asset {
	out := make([]*config.Asset, 0, s.assets.Len())
	for el := s.assets.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// SetPosition 修改资源位置
func (s *LessonSession) SetPosition(id string, pos mgl32.Vec3) bool {
	a, ok := s.assets.Get(id)
	if !ok {
		return false
	}
	a.Transform.Position = pos
	return true
}

// Snapshot 返回当前会话资源的深拷贝
func (s *LessonSession) Snapshot() []config.Asset {
	current := make([]config.Asset, 0, s.assets.Len())
	for el := s.assets.Front(); el != nil; el = el.Next() {
		current = append(current, *el.Value)
	}
	var out []config.Asset
	if err := deepCopyAssets(&out, current); err != nil {
		return current
	}
	return out
}
