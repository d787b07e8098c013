package systems

import (
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/entities"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// SceneSyncSystem 把会话资源（唯一的变换数据源）同步到场景图
//
// 会话资源由 StepSystem 修改，此系统只读；
// 同时作为 ObstacleSource 为运动系统提供可碰撞资源的包围盒。
type SceneSyncSystem struct {
	entityManager *ecs.EntityManager
	session       *game.LessonSession
	log           logrus.FieldLogger

	containers map[string]ecs.EntityID
}

// NewSceneSyncSystem 创建同步系统
func NewSceneSyncSystem(em *ecs.EntityManager, session *game.LessonSession, log logrus.FieldLogger) *SceneSyncSystem {
	return &SceneSyncSystem{
		entityManager: em,
		session:       session,
		log:           log.WithField("system", "SceneSyncSystem"),
		containers:    make(map[string]ecs.EntityID),
	}
}

// Build 为所有会话资源创建容器节点
// 创建失败的资源被跳过并记录日志
func (s *SceneSyncSystem) Build() {
	for _, a := range s.session.Assets() {
		id, err := entities.NewAssetEntity(s.entityManager, a, s.log)
		if err != nil {
			s.log.WithError(err).Warnf("[SceneSyncSystem] 跳过资源 %s", a.ID)
			continue
		}
		s.containers[a.ID] = id
	}
}

// Container 返回资源的容器节点
func (s *SceneSyncSystem) Container(assetID string) (ecs.EntityID, bool) {
	id, ok := s.containers[assetID]
	return id, ok
}

// Containers 返回所有容器节点
func (s *SceneSyncSystem) Containers() map[string]ecs.EntityID {
	return s.containers
}

// Destroy 删除所有容器及其子树
func (s *SceneSyncSystem) Destroy() {
	for assetID, id := range s.containers {
		entities.DestroySubtree(s.entityManager, id)
		delete(s.containers, assetID)
	}
	s.entityManager.RemoveMarkedEntities()
}

// Update 把会话资源的变换和可见性写入容器节点
func (s *SceneSyncSystem) Update() {
	for _, a := range s.session.Assets() {
		id, ok := s.containers[a.ID]
		if !ok {
			continue
		}
		if tc, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			*tc = *entities.ContainerTransform(a)
		}
		if a.Kind != types.AssetSpawn {
			entities.SetVisible(s.entityManager, id, a.IsVisible())
		}
	}
}

// Obstacles 实现 ObstacleSource
// 只包含带 CollisionComponent 的可见容器，排除当前携带的资源
func (s *SceneSyncSystem) Obstacles(exclude string) []cube.BBox {
	containers := lo.Filter(ecs.GetEntitiesWith2[*components.CollisionComponent, *components.AssetTagComponent](s.entityManager),
		func(id ecs.EntityID, _ int) bool {
			tag, _ := ecs.GetComponent[*components.AssetTagComponent](s.entityManager, id)
			return tag.AssetID != exclude && entities.VisibleInHierarchy(s.entityManager, id)
		})

	var out []cube.BBox
	for _, id := range containers {
		for _, child := range entities.Descendants(s.entityManager, id) {
			if bb, ok := entities.WorldBounds(s.entityManager, child); ok {
				out = append(out, bb)
			}
		}
	}
	return out
}

// SpawnPose 返回出生点位置和朝向（偏航，弧度）
// 没有出生点时使用原点后方的默认位置
func SpawnPose(p *config.Project) (mgl32.Vec3, float32) {
	if spawn, ok := p.SpawnAsset(); ok {
		return spawn.Transform.Position, spawn.Transform.Rotation.Y()
	}
	return mgl32.Vec3{0, 0, 5}, 0
}
