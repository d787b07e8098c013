package systems

import (
	"sort"

	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/entities"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/ethaniccc/float32-cube/cube/trace"
	"github.com/go-gl/mathgl/mgl32"
)

// RayHit 一次射线命中
type RayHit struct {
	Entity   ecs.EntityID
	Distance float32
	Point    mgl32.Vec3
}

// RaycastSystem 把激活事件的射线解析为资源 ID
//
// 无状态：不关心步骤，也不读写会话资源。
// 射线与所有可见网格的世界包围盒求交，取最近的命中，
// 再沿父节点向上找到最近的带资源 ID 的容器节点。
type RaycastSystem struct {
	entityManager *ecs.EntityManager
	maxDistance   float32
}

// NewRaycastSystem 创建射线解析系统
func NewRaycastSystem(em *ecs.EntityManager, maxDistance float32) *RaycastSystem {
	return &RaycastSystem{entityManager: em, maxDistance: maxDistance}
}

// IntersectBox 返回射线与包围盒的命中距离
// 起点在盒内时距离为 0
func IntersectBox(bb cube.BBox, origin, dir mgl32.Vec3, maxDistance float32) (float32, mgl32.Vec3, bool) {
	if bb.Vec3Within(origin) {
		return 0, origin, true
	}
	end := origin.Add(dir.Mul(maxDistance))
	res, ok := trace.BBoxIntercept(bb, origin, end)
	if !ok {
		return 0, mgl32.Vec3{}, false
	}
	p := res.Position()
	return p.Sub(origin).Len(), p, true
}

// Hits 返回射线命中的所有可见网格，按距离从近到远排序
func (s *RaycastSystem) Hits(ray game.Pose) []RayHit {
	if ray.Direction.LenSqr() == 0 {
		return nil
	}
	dir := ray.Direction.Normalize()

	var hits []RayHit
	for _, id := range ecs.GetEntitiesWith2[*components.MeshComponent, *components.NodeComponent](s.entityManager) {
		if !entities.VisibleInHierarchy(s.entityManager, id) {
			continue
		}
		bb, ok := entities.WorldBounds(s.entityManager, id)
		if !ok {
			continue
		}
		if dist, point, ok := IntersectBox(bb, ray.Origin, dir, s.maxDistance); ok {
			hits = append(hits, RayHit{Entity: id, Distance: dist, Point: point})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// Resolve 返回射线最近命中所属的资源 ID
// 没有命中或最近命中没有带 ID 的祖先时返回 false
func (s *RaycastSystem) Resolve(ray game.Pose) (string, bool) {
	hits := s.Hits(ray)
	if len(hits) == 0 {
		return "", false
	}
	tag, _, ok := entities.NearestTaggedAncestor(s.entityManager, hits[0].Entity)
	if !ok {
		return "", false
	}
	return tag.AssetID, true
}
