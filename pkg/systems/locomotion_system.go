package systems

import (
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/input"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// stepClearance 顶面低于出生点高度 + 此值的障碍（地板、地毯）可以直接跨过
const stepClearance float32 = 0.05

// ObstacleSource 提供阻挡玩家移动的包围盒
// exclude 为当前携带的资源 ID，不参与碰撞
type ObstacleSource interface {
	Obstacles(exclude string) []cube.BBox
}

// LocomotionSystem 把移动向量和视角增量积分到 PlayerRig
//
// 每帧：
//  1. 视角：偏航叠加，俯仰限制在 ±90°，翻滚恒为 0（VR 只允许 Rig 转向）
//  2. 速度先按摩擦指数衰减，再叠加输入加速度（VR 直接按固定速度平移 Rig）
//  3. 位移足够大时沿位移方向发射中心和两侧（相距玩家半径）三条平行射线，
//     任一射线的最近障碍距离小于 半径+位移 时整帧取消并清零速度。
//     只有与身体高度范围 [出生点+stepClearance, 出生点+眼睛高度] 重叠的障碍参与，
//     其高度被压平到射线高度，桌面等低于视线的障碍同样阻挡
//  4. 高度固定在出生点高度 + 眼睛高度
type LocomotionSystem struct {
	cfg       *config.EngineConfig
	rig       *game.PlayerRig
	obstacles ObstacleSource

	// LookScale 视角灵敏度倍率（来自玩家设置）
	LookScale float32
	// InvertY 反转俯仰
	InvertY bool

	// Blocked 上一帧的移动是否被障碍取消
	Blocked bool
}

// NewLocomotionSystem 创建运动系统
func NewLocomotionSystem(cfg *config.EngineConfig, rig *game.PlayerRig, obstacles ObstacleSource) *LocomotionSystem {
	return &LocomotionSystem{cfg: cfg, rig: rig, obstacles: obstacles, LookScale: 1}
}

// Update 积分一帧
// exclude 为当前携带的资源 ID（可为空）
func (s *LocomotionSystem) Update(dt float32, sig input.Signals, exclude string) {
	if dt <= 0 {
		return
	}
	s.applyLook(sig)

	r := s.rig
	displacement := s.integrate(dt, sig.Move)

	s.Blocked = false
	if travel := displacement.Len(); travel > s.cfg.MinDisplacement {
		dir := displacement.Mul(1 / travel)
		if dist, ok := s.nearestObstacle(r.Position, dir, exclude); ok && dist < s.cfg.PlayerRadius+travel {
			r.Velocity = mgl32.Vec3{}
			s.Blocked = true
		} else {
			r.Position = r.Position.Add(displacement)
		}
	}
	s.pinHeight()
}

func (s *LocomotionSystem) applyLook(sig input.Signals) {
	r := s.rig
	r.Yaw += sig.LookYaw * s.LookScale
	if r.IsXR() {
		// 头显追踪负责俯仰和翻滚
		return
	}
	pitch := sig.LookPitch * s.LookScale
	if s.InvertY {
		pitch = -pitch
	}
	r.Pitch += pitch
	r.ClampPitch()
}

// integrate 返回本帧的水平位移
func (s *LocomotionSystem) integrate(dt float32, move mgl32.Vec2) mgl32.Vec3 {
	r := s.rig

	// 摩擦衰减先于加速；系数截断到 1，速度不会反向
	decay := s.cfg.Friction * dt
	if decay > 1 {
		decay = 1
	}
	r.Velocity = r.Velocity.Sub(r.Velocity.Mul(decay))

	forward := r.FlatForward()
	right := r.Right()
	wish := forward.Mul(move.Y()).Add(right.Mul(move.X()))

	if r.IsXR() {
		// VR 平移父级 Rig，不经过速度积分
		d := wish.Mul(s.cfg.XRMoveSpeed * dt)
		d[1] = 0
		return d
	}

	r.Velocity = r.Velocity.Add(wish.Mul(s.cfg.MoveAccel * dt))
	r.Velocity[1] = 0
	return r.Velocity.Mul(dt)
}

// nearestObstacle 返回身体扫过 dir 方向时的最近障碍距离
// 起点已在盒内的障碍（或射线）忽略，避免玩家被卡死
func (s *LocomotionSystem) nearestObstacle(origin, dir mgl32.Vec3, exclude string) (float32, bool) {
	if s.obstacles == nil {
		return 0, false
	}
	side := mgl32.Vec3{-dir.Z(), 0, dir.X()}.Mul(s.cfg.PlayerRadius)
	rays := [...]mgl32.Vec3{origin, origin.Add(side), origin.Sub(side)}

	best, found := float32(0), false
	for _, bb := range s.obstacles.Obstacles(exclude) {
		flat, ok := s.bodySlice(bb, origin.Y())
		if !ok || flat.Vec3Within(origin) {
			continue
		}
		for _, from := range rays {
			if flat.Vec3Within(from) {
				continue
			}
			dist, _, ok := IntersectBox(flat, from, dir, s.cfg.RayLength)
			if ok && (!found || dist < best) {
				best, found = dist, true
			}
		}
	}
	return best, found
}

// bodySlice 把与身体高度范围重叠的障碍压平到射线高度 y
func (s *LocomotionSystem) bodySlice(bb cube.BBox, y float32) (cube.BBox, bool) {
	feet := s.rig.SpawnHeight + stepClearance
	head := s.rig.SpawnHeight + s.cfg.EyeHeight
	bottom, top := bb.Min(), bb.Max()
	if top.Y() <= feet || bottom.Y() >= head {
		return cube.BBox{}, false
	}
	return cube.Box(bottom.X(), y-1, bottom.Z(), top.X(), y+1, top.Z()), true
}

func (s *LocomotionSystem) pinHeight() {
	r := s.rig
	if r.IsXR() {
		// 头显偏移已包含眼睛高度
		r.Position[1] = r.SpawnHeight
		return
	}
	r.Position[1] = r.SpawnHeight + s.cfg.EyeHeight
}

// Speed 当前水平速度
func (s *LocomotionSystem) Speed() float32 {
	return s.rig.Velocity.Len()
}
