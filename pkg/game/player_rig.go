package game

import (
	"github.com/chewxy/math32"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp 世界坐标系的上方向
var WorldUp = mgl32.Vec3{0, 1, 0}

// Pose 射线/手柄的位姿
type Pose struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// PlayerRig 学习者在场景中的可移动框架
//
// 桌面/触摸端：Position 即相机位置，Yaw/Pitch 决定朝向。
// VR：Position 是 Rig 原点，Yaw 是 Rig 自身的转向（右摇杆），
// 头显位姿 HeadOffset/HeadOrientation 在 Rig 空间内，由头显追踪提供，运动系统不修改。
//
// 由 PlaybackScene 持有，以指针传给需要它的系统（Locomotion、Input、Step）。
type PlayerRig struct {
	Mode types.InputMode

	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Yaw      float32 // 弧度，0 朝向 -Z
	Pitch    float32 // 弧度，限制在 ±90°

	// SpawnHeight 出生点高度，眼睛高度在其上叠加
	SpawnHeight float32

	// HeadOffset / HeadOrientation 仅 VR 使用
	HeadOffset      mgl32.Vec3
	HeadOrientation mgl32.Quat

	// Controller 当前激活手柄的位姿，仅 VR 使用
	Controller    Pose
	HasController bool
}

// NewPlayerRig 在出生点创建 Rig
func NewPlayerRig(mode types.InputMode, spawn mgl32.Vec3, yaw float32) *PlayerRig {
	return &PlayerRig{
		Mode:            mode,
		Position:        spawn,
		SpawnHeight:     spawn.Y(),
		Yaw:             yaw,
		HeadOrientation: mgl32.QuatIdent(),
	}
}

// IsXR 是否处于 VR 回放
func (r *PlayerRig) IsXR() bool {
	return r.Mode == types.InputXR
}

// CameraPosition 返回相机（眼睛）的世界坐标
func (r *PlayerRig) CameraPosition() mgl32.Vec3 {
	if r.IsXR() {
		return r.Position.Add(r.rigRotation().Rotate(r.HeadOffset))
	}
	return r.Position
}

func (r *PlayerRig) rigRotation() mgl32.Quat {
	return mgl32.QuatRotate(r.Yaw, WorldUp)
}

// Forward 返回视线方向（单位向量）
func (r *PlayerRig) Forward() mgl32.Vec3 {
	if r.IsXR() {
		return r.Orientation().Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
	}
	cp := math32.Cos(r.Pitch)
	return mgl32.Vec3{
		-math32.Sin(r.Yaw) * cp,
		math32.Sin(r.Pitch),
		-math32.Cos(r.Yaw) * cp,
	}
}

// FlatForward 返回压平到水平面（Y=0）的视线方向
// 竖直向上/向下看时退回到偏航角方向
func (r *PlayerRig) FlatForward() mgl32.Vec3 {
	f := r.Forward()
	f[1] = 0
	if f.LenSqr() < 1e-8 {
		return mgl32.Vec3{-math32.Sin(r.Yaw), 0, -math32.Cos(r.Yaw)}
	}
	return f.Normalize()
}

// Right 返回水平向右方向 = FlatForward × WorldUp
func (r *PlayerRig) Right() mgl32.Vec3 {
	return r.FlatForward().Cross(WorldUp).Normalize()
}

// Orientation 返回相机朝向四元数，翻滚角恒为 0
func (r *PlayerRig) Orientation() mgl32.Quat {
	if r.IsXR() {
		return r.rigRotation().Mul(r.HeadOrientation)
	}
	yaw := r.rigRotation()
	pitch := mgl32.QuatRotate(r.Pitch, mgl32.Vec3{1, 0, 0})
	return yaw.Mul(pitch)
}

// ViewRay 返回第一人称视角的中心射线
func (r *PlayerRig) ViewRay() Pose {
	return Pose{Origin: r.CameraPosition(), Direction: r.Forward()}
}

// InteractionRay 返回当前交互方式使用的射线
// VR 使用手柄位姿，其他模式使用屏幕中心射线
func (r *PlayerRig) InteractionRay() Pose {
	if r.IsXR() && r.HasController {
		return r.Controller
	}
	return r.ViewRay()
}

// ScreenRay 返回经过屏幕坐标 (sx, sy) 的射线
// fovY 为垂直视场角（弧度），与渲染使用的投影一致
func (r *PlayerRig) ScreenRay(sx, sy, width, height float64, fovY float32) Pose {
	if width <= 0 || height <= 0 {
		return r.ViewRay()
	}
	ndcX := float32(2*sx/width - 1)
	ndcY := float32(1 - 2*sy/height)
	tanHalf := math32.Tan(fovY / 2)
	aspect := float32(width / height)
	local := mgl32.Vec3{ndcX * tanHalf * aspect, ndcY * tanHalf, -1}
	return Pose{Origin: r.CameraPosition(), Direction: r.Orientation().Rotate(local).Normalize()}
}

// CarryPoint 返回携带对象应处的位置：交互射线前方 distance 处
func (r *PlayerRig) CarryPoint(distance float32) mgl32.Vec3 {
	ray := r.InteractionRay()
	return ray.Origin.Add(ray.Direction.Normalize().Mul(distance))
}

// ClampPitch 将俯仰角限制在 ±90°
func (r *PlayerRig) ClampPitch() {
	limit := float32(math32.Pi / 2)
	r.Pitch = mgl32.Clamp(r.Pitch, -limit, limit)
}

// RigToWorld 把 Rig 空间的位姿（VR 手柄）变换到世界空间
func (r *PlayerRig) RigToWorld(p Pose) Pose {
	rot := r.rigRotation()
	return Pose{
		Origin:    r.Position.Add(rot.Rotate(p.Origin)),
		Direction: rot.Rotate(p.Direction).Normalize(),
	}
}
