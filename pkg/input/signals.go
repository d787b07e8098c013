// Package input 把键盘、鼠标拖拽、触摸摇杆和 VR 手柄统一成
// 移动向量、视角增量和激活/释放事件
//
// 设备相关的代码只负责采集原始状态（Frame），解释由 InputSource 完成。
package input

import "github.com/go-gl/mathgl/mgl32"

// EventKind 离散输入事件类型
type EventKind int

const (
	// EventActivate 点击/轻触/VR select-start
	EventActivate EventKind = iota
	// EventRelease VR select-end
	EventRelease
)

// String 返回事件类型的字符串表示
func (k EventKind) String() string {
	switch k {
	case EventActivate:
		return "Activate"
	case EventRelease:
		return "Release"
	default:
		return "Unknown"
	}
}

// RaySource 事件射线的来源
type RaySource int

const (
	// RayScreenCenter 第一人称屏幕中心射线
	RayScreenCenter RaySource = iota
	// RayCursor 经过指定屏幕坐标的射线
	RayCursor
	// RayController 手柄位姿（Rig 空间）
	RayController
)

// Ray 射线
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Event 一个激活或释放事件
type Event struct {
	Kind   EventKind
	Source RaySource
	// ScreenX/ScreenY 仅 RayCursor 使用
	ScreenX, ScreenY float64
	// Controller / Hand 仅 RayController 使用，Controller 在 Rig 空间
	Controller Ray
	Hand       Hand
}

// Signals 一帧的归一化输入
type Signals struct {
	// Move X 为右移（strafe），Y 为前进，分量范围 [-1,1]
	Move mgl32.Vec2
	// LookYaw / LookPitch 本帧应叠加到视角上的弧度
	LookYaw   float32
	LookPitch float32
	Events    []Event
}

// HasMove 移动向量是否非零
func (s *Signals) HasMove() bool {
	return s.Move.X() != 0 || s.Move.Y() != 0
}

// InputSource 输入源
// Sample 每帧调用一次，读取原始帧并给出归一化信号
type InputSource interface {
	Sample(f *Frame, dt float32) Signals
	Reset()
}

// clampUnit 把向量长度限制在 1 以内
func clampUnit(v mgl32.Vec2) mgl32.Vec2 {
	if l := v.Len(); l > 1 {
		return v.Mul(1 / l)
	}
	return v
}
