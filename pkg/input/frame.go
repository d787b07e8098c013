package input

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// KeyState 移动相关按键（WASD 与方向键）
type KeyState struct {
	Forward, Back, Left, Right bool
}

// PointerState 鼠标
type PointerState struct {
	X, Y    float64
	Pressed bool
}

// Touch 一个活动触点
type Touch struct {
	ID   int
	X, Y float64
}

// Hand 手柄所在的手
type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

// ControllerState 一个 VR 手柄
type ControllerState struct {
	Hand       Hand
	Thumbstick mgl32.Vec2 // 上推为 -Y，与 WebXR gamepad 轴一致
	Pose       Ray        // Rig 空间
	// SelectStart / SelectEnd 本帧是否发生
	SelectStart bool
	SelectEnd   bool
}

// HeadPose 头显在 Rig 空间内的位姿
type HeadPose struct {
	Offset      mgl32.Vec3
	Orientation mgl32.Quat
}

// Frame 一帧采集到的原始输入
type Frame struct {
	Width, Height float64

	Keys    KeyState
	Pointer PointerState
	Touches []Touch

	// Controllers / Head 仅在 VR 会话中非空
	Controllers []ControllerState
	Head        *HeadPose
}

// Controller 返回指定手的手柄
func (f *Frame) Controller(h Hand) (ControllerState, bool) {
	for _, c := range f.Controllers {
		if c.Hand == h {
			return c, true
		}
	}
	return ControllerState{}, false
}

// Capturer 采集原始输入
type Capturer interface {
	Capture() Frame
}

// XRFeed 宿主推送的 VR 手柄状态
//
// VR 运行时（移动端宿主）在自己的线程里调用 Push/Select*，
// 渲染循环每帧调用 Drain 取走状态；select 事件在 Drain 后清除。
type XRFeed struct {
	mu          sync.Mutex
	controllers map[Hand]*ControllerState
	head        *HeadPose
}

// NewXRFeed 创建空的手柄状态
func NewXRFeed() *XRFeed {
	return &XRFeed{controllers: make(map[Hand]*ControllerState)}
}

func (x *XRFeed) state(h Hand) *ControllerState {
	c, ok := x.controllers[h]
	if !ok {
		c = &ControllerState{Hand: h}
		x.controllers[h] = c
	}
	return c
}

// Push 更新手柄摇杆和位姿
func (x *XRFeed) Push(h Hand, thumbstick mgl32.Vec2, pose Ray) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.state(h)
	c.Thumbstick = thumbstick
	c.Pose = pose
}

// PushHead 更新头显位姿
func (x *XRFeed) PushHead(offset mgl32.Vec3, orientation mgl32.Quat) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.head = &HeadPose{Offset: offset, Orientation: orientation.Normalize()}
}

// Head 返回最近一次推送的头显位姿
func (x *XRFeed) Head() (HeadPose, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.head == nil {
		return HeadPose{}, false
	}
	return *x.head, true
}

// SelectStart 记录一次 select-start
func (x *XRFeed) SelectStart(h Hand) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.state(h).SelectStart = true
}

// SelectEnd 记录一次 select-end
func (x *XRFeed) SelectEnd(h Hand) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.state(h).SelectEnd = true
}

// Drain 返回当前手柄状态并清除一次性事件
// 左手在前，保证顺序稳定
func (x *XRFeed) Drain() []ControllerState {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []ControllerState
	for _, h := range []Hand{HandLeft, HandRight} {
		c, ok := x.controllers[h]
		if !ok {
			continue
		}
		out = append(out, *c)
		c.SelectStart = false
		c.SelectEnd = false
	}
	return out
}
