package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// joystickMargin 摇杆中心到屏幕边缘的距离（以半径为单位）
const joystickMargin = 1.5

// joystickCatchRadius 触点在此倍数半径内按下才会被摇杆捕获
const joystickCatchRadius = 1.5

// touchRole 触点的用途
type touchRole int

const (
	roleTap touchRole = iota
	roleMove
	roleLook
)

type trackedTouch struct {
	role      touchRole
	startX    float64
	startY    float64
	lastX     float64
	lastY     float64
	maxTravel float64
}

// Joystick 一个虚拟摇杆的当前状态，供渲染使用
type Joystick struct {
	CenterX, CenterY float64
	Radius           float64
	Value            mgl32.Vec2 // 归一化偏移，屏幕坐标方向
	Active           bool
}

// TouchSource 双虚拟摇杆：左下角移动，右下角视角
// 不在摇杆上的轻触视为激活，射线使用屏幕中心
type TouchSource struct {
	Radius         float64
	LookSpeed      float32 // 满偏时的弧度/秒
	ClickThreshold float64

	touches map[int]*trackedTouch
	move    Joystick
	look    Joystick
}

// NewTouchSource 创建触摸输入源
func NewTouchSource(radius float64, lookSpeed float32, clickThreshold float64) *TouchSource {
	return &TouchSource{
		Radius:         radius,
		LookSpeed:      lookSpeed,
		ClickThreshold: clickThreshold,
		touches:        make(map[int]*trackedTouch),
	}
}

// Layout 根据屏幕尺寸计算两个摇杆的中心
func (t *TouchSource) Layout(width, height float64) (moveX, moveY, lookX, lookY float64) {
	offset := t.Radius * joystickMargin
	return offset, height - offset, width - offset, height - offset
}

// Joysticks 返回两个摇杆的状态
func (t *TouchSource) Joysticks() (move, look Joystick) {
	return t.move, t.look
}

// stickValue 由触点到摇杆中心的角度和截断距离得到 [-1,1] 的值
func stickValue(cx, cy, x, y, radius float64) mgl32.Vec2 {
	dx, dy := x-cx, y-cy
	dist := math.Hypot(dx, dy)
	if dist == 0 || radius <= 0 {
		return mgl32.Vec2{}
	}
	angle := math.Atan2(dy, dx)
	mag := math.Min(dist, radius) / radius
	return mgl32.Vec2{float32(math.Cos(angle) * mag), float32(math.Sin(angle) * mag)}
}

// Sample 实现 InputSource
func (t *TouchSource) Sample(f *Frame, dt float32) Signals {
	var s Signals
	mx, my, lx, ly := t.Layout(f.Width, f.Height)
	t.move = Joystick{CenterX: mx, CenterY: my, Radius: t.Radius}
	t.look = Joystick{CenterX: lx, CenterY: ly, Radius: t.Radius}

	// 结束的触点
	for id, tr := range t.touches {
		_, alive := lo.Find(f.Touches, func(c Touch) bool { return c.ID == id })
		if alive {
			continue
		}
		if tr.role == roleTap && tr.maxTravel < t.ClickThreshold {
			s.Events = append(s.Events, Event{Kind: EventActivate, Source: RayScreenCenter})
		}
		delete(t.touches, id)
	}

	for _, c := range f.Touches {
		tr, ok := t.touches[c.ID]
		if !ok {
			tr = &trackedTouch{role: t.classify(c, mx, my, lx, ly), startX: c.X, startY: c.Y}
			t.touches[c.ID] = tr
		}
		tr.lastX, tr.lastY = c.X, c.Y
		tr.maxTravel = math.Max(tr.maxTravel, math.Hypot(c.X-tr.startX, c.Y-tr.startY))

		switch tr.role {
		case roleMove:
			t.move.Value = stickValue(mx, my, c.X, c.Y, t.Radius)
			t.move.Active = true
		case roleLook:
			t.look.Value = stickValue(lx, ly, c.X, c.Y, t.Radius)
			t.look.Active = true
		}
	}

	// 摇杆上推（屏幕 -Y）为前进
	s.Move = mgl32.Vec2{t.move.Value.X(), -t.move.Value.Y()}
	s.LookYaw = -t.look.Value.X() * t.LookSpeed * dt
	s.LookPitch = -t.look.Value.Y() * t.LookSpeed * dt
	return s
}

func (t *TouchSource) classify(c Touch, mx, my, lx, ly float64) touchRole {
	catch := t.Radius * joystickCatchRadius
	taken := func(role touchRole) bool {
		return lo.SomeBy(lo.Values(t.touches), func(tr *trackedTouch) bool { return tr.role == role })
	}
	if math.Hypot(c.X-mx, c.Y-my) <= catch && !taken(roleMove) {
		return roleMove
	}
	if math.Hypot(c.X-lx, c.Y-ly) <= catch && !taken(roleLook) {
		return roleLook
	}
	return roleTap
}

// Reset 实现 InputSource
func (t *TouchSource) Reset() {
	t.touches = make(map[int]*trackedTouch)
	t.move.Value, t.look.Value = mgl32.Vec2{}, mgl32.Vec2{}
	t.move.Active, t.look.Active = false, false
}
