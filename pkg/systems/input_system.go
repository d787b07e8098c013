package systems

import (
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/input"
	"github.com/sirupsen/logrus"
)

// RayResolver 把射线解析为资源 ID
type RayResolver interface {
	Resolve(ray game.Pose) (string, bool)
}

// InputSystem 采集输入、更新 VR 手柄位姿，并把激活/释放事件交给步骤状态机
//
// 加载完成之前丢弃所有离散事件（不排队），移动和视角信号照常返回给运动系统。
type InputSystem struct {
	capturer input.Capturer
	mux      *input.Mux
	rig      *game.PlayerRig
	resolver RayResolver
	steps    *StepSystem
	log      logrus.FieldLogger

	// Ready 为 nil 时视为已就绪
	Ready func() bool
	// FovY 与渲染投影一致，用于光标射线
	FovY float32

	activeHand input.Hand
	lastFrame  input.Frame
}

// NewInputSystem 创建输入系统
func NewInputSystem(capturer input.Capturer, mux *input.Mux, rig *game.PlayerRig, resolver RayResolver, steps *StepSystem, log logrus.FieldLogger) *InputSystem {
	return &InputSystem{
		capturer:   capturer,
		mux:        mux,
		rig:        rig,
		resolver:   resolver,
		steps:      steps,
		log:        log.WithField("system", "InputSystem"),
		FovY:       DefaultFovY,
		activeHand: input.HandRight,
	}
}

// Update 采集一帧输入，处理事件，返回供运动系统使用的信号
func (s *InputSystem) Update(dt float32) input.Signals {
	frame := s.capturer.Capture()
	s.lastFrame = frame
	sig := s.mux.Sample(&frame, dt)

	if s.rig.IsXR() {
		s.updateController(&frame)
	}

	if s.Ready != nil && !s.Ready() {
		if len(sig.Events) > 0 {
			s.log.Debugf("[InputSystem] 加载未完成，丢弃 %d 个事件", len(sig.Events))
		}
		sig.Events = nil
		return sig
	}

	for _, ev := range sig.Events {
		s.dispatch(ev, &frame)
	}
	return sig
}

// Frame 返回最近一次采集的原始帧（界面绘制触摸摇杆使用）
func (s *InputSystem) Frame() input.Frame {
	return s.lastFrame
}

// updateController 同步头显位姿，并以激活手的位姿作为交互射线，没有激活手时退回另一只手
func (s *InputSystem) updateController(f *input.Frame) {
	if f.Head != nil {
		s.rig.HeadOffset = f.Head.Offset
		s.rig.HeadOrientation = f.Head.Orientation
	}

	c, ok := f.Controller(s.activeHand)
	if !ok {
		for _, other := range f.Controllers {
			c, ok = other, true
			break
		}
	}
	if !ok {
		s.rig.HasController = false
		return
	}
	s.rig.Controller = s.rig.RigToWorld(game.Pose{Origin: c.Pose.Origin, Direction: c.Pose.Direction})
	s.rig.HasController = true
}

func (s *InputSystem) dispatch(ev input.Event, f *input.Frame) {
	if ev.Source == input.RayController {
		s.activeHand = ev.Hand
		s.rig.Controller = s.rig.RigToWorld(game.Pose{Origin: ev.Controller.Origin, Direction: ev.Controller.Direction})
		s.rig.HasController = true
	}

	switch ev.Kind {
	case input.EventActivate:
		hit, _ := s.resolver.Resolve(s.eventRay(ev, f))
		s.log.Debugf("[InputSystem] 激活命中 %q", hit)
		s.steps.HandleActivation(hit)
	case input.EventRelease:
		s.steps.HandleRelease()
	}
}

// eventRay 按事件来源构造世界空间射线
func (s *InputSystem) eventRay(ev input.Event, f *input.Frame) game.Pose {
	switch ev.Source {
	case input.RayCursor:
		return s.rig.ScreenRay(ev.ScreenX, ev.ScreenY, f.Width, f.Height, s.FovY)
	case input.RayController:
		return s.rig.Controller
	default:
		return s.rig.ViewRay()
	}
}
