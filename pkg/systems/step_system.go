package systems

import (
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// StepState 课程的宏观状态
type StepState int

const (
	// StepIntro 第 0 步（介绍），等待开始
	StepIntro StepState = iota
	// StepActive 第 1..N-1 步
	StepActive
	// StepCompleted 终止状态
	StepCompleted
)

// String 返回状态的字符串表示
func (s StepState) String() string {
	switch s {
	case StepIntro:
		return "Intro"
	case StepActive:
		return "Active"
	case StepCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// StepStatus 供界面渲染的只读状态快照
type StepStatus struct {
	State       StepState
	Index       int
	Total       int
	Title       string
	Instruction string
	Action      types.TargetAction
	Holding     bool
	Snapped     bool
	CanBack     bool
	CanNext     bool
}

// StepSystem 课程步骤状态机
//
// 独占 LessonSession：解释射线解析结果、管理携带/吸附子流程、推进和完成课程。
// 所有转换都在渲染循环内同步完成，不会挂起。
// 命中非目标对象、没有命中、或步骤引用了不存在的资源时，激活都是空操作。
type StepSystem struct {
	cfg     *config.EngineConfig
	steps   []config.Step
	session *game.LessonSession
	mode    types.InputMode
	log     logrus.FieldLogger

	snapElapsed float64

	// OnStepChanged 步骤下标变化后调用
	OnStepChanged func(index int)
	// OnCompleted 课程完成时调用
	OnCompleted func()
	// OnExit 学习者离开回放时调用
	OnExit func()
}

// NewStepSystem 创建步骤状态机
// steps 在回放期间只读
func NewStepSystem(cfg *config.EngineConfig, steps []config.Step, session *game.LessonSession, mode types.InputMode, log logrus.FieldLogger) *StepSystem {
	return &StepSystem{
		cfg:     cfg,
		steps:   steps,
		session: session,
		mode:    mode,
		log:     log.WithField("system", "StepSystem"),
	}
}

// Session 返回会话（只供同包系统和测试读取）
func (s *StepSystem) Session() *game.LessonSession {
	return s.session
}

// State 返回当前宏观状态
func (s *StepSystem) State() StepState {
	switch {
	case s.session.Completed:
		return StepCompleted
	case s.session.StepIndex == 0:
		return StepIntro
	default:
		return StepActive
	}
}

// CurrentStep 返回当前步骤
func (s *StepSystem) CurrentStep() (*config.Step, bool) {
	i := s.session.StepIndex
	if i < 0 || i >= len(s.steps) {
		return nil, false
	}
	return &s.steps[i], true
}

// activeStep 返回处于 StepActive 时的当前步骤
func (s *StepSystem) activeStep() (*config.Step, bool) {
	if s.State() != StepActive {
		return nil, false
	}
	return s.CurrentStep()
}

// Start 从介绍进入第 1 步
func (s *StepSystem) Start() {
	if s.State() != StepIntro {
		return
	}
	s.advance()
}

// Next 在无目标步骤上进入下一步（最后一步则完成课程）
func (s *StepSystem) Next() {
	step, ok := s.activeStep()
	if !ok || step.TargetAction != types.ActionNone {
		return
	}
	s.advance()
}

// CanBack 是否允许后退：仅桌面/触摸端，吸附后禁用
func (s *StepSystem) CanBack() bool {
	return s.mode != types.InputXR &&
		s.State() == StepActive &&
		!s.session.Snapped
}

// Back 后退一步，不重置资源位置
func (s *StepSystem) Back() {
	if !s.CanBack() {
		return
	}
	s.goTo(s.session.StepIndex - 1)
}

// Restart 回到介绍，会话资源恢复为原始值
func (s *StepSystem) Restart() {
	if err := s.session.Reset(); err != nil {
		s.log.WithError(err).Error("[StepSystem] 重置会话失败")
		return
	}
	s.snapElapsed = 0
	s.log.Info("[StepSystem] 课程已重新开始")
	if s.OnStepChanged != nil {
		s.OnStepChanged(0)
	}
}

// Exit 通知宿主学习者离开回放
func (s *StepSystem) Exit() {
	if s.OnExit != nil {
		s.OnExit()
	}
}

// HandleActivation 处理一次激活的射线解析结果
// hitID 为空表示没有命中
func (s *StepSystem) HandleActivation(hitID string) {
	switch hitID {
	case components.StartControlID:
		s.Start()
		return
	case components.NextControlID:
		s.Next()
		return
	case components.RestartControlID:
		if s.State() == StepCompleted {
			s.Restart()
		}
		return
	}

	step, ok := s.activeStep()
	if !ok || hitID == "" || hitID != step.TargetAssetID {
		return
	}
	if _, exists := s.session.Asset(step.TargetAssetID); !exists {
		return
	}

	switch step.TargetAction {
	case types.ActionClick:
		s.log.Debugf("[StepSystem] 步骤 %d 点击目标 %s", s.session.StepIndex, hitID)
		s.advance()
	case types.ActionMove:
		if s.session.Holding || s.session.Snapped {
			return
		}
		s.session.Holding = true
		s.session.HoldingAssetID = hitID
		s.log.Debugf("[StepSystem] 拿起 %s", hitID)
	}
}

// HandleRelease 处理释放事件
// 吸附之前松开不会放下对象：对象一直携带到吸附或后退
func (s *StepSystem) HandleRelease() {}

// Destination 返回当前移动步骤的目的地
// 设置了锚点时取锚点资源的当前位置，否则取 targetPosition；
// 锚点不存在时没有目的地
func (s *StepSystem) Destination() (mgl32.Vec3, bool) {
	step, ok := s.activeStep()
	if !ok || step.TargetAction != types.ActionMove {
		return mgl32.Vec3{}, false
	}
	if step.SnapAnchorID != "" {
		anchor, ok := s.session.Asset(step.SnapAnchorID)
		if !ok {
			return mgl32.Vec3{}, false
		}
		return anchor.Transform.Position, true
	}
	if step.TargetPosition != nil {
		return *step.TargetPosition, true
	}
	return mgl32.Vec3{}, false
}

// SnapThreshold 当前输入模式下的吸附距离
func (s *StepSystem) SnapThreshold() float32 {
	return s.cfg.SnapThreshold(types.ScaleForMode(s.mode))
}

// Update 每帧推进携带和吸附
func (s *StepSystem) Update(dt float64, rig *game.PlayerRig) {
	if s.session.Snapped {
		s.snapElapsed += dt
		if s.snapElapsed >= s.cfg.SnapAdvanceDelay {
			s.advance()
		}
		return
	}
	if !s.session.Holding {
		return
	}

	held := s.session.HoldingAssetID
	carry := rig.CarryPoint(s.cfg.CarryDistanceFor(s.mode))
	s.session.SetPosition(held, carry)
	s.UpdateHeld(carry)
}

// UpdateHeld 以被携带对象的当前位置检查是否到达目的地
func (s *StepSystem) UpdateHeld(heldPosition mgl32.Vec3) {
	if !s.session.Holding {
		return
	}
	dest, ok := s.Destination()
	if !ok {
		return
	}
	if heldPosition.Sub(dest).Len() >= s.SnapThreshold() {
		return
	}

	held := s.session.HoldingAssetID
	s.session.SetPosition(held, dest)
	s.session.Holding = false
	s.session.HoldingAssetID = ""
	s.session.Snapped = true
	s.snapElapsed = 0
	s.log.Infof("[StepSystem] %s 已放置到目的地 %v", held, dest)
}

// advance 进入下一步，最后一步则完成课程
func (s *StepSystem) advance() {
	if s.session.StepIndex >= len(s.steps)-1 {
		s.session.Completed = true
		s.session.ClearInteraction()
		s.snapElapsed = 0
		s.log.Info("[StepSystem] 课程完成")
		if s.OnCompleted != nil {
			s.OnCompleted()
		}
		return
	}
	s.goTo(s.session.StepIndex + 1)
}

// goTo 切换步骤，清除携带和吸附状态
func (s *StepSystem) goTo(index int) {
	s.session.StepIndex = index
	s.session.ClearInteraction()
	s.snapElapsed = 0
	if step, ok := s.CurrentStep(); ok {
		s.log.Infof("[StepSystem] 进入步骤 %d: %s", index, step.Title)
	}
	if s.OnStepChanged != nil {
		s.OnStepChanged(index)
	}
}

// Status 返回当前状态快照
func (s *StepSystem) Status() StepStatus {
	st := StepStatus{
		State:   s.State(),
		Index:   s.session.StepIndex,
		Total:   len(s.steps),
		Holding: s.session.Holding,
		Snapped: s.session.Snapped,
		CanBack: s.CanBack(),
		Action:  types.ActionNone,
	}
	if step, ok := s.CurrentStep(); ok {
		st.Title = step.Title
		st.Instruction = step.Instruction
		st.Action = step.TargetAction
	}
	st.CanNext = st.State == StepActive && st.Action == types.ActionNone
	return st
}
