package input

import (
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/types"
)

// Mux 按输入模式组合各输入源
//
// 规则：
//   - 键盘移动与摇杆移动同时非零时键盘优先，两者从不混合
//   - VR 模式下桌面/触摸的视角旋转完全屏蔽，朝向来自头显追踪
type Mux struct {
	mode types.InputMode

	Keyboard KeyboardSource
	Pointer  *PointerSource
	Touch    *TouchSource
	XR       *XRSource
}

// NewMux 用引擎参数创建所有输入源
func NewMux(mode types.InputMode, cfg *config.EngineConfig) *Mux {
	return &Mux{
		mode:    mode,
		Pointer: NewPointerSource(cfg.LookSensitivity, cfg.ClickThreshold),
		Touch:   NewTouchSource(cfg.JoystickRadius, cfg.JoystickLookSpeed, cfg.ClickThreshold),
		XR:      NewXRSource(cfg.XRDeadZone, cfg.XRTurnSpeed),
	}
}

// Mode 返回当前输入模式
func (m *Mux) Mode() types.InputMode {
	return m.mode
}

// SetMode 切换输入模式并清除所有源的中间状态
func (m *Mux) SetMode(mode types.InputMode) {
	if mode == m.mode {
		return
	}
	m.mode = mode
	m.Reset()
}

// Sample 实现 InputSource
func (m *Mux) Sample(f *Frame, dt float32) Signals {
	keys := m.Keyboard.Sample(f, dt)

	var s Signals
	switch m.mode {
	case types.InputXR:
		s = m.XR.Sample(f, dt)
	case types.InputTouch:
		s = m.Touch.Sample(f, dt)
	default:
		s = m.Pointer.Sample(f, dt)
	}

	if keys.HasMove() {
		s.Move = keys.Move
	}
	return s
}

// Reset 实现 InputSource
func (m *Mux) Reset() {
	m.Keyboard.Reset()
	m.Pointer.Reset()
	m.Touch.Reset()
	m.XR.Reset()
}
