package game

import (
	"fmt"

	"github.com/decker502/lessonplay/pkg/types"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// PlaybackSettings 学习者的回放偏好
// 与项目无关，全局保存
type PlaybackSettings struct {
	// LookScale 视角灵敏度倍率，作用于 EngineConfig.LookSensitivity
	LookScale float32 `yaml:"lookScale"`
	// InvertY 反转俯仰
	InvertY bool `yaml:"invertY"`
	// PreferredMode 启动时优先使用的输入模式（空表示自动检测）
	PreferredMode string `yaml:"preferredMode"`
	// Fullscreen 启动时是否全屏
	Fullscreen bool `yaml:"fullscreen"`
	// LastProject 最近一次打开的项目名
	LastProject string `yaml:"lastProject"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *PlaybackSettings {
	return &PlaybackSettings{
		LookScale: 1.0,
	}
}

// Mode 解析偏好的输入模式
func (s *PlaybackSettings) Mode() (types.InputMode, bool) {
	switch s.PreferredMode {
	case types.InputDesktop.String():
		return types.InputDesktop, true
	case types.InputTouch.String():
		return types.InputTouch, true
	case types.InputXR.String():
		return types.InputXR, true
	}
	return types.InputDesktop, false
}

// SettingsManager 设置管理器
// 负责回放设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式）
	settings     *PlaybackSettings
	log          logrus.FieldLogger
}

const (
	settingsObject   = "settings"
	settingsProperty = "playback"
)

// NewSettingsManager 创建新的设置管理器实例
//
// gdataManager 可为 nil，此时只在内存中保存设置。
// 加载失败不是致命错误，使用默认设置。
func NewSettingsManager(gdataManager *gdata.Manager, log logrus.FieldLogger) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
		log:          log.WithField("system", "SettingsManager"),
	}
	if err := sm.Load(); err != nil {
		sm.log.Warnf("[SettingsManager] Failed to load settings: %v (using defaults)", err)
	}
	return sm
}

// Load 从 gdata 加载设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}
	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if loaded.LookScale <= 0 {
		loaded.LookScale = 1.0
	}
	sm.settings = loaded
	return nil
}

// Save 保存设置到 gdata，降级模式下直接返回 nil
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	sm.log.Debug("[SettingsManager] Settings saved")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *PlaybackSettings {
	return sm.settings
}

// SetLookScale 设置视角灵敏度倍率，限制在 0.1 ~ 5.0
// 仅修改内存中的设置，需调用 Save() 持久化
func (sm *SettingsManager) SetLookScale(scale float32) {
	if scale < 0.1 {
		scale = 0.1
	} else if scale > 5.0 {
		scale = 5.0
	}
	sm.settings.LookScale = scale
}

// SetLastProject 记录最近打开的项目
func (sm *SettingsManager) SetLastProject(name string) {
	sm.settings.LastProject = name
}
