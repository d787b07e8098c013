package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/decker502/lessonplay/pkg/types"
	"github.com/spf13/viper"
)

// 回放引擎默认参数
const (
	// DefaultFriction 速度指数衰减系数（每秒）
	DefaultFriction float32 = 10.0
	// DefaultMoveAccel 桌面/触摸端加速度（单位/秒²）
	DefaultMoveAccel float32 = 40.0
	// DefaultXRMoveSpeed VR 手柄移动速度（米/秒），直接平移 Rig
	DefaultXRMoveSpeed float32 = 1.5
	// DefaultXRTurnSpeed VR 右摇杆转向速度（弧度/秒）
	DefaultXRTurnSpeed float32 = 1.8
	// DefaultLookSensitivity 鼠标拖拽/右摇杆视角灵敏度（弧度/像素或弧度/秒）
	DefaultLookSensitivity float32 = 0.004
	// DefaultJoystickLookSpeed 触摸右摇杆满偏时的视角速度（弧度/秒）
	DefaultJoystickLookSpeed float32 = 2.0
	// DefaultEyeHeight 眼睛高度（相对出生点高度）
	DefaultEyeHeight float32 = 1.6
	// DefaultPlayerRadius 玩家碰撞半径
	DefaultPlayerRadius float32 = 0.5
	// DefaultMinDisplacement 低于此位移不做碰撞检测
	DefaultMinDisplacement float32 = 1e-4
	// DefaultCarryDistance 桌面/触摸端拿起对象后在镜头前的距离
	DefaultCarryDistance float32 = 3.0
	// DefaultXRCarryDistance VR 手柄前方的携带距离
	DefaultXRCarryDistance float32 = 0.3
	// DefaultSnapBaseThreshold 每米对应的吸附距离阈值
	// 桌面微缩比例下为 1.5，VR 真实比例下为 0.2
	DefaultSnapBaseThreshold float32 = 0.2
	// DefaultSnapAdvanceDelay 吸附后自动进入下一步的延迟（秒）
	DefaultSnapAdvanceDelay float64 = 0.8
	// DefaultStabilizationDelay 模型加载完成后的稳定等待时间（秒）
	DefaultStabilizationDelay float64 = 1.0
	// DefaultClickThreshold 点击判定的最大移动距离（像素）
	DefaultClickThreshold float64 = 6.0
	// DefaultJoystickRadius 虚拟摇杆半径（像素）
	DefaultJoystickRadius float64 = 60.0
	// DefaultXRDeadZone 手柄摇杆死区
	DefaultXRDeadZone float32 = 0.05
	// DefaultRayLength 交互射线长度
	DefaultRayLength float32 = 1000.0
)

// EngineConfig 回放引擎的全部可调参数
type EngineConfig struct {
	Friction           float32 `mapstructure:"friction" yaml:"friction"`
	MoveAccel          float32 `mapstructure:"moveAccel" yaml:"moveAccel"`
	XRMoveSpeed        float32 `mapstructure:"xrMoveSpeed" yaml:"xrMoveSpeed"`
	XRTurnSpeed        float32 `mapstructure:"xrTurnSpeed" yaml:"xrTurnSpeed"`
	LookSensitivity    float32 `mapstructure:"lookSensitivity" yaml:"lookSensitivity"`
	JoystickLookSpeed  float32 `mapstructure:"joystickLookSpeed" yaml:"joystickLookSpeed"`
	EyeHeight          float32 `mapstructure:"eyeHeight" yaml:"eyeHeight"`
	PlayerRadius       float32 `mapstructure:"playerRadius" yaml:"playerRadius"`
	MinDisplacement    float32 `mapstructure:"minDisplacement" yaml:"minDisplacement"`
	CarryDistance      float32 `mapstructure:"carryDistance" yaml:"carryDistance"`
	XRCarryDistance    float32 `mapstructure:"xrCarryDistance" yaml:"xrCarryDistance"`
	SnapBaseThreshold  float32 `mapstructure:"snapBaseThreshold" yaml:"snapBaseThreshold"`
	SnapAdvanceDelay   float64 `mapstructure:"snapAdvanceDelay" yaml:"snapAdvanceDelay"`
	StabilizationDelay float64 `mapstructure:"stabilizationDelay" yaml:"stabilizationDelay"`
	ClickThreshold     float64 `mapstructure:"clickThreshold" yaml:"clickThreshold"`
	JoystickRadius     float64 `mapstructure:"joystickRadius" yaml:"joystickRadius"`
	XRDeadZone         float32 `mapstructure:"xrDeadZone" yaml:"xrDeadZone"`
	RayLength          float32 `mapstructure:"rayLength" yaml:"rayLength"`
}

// DefaultEngineConfig 返回默认参数
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Friction:           DefaultFriction,
		MoveAccel:          DefaultMoveAccel,
		XRMoveSpeed:        DefaultXRMoveSpeed,
		XRTurnSpeed:        DefaultXRTurnSpeed,
		LookSensitivity:    DefaultLookSensitivity,
		JoystickLookSpeed:  DefaultJoystickLookSpeed,
		EyeHeight:          DefaultEyeHeight,
		PlayerRadius:       DefaultPlayerRadius,
		MinDisplacement:    DefaultMinDisplacement,
		CarryDistance:      DefaultCarryDistance,
		XRCarryDistance:    DefaultXRCarryDistance,
		SnapBaseThreshold:  DefaultSnapBaseThreshold,
		SnapAdvanceDelay:   DefaultSnapAdvanceDelay,
		StabilizationDelay: DefaultStabilizationDelay,
		ClickThreshold:     DefaultClickThreshold,
		JoystickRadius:     DefaultJoystickRadius,
		XRDeadZone:         DefaultXRDeadZone,
		RayLength:          DefaultRayLength,
	}
}

// SnapThreshold 返回指定世界比例下的吸附距离阈值
func (c *EngineConfig) SnapThreshold(scale types.WorldScale) float32 {
	return c.SnapBaseThreshold * scale.UnitsPerMeter()
}

// CarryDistanceFor 返回输入模式对应的携带距离
func (c *EngineConfig) CarryDistanceFor(mode types.InputMode) float32 {
	if mode == types.InputXR {
		return c.XRCarryDistance
	}
	return c.CarryDistance
}

// LoadEngineConfig 加载引擎参数
// path 为空或文件不存在时只使用默认值；环境变量 LESSONPLAY_<KEY> 可覆盖任意项
func LoadEngineConfig(path string) (*EngineConfig, error) {
	v := viper.New()
	defaults := DefaultEngineConfig()
	v.SetDefault("friction", defaults.Friction)
	v.SetDefault("moveAccel", defaults.MoveAccel)
	v.SetDefault("xrMoveSpeed", defaults.XRMoveSpeed)
	v.SetDefault("xrTurnSpeed", defaults.XRTurnSpeed)
	v.SetDefault("lookSensitivity", defaults.LookSensitivity)
	v.SetDefault("joystickLookSpeed", defaults.JoystickLookSpeed)
	v.SetDefault("eyeHeight", defaults.EyeHeight)
	v.SetDefault("playerRadius", defaults.PlayerRadius)
	v.SetDefault("minDisplacement", defaults.MinDisplacement)
	v.SetDefault("carryDistance", defaults.CarryDistance)
	v.SetDefault("xrCarryDistance", defaults.XRCarryDistance)
	v.SetDefault("snapBaseThreshold", defaults.SnapBaseThreshold)
	v.SetDefault("snapAdvanceDelay", defaults.SnapAdvanceDelay)
	v.SetDefault("stabilizationDelay", defaults.StabilizationDelay)
	v.SetDefault("clickThreshold", defaults.ClickThreshold)
	v.SetDefault("joystickRadius", defaults.JoystickRadius)
	v.SetDefault("xrDeadZone", defaults.XRDeadZone)
	v.SetDefault("rayLength", defaults.RayLength)

	v.SetEnvPrefix("LESSONPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read engine config %s: %w", path, err)
			}
		}
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode engine config: %w", err)
	}
	if err := validateEngineConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &cfg, nil
}

func validateEngineConfig(c *EngineConfig) error {
	if c.Friction < 0 {
		return fmt.Errorf("friction must be >= 0, got %v", c.Friction)
	}
	if c.PlayerRadius <= 0 {
		return fmt.Errorf("playerRadius must be > 0, got %v", c.PlayerRadius)
	}
	if c.SnapBaseThreshold <= 0 {
		return fmt.Errorf("snapBaseThreshold must be > 0, got %v", c.SnapBaseThreshold)
	}
	if c.XRDeadZone < 0 || c.XRDeadZone >= 1 {
		return fmt.Errorf("xrDeadZone must be in [0,1), got %v", c.XRDeadZone)
	}
	if c.ClickThreshold < 0 {
		return fmt.Errorf("clickThreshold must be >= 0, got %v", c.ClickThreshold)
	}
	return nil
}
