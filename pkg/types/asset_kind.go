// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import "fmt"

// AssetKind 场景对象的种类
// 序列化为字符串，与编辑器导出的 JSON 保持一致
type AssetKind string

const (
	// AssetPrimitive 基础几何体（box/sphere/cone/torus）
	AssetPrimitive AssetKind = "primitive"
	// AssetText 文字标签
	AssetText AssetKind = "text"
	// AssetModel 外部 3D 模型（glTF/GLB）
	AssetModel AssetKind = "model"
	// AssetSpawn 玩家出生点标记（每个项目至多一个）
	AssetSpawn AssetKind = "spawn"
)

// Valid 检查种类是否为已知值
func (k AssetKind) Valid() bool {
	switch k {
	case AssetPrimitive, AssetText, AssetModel, AssetSpawn:
		return true
	}
	return false
}

// GeometryKind 基础几何体的形状
type GeometryKind string

const (
	GeometryBox    GeometryKind = "box"
	GeometrySphere GeometryKind = "sphere"
	GeometryCone   GeometryKind = "cone"
	GeometryTorus  GeometryKind = "torus"
)

// TargetAction 步骤要求学习者执行的操作
type TargetAction string

const (
	// ActionNone 无目标，点击"下一步"推进
	ActionNone TargetAction = "none"
	// ActionClick 点击目标对象后推进
	ActionClick TargetAction = "click"
	// ActionMove 拿起目标对象并放到目的地后推进
	ActionMove TargetAction = "move"
)

// ParseTargetAction 解析操作类型，空字符串视为 none
func ParseTargetAction(s string) (TargetAction, error) {
	switch TargetAction(s) {
	case "", ActionNone:
		return ActionNone, nil
	case ActionClick:
		return ActionClick, nil
	case ActionMove:
		return ActionMove, nil
	}
	return ActionNone, fmt.Errorf("unknown target action %q", s)
}

// InputMode 当前的回放输入模式
type InputMode int

const (
	// InputDesktop 键盘 + 鼠标
	InputDesktop InputMode = iota
	// InputTouch 触摸双摇杆
	InputTouch
	// InputXR VR 手柄
	InputXR
)

// String 返回输入模式的字符串表示
func (m InputMode) String() string {
	switch m {
	case InputDesktop:
		return "Desktop"
	case InputTouch:
		return "Touch"
	case InputXR:
		return "XR"
	default:
		return "Unknown"
	}
}

// WorldScale 世界比例约定
// 桌面/移动端渲染的是桌面尺寸的微缩场景，VR 为真实尺寸
type WorldScale int

const (
	// ScaleTabletop 桌面微缩比例（桌面与移动端回放）
	ScaleTabletop WorldScale = iota
	// ScaleLifeSize 真实比例（VR 回放）
	ScaleLifeSize
)

// UnitsPerMeter 返回该比例下一米对应的世界单位数
func (s WorldScale) UnitsPerMeter() float32 {
	if s == ScaleLifeSize {
		return 1
	}
	return 7.5
}

// ScaleForMode 返回输入模式对应的世界比例
func ScaleForMode(m InputMode) WorldScale {
	if m == InputXR {
		return ScaleLifeSize
	}
	return ScaleTabletop
}
