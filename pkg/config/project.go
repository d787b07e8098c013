package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// 默认透明度：基础几何体半透明，其余不透明
const (
	DefaultPrimitiveOpacity float32 = 0.5
	DefaultOpacity          float32 = 1.0
)

// Transform 位置、旋转（欧拉角，弧度，XYZ 顺序）和缩放
type Transform struct {
	Position mgl32.Vec3 `json:"position" yaml:"position"`
	Rotation mgl32.Vec3 `json:"rotation" yaml:"rotation"`
	Scale    mgl32.Vec3 `json:"scale" yaml:"scale"`
}

// Asset 场景中放置的一个对象
//
// Opacity / Visible / IsCollidable 使用指针以区分"未设置"和零值，
// 加载时由 applyProjectDefaults 填充默认值；读取请使用对应的访问方法。
type Asset struct {
	ID             string             `json:"id" yaml:"id"`
	Name           string             `json:"name" yaml:"name"`
	Kind           types.AssetKind    `json:"kind" yaml:"kind"`
	GeometryKind   types.GeometryKind `json:"geometryKind,omitempty" yaml:"geometryKind,omitempty"`
	Transform      Transform          `json:"transform" yaml:"transform"`
	Color          string             `json:"color,omitempty" yaml:"color,omitempty"`
	Opacity        *float32           `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Content        string             `json:"content,omitempty" yaml:"content,omitempty"`
	ModelReference string             `json:"modelReference,omitempty" yaml:"modelReference,omitempty"`
	Visible        *bool              `json:"visible,omitempty" yaml:"visible,omitempty"`
	IsCollidable   *bool              `json:"isCollidable,omitempty" yaml:"isCollidable,omitempty"`
}

// Alpha 返回透明度，未设置时按种类取默认值
func (a *Asset) Alpha() float32 {
	if a.Opacity != nil {
		return *a.Opacity
	}
	if a.Kind == types.AssetPrimitive {
		return DefaultPrimitiveOpacity
	}
	return DefaultOpacity
}

// IsVisible 返回是否可见（默认 true）
func (a *Asset) IsVisible() bool {
	return a.Visible == nil || *a.Visible
}

// Collidable 返回是否阻挡玩家移动
// 出生点标记永远不参与碰撞
func (a *Asset) Collidable() bool {
	if a.Kind == types.AssetSpawn {
		return false
	}
	return a.IsCollidable == nil || *a.IsCollidable
}

// Step 一个教学步骤
type Step struct {
	ID             string             `json:"id" yaml:"id"`
	Title          string             `json:"title" yaml:"title"`
	Instruction    string             `json:"instruction" yaml:"instruction"`
	TargetAction   types.TargetAction `json:"targetAction" yaml:"targetAction"`
	TargetAssetID  string             `json:"targetAssetId,omitempty" yaml:"targetAssetId,omitempty"`
	SnapAnchorID   string             `json:"snapAnchorId,omitempty" yaml:"snapAnchorId,omitempty"`
	TargetPosition *mgl32.Vec3        `json:"targetPosition,omitempty" yaml:"targetPosition,omitempty"`
}

// HasTarget 步骤是否要求与某个对象交互
func (s *Step) HasTarget() bool {
	return s.TargetAction == types.ActionClick || s.TargetAction == types.ActionMove
}

// Project 编辑器产出的完整课程数据，也是持久化的 JSON 契约
type Project struct {
	ProjectName string  `json:"projectName" yaml:"projectName"`
	Assets      []Asset `json:"assets" yaml:"assets"`
	Steps       []Step  `json:"steps" yaml:"steps"`

	// EnvironmentAssetID 环境（房间）资源槽位，空表示没有房间
	EnvironmentAssetID string `json:"environmentAssetId,omitempty" yaml:"environmentAssetId,omitempty"`
}

// FindAsset 按 ID 查找资源，返回指向切片元素的指针
func (p *Project) FindAsset(id string) (*Asset, bool) {
	for i := range p.Assets {
		if p.Assets[i].ID == id {
			return &p.Assets[i], true
		}
	}
	return nil, false
}

// SpawnAsset 返回出生点标记（如有）
func (p *Project) SpawnAsset() (*Asset, bool) {
	for i := range p.Assets {
		if p.Assets[i].Kind == types.AssetSpawn {
			return &p.Assets[i], true
		}
	}
	return nil, false
}

// ModelAssets 按资源数组顺序返回所有外部模型资源
func (p *Project) ModelAssets() []Asset {
	var out []Asset
	for _, a := range p.Assets {
		if a.Kind == types.AssetModel {
			out = append(out, a)
		}
	}
	return out
}

// PlaceEnvironment 放置环境（房间）模型
// 已存在环境资源时原地修改（保留 ID），否则追加并占用槽位
func (p *Project) PlaceEnvironment(a Asset) string {
	if p.EnvironmentAssetID != "" {
		if existing, ok := p.FindAsset(p.EnvironmentAssetID); ok {
			id := existing.ID
			*existing = a
			existing.ID = id
			return id
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	p.Assets = append(p.Assets, a)
	p.EnvironmentAssetID = a.ID
	return a.ID
}

// Normalize 为缺失 ID 的资源和步骤分配 UUID，并确保第 0 步为介绍步骤
func (p *Project) Normalize() {
	for i := range p.Assets {
		if p.Assets[i].ID == "" {
			p.Assets[i].ID = uuid.NewString()
		}
	}
	for i := range p.Steps {
		if p.Steps[i].ID == "" {
			p.Steps[i].ID = uuid.NewString()
		}
	}
	if len(p.Steps) == 0 {
		p.Steps = append(p.Steps, Step{
			ID:           uuid.NewString(),
			Title:        p.ProjectName,
			TargetAction: types.ActionNone,
		})
	}
}

// DanglingReference 一个引用了不存在资源的步骤
// 这样的步骤在回放中永远无法完成，由宿主负责提示作者
type DanglingReference struct {
	StepIndex int
	StepID    string
	Field     string // "targetAssetId" 或 "snapAnchorId"
	AssetID   string
}

func (d DanglingReference) String() string {
	return fmt.Sprintf("step %d (%s): %s %q not found", d.StepIndex, d.StepID, d.Field, d.AssetID)
}

// DanglingReferences 列出所有引用了不存在资源的步骤字段
func (p *Project) DanglingReferences() []DanglingReference {
	var out []DanglingReference
	for i, s := range p.Steps {
		if s.HasTarget() && s.TargetAssetID != "" {
			if _, ok := p.FindAsset(s.TargetAssetID); !ok {
				out = append(out, DanglingReference{StepIndex: i, StepID: s.ID, Field: "targetAssetId", AssetID: s.TargetAssetID})
			}
		}
		if s.TargetAction == types.ActionMove && s.SnapAnchorID != "" {
			if _, ok := p.FindAsset(s.SnapAnchorID); !ok {
				out = append(out, DanglingReference{StepIndex: i, StepID: s.ID, Field: "snapAnchorId", AssetID: s.SnapAnchorID})
			}
		}
	}
	return out
}

// LoadProject 从文件加载项目
// 按扩展名选择格式：.json 使用 JSON，.yaml/.yml 使用 YAML
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}

	var p *Project
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = ParseProjectYAML(data)
	default:
		p, err = ParseProjectJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid project in %s: %w", path, err)
	}
	return p, nil
}

// ParseProjectJSON 解析 JSON 格式的项目，应用默认值并校验
func ParseProjectJSON(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project JSON: %w", err)
	}
	return finishProject(&p)
}

// ParseProjectYAML 解析 YAML 格式的项目，应用默认值并校验
func ParseProjectYAML(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project YAML: %w", err)
	}
	return finishProject(&p)
}

// MarshalProjectJSON 序列化项目为 JSON
func MarshalProjectJSON(p *Project) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func finishProject(p *Project) (*Project, error) {
	p.Normalize()
	applyProjectDefaults(p)
	if err := ValidateProject(p); err != nil {
		return nil, err
	}
	return p, nil
}

// applyProjectDefaults 为缺失的可选字段设置默认值
func applyProjectDefaults(p *Project) {
	for i := range p.Assets {
		a := &p.Assets[i]
		if a.Opacity == nil {
			v := a.Alpha()
			a.Opacity = &v
		}
		if a.Visible == nil {
			v := true
			a.Visible = &v
		}
		if a.IsCollidable == nil {
			v := true
			a.IsCollidable = &v
		}
		if a.Transform.Scale == (mgl32.Vec3{}) {
			a.Transform.Scale = mgl32.Vec3{1, 1, 1}
		}
		if a.Kind == types.AssetPrimitive && a.GeometryKind == "" {
			a.GeometryKind = types.GeometryBox
		}
	}
	for i := range p.Steps {
		if p.Steps[i].TargetAction == "" {
			p.Steps[i].TargetAction = types.ActionNone
		}
	}
}

// ValidateProject 校验项目的结构不变量
// 悬空的步骤引用不在此处报错，见 DanglingReferences
func ValidateProject(p *Project) error {
	seen := make(map[string]struct{}, len(p.Assets))
	spawns := 0
	for _, a := range p.Assets {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateAssetID, a.ID)
		}
		seen[a.ID] = struct{}{}
		if components.IsReservedID(a.ID) {
			return fmt.Errorf("%w: %q", ErrReservedAssetID, a.ID)
		}
		if !a.Kind.Valid() {
			return fmt.Errorf("asset %q: %w: %q", a.ID, ErrUnknownAssetKind, a.Kind)
		}
		if a.Kind == types.AssetSpawn {
			spawns++
		}
		if a.Opacity != nil && (*a.Opacity < 0 || *a.Opacity > 1) {
			return fmt.Errorf("asset %q: opacity %v out of range [0,1]", a.ID, *a.Opacity)
		}
	}
	if spawns > 1 {
		return fmt.Errorf("%w: found %d", ErrMultipleSpawnMarkers, spawns)
	}
	if p.EnvironmentAssetID != "" {
		if _, ok := seen[p.EnvironmentAssetID]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEnvironmentSlot, p.EnvironmentAssetID)
		}
	}
	for i, s := range p.Steps {
		if _, err := types.ParseTargetAction(string(s.TargetAction)); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if s.HasTarget() && s.TargetAssetID == "" {
			return fmt.Errorf("step %d (%s): %w", i, s.ID, ErrMissingTarget)
		}
	}
	return nil
}
