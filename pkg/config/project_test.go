package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
)

const sampleProjectJSON = `{
  "projectName": "Heart anatomy",
  "environmentAssetId": "room",
  "assets": [
    {"id": "room", "name": "Room", "kind": "model", "modelReference": "models/room.glb",
     "transform": {"position": [0,0,0], "rotation": [0,0,0], "scale": [1,1,1]}},
    {"id": "obj_heart", "name": "Heart", "kind": "primitive", "geometryKind": "sphere",
     "transform": {"position": [0,1,-3], "rotation": [0,0,0], "scale": [1,1,1]}, "color": "#cc2222"},
    {"id": "spawn", "name": "Start", "kind": "spawn",
     "transform": {"position": [0,0,5], "rotation": [0,0,0], "scale": [1,1,1]}},
    {"id": "label", "name": "Label", "kind": "text", "content": "Left\nventricle", "isCollidable": false,
     "transform": {"position": [1,2,0], "rotation": [0,0,0], "scale": [1,1,1]}}
  ],
  "steps": [
    {"id": "intro", "title": "Welcome", "instruction": "Look around", "targetAction": "none"},
    {"id": "s1", "title": "Find the heart", "instruction": "Click it", "targetAction": "click", "targetAssetId": "obj_heart"}
  ]
}`

func TestParseProjectJSONDefaults(t *testing.T) {
	p, err := ParseProjectJSON([]byte(sampleProjectJSON))
	if err != nil {
		t.Fatalf("ParseProjectJSON failed: %v", err)
	}

	// 基础几何体默认半透明
	heart, ok := p.FindAsset("obj_heart")
	if !ok {
		t.Fatal("obj_heart should exist")
	}
	if heart.Alpha() != DefaultPrimitiveOpacity {
		t.Errorf("primitive opacity = %v, want %v", heart.Alpha(), DefaultPrimitiveOpacity)
	}

	// 模型默认不透明、可见、可碰撞
	room, _ := p.FindAsset("room")
	if room.Alpha() != DefaultOpacity {
		t.Errorf("model opacity = %v, want %v", room.Alpha(), DefaultOpacity)
	}
	if !room.IsVisible() || !room.Collidable() {
		t.Error("model should default to visible and collidable")
	}

	// 显式关闭的碰撞保持关闭
	label, _ := p.FindAsset("label")
	if label.Collidable() {
		t.Error("label collidable flag should be preserved as false")
	}
	if label.Content != "Left\nventricle" {
		t.Errorf("embedded line break lost: %q", label.Content)
	}

	// 出生点永远不可碰撞
	spawn, ok := p.SpawnAsset()
	if !ok || spawn.Collidable() {
		t.Error("spawn marker should exist and never be collidable")
	}
}

func TestProjectJSONRoundTrip(t *testing.T) {
	p, err := ParseProjectJSON([]byte(sampleProjectJSON))
	if err != nil {
		t.Fatalf("ParseProjectJSON failed: %v", err)
	}
	data, err := MarshalProjectJSON(p)
	if err != nil {
		t.Fatalf("MarshalProjectJSON failed: %v", err)
	}
	again, err := ParseProjectJSON(data)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if !reflect.DeepEqual(p, again) {
		t.Errorf("project did not round-trip losslessly\nfirst:  %+v\nsecond: %+v", p, again)
	}
}

func TestParseProjectYAML(t *testing.T) {
	src := `
projectName: Tools
assets:
  - id: wrench
    name: Wrench
    kind: primitive
    geometryKind: box
    transform:
      position: [1, 0, 0]
      rotation: [0, 0, 0]
      scale: [1, 1, 1]
steps:
  - id: intro
    title: Intro
  - id: move
    title: Move it
    targetAction: move
    targetAssetId: wrench
    targetPosition: [2, 0, 0]
`
	p, err := ParseProjectYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseProjectYAML failed: %v", err)
	}
	if p.Steps[0].TargetAction != types.ActionNone {
		t.Errorf("empty targetAction should default to none, got %q", p.Steps[0].TargetAction)
	}
	if p.Steps[1].TargetPosition == nil || *p.Steps[1].TargetPosition != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("targetPosition = %v, want [2 0 0]", p.Steps[1].TargetPosition)
	}
}

func TestValidateProjectErrors(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		want    error
	}{
		{
			name: "duplicate ids",
			project: Project{Assets: []Asset{
				{ID: "a", Kind: types.AssetPrimitive},
				{ID: "a", Kind: types.AssetText},
			}},
			want: ErrDuplicateAssetID,
		},
		{
			name:    "start control id",
			project: Project{Assets: []Asset{{ID: "__start__", Kind: types.AssetPrimitive}}},
			want:    ErrReservedAssetID,
		},
		{
			name:    "next control id",
			project: Project{Assets: []Asset{{ID: "__next__", Kind: types.AssetText}}},
			want:    ErrReservedAssetID,
		},
		{
			name:    "restart control id",
			project: Project{Assets: []Asset{{ID: "__restart__", Kind: types.AssetModel}}},
			want:    ErrReservedAssetID,
		},
		{
			name: "two spawn markers",
			project: Project{Assets: []Asset{
				{ID: "s1", Kind: types.AssetSpawn},
				{ID: "s2", Kind: types.AssetSpawn},
			}},
			want: ErrMultipleSpawnMarkers,
		},
		{
			name:    "environment slot points nowhere",
			project: Project{EnvironmentAssetID: "ghost"},
			want:    ErrUnknownEnvironmentSlot,
		},
		{
			name: "click step without target",
			project: Project{Steps: []Step{
				{ID: "intro", TargetAction: types.ActionNone},
				{ID: "s1", TargetAction: types.ActionClick},
			}},
			want: ErrMissingTarget,
		},
		{
			name:    "unknown kind",
			project: Project{Assets: []Asset{{ID: "x", Kind: "hologram"}}},
			want:    ErrUnknownAssetKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProject(&tt.project)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateProject() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestDanglingReferencesDoNotFailValidation 悬空引用是作者缺陷，不是加载错误
func TestDanglingReferencesDoNotFailValidation(t *testing.T) {
	p := &Project{
		Assets: []Asset{{ID: "cube", Kind: types.AssetPrimitive}},
		Steps: []Step{
			{ID: "intro", TargetAction: types.ActionNone},
			{ID: "s1", TargetAction: types.ActionClick, TargetAssetID: "missing"},
			{ID: "s2", TargetAction: types.ActionMove, TargetAssetID: "cube", SnapAnchorID: "gone"},
		},
	}
	if err := ValidateProject(p); err != nil {
		t.Fatalf("dangling references must not fail validation: %v", err)
	}

	refs := p.DanglingReferences()
	if len(refs) != 2 {
		t.Fatalf("expected 2 dangling references, got %d: %v", len(refs), refs)
	}
	if refs[0].Field != "targetAssetId" || refs[0].StepIndex != 1 {
		t.Errorf("unexpected first reference: %v", refs[0])
	}
	if refs[1].Field != "snapAnchorId" || refs[1].AssetID != "gone" {
		t.Errorf("unexpected second reference: %v", refs[1])
	}
}

func TestNormalizeAssignsIDsAndIntro(t *testing.T) {
	p := &Project{
		ProjectName: "Empty",
		Assets:      []Asset{{Kind: types.AssetPrimitive}},
	}
	p.Normalize()

	if p.Assets[0].ID == "" {
		t.Error("asset without id should receive one")
	}
	if len(p.Steps) != 1 || p.Steps[0].HasTarget() {
		t.Errorf("project without steps should get a single intro step, got %+v", p.Steps)
	}
}

func TestPlaceEnvironmentMutatesInPlace(t *testing.T) {
	p := &Project{}
	id := p.PlaceEnvironment(Asset{Name: "Classroom", Kind: types.AssetModel, ModelReference: "a.glb"})
	if p.EnvironmentAssetID != id || len(p.Assets) != 1 {
		t.Fatalf("first placement should append and claim the slot")
	}

	again := p.PlaceEnvironment(Asset{Name: "Lab", Kind: types.AssetModel, ModelReference: "b.glb"})
	if again != id {
		t.Errorf("re-placing the room should keep id %q, got %q", id, again)
	}
	if len(p.Assets) != 1 {
		t.Errorf("re-placing the room must not add an asset, have %d", len(p.Assets))
	}
	if p.Assets[0].ModelReference != "b.glb" {
		t.Errorf("room should be replaced in place, got %q", p.Assets[0].ModelReference)
	}
}

func TestLoadProjectByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.json")
	if err := os.WriteFile(path, []byte(sampleProjectJSON), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if p.ProjectName != "Heart anatomy" {
		t.Errorf("ProjectName = %q", p.ProjectName)
	}

	if _, err := LoadProject(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should return an error")
	}
}
