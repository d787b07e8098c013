package systems

import (
	"reflect"
	"testing"

	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestStepSystem(mode types.InputMode, steps []config.Step) *StepSystem {
	return NewStepSystem(config.DefaultEngineConfig(), steps, newTestSession(lessonAssets()), mode, testLogger())
}

func TestStepIntroAndStart(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	if ss.State() != StepIntro {
		t.Fatalf("initial state = %v, want Intro", ss.State())
	}

	// 介绍步骤上点击任何对象都不推进
	ss.HandleActivation("obj_heart")
	ss.Next()
	if ss.Session().StepIndex != 0 {
		t.Fatalf("intro advanced without Start: %d", ss.Session().StepIndex)
	}

	var changed []int
	ss.OnStepChanged = func(i int) { changed = append(changed, i) }
	ss.HandleActivation("__start__")
	if ss.State() != StepActive || ss.Session().StepIndex != 1 {
		t.Fatalf("start control should enter step 1, got %v/%d", ss.State(), ss.Session().StepIndex)
	}
	ss.Start()
	if ss.Session().StepIndex != 1 {
		t.Error("Start outside intro must be a no-op")
	}
	if !reflect.DeepEqual(changed, []int{1}) {
		t.Errorf("OnStepChanged calls = %v", changed)
	}
}

func TestStepClickTarget(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	ss.Start()

	tests := []struct {
		name string
		hit  string
		want int
	}{
		{"miss", "", 1},
		{"other object", "obj_other", 1},
		{"next control on click step", "__next__", 1},
		{"target", "obj_heart", 2},
	}
	for _, tt := range tests {
		ss.HandleActivation(tt.hit)
		if got := ss.Session().StepIndex; got != tt.want {
			t.Errorf("%s: step = %d, want %d", tt.name, got, tt.want)
		}
	}

	before := ss.Session().Snapshot()
	ss.Next()
	if ss.Session().StepIndex != 2 {
		t.Error("Next must not skip a move step")
	}
	if !reflect.DeepEqual(before, ss.Session().Snapshot()) {
		t.Error("no-op transitions must not touch session assets")
	}
}

func TestStepCarryAndSnap(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	ss.Start()
	ss.HandleActivation("obj_heart")

	if th := ss.SnapThreshold(); !near(th, 1.5) {
		t.Fatalf("desktop snap threshold = %v, want 1.5", th)
	}
	dest, ok := ss.Destination()
	if !ok || !vecNear(dest, mgl32.Vec3{2, 0, 0}) {
		t.Fatalf("destination = %v, %v", dest, ok)
	}

	ss.HandleActivation("obj_anchor")
	if ss.Session().Holding {
		t.Fatal("activating a non-target must not pick it up")
	}
	ss.HandleActivation("obj_move")
	if !ss.Session().Holding || ss.Session().HoldingAssetID != "obj_move" {
		t.Fatal("target should be held")
	}
	ss.HandleRelease()
	if !ss.Session().Holding {
		t.Fatal("release before snapping must keep the object held")
	}

	ss.UpdateHeld(mgl32.Vec3{2, 0, 1.6})
	if ss.Session().Snapped {
		t.Fatal("1.6 away must not snap")
	}
	ss.UpdateHeld(mgl32.Vec3{2, 0, 1.4})
	if !ss.Session().Snapped || ss.Session().Holding {
		t.Fatal("1.4 away should snap and drop")
	}
	moved, _ := ss.Session().Asset("obj_move")
	if !vecNear(moved.Transform.Position, mgl32.Vec3{2, 0, 0}) {
		t.Errorf("snapped position = %v", moved.Transform.Position)
	}
	if ss.CanBack() {
		t.Error("Back must be disabled once snapped")
	}

	rig := newDesktopRig()
	ss.Update(0.5, rig)
	if ss.Session().StepIndex != 2 {
		t.Fatal("advanced before the snap delay elapsed")
	}
	ss.Update(0.3, rig)
	if ss.Session().StepIndex != 3 || ss.Session().Snapped {
		t.Fatalf("should advance after 0.8s, step %d snapped %v", ss.Session().StepIndex, ss.Session().Snapped)
	}

	completed := false
	ss.OnCompleted = func() { completed = true }
	ss.HandleActivation("__next__")
	if ss.State() != StepCompleted || !completed {
		t.Errorf("Next on last step should complete, state %v", ss.State())
	}
	ss.Next()
	ss.HandleActivation("obj_heart")
	if ss.State() != StepCompleted {
		t.Error("completed is terminal")
	}
}

func TestStepUpdateCarriesWithRig(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	ss.Start()
	ss.HandleActivation("obj_heart")
	ss.HandleActivation("obj_move")

	// 镜头前 3 个单位处即为目的地附近
	rig := game.NewPlayerRig(types.InputDesktop, mgl32.Vec3{2, 0.5, 3}, 0)
	ss.Update(0.016, rig)
	if !ss.Session().Snapped {
		t.Fatal("carry point within threshold should snap")
	}
}

func TestStepXRThreshold(t *testing.T) {
	ss := newTestStepSystem(types.InputXR, lessonSteps())
	if th := ss.SnapThreshold(); !near(th, 0.2) {
		t.Fatalf("xr snap threshold = %v, want 0.2", th)
	}
	ss.Start()
	ss.HandleActivation("obj_heart")
	ss.HandleActivation("obj_move")

	ss.UpdateHeld(mgl32.Vec3{2, 0, 0.3})
	if ss.Session().Snapped {
		t.Error("0.3 must not snap at life size")
	}
	ss.UpdateHeld(mgl32.Vec3{2, 0, 0.1})
	if !ss.Session().Snapped {
		t.Error("0.1 should snap at life size")
	}
}

func TestStepBack(t *testing.T) {
	tests := []struct {
		name  string
		mode  types.InputMode
		steps int
		want  bool
	}{
		{"intro", types.InputDesktop, 0, false},
		{"desktop active", types.InputDesktop, 2, true},
		{"touch active", types.InputTouch, 2, true},
		{"xr active", types.InputXR, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := newTestStepSystem(tt.mode, lessonSteps())
			if tt.steps > 0 {
				ss.Start()
				ss.HandleActivation("obj_heart")
			}
			if ss.CanBack() != tt.want {
				t.Fatalf("CanBack = %v, want %v", ss.CanBack(), tt.want)
			}
			before := ss.Session().StepIndex
			ss.Back()
			want := before
			if tt.want {
				want = before - 1
			}
			if ss.Session().StepIndex != want {
				t.Errorf("step after Back = %d, want %d", ss.Session().StepIndex, want)
			}
		})
	}
}

func TestStepBackKeepsMovedAssets(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	ss.Start()
	ss.HandleActivation("obj_heart")
	ss.HandleActivation("obj_move")
	ss.Update(0.016, game.NewPlayerRig(types.InputDesktop, mgl32.Vec3{-10, 0, 10}, 0))

	ss.Back()
	if ss.Session().Holding {
		t.Error("Back drops the held object")
	}
	moved, _ := ss.Session().Asset("obj_move")
	if vecNear(moved.Transform.Position, mgl32.Vec3{-3, 0, -4}) {
		t.Error("Back must not reset asset positions")
	}
}

func TestStepRestartRestoresAssets(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	original := ss.Session().Snapshot()

	ss.Start()
	ss.HandleActivation("obj_heart")
	ss.HandleActivation("obj_move")
	ss.UpdateHeld(mgl32.Vec3{2, 0, 0.5})
	ss.Update(1, newDesktopRig())

	ss.Restart()
	if ss.State() != StepIntro {
		t.Errorf("state after restart = %v", ss.State())
	}
	if !reflect.DeepEqual(original, ss.Session().Snapshot()) {
		t.Error("restart must restore the original assets")
	}
}

func TestStepRestartControl(t *testing.T) {
	steps := []config.Step{
		{ID: "s0", Title: "Intro", TargetAction: types.ActionNone},
		{ID: "s1", Title: "Click the heart", TargetAction: types.ActionClick, TargetAssetID: "obj_heart"},
	}
	tests := []struct {
		name      string
		prepare   func(ss *StepSystem)
		wantState StepState
		wantIndex int
	}{
		{"intro", func(ss *StepSystem) {}, StepIntro, 0},
		{"active", func(ss *StepSystem) { ss.Start() }, StepActive, 1},
		{"completed", func(ss *StepSystem) {
			ss.Start()
			ss.HandleActivation("obj_heart")
		}, StepIntro, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := newTestStepSystem(types.InputXR, steps)
			tt.prepare(ss)
			ss.HandleActivation("__restart__")
			if ss.State() != tt.wantState || ss.Session().StepIndex != tt.wantIndex {
				t.Errorf("after restart control: %v/%d, want %v/%d",
					ss.State(), ss.Session().StepIndex, tt.wantState, tt.wantIndex)
			}
		})
	}
}

func TestStepDanglingReferences(t *testing.T) {
	steps := []config.Step{
		{ID: "s0", TargetAction: types.ActionNone},
		{ID: "s1", TargetAction: types.ActionClick, TargetAssetID: "ghost"},
		{ID: "s2", TargetAction: types.ActionMove, TargetAssetID: "obj_move", SnapAnchorID: "missing"},
	}
	ss := newTestStepSystem(types.InputDesktop, steps)
	ss.Start()

	ss.HandleActivation("ghost")
	ss.Next()
	if ss.Session().StepIndex != 1 {
		t.Fatal("a step with a missing target can never complete")
	}

	// 手动跳到移动步骤：锚点缺失时没有目的地
	ss.Session().StepIndex = 2
	if _, ok := ss.Destination(); ok {
		t.Fatal("missing anchor must yield no destination")
	}
	ss.HandleActivation("obj_move")
	ss.UpdateHeld(mgl32.Vec3{0, 0, 0})
	if ss.Session().Snapped || !ss.Session().Holding {
		t.Error("held object must stay held when there is no destination")
	}
}

func TestStepExit(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	exited := false
	ss.OnExit = func() { exited = true }
	ss.Exit()
	if !exited {
		t.Error("OnExit not called")
	}
}

func TestStepStatus(t *testing.T) {
	ss := newTestStepSystem(types.InputDesktop, lessonSteps())
	ss.Start()
	st := ss.Status()
	if st.Index != 1 || st.Total != 4 || st.Action != types.ActionClick || st.CanNext || !st.CanBack {
		t.Errorf("unexpected status %+v", st)
	}
}
