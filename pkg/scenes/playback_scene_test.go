package scenes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/decker502/lessonplay/internal/model"
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/entities"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/input"
	"github.com/decker502/lessonplay/pkg/systems"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

type idleCapturer struct{}

func (idleCapturer) Capture() input.Frame { return input.Frame{} }

type stubLoader struct {
	mu       sync.Mutex
	released []string
}

func (l *stubLoader) LoadModel(ctx context.Context, ref string) (*model.Model, string, error) {
	return &model.Model{Parts: []model.Part{
		{Name: "body", Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}},
	}}, "key:" + ref, nil
}

func (l *stubLoader) Release(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, key)
	return nil
}

func (l *stubLoader) releasedKeys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.released...)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testProject() *config.Project {
	return &config.Project{
		ProjectName: "heart",
		Assets: []config.Asset{
			{ID: "spawn", Name: "spawn", Kind: types.AssetSpawn, Transform: config.Transform{Scale: mgl32.Vec3{1, 1, 1}}},
			{ID: "obj_heart", Name: "heart", Kind: types.AssetModel, ModelReference: "models/heart.glb",
				Transform: config.Transform{Position: mgl32.Vec3{0, 0, -4}, Scale: mgl32.Vec3{1, 1, 1}}},
		},
		Steps: []config.Step{
			{ID: "intro", Title: "Intro", TargetAction: types.ActionNone},
			{ID: "click", Title: "Click the heart", TargetAction: types.ActionClick, TargetAssetID: "obj_heart"},
		},
	}
}

func newTestPlayback(t *testing.T, loader *stubLoader) (*game.SceneManager, *PlaybackScene, *LoadingScene) {
	t.Helper()
	cfg := config.DefaultEngineConfig()
	cfg.StabilizationDelay = 0

	playback, err := NewPlaybackScene(testProject(), PlaybackDeps{
		Config:   cfg,
		Loader:   loader,
		Capturer: idleCapturer{},
		Mode:     types.InputDesktop,
		Log:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewPlaybackScene: %v", err)
	}
	sm := game.NewSceneManager(quietLogger())
	loading := NewLoadingScene(sm, playback, quietLogger())
	sm.SwitchTo(loading)
	return sm, playback, loading
}

// driveUntilPlayback 推进加载场景直到切换到回放场景
func driveUntilPlayback(t *testing.T, sm *game.SceneManager, playback *PlaybackScene) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for sm.GetCurrentScene() != game.Scene(playback) {
		if time.Now().After(deadline) {
			t.Fatalf("loading never finished, phase = %s", playback.Loading().Phase())
		}
		sm.Update(1.0 / 60)
		time.Sleep(time.Millisecond)
	}
}

func TestLoadingSceneHandsOffWithoutTeardown(t *testing.T) {
	loader := &stubLoader{}
	sm, playback, _ := newTestPlayback(t, loader)

	driveUntilPlayback(t, sm, playback)

	if playback.tornDown {
		t.Fatal("playback must survive the hand-off")
	}
	if got := playback.Loading().Progress(); got.Loaded != 1 || got.Total != 1 {
		t.Errorf("progress = %+v, want 1 / 1", got)
	}
	if playback.Steps().State() != systems.StepIntro {
		t.Errorf("state = %v, want intro", playback.Steps().State())
	}
	if len(loader.releasedKeys()) != 0 {
		t.Errorf("models released before teardown: %v", loader.releasedKeys())
	}
}

func TestShutdownReleasesModels(t *testing.T) {
	loader := &stubLoader{}
	sm, playback, _ := newTestPlayback(t, loader)
	driveUntilPlayback(t, sm, playback)

	sm.Shutdown()
	playback.Teardown()

	released := loader.releasedKeys()
	if len(released) != 1 || released[0] != "key:models/heart.glb" {
		t.Errorf("released = %v", released)
	}
	if playback.Loading().Phase() != systems.LoadTornDown {
		t.Errorf("phase = %s, want TornDown", playback.Loading().Phase())
	}
	if n := playback.entityManager.EntityCount(); n != 0 {
		t.Errorf("%d entities left after teardown", n)
	}
}

func TestTeardownWhileLoading(t *testing.T) {
	loader := &stubLoader{}
	sm, playback, loading := newTestPlayback(t, loader)

	// 加载场景被替换时一并拆除尚未交接的回放场景
	sm.SwitchTo(nil)
	if !playback.tornDown {
		t.Error("playback should be torn down with the loading scene")
	}
	loading.Teardown()
	if playback.Loading().Phase() != systems.LoadTornDown {
		t.Errorf("phase = %s, want TornDown", playback.Loading().Phase())
	}
	if n := playback.entityManager.EntityCount(); n != 0 {
		t.Errorf("%d entities left after teardown", n)
	}
}

func TestExitNotifiesHostOnce(t *testing.T) {
	sm, playback, _ := newTestPlayback(t, &stubLoader{})
	driveUntilPlayback(t, sm, playback)

	calls := 0
	playback.OnExit = func() { calls++ }
	playback.Steps().Exit()
	playback.Steps().Exit()

	if calls != 1 {
		t.Errorf("OnExit called %d times, want 1", calls)
	}
	sm.Shutdown()
}

func TestXRControlsFollowStepState(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.StabilizationDelay = 0
	playback, err := NewPlaybackScene(testProject(), PlaybackDeps{
		Config:   cfg,
		Loader:   &stubLoader{},
		Capturer: idleCapturer{},
		Mode:     types.InputXR,
		Log:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewPlaybackScene: %v", err)
	}
	sm := game.NewSceneManager(quietLogger())
	sm.SwitchTo(NewLoadingScene(sm, playback, quietLogger()))
	driveUntilPlayback(t, sm, playback)
	defer sm.Shutdown()

	visible := func() [3]bool {
		playback.updateControls()
		em := playback.entityManager
		return [3]bool{
			entities.VisibleInHierarchy(em, playback.startControl),
			entities.VisibleInHierarchy(em, playback.nextControl),
			entities.VisibleInHierarchy(em, playback.restartControl),
		}
	}

	if got := visible(); got != [3]bool{true, false, false} {
		t.Errorf("intro controls = %v", got)
	}
	playback.Steps().HandleActivation(components.StartControlID)
	if got := visible(); got != [3]bool{false, false, false} {
		t.Errorf("click step controls = %v", got)
	}
	playback.Steps().HandleActivation("obj_heart")
	if got := visible(); got != [3]bool{false, false, true} {
		t.Errorf("completed controls = %v", got)
	}
	playback.Steps().HandleActivation(components.RestartControlID)
	if playback.Steps().State() != systems.StepIntro {
		t.Errorf("state after restart control = %v", playback.Steps().State())
	}
	if got := visible(); got != [3]bool{true, false, false} {
		t.Errorf("controls after restart = %v", got)
	}
}
