package systems

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/decker502/lessonplay/internal/model"
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
)

// fakeLoader 记录加载顺序，并检查加载是严格顺序进行的
type fakeLoader struct {
	mu       sync.Mutex
	calls    []string
	released []string
	fail     map[string]bool

	// inserted 由 OnProgress 累加，LoadModel 被调用时必须等于已调用次数
	inserted   atomic.Int32
	overlapped atomic.Bool
}

func (l *fakeLoader) LoadModel(ctx context.Context, ref string) (*model.Model, string, error) {
	l.mu.Lock()
	if int32(len(l.calls)) != l.inserted.Load() {
		l.overlapped.Store(true)
	}
	l.calls = append(l.calls, ref)
	l.mu.Unlock()

	if l.fail[ref] {
		return nil, "", errors.New("decode failed")
	}
	return &model.Model{Parts: []model.Part{
		{Name: ref + "_part", Min: mgl32.Vec3{-1, 0, -1}, Max: mgl32.Vec3{1, 2, 1}},
	}}, "key:" + ref, nil
}

func (l *fakeLoader) Release(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, key)
	return nil
}

func modelAsset(id string) config.Asset {
	return config.Asset{
		ID:             id,
		Name:           id,
		Kind:           types.AssetModel,
		ModelReference: id + ".glb",
		Transform:      config.Transform{Scale: mgl32.Vec3{1, 1, 1}},
	}
}

func newTestLoading(loader *fakeLoader, ids ...string) (*ModelLoadingSystem, *ecs.EntityManager) {
	var assets []config.Asset
	for _, id := range ids {
		assets = append(assets, modelAsset(id))
	}
	session := newTestSession(assets)
	em, sync := newTestScene(session)
	cfg := config.DefaultEngineConfig()
	cfg.StabilizationDelay = 0.3
	ls := NewModelLoadingSystem(em, loader, sync, cfg, assets, testLogger())
	ls.OnProgress = func(LoadProgress) { loader.inserted.Add(1) }
	return ls, em
}

// runUntil 以固定帧间隔驱动 Update，直到条件满足或超时
func runUntil(t *testing.T, ls *ModelLoadingSystem, dt float64, cond func() bool) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	frames := 0
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out in phase %v with progress %+v", ls.Phase(), ls.Progress())
		}
		ls.Update(dt)
		frames++
		time.Sleep(time.Millisecond)
	}
	return frames
}

func TestModelLoadingSequential(t *testing.T) {
	loader := &fakeLoader{}
	ls, em := newTestLoading(loader, "a", "b", "c")

	var seen []LoadProgress
	inner := ls.OnProgress
	ls.OnProgress = func(p LoadProgress) {
		inner(p)
		seen = append(seen, p)
	}
	prewarmed := 0
	ls.Prewarm = func() {
		prewarmed++
		if got := len(ecs.GetEntitiesWith1[*components.ModelComponent](em)); got != 3 {
			t.Errorf("prewarm ran with %d models inserted", got)
		}
	}

	ls.Start(context.Background())
	runUntil(t, ls, 0.1, ls.Ready)

	if loader.overlapped.Load() {
		t.Error("a model was fetched before the previous one was inserted")
	}
	if want := []string{"a.glb", "b.glb", "c.glb"}; len(loader.calls) != 3 || loader.calls[0] != want[0] || loader.calls[2] != want[2] {
		t.Errorf("load order = %v, want %v", loader.calls, want)
	}
	for i, p := range seen {
		if p.Done() != i+1 || p.Total != 3 {
			t.Errorf("progress %d = %+v", i, p)
		}
	}
	if prewarmed != 1 {
		t.Errorf("prewarm ran %d times", prewarmed)
	}
}

func TestModelLoadingStabilizationDelay(t *testing.T) {
	loader := &fakeLoader{}
	ls, _ := newTestLoading(loader, "a")
	ls.Start(context.Background())

	runUntil(t, ls, 0.1, func() bool { return ls.Phase() == LoadStabilizing })
	ls.Update(0.1)
	if ls.Ready() {
		t.Fatal("ready before the stabilization delay")
	}
	ls.Update(0.1)
	ls.Update(0.1)
	if !ls.Ready() {
		t.Errorf("not ready after stabilization, phase %v", ls.Phase())
	}
}

func TestModelLoadingSkipsFailures(t *testing.T) {
	loader := &fakeLoader{fail: map[string]bool{"b.glb": true}}
	ls, em := newTestLoading(loader, "a", "b", "c")
	ls.Start(context.Background())
	runUntil(t, ls, 0.1, ls.Ready)

	p := ls.Progress()
	if p.Loaded != 2 || p.Failed != 1 || p.Fraction() != 1 {
		t.Errorf("progress = %+v", p)
	}
	if got := len(ecs.GetEntitiesWith1[*components.ModelComponent](em)); got != 2 {
		t.Errorf("inserted models = %d, want 2", got)
	}
	if len(loader.calls) != 3 {
		t.Errorf("failed model must not be retried: %v", loader.calls)
	}
	if f := ls.Failures(); len(f) != 1 || f[0].AssetID != "b" || f[0].Ref != "b.glb" {
		t.Errorf("failures = %+v", f)
	}
}

func TestModelLoadingNoModels(t *testing.T) {
	ls, _ := newTestLoading(&fakeLoader{})
	ls.Start(context.Background())
	runUntil(t, ls, 0.5, ls.Ready)
	if ls.Progress().Fraction() != 1 {
		t.Errorf("empty project progress = %v", ls.Progress().Fraction())
	}
}

func TestModelLoadingTeardownReleases(t *testing.T) {
	loader := &fakeLoader{}
	ls, em := newTestLoading(loader, "a", "b")
	ls.Start(context.Background())
	runUntil(t, ls, 0.1, ls.Ready)

	var meshes []*components.MeshComponent
	for _, id := range ecs.GetEntitiesWith1[*components.MeshComponent](em) {
		mesh, _ := ecs.GetComponent[*components.MeshComponent](em, id)
		meshes = append(meshes, mesh)
	}

	ls.Teardown()
	ls.Teardown()
	if len(loader.released) != 2 {
		t.Errorf("released = %v, want both models", loader.released)
	}
	if got := len(ecs.GetEntitiesWith1[*components.ModelComponent](em)); got != 0 {
		t.Errorf("%d models still attached after teardown", got)
	}
	released := 0
	for _, m := range meshes {
		if m.Released {
			released++
		}
	}
	if released != 2 {
		t.Errorf("released meshes = %d, want 2", released)
	}
}

func TestModelLoadingTeardownMidFlight(t *testing.T) {
	loader := &fakeLoader{}
	ls, em := newTestLoading(loader, "a", "b", "c")
	ls.Start(context.Background())
	ls.Teardown()

	for i := 0; i < 10; i++ {
		ls.Update(0.1)
	}
	if ls.Phase() != LoadTornDown {
		t.Errorf("phase = %v after teardown", ls.Phase())
	}
	if got := len(ecs.GetEntitiesWith1[*components.ModelComponent](em)); got != 0 {
		t.Errorf("scene mutated after teardown: %d models", got)
	}
	loader.mu.Lock()
	defer loader.mu.Unlock()
	if len(loader.calls) != len(loader.released) {
		t.Errorf("loaded %d models but released %d", len(loader.calls), len(loader.released))
	}
}
