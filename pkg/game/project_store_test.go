package game

import (
	"errors"
	"testing"
	"time"

	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/types"
)

func storeProject(name string) *config.Project {
	return &config.Project{
		ProjectName: name,
		Assets: []config.Asset{
			{ID: "obj_heart", Name: "Heart", Kind: types.AssetModel, ModelReference: "models/heart.glb"},
		},
		Steps: []config.Step{
			{ID: "intro", Title: "Welcome"},
			{ID: "s1", Title: "Click the heart", TargetAction: types.ActionClick, TargetAssetID: "obj_heart"},
		},
	}
}

func TestProjectStoreDegraded(t *testing.T) {
	ps := NewProjectStore(nil, testLogger())
	if ps.Available() {
		t.Error("nil manager should not be available")
	}
	if err := ps.Save(storeProject("a")); err != nil {
		t.Errorf("Save in degraded mode: %v", err)
	}
	if _, err := ps.Load("a"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Load in degraded mode: got %v", err)
	}
	entries, err := ps.List()
	if err != nil || len(entries) != 0 {
		t.Errorf("List in degraded mode = %v, %v", entries, err)
	}
}

func TestProjectStoreSaveLoadList(t *testing.T) {
	m := openTestGdata(t, "lessonplay_store_test")
	ps := NewProjectStore(m, testLogger())

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ps.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	if err := ps.Save(storeProject("Heart / Anatomy")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := ps.Save(storeProject("CPR")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := ps.Save(storeProject("Heart / Anatomy")); err != nil {
		t.Fatalf("re-Save: %v", err)
	}

	entries, err := ps.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after overwrite, got %d", len(entries))
	}
	if entries[0].Name != "Heart / Anatomy" {
		t.Errorf("newest entry = %q, want re-saved project first", entries[0].Name)
	}

	p, err := ps.Load("Heart / Anatomy")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Steps) != 2 || p.Steps[1].TargetAssetID != "obj_heart" {
		t.Errorf("loaded project lost steps: %+v", p.Steps)
	}

	last, err := ps.Last()
	if err != nil || last.ProjectName != "Heart / Anatomy" {
		t.Errorf("Last = %v, %v", last, err)
	}

	if _, err := ps.Load("unknown"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Load unknown: got %v", err)
	}

	if err := ps.Delete("CPR"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	entries, _ = ps.List()
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after delete, got %d", len(entries))
	}
}
