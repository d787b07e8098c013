package systems

import (
	"testing"

	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
)

func TestSceneSyncFollowsSessionAssets(t *testing.T) {
	session := newTestSession(lessonAssets())
	em, sync := newTestScene(session)

	session.SetPosition("obj_move", mgl32.Vec3{7, 1, 2})
	sync.Update()

	id, ok := sync.Container("obj_move")
	if !ok {
		t.Fatal("missing container for obj_move")
	}
	tc, _ := ecs.GetComponent[*components.TransformComponent](em, id)
	if !vecNear(tc.Position, mgl32.Vec3{7, 1, 2}) {
		t.Errorf("container position = %v", tc.Position)
	}
	if len(sync.Containers()) != 4 {
		t.Errorf("containers = %d, want 4", len(sync.Containers()))
	}
}

func TestSceneSyncObstacles(t *testing.T) {
	solid, shown := false, false
	ghost := boxAsset("ghost", mgl32.Vec3{0, 0, 3})
	ghost.IsCollidable = &solid
	// 隐藏的资源不渲染也不阻挡，玩家可以穿过
	hidden := boxAsset("hidden", mgl32.Vec3{3, 0, 0})
	hidden.Visible = &shown
	spawn := config.Asset{ID: "spawn", Kind: types.AssetSpawn, Transform: config.Transform{Scale: mgl32.Vec3{1, 1, 1}}}

	session := newTestSession([]config.Asset{boxAsset("wall", mgl32.Vec3{0, 0, -3}), ghost, hidden, spawn})
	_, sync := newTestScene(session)

	tests := []struct {
		name    string
		exclude string
		want    int
	}{
		{"all collidable", "", 1},
		{"carried excluded", "wall", 0},
	}
	for _, tt := range tests {
		if got := len(sync.Obstacles(tt.exclude)); got != tt.want {
			t.Errorf("%s: obstacles = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSpawnPose(t *testing.T) {
	p := &config.Project{Assets: []config.Asset{{
		ID:        "spawn",
		Kind:      types.AssetSpawn,
		Transform: config.Transform{Position: mgl32.Vec3{1, 0, 2}, Rotation: mgl32.Vec3{0, 0.5, 0}},
	}}}
	pos, yaw := SpawnPose(p)
	if !vecNear(pos, mgl32.Vec3{1, 0, 2}) || !near(yaw, 0.5) {
		t.Errorf("spawn pose = %v, %v", pos, yaw)
	}

	pos, yaw = SpawnPose(&config.Project{})
	if !vecNear(pos, mgl32.Vec3{0, 0, 5}) || yaw != 0 {
		t.Errorf("default spawn pose = %v, %v", pos, yaw)
	}
}

func TestSceneSyncDestroyRemovesGraph(t *testing.T) {
	session := newTestSession(lessonAssets())
	em, sync := newTestScene(session)
	if em.EntityCount() == 0 {
		t.Fatal("scene graph is empty")
	}

	sync.Destroy()
	if n := em.EntityCount(); n != 0 {
		t.Errorf("%d entities left after destroy", n)
	}
	if len(sync.Containers()) != 0 {
		t.Errorf("containers = %d, want 0", len(sync.Containers()))
	}
	if got := sync.Obstacles(""); len(got) != 0 {
		t.Errorf("obstacles after destroy = %d", len(got))
	}
}
