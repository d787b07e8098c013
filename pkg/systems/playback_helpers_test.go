package systems

import (
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func near(a, b float32) bool {
	d := a - b
	return d < 1e-3 && d > -1e-3
}

func vecNear(a, b mgl32.Vec3) bool {
	return a.Sub(b).Len() < 1e-3
}

func boxAsset(id string, pos mgl32.Vec3) config.Asset {
	return config.Asset{
		ID:           id,
		Name:         id,
		Kind:         types.AssetPrimitive,
		GeometryKind: types.GeometryBox,
		Transform:    config.Transform{Position: pos, Scale: mgl32.Vec3{1, 1, 1}},
	}
}

// lessonAssets 四个对象：点击目标、干扰对象、搬运对象和锚点
func lessonAssets() []config.Asset {
	return []config.Asset{
		boxAsset("obj_heart", mgl32.Vec3{0, 0, -4}),
		boxAsset("obj_other", mgl32.Vec3{3, 0, -4}),
		boxAsset("obj_move", mgl32.Vec3{-3, 0, -4}),
		boxAsset("obj_anchor", mgl32.Vec3{2, 0, 0}),
	}
}

func lessonSteps() []config.Step {
	return []config.Step{
		{ID: "s0", Title: "Intro", TargetAction: types.ActionNone},
		{ID: "s1", Title: "Click the heart", TargetAction: types.ActionClick, TargetAssetID: "obj_heart"},
		{ID: "s2", Title: "Carry the part", TargetAction: types.ActionMove, TargetAssetID: "obj_move", SnapAnchorID: "obj_anchor"},
		{ID: "s3", Title: "Done", TargetAction: types.ActionNone},
	}
}

func newTestSession(assets []config.Asset) *game.LessonSession {
	s, err := game.NewLessonSession(assets)
	if err != nil {
		panic(err)
	}
	return s
}

// newTestScene 为会话资源构建场景图
func newTestScene(session *game.LessonSession) (*ecs.EntityManager, *SceneSyncSystem) {
	em := ecs.NewEntityManager()
	sync := NewSceneSyncSystem(em, session, testLogger())
	sync.Build()
	sync.Update()
	return em, sync
}
