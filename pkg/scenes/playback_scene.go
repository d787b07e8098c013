package scenes

import (
	"context"
	"fmt"
	"image/color"

	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/entities"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/input"
	"github.com/decker502/lessonplay/pkg/systems"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"
)

// 世界空间控件相对 Rig 的摆放（米）
const (
	controlDistance = 1.0
	controlHeight   = 1.2
	controlSpacing  = 0.4
)

var (
	backgroundColor = color.RGBA{R: 0x1b, G: 0x1f, B: 0x2a, A: 0xff}
	joystickColor   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x60}
)

// PlaybackDeps holds what a playback scene needs from the host.
type PlaybackDeps struct {
	Config   *config.EngineConfig
	Loader   systems.ModelLoader
	Capturer input.Capturer
	Settings *game.SettingsManager
	Mode     types.InputMode
	Log      logrus.FieldLogger
}

// PlaybackScene runs one lesson: it owns the scene graph, the player rig, the
// session and every playback system.
//
// Frame order: input -> locomotion -> steps (carry/snap) -> scene sync -> render.
type PlaybackScene struct {
	project *config.Project
	cfg     *config.EngineConfig
	log     logrus.FieldLogger

	entityManager *ecs.EntityManager
	rig           *game.PlayerRig
	session       *game.LessonSession
	mux           *input.Mux

	sceneSync  *systems.SceneSyncSystem
	loading    *systems.ModelLoadingSystem
	raycast    *systems.RaycastSystem
	steps      *systems.StepSystem
	locomotion *systems.LocomotionSystem
	input      *systems.InputSystem
	render     *systems.RenderSystem

	startControl   ecs.EntityID
	nextControl    ecs.EntityID
	restartControl ecs.EntityID

	cancel     context.CancelFunc
	tornDown   bool
	exitCalled bool

	// OnExit is called once when the learner leaves playback.
	OnExit func()
}

// NewPlaybackScene builds every system for the project and starts the model
// loading pipeline in the background.
func NewPlaybackScene(project *config.Project, deps PlaybackDeps) (*PlaybackScene, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	log := deps.Log.WithField("system", "PlaybackScene")

	session, err := game.NewLessonSession(project.Assets)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson session: %w", err)
	}

	em := ecs.NewEntityManager()
	spawn, yaw := systems.SpawnPose(project)
	rig := game.NewPlayerRig(deps.Mode, spawn, yaw)

	s := &PlaybackScene{
		project:       project,
		cfg:           deps.Config,
		log:           log,
		entityManager: em,
		rig:           rig,
		session:       session,
		mux:           input.NewMux(deps.Mode, deps.Config),
	}

	s.sceneSync = systems.NewSceneSyncSystem(em, session, deps.Log)
	s.sceneSync.Build()
	s.sceneSync.Update()

	s.render = systems.NewRenderSystem(em)
	s.raycast = systems.NewRaycastSystem(em, deps.Config.RayLength)
	s.steps = systems.NewStepSystem(deps.Config, project.Steps, session, deps.Mode, deps.Log)
	s.locomotion = systems.NewLocomotionSystem(deps.Config, rig, s.sceneSync)
	if deps.Settings != nil {
		settings := deps.Settings.GetSettings()
		s.locomotion.LookScale = settings.LookScale
		s.locomotion.InvertY = settings.InvertY
	}

	s.loading = systems.NewModelLoadingSystem(em, deps.Loader, s.sceneSync, deps.Config, project.ModelAssets(), deps.Log)
	s.loading.Prewarm = s.render.Prewarm

	s.input = systems.NewInputSystem(deps.Capturer, s.mux, rig, s.raycast, s.steps, deps.Log)
	s.input.Ready = s.loading.Ready

	if deps.Mode == types.InputXR {
		s.startControl = entities.NewWorldControl(em, components.StartControlID, "Start", mgl32.Vec3{})
		s.nextControl = entities.NewWorldControl(em, components.NextControlID, "Next", mgl32.Vec3{})
		s.restartControl = entities.NewWorldControl(em, components.RestartControlID, "Restart", mgl32.Vec3{})
	}

	s.steps.OnExit = s.handleExit
	s.steps.OnStepChanged = func(index int) {
		s.log.Debugf("[PlaybackScene] step %d / %d", index, len(project.Steps)-1)
	}
	s.steps.OnCompleted = func() {
		s.log.Infof("[PlaybackScene] lesson %q completed", project.ProjectName)
	}

	for _, d := range project.DanglingReferences() {
		s.log.Warnf("[PlaybackScene] step can never complete: %s", d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loading.Start(ctx)

	log.Infof("[PlaybackScene] playback of %q started in %s mode (%d assets, %d steps)",
		project.ProjectName, deps.Mode, len(project.Assets), len(project.Steps))
	return s, nil
}

// Loading returns the model loading pipeline.
func (s *PlaybackScene) Loading() *systems.ModelLoadingSystem {
	return s.loading
}

// Steps returns the step state machine.
func (s *PlaybackScene) Steps() *systems.StepSystem {
	return s.steps
}

// Rig returns the player rig.
func (s *PlaybackScene) Rig() *game.PlayerRig {
	return s.rig
}

// Project returns the lesson being played.
func (s *PlaybackScene) Project() *config.Project {
	return s.project
}

// UpdateLoading advances only the loading pipeline; the loading scene calls it
// until the pipeline is ready.
func (s *PlaybackScene) UpdateLoading(deltaTime float64) {
	if s.tornDown {
		return
	}
	s.loading.Update(deltaTime)
}

// Update implements game.Scene.
func (s *PlaybackScene) Update(deltaTime float64) {
	if s.tornDown {
		return
	}
	s.loading.Update(deltaTime)
	s.handleShortcuts()

	dt := float32(deltaTime)
	sig := s.input.Update(dt)
	s.locomotion.Update(dt, sig, s.session.HoldingAssetID)
	s.steps.Update(deltaTime, s.rig)
	s.sceneSync.Update()
	s.updateControls()
	s.render.HeldAssetID = s.session.HoldingAssetID
}

// handleShortcuts maps keyboard shortcuts onto step transitions.
func (s *PlaybackScene) handleShortcuts() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		if s.steps.State() == systems.StepIntro {
			s.steps.Start()
		} else {
			s.steps.Next()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		s.steps.Back()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		s.steps.Restart()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		s.steps.Exit()
	}
}

// updateControls keeps the VR start/next/restart buttons floating in front of the rig
// and shows only the one that applies to the current step.
func (s *PlaybackScene) updateControls() {
	if s.startControl == ecs.InvalidEntity {
		return
	}
	status := s.steps.Status()
	ready := s.loading.Ready()

	forward := s.rig.FlatForward()
	right := s.rig.Right()
	base := s.rig.Position.Add(forward.Mul(controlDistance))
	base[1] = s.rig.Position.Y() + controlHeight

	place := func(id ecs.EntityID, offset float32, visible bool) {
		if tc, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			tc.Position = base.Add(right.Mul(offset))
			tc.Rotation = mgl32.QuatRotate(s.rig.Yaw, game.WorldUp)
		}
		entities.SetVisible(s.entityManager, id, visible)
	}
	place(s.startControl, -controlSpacing/2, ready && status.State == systems.StepIntro)
	place(s.nextControl, controlSpacing/2, ready && status.CanNext)
	place(s.restartControl, 0, ready && status.State == systems.StepCompleted)
}

func (s *PlaybackScene) handleExit() {
	if s.exitCalled {
		return
	}
	s.exitCalled = true
	s.log.Info("[PlaybackScene] learner left playback")
	if s.OnExit != nil {
		s.OnExit()
	}
}

// Draw implements game.Scene.
func (s *PlaybackScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	s.render.Draw(screen, systems.CameraFromRig(s.rig))

	switch s.mux.Mode() {
	case types.InputDesktop:
		systems.DrawCrosshair(screen)
	case types.InputTouch:
		systems.DrawCrosshair(screen)
		s.drawJoysticks(screen)
	}
	s.drawHUD(screen)
}

func (s *PlaybackScene) drawJoysticks(screen *ebiten.Image) {
	move, look := s.mux.Touch.Joysticks()
	for _, j := range []input.Joystick{move, look} {
		cx, cy, r := float32(j.CenterX), float32(j.CenterY), float32(j.Radius)
		vector.StrokeCircle(screen, cx, cy, r, 2, joystickColor, true)
		kx := cx + j.Value.X()*r
		ky := cy + j.Value.Y()*r
		vector.DrawFilledCircle(screen, kx, ky, r*0.35, joystickColor, true)
	}
}

func (s *PlaybackScene) drawHUD(screen *ebiten.Image) {
	st := s.steps.Status()
	var line string
	switch st.State {
	case systems.StepIntro:
		line = fmt.Sprintf("%s\n%s\n\n[Enter] start", st.Title, st.Instruction)
	case systems.StepCompleted:
		line = "Lesson complete!\n\n[R] restart  [Esc] exit"
	default:
		line = fmt.Sprintf("Step %d / %d: %s\n%s", st.Index, st.Total-1, st.Title, st.Instruction)
		if st.CanNext {
			line += "\n[Enter] next"
		}
		if st.CanBack {
			line += "  [Backspace] back"
		}
		if st.Holding {
			line += "\nCarrying... bring it to the highlighted spot"
		}
	}
	if !s.loading.Ready() {
		p := s.loading.Progress()
		line += fmt.Sprintf("\nLoading models %d / %d", p.Done(), p.Total)
	}
	ebitenutil.DebugPrintAt(screen, line, 12, 12)
}

// Teardown cancels the loading pipeline, releases every loaded model and then
// removes the scene graph. Safe to call more than once.
func (s *PlaybackScene) Teardown() {
	if s.tornDown {
		return
	}
	s.tornDown = true
	if s.cancel != nil {
		s.cancel()
	}
	s.loading.Teardown()
	for _, id := range []ecs.EntityID{s.startControl, s.nextControl, s.restartControl} {
		if id != ecs.InvalidEntity {
			entities.DestroySubtree(s.entityManager, id)
		}
	}
	s.sceneSync.Destroy()
	s.mux.Reset()
	s.rig.HasController = false
	s.log.Info("[PlaybackScene] torn down")
}
