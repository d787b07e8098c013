package scenes

import (
	"fmt"
	"image/color"

	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"
)

// Progress bar layout, relative to the screen size.
const (
	loadingBarWidthRatio = 0.5
	loadingBarHeight     = 18
	// loadingBarSmoothing is how fast the displayed fill catches up (per second).
	loadingBarSmoothing = 6.0
)

var (
	loadingBarBackground = color.RGBA{R: 0x3a, G: 0x3f, B: 0x4b, A: 0xff}
	loadingBarFill       = color.RGBA{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff}
)

// LoadingScene is shown while a lesson's models load.
// It drives the playback scene's loading pipeline, renders "current / total"
// progress and hands over to the playback scene once the pipeline is ready.
type LoadingScene struct {
	sceneManager *game.SceneManager
	playback     *PlaybackScene
	log          logrus.FieldLogger

	displayed   float64 // smoothed fill fraction
	elapsedTime float64
	handedOff   bool
}

// NewLoadingScene creates a loading scene for an already constructed playback scene.
func NewLoadingScene(sm *game.SceneManager, playback *PlaybackScene, log logrus.FieldLogger) *LoadingScene {
	return &LoadingScene{
		sceneManager: sm,
		playback:     playback,
		log:          log.WithField("system", "LoadingScene"),
	}
}

// Update implements game.Scene.
func (s *LoadingScene) Update(deltaTime float64) {
	if s.handedOff {
		return
	}
	s.elapsedTime += deltaTime
	s.playback.UpdateLoading(deltaTime)

	target := s.playback.Loading().Progress().Fraction()
	s.displayed += (target - s.displayed) * min(1, deltaTime*loadingBarSmoothing)

	if s.playback.Loading().Ready() {
		s.handedOff = true
		s.log.Infof("[LoadingScene] ready after %.1fs, switching to playback", s.elapsedTime)
		s.sceneManager.SwitchTo(s.playback)
	}
}

// Draw implements game.Scene.
func (s *LoadingScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	b := screen.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	barW := w * loadingBarWidthRatio
	x, y := (w-barW)/2, h/2

	vector.DrawFilledRect(screen, x, y, barW, loadingBarHeight, loadingBarBackground, false)
	vector.DrawFilledRect(screen, x, y, barW*float32(s.displayed), loadingBarHeight, loadingBarFill, false)

	loading := s.playback.Loading()
	p := loading.Progress()
	label := fmt.Sprintf("%s\nLoading models %d / %d", s.playback.Project().ProjectName, p.Done(), p.Total)
	if p.Failed > 0 {
		label += fmt.Sprintf(" (%d failed)", p.Failed)
	}
	if loading.Phase() == systems.LoadStabilizing || loading.Phase() == systems.LoadPrewarm {
		label += "\nPreparing scene..."
	}
	ebitenutil.DebugPrintAt(screen, label, int(x), int(y)-48)
}

// Teardown tears down the playback scene unless it has already been handed over.
func (s *LoadingScene) Teardown() {
	if s.handedOff {
		return
	}
	s.playback.Teardown()
}
