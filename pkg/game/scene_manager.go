package game

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// SceneFactory 场景工厂函数类型
// 按项目路径创建回放场景，避免 game 包依赖 scenes 包
type SceneFactory func(projectPath string) (Scene, error)

// SceneManager controls which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
	sceneFactory SceneFactory
	log          logrus.FieldLogger
}

// NewSceneManager creates a SceneManager with no active scene.
func NewSceneManager(log logrus.FieldLogger) *SceneManager {
	return &SceneManager{
		log: log.WithField("system", "SceneManager"),
	}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene, tearing down the previous one.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if sm.currentScene != nil && sm.currentScene != scene {
		if t, ok := sm.currentScene.(Teardowner); ok {
			t.Teardown()
		}
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景，没有则返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// LoadProject 通过工厂创建并切换到指定项目的回放场景
func (sm *SceneManager) LoadProject(projectPath string) error {
	sm.log.Infof("[SceneManager] 加载项目: %s", projectPath)

	if sm.sceneFactory == nil {
		sm.log.Error("[SceneManager] 错误: SceneFactory 未设置")
		return ErrNoSceneFactory
	}

	newScene, err := sm.sceneFactory(projectPath)
	if err != nil {
		sm.log.WithError(err).Errorf("[SceneManager] 无法创建场景: %s", projectPath)
		return err
	}
	sm.SwitchTo(newScene)
	return nil
}

// Shutdown 拆除当前场景（窗口关闭时调用）
func (sm *SceneManager) Shutdown() {
	if t, ok := sm.currentScene.(Teardowner); ok {
		t.Teardown()
	}
	sm.currentScene = nil
}

// Update updates the currently active scene.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene to the provided screen.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
