// Package app 提供回放应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/embedded"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/decker502/lessonplay/pkg/input"
	"github.com/decker502/lessonplay/pkg/scenes"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/decker502/lessonplay/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
)

// AppName gdata 使用的应用名（决定本地存储目录）
const AppName = "lessonplay"

// DefaultProject 没有指定项目时加载的内置课程
const DefaultProject = "lessons/heart_anatomy.yaml"

// Config 定义应用启动配置
type Config struct {
	// ProjectPath 要回放的项目文件（磁盘路径或内置 "lessons/..." 路径）
	ProjectPath string
	// EngineConfigPath 引擎参数 YAML，为空使用默认值
	EngineConfigPath string
	// XR 宿主已经建立 VR 会话
	XR bool
	// FromStore 从本地存储加载最近一次保存的项目
	FromStore bool
	// XRFeed VR 手柄/头显状态，桌面端为 nil
	XRFeed *input.XRFeed
	// Logger 为 nil 时使用 logrus 标准 logger
	Logger *logrus.Logger
}

// App 是回放应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	capturer     *input.EbitenCapturer
	settings     *game.SettingsManager
	store        *game.ProjectStore
	resources    *game.ResourceManager
	engineConfig *config.EngineConfig
	log          logrus.FieldLogger

	mode          types.InputMode
	exitRequested bool
}

// NewApp 创建并初始化回放应用
//
// 调用此函数前，应先调用 embedded.Init() 初始化内置课程。
func NewApp(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("system", "App")

	engineConfig, err := config.LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("引擎参数加载失败: %w", err)
	}

	// 本地存储不可用时降级为内存模式
	var gdataManager *gdata.Manager
	if err := utils.EnsureStorageDir(); err != nil {
		log.Warnf("[App] 存储目录不可用: %v", err)
	}
	if m, err := gdata.Open(gdata.Config{AppName: AppName}); err != nil {
		log.Warnf("[App] gdata 初始化失败，设置和项目不会被保存: %v", err)
	} else {
		gdataManager = m
	}

	a := &App{
		sceneManager: game.NewSceneManager(logger),
		capturer:     input.NewEbitenCapturer(cfg.XRFeed),
		settings:     game.NewSettingsManager(gdataManager, logger),
		store:        game.NewProjectStore(gdataManager, logger),
		resources:    game.NewResourceManager(game.NewReferenceFetcher(embedded.FS()), logger),
		engineConfig: engineConfig,
		log:          log,
	}

	a.mode = utils.DefaultInputMode(cfg.XR)
	if preferred, ok := a.settings.GetSettings().Mode(); ok && !cfg.XR {
		a.mode = preferred
	}
	if a.settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	a.sceneManager.SetSceneFactory(func(projectPath string) (game.Scene, error) {
		project, err := loadProject(projectPath)
		if err != nil {
			return nil, err
		}
		return a.newLessonScene(project)
	})

	if cfg.FromStore {
		project, err := a.store.Last()
		if err != nil {
			return nil, fmt.Errorf("无法从本地存储加载项目: %w", err)
		}
		scene, err := a.newLessonScene(project)
		if err != nil {
			return nil, err
		}
		a.sceneManager.SwitchTo(scene)
		return a, nil
	}

	projectPath := cfg.ProjectPath
	if projectPath == "" {
		projectPath = DefaultProject
	}
	if err := a.sceneManager.LoadProject(projectPath); err != nil {
		return nil, fmt.Errorf("项目加载失败: %w", err)
	}
	return a, nil
}

// loadProject 先查找磁盘文件，不存在时查找内置课程
func loadProject(path string) (*config.Project, error) {
	if _, err := os.Stat(path); err == nil {
		return config.LoadProject(path)
	}
	if !embedded.Exists(path) {
		return nil, fmt.Errorf("%w: %s", game.ErrProjectNotFound, path)
	}
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.ParseProjectYAML(data)
	default:
		return config.ParseProjectJSON(data)
	}
}

// newLessonScene 创建回放场景并包上加载场景
// 打开的项目同时写入本地存储，供下次 --store 启动
func (a *App) newLessonScene(project *config.Project) (game.Scene, error) {
	playback, err := scenes.NewPlaybackScene(project, scenes.PlaybackDeps{
		Config:   a.engineConfig,
		Loader:   a.resources,
		Capturer: a.capturer,
		Settings: a.settings,
		Mode:     a.mode,
		Log:      a.log,
	})
	if err != nil {
		return nil, err
	}
	playback.OnExit = func() { a.exitRequested = true }

	if err := a.store.Save(project); err != nil && !errors.Is(err, game.ErrStoreUnavailable) {
		a.log.Warnf("[App] 项目未能保存到本地存储: %v", err)
	}
	a.settings.SetLastProject(project.ProjectName)
	if err := a.settings.Save(); err != nil {
		a.log.Debugf("[App] 设置未保存: %v", err)
	}

	return scenes.NewLoadingScene(a.sceneManager, playback, a.log), nil
}

// Update 更新回放逻辑
// 每个 tick 调用一次
func (a *App) Update() error {
	if a.exitRequested {
		return ebiten.Termination
	}

	// F11 切换全屏，并记住偏好
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		fullscreen := !ebiten.IsFullscreen()
		ebiten.SetFullscreen(fullscreen)
		a.settings.GetSettings().Fullscreen = fullscreen
		if err := a.settings.Save(); err != nil {
			a.log.Debugf("[App] 设置未保存: %v", err)
		}
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制回放画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 全屏时用黑色填充 letterbox 区域
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 使用窗口的实际尺寸作为逻辑尺寸，并同步给输入采集（光标射线和触摸摇杆布局依赖它）
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.capturer.SetScreenSize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Shutdown 拆除当前场景并保存设置（窗口关闭时调用）
func (a *App) Shutdown() {
	a.sceneManager.Shutdown()
	if err := a.settings.Save(); err != nil {
		a.log.Debugf("[App] 设置未保存: %v", err)
	}
	a.log.Infof("[App] 已关闭，缓存中剩余 %d 个模型", a.resources.CachedCount())
}

// Mode 返回当前输入模式
func (a *App) Mode() types.InputMode {
	return a.mode
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// BuiltinLessons 列出内置课程，供命令行 --list 使用
func BuiltinLessons() []string {
	lessons, err := embedded.Lessons()
	if err != nil {
		return nil
	}
	return lessons
}
