package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/decker502/lessonplay/pkg/app"
	"github.com/decker502/lessonplay/pkg/embedded"
	"github.com/decker502/lessonplay/pkg/input"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

func main() {
	projectPath := flag.StringP("project", "p", app.DefaultProject, "项目文件路径（磁盘或内置 lessons/...）")
	configPath := flag.StringP("config", "c", "", "引擎参数 YAML 文件")
	verbose := flag.BoolP("verbose", "v", false, "输出调试日志")
	xr := flag.Bool("vr", false, "以 VR 输入模式启动（需要宿主提供 XR 会话）")
	fromStore := flag.Bool("store", false, "加载本地存储中最近一次打开的项目")
	list := flag.Bool("list", false, "列出内置课程后退出")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	// 必须在任何课程加载之前初始化
	embedded.Init(lessonsFS)

	if *list {
		for _, l := range app.BuiltinLessons() {
			fmt.Println(l)
		}
		return
	}

	var feed *input.XRFeed
	if *xr {
		feed = input.NewXRFeed()
	}

	lessonApp, err := app.NewApp(app.Config{
		ProjectPath:      *projectPath,
		EngineConfigPath: *configPath,
		XR:               *xr,
		FromStore:        *fromStore,
		XRFeed:           feed,
		Logger:           logger,
	})
	if err != nil {
		logger.WithError(err).Error("[Main] 初始化失败")
		os.Exit(1)
	}
	defer lessonApp.Shutdown()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("Lesson Player")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(lessonApp); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.WithError(err).Error("[Main] 回放异常退出")
		lessonApp.Shutdown()
		os.Exit(1)
	}
}
