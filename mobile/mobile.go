//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
// 宿主的 WebXR/OpenXR 层通过导出函数推送手柄和头显状态。
//
//	ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.decker.lessonplay -o build/android/lessonplay.aar -v ./mobile
package mobile

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2/mobile"
	"github.com/sirupsen/logrus"

	"github.com/decker502/lessonplay/pkg/app"
	"github.com/decker502/lessonplay/pkg/embedded"
	"github.com/decker502/lessonplay/pkg/input"
)

var feed = input.NewXRFeed()

func init() {
	embedded.Init(lessonsFS)

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	lessonApp, err := app.NewApp(app.Config{
		ProjectPath: app.DefaultProject,
		XRFeed:      feed,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("[Mobile] 初始化失败")
	}

	mobile.SetGame(lessonApp)
}

// PushController 推送一个手柄的摇杆和指向射线（Rig 空间）
// hand: 0 左手, 1 右手
func PushController(hand int, stickX, stickY, ox, oy, oz, dx, dy, dz float64) {
	feed.Push(input.Hand(hand),
		mgl32.Vec2{float32(stickX), float32(stickY)},
		input.Ray{
			Origin:    mgl32.Vec3{float32(ox), float32(oy), float32(oz)},
			Direction: mgl32.Vec3{float32(dx), float32(dy), float32(dz)},
		})
}

// PushHead 推送头显相对 Rig 的位置和朝向（四元数 w, x, y, z）
func PushHead(ox, oy, oz, qw, qx, qy, qz float64) {
	feed.PushHead(
		mgl32.Vec3{float32(ox), float32(oy), float32(oz)},
		mgl32.Quat{W: float32(qw), V: mgl32.Vec3{float32(qx), float32(qy), float32(qz)}},
	)
}

// SelectStart 扳机按下
func SelectStart(hand int) {
	feed.SelectStart(input.Hand(hand))
}

// SelectEnd 扳机松开
func SelectEnd(hand int) {
	feed.SelectEnd(input.Hand(hand))
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
