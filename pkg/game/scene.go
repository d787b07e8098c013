package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents one stage of playback (loading, lesson playback).
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update updates the scene logic based on the elapsed time.
	// deltaTime is the time elapsed since the last update in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	Draw(screen *ebiten.Image)
}

// Teardowner 是一个可选接口，场景被替换或程序退出时调用
//
// 实现此接口的场景会在以下时机被调用 Teardown()：
//   - SceneManager 切换到其他场景
//   - 窗口关闭
//
// 实现需要取消后台加载、释放模型资源、注销输入回调，
// 并且可以被重复调用。
type Teardowner interface {
	Teardown()
}
