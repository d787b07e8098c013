//go:build !mobile

package utils

import (
	"os"

	"github.com/decker502/lessonplay/pkg/types"
)

// IsMobile 桌面端编译时返回 false
// 设置环境变量 LESSONPLAY_MOBILE_EMULATE=1 可在桌面上模拟触摸回放（调试用）
func IsMobile() bool {
	return os.Getenv("LESSONPLAY_MOBILE_EMULATE") == "1"
}

// DefaultInputMode 返回平台默认的输入模式
// xr 为 true 表示宿主已经建立了 VR 会话
func DefaultInputMode(xr bool) types.InputMode {
	switch {
	case xr:
		return types.InputXR
	case IsMobile():
		return types.InputTouch
	default:
		return types.InputDesktop
	}
}
