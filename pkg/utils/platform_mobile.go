//go:build mobile

package utils

import "github.com/decker502/lessonplay/pkg/types"

// IsMobile 移动端编译时返回 true
func IsMobile() bool {
	return true
}

// DefaultInputMode 移动端默认触摸回放，宿主建立 VR 会话时切换到 VR
func DefaultInputMode(xr bool) types.InputMode {
	if xr {
		return types.InputXR
	}
	return types.InputTouch
}
