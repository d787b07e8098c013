package input

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenCapturer 从 ebiten 采集键盘、鼠标和触摸状态
// VR 手柄状态来自宿主推送的 XRFeed（可为 nil）
type EbitenCapturer struct {
	XR *XRFeed

	width, height float64
	touchIDs      []ebiten.TouchID
}

// NewEbitenCapturer 创建采集器
func NewEbitenCapturer(xr *XRFeed) *EbitenCapturer {
	return &EbitenCapturer{XR: xr}
}

// SetScreenSize 由 Layout 调用，记录逻辑屏幕尺寸
func (c *EbitenCapturer) SetScreenSize(width, height int) {
	c.width, c.height = float64(width), float64(height)
}

// Capture 实现 Capturer
func (c *EbitenCapturer) Capture() Frame {
	f := Frame{Width: c.width, Height: c.height}

	f.Keys = KeyState{
		Forward: ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Back:    ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:    ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right:   ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
	}

	x, y := ebiten.CursorPosition()
	f.Pointer = PointerState{
		X:       float64(x),
		Y:       float64(y),
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
	}

	c.touchIDs = ebiten.AppendTouchIDs(c.touchIDs[:0])
	for _, id := range c.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		f.Touches = append(f.Touches, Touch{ID: int(id), X: float64(tx), Y: float64(ty)})
	}

	if c.XR != nil {
		f.Controllers = c.XR.Drain()
		if head, ok := c.XR.Head(); ok {
			f.Head = &head
		}
	}
	return f
}
