package input

import "github.com/go-gl/mathgl/mgl32"

// KeyboardSource WASD 移动
type KeyboardSource struct{}

// Sample 实现 InputSource
func (KeyboardSource) Sample(f *Frame, dt float32) Signals {
	var move mgl32.Vec2
	if f.Keys.Forward {
		move[1]++
	}
	if f.Keys.Back {
		move[1]--
	}
	if f.Keys.Right {
		move[0]++
	}
	if f.Keys.Left {
		move[0]--
	}
	return Signals{Move: clampUnit(move)}
}

// Reset 实现 InputSource
func (KeyboardSource) Reset() {}
