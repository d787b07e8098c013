package game

import (
	"math"
	"testing"

	"github.com/decker502/lessonplay/pkg/types"
	"github.com/go-gl/mathgl/mgl32"
)

func vecNear(a, b mgl32.Vec3, eps float32) bool {
	return a.Sub(b).Len() <= eps
}

func TestPlayerRigDirections(t *testing.T) {
	tests := []struct {
		name        string
		yaw, pitch  float32
		wantForward mgl32.Vec3
		wantRight   mgl32.Vec3
	}{
		{"yaw 0 looks toward -Z", 0, 0, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}},
		{"yaw 90 looks toward -X", math.Pi / 2, 0, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{"pitch up keeps flat forward", 0, math.Pi / 4, mgl32.Vec3{0, float32(math.Sqrt2 / 2), -float32(math.Sqrt2 / 2)}, mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPlayerRig(types.InputDesktop, mgl32.Vec3{}, tt.yaw)
			r.Pitch = tt.pitch
			if got := r.Forward(); !vecNear(got, tt.wantForward, 1e-5) {
				t.Errorf("Forward = %v, want %v", got, tt.wantForward)
			}
			if got := r.Right(); !vecNear(got, tt.wantRight, 1e-5) {
				t.Errorf("Right = %v, want %v", got, tt.wantRight)
			}
			if got := r.FlatForward(); got.Y() != 0 {
				t.Errorf("FlatForward has Y component %v", got.Y())
			}
		})
	}
}

func TestPlayerRigFlatForwardStraightUp(t *testing.T) {
	r := NewPlayerRig(types.InputDesktop, mgl32.Vec3{}, 0)
	r.Pitch = math.Pi / 2
	if got := r.FlatForward(); !vecNear(got, mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("FlatForward looking straight up = %v, want yaw direction", got)
	}
}

func TestPlayerRigClampPitch(t *testing.T) {
	r := NewPlayerRig(types.InputDesktop, mgl32.Vec3{}, 0)
	r.Pitch = 3
	r.ClampPitch()
	if r.Pitch > math.Pi/2+1e-6 {
		t.Errorf("pitch not clamped: %v", r.Pitch)
	}
	r.Pitch = -3
	r.ClampPitch()
	if r.Pitch < -math.Pi/2-1e-6 {
		t.Errorf("pitch not clamped: %v", r.Pitch)
	}
}

func TestPlayerRigCarryPoint(t *testing.T) {
	r := NewPlayerRig(types.InputDesktop, mgl32.Vec3{0, 1.6, 0}, 0)
	if got := r.CarryPoint(3); !vecNear(got, mgl32.Vec3{0, 1.6, -3}, 1e-5) {
		t.Errorf("desktop CarryPoint = %v", got)
	}

	xr := NewPlayerRig(types.InputXR, mgl32.Vec3{}, 0)
	xr.HeadOffset = mgl32.Vec3{0, 1.7, 0}
	xr.Controller = Pose{Origin: mgl32.Vec3{0.3, 1.2, -0.2}, Direction: mgl32.Vec3{1, 0, 0}}
	xr.HasController = true
	if got := xr.CarryPoint(0.3); !vecNear(got, mgl32.Vec3{0.6, 1.2, -0.2}, 1e-5) {
		t.Errorf("XR CarryPoint should follow the controller, got %v", got)
	}
	if got := xr.CameraPosition(); !vecNear(got, mgl32.Vec3{0, 1.7, 0}, 1e-6) {
		t.Errorf("XR camera position = %v", got)
	}
}
