package components

import "github.com/go-gl/mathgl/mgl32"

// TransformComponent 场景图节点的局部变换（相对父节点）
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// NewTransformComponent 由位置、欧拉角（弧度，XYZ 顺序）和缩放创建变换
func NewTransformComponent(position, euler, scale mgl32.Vec3) *TransformComponent {
	return &TransformComponent{
		Position: position,
		Rotation: mgl32.AnglesToQuat(euler.X(), euler.Y(), euler.Z(), mgl32.XYZ),
		Scale:    scale,
	}
}

// IdentityTransform 返回单位变换
func IdentityTransform() *TransformComponent {
	return &TransformComponent{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix 返回 T * R * S 局部矩阵
func (t *TransformComponent) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(t.Rotation.Normalize().Mat4()).Mul4(scale)
}
