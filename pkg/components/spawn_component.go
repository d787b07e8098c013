package components

// SpawnComponent 出生点标记
// 不渲染、不参与碰撞、不可被射线命中
type SpawnComponent struct{}
