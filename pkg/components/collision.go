package components

// CollisionComponent 标记阻挡玩家移动的资源容器
// 碰撞体为容器下所有网格的世界包围盒；出生点和 isCollidable=false 的资源没有此组件
type CollisionComponent struct{}
