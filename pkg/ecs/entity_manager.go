package ecs

import (
	"reflect"

	"github.com/elliotchance/orderedmap/v2"
)

// EntityID 是实体的唯一标识符
type EntityID uint64

// InvalidEntity 0 保留为无效 ID
const InvalidEntity EntityID = 0

// componentSet 一个实体的全部组件，按组件类型索引
type componentSet map[reflect.Type]any

// EntityManager 管理所有实体和组件
//
// 场景图的每个节点都是一个实体，父子关系由 components.NodeComponent 描述。
// 实体按创建顺序保存，查询结果的顺序因此是确定的（渲染和射线命中的同距离排序依赖它）。
type EntityManager struct {
	nextID   EntityID
	entities *orderedmap.OrderedMap[EntityID, componentSet]
	// 延迟删除，避免系统遍历途中修改实体表
	pendingDestroy []EntityID
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:   1,
		entities: orderedmap.NewOrderedMap[EntityID, componentSet](),
	}
}

// CreateEntity 创建新实体并返回唯一ID
func (em *EntityManager) CreateEntity() EntityID {
	id := em.nextID
	em.nextID++
	em.entities.Set(id, componentSet{})
	return id
}

// Exists 检查实体是否存在（未被删除）
func (em *EntityManager) Exists(id EntityID) bool {
	_, ok := em.entities.Get(id)
	return ok
}

// DestroyEntity 标记实体待删除，RemoveMarkedEntities 时才真正删除
func (em *EntityManager) DestroyEntity(id EntityID) {
	em.pendingDestroy = append(em.pendingDestroy, id)
}

// AddComponent 为实体添加组件，同类型的组件会被替换
// 实体不存在时忽略
func (em *EntityManager) AddComponent(id EntityID, component any) {
	if set, ok := em.entities.Get(id); ok {
		set[reflect.TypeOf(component)] = component
	}
}

// RemoveComponent 从实体移除指定类型的组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if set, ok := em.entities.Get(id); ok {
		delete(set, componentType)
	}
}

// GetComponent 获取实体的特定类型组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (any, bool) {
	set, ok := em.entities.Get(id)
	if !ok {
		return nil, false
	}
	comp, found := set[componentType]
	return comp, found
}

// HasComponent 检查实体是否拥有特定类型组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	_, found := em.GetComponent(id, componentType)
	return found
}

// RemoveMarkedEntities 清理所有标记删除的实体
func (em *EntityManager) RemoveMarkedEntities() {
	for _, id := range em.pendingDestroy {
		em.entities.Delete(id)
	}
	em.pendingDestroy = em.pendingDestroy[:0]
}

// EntityCount 返回当前实体数量
func (em *EntityManager) EntityCount() int {
	return em.entities.Len()
}

// GetEntitiesWith 查询拥有指定组件类型组合的所有实体，按创建顺序返回
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	var result []EntityID
	for el := em.entities.Front(); el != nil; el = el.Next() {
		if hasAll(el.Value, componentTypes) {
			result = append(result, el.Key)
		}
	}
	return result
}

func hasAll(set componentSet, types []reflect.Type) bool {
	for _, t := range types {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
