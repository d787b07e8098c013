package game

import "errors"

var (
	// ErrNoSceneFactory SceneManager 未设置场景工厂
	ErrNoSceneFactory = errors.New("scene factory not set")
	// ErrProjectNotFound 存储中没有该项目
	ErrProjectNotFound = errors.New("project not found")
	// ErrStoreUnavailable 持久化不可用（降级模式）
	ErrStoreUnavailable = errors.New("persistent storage unavailable")
)
