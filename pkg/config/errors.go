package config

import "errors"

var (
	// ErrDuplicateAssetID 两个资源使用了相同的 ID
	ErrDuplicateAssetID = errors.New("duplicate asset id")
	// ErrReservedAssetID 资源 ID 与 VR 控件的保留 ID 冲突
	ErrReservedAssetID = errors.New("asset id is reserved for a world control")
	// ErrUnknownAssetKind 资源种类无法识别
	ErrUnknownAssetKind = errors.New("unknown asset kind")
	// ErrMultipleSpawnMarkers 项目包含多个出生点标记
	ErrMultipleSpawnMarkers = errors.New("more than one player spawn marker")
	// ErrUnknownEnvironmentSlot 环境槽位指向不存在的资源
	ErrUnknownEnvironmentSlot = errors.New("environment slot references unknown asset")
	// ErrMissingTarget click/move 步骤没有指定目标资源
	ErrMissingTarget = errors.New("step requires a target asset")
)
