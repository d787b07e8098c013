package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/decker502/lessonplay/pkg/config"
	"github.com/google/uuid"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// 存储路径常量
const (
	projectsObject = "projects"
	indexObject    = "project_index"
	indexProperty  = "entries"
)

// projectNamespace 项目名到存储键的命名空间
var projectNamespace = uuid.MustParse("6f1c3a52-4d0e-4b8a-9a1e-2f5c7d9b0e31")

// ProjectEntry 已保存项目的索引项
type ProjectEntry struct {
	Name    string    `yaml:"name"`
	Key     string    `yaml:"key"`
	SavedAt time.Time `yaml:"savedAt"`
}

// ProjectStore 本地项目存储
//
// 项目以 JSON（与编辑器一致的持久化契约）保存在 gdata 中，
// 另用一个 YAML 索引记录项目名和保存时间。
// gdataManager 为 nil 时进入降级模式：Save 为空操作，Load 返回 ErrStoreUnavailable。
type ProjectStore struct {
	gdataManager *gdata.Manager
	log          logrus.FieldLogger
	now          func() time.Time
}

// NewProjectStore 创建项目存储
func NewProjectStore(gdataManager *gdata.Manager, log logrus.FieldLogger) *ProjectStore {
	return &ProjectStore{
		gdataManager: gdataManager,
		log:          log.WithField("system", "ProjectStore"),
		now:          time.Now,
	}
}

// Available 是否可以持久化
func (ps *ProjectStore) Available() bool {
	return ps.gdataManager != nil
}

// projectKey 项目名可能包含文件系统不允许的字符，用 UUIDv5 作为属性名
func projectKey(name string) string {
	return uuid.NewSHA1(projectNamespace, []byte(name)).String()
}

// Save 保存项目，同名项目被覆盖
func (ps *ProjectStore) Save(p *config.Project) error {
	if ps.gdataManager == nil {
		return nil
	}
	data, err := config.MarshalProjectJSON(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project %q: %w", p.ProjectName, err)
	}
	key := projectKey(p.ProjectName)
	if err := ps.gdataManager.SaveObjectProp(projectsObject, key, data); err != nil {
		return fmt.Errorf("failed to save project %q: %w", p.ProjectName, err)
	}

	entries, err := ps.List()
	if err != nil {
		ps.log.Warnf("[ProjectStore] 索引损坏，重建: %v", err)
		entries = nil
	}
	entry := ProjectEntry{Name: p.ProjectName, Key: key, SavedAt: ps.now()}
	replaced := false
	for i := range entries {
		if entries[i].Key == key {
			entries[i] = entry
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	if err := ps.writeIndex(entries); err != nil {
		return err
	}
	ps.log.Infof("[ProjectStore] 已保存项目: %s", p.ProjectName)
	return nil
}

// Load 按项目名加载项目
func (ps *ProjectStore) Load(name string) (*config.Project, error) {
	if ps.gdataManager == nil {
		return nil, ErrStoreUnavailable
	}
	key := projectKey(name)
	if !ps.gdataManager.ObjectPropExists(projectsObject, key) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	data, err := ps.gdataManager.LoadObjectProp(projectsObject, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %q: %w", name, err)
	}
	return config.ParseProjectJSON(data)
}

// Delete 删除项目
func (ps *ProjectStore) Delete(name string) error {
	if ps.gdataManager == nil {
		return nil
	}
	key := projectKey(name)
	if ps.gdataManager.ObjectPropExists(projectsObject, key) {
		if err := ps.gdataManager.DeleteObjectProp(projectsObject, key); err != nil {
			return fmt.Errorf("failed to delete project %q: %w", name, err)
		}
	}
	entries, err := ps.List()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	return ps.writeIndex(kept)
}

// List 返回所有已保存项目，按保存时间从新到旧排序
func (ps *ProjectStore) List() ([]ProjectEntry, error) {
	if ps.gdataManager == nil {
		return nil, nil
	}
	if !ps.gdataManager.ObjectPropExists(indexObject, indexProperty) {
		return nil, nil
	}
	data, err := ps.gdataManager.LoadObjectProp(indexObject, indexProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load project index: %w", err)
	}
	var entries []ProjectEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project index: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SavedAt.After(entries[j].SavedAt)
	})
	return entries, nil
}

// Last 返回最近保存的项目
func (ps *ProjectStore) Last() (*config.Project, error) {
	entries, err := ps.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrProjectNotFound
	}
	return ps.Load(entries[0].Name)
}

func (ps *ProjectStore) writeIndex(entries []ProjectEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal project index: %w", err)
	}
	if err := ps.gdataManager.SaveObjectProp(indexObject, indexProperty, data); err != nil {
		return fmt.Errorf("failed to save project index: %w", err)
	}
	return nil
}
