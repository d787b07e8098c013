package systems

import (
	"context"
	"errors"

	"github.com/decker502/lessonplay/internal/model"
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/entities"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// decodeSlots 全进程同时只解码一个模型，避免多次启动课程时解码/上传峰值叠加
var decodeSlots = semaphore.NewWeighted(1)

// LoadPhase 加载流程的阶段
type LoadPhase int

const (
	LoadIdle LoadPhase = iota
	LoadFetching
	LoadPrewarm
	LoadStabilizing
	LoadReady
	LoadTornDown
)

// String 返回阶段的字符串表示
func (p LoadPhase) String() string {
	switch p {
	case LoadIdle:
		return "Idle"
	case LoadFetching:
		return "Fetching"
	case LoadPrewarm:
		return "Prewarm"
	case LoadStabilizing:
		return "Stabilizing"
	case LoadReady:
		return "Ready"
	case LoadTornDown:
		return "TornDown"
	default:
		return "Unknown"
	}
}

// LoadProgress 加载进度："current / total"
type LoadProgress struct {
	Loaded int
	Failed int
	Total  int
}

// Done 已处理（成功或失败）的模型数
func (p LoadProgress) Done() int {
	return p.Loaded + p.Failed
}

// Fraction 返回 0..1 的进度
func (p LoadProgress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done()) / float64(p.Total)
}

// ModelLoader 加载单个模型
type ModelLoader interface {
	LoadModel(ctx context.Context, ref string) (*model.Model, string, error)
	Release(key string) error
}

// LoadFailure 一个加载失败的模型，加载流程跳过它继续
type LoadFailure struct {
	AssetID string
	Ref     string
	Err     error
}

// loadResult 后台协程取回的一个模型
type loadResult struct {
	asset config.Asset
	model *model.Model
	key   string
	err   error
}

// ModelLoadingSystem 顺序加载所有外部模型
//
// 后台协程一次只取回并解码一个模型，通过通道交给渲染循环插入场景图，
// 等待插入确认后才开始下一个。渲染循环每帧最多插入一个模型，
// 期间持续显示进度。全部完成后执行一次预热，再等待固定的稳定时间，
// 之后才进入 Ready（宿主在此之前忽略所有激活事件）。
//
// Teardown 取消未完成的加载，之后不再修改场景图，并释放所有已加载模型。
type ModelLoadingSystem struct {
	entityManager *ecs.EntityManager
	loader        ModelLoader
	sync          *SceneSyncSystem
	cfg           *config.EngineConfig
	log           logrus.FieldLogger

	assets   []config.Asset
	failures []LoadFailure
	phase    LoadPhase
	progress LoadProgress
	elapsed  float64

	results chan loadResult
	acks    chan struct{}
	cancel  context.CancelFunc
	group   *errgroup.Group

	// Prewarm 预热回调（渲染系统构建网格缓存），在最后一个模型插入之后同步执行
	Prewarm func()
	// OnProgress 每处理完一个模型调用一次
	OnProgress func(LoadProgress)
	// OnReady 进入 Ready 时调用一次
	OnReady func()
}

// NewModelLoadingSystem 创建加载系统
// assets 为项目中所有外部模型资源，按资源数组顺序加载
func NewModelLoadingSystem(em *ecs.EntityManager, loader ModelLoader, sync *SceneSyncSystem, cfg *config.EngineConfig, assets []config.Asset, log logrus.FieldLogger) *ModelLoadingSystem {
	return &ModelLoadingSystem{
		entityManager: em,
		loader:        loader,
		sync:          sync,
		cfg:           cfg,
		log:           log.WithField("system", "ModelLoadingSystem"),
		assets:        assets,
		progress:      LoadProgress{Total: len(assets)},
	}
}

// Phase 返回当前阶段
func (s *ModelLoadingSystem) Phase() LoadPhase {
	return s.phase
}

// Progress 返回当前进度
func (s *ModelLoadingSystem) Progress() LoadProgress {
	return s.progress
}

// Failures 返回所有加载失败的模型
func (s *ModelLoadingSystem) Failures() []LoadFailure {
	return s.failures
}

// Ready 是否可以接受交互
func (s *ModelLoadingSystem) Ready() bool {
	return s.phase == LoadReady
}

// Start 启动后台加载协程
func (s *ModelLoadingSystem) Start(parent context.Context) {
	if s.phase != LoadIdle {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.results = make(chan loadResult)
	s.acks = make(chan struct{}, 1)
	s.phase = LoadFetching

	g, gctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error {
		defer close(s.results)
		return s.fetchAll(gctx)
	})
	s.log.Infof("[ModelLoadingSystem] 开始加载 %d 个模型", len(s.assets))
}

// fetchAll 在后台协程中顺序取回模型
func (s *ModelLoadingSystem) fetchAll(ctx context.Context) error {
	for _, a := range s.assets {
		if err := decodeSlots.Acquire(ctx, 1); err != nil {
			return err
		}
		m, key, err := s.loader.LoadModel(ctx, a.ModelReference)
		decodeSlots.Release(1)

		select {
		case s.results <- loadResult{asset: a, model: m, key: key, err: err}:
		case <-ctx.Done():
			if err == nil {
				_ = s.loader.Release(key)
			}
			return ctx.Err()
		}

		// 等待渲染循环插入完成
		select {
		case <-s.acks:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Update 由渲染循环每帧调用
func (s *ModelLoadingSystem) Update(dt float64) {
	switch s.phase {
	case LoadFetching:
		select {
		case res, ok := <-s.results:
			if !ok {
				s.finishFetching()
				return
			}
			s.insert(res)
			s.acks <- struct{}{}
		default:
		}

	case LoadPrewarm:
		if s.Prewarm != nil {
			s.Prewarm()
		}
		s.elapsed = 0
		s.phase = LoadStabilizing

	case LoadStabilizing:
		s.elapsed += dt
		if s.elapsed >= s.cfg.StabilizationDelay {
			s.phase = LoadReady
			s.log.Infof("[ModelLoadingSystem] 加载完成: %d 成功, %d 失败", s.progress.Loaded, s.progress.Failed)
			if s.OnReady != nil {
				s.OnReady()
			}
		}
	}
}

func (s *ModelLoadingSystem) finishFetching() {
	if s.group != nil {
		if err := s.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Warn("[ModelLoadingSystem] 加载协程异常结束")
		}
	}
	s.phase = LoadPrewarm
}

// insert 把一个模型挂到对应的容器节点
// 失败的模型记录日志后跳过，不重试
func (s *ModelLoadingSystem) insert(res loadResult) {
	if res.err != nil {
		s.progress.Failed++
		s.failures = append(s.failures, LoadFailure{AssetID: res.asset.ID, Ref: res.asset.ModelReference, Err: res.err})
		s.log.WithError(res.err).WithFields(logrus.Fields{
			"asset": res.asset.ID,
			"ref":   res.asset.ModelReference,
		}).Warn("[ModelLoadingSystem] 模型加载失败，跳过")
		s.notifyProgress()
		return
	}

	container, ok := s.sync.Container(res.asset.ID)
	if !ok {
		s.progress.Failed++
		s.log.Warnf("[ModelLoadingSystem] 资源 %s 没有容器节点，丢弃模型", res.asset.ID)
		_ = s.loader.Release(res.key)
		s.notifyProgress()
		return
	}

	// 透明度和可见性以会话资源为准
	a := &res.asset
	if current, ok := s.sync.session.Asset(a.ID); ok {
		a = current
	}
	entities.AttachModel(s.entityManager, container, a, res.model, res.key)
	s.progress.Loaded++
	s.log.Debugf("[ModelLoadingSystem] %d / %d: %s", s.progress.Done(), s.progress.Total, a.ID)
	s.notifyProgress()
}

func (s *ModelLoadingSystem) notifyProgress() {
	if s.OnProgress != nil {
		s.OnProgress(s.progress)
	}
}

// Teardown 取消加载并释放所有模型资源，可重复调用
func (s *ModelLoadingSystem) Teardown() {
	if s.phase == LoadTornDown {
		return
	}
	s.phase = LoadTornDown
	if s.cancel != nil {
		s.cancel()
	}
	if s.group != nil {
		// 协程可能阻塞在发送结果上，取消后会退出
		_ = s.group.Wait()
	}

	released := 0
	for _, id := range ecs.GetEntitiesWith1[*components.ModelComponent](s.entityManager) {
		mc, _ := ecs.GetComponent[*components.ModelComponent](s.entityManager, id)
		if err := s.loader.Release(mc.ResourceKey); err != nil {
			s.log.WithError(err).Debugf("[ModelLoadingSystem] 释放 %s 失败", mc.ResourceKey)
		}
		for _, child := range entities.Descendants(s.entityManager, id) {
			if mesh, ok := ecs.GetComponent[*components.MeshComponent](s.entityManager, child); ok {
				mesh.Released = true
			}
		}
		mc.Model = nil
		ecs.RemoveComponent[*components.ModelComponent](s.entityManager, id)
		released++
	}
	s.log.Infof("[ModelLoadingSystem] 已释放 %d 个模型", released)
}
