package systems

import (
	"image"
	"image/color"
	"sort"

	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/entities"
	"github.com/decker502/lessonplay/pkg/game"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// 投影参数
const (
	DefaultFovY   = float32(1.0472) // 60°
	cameraNear    = float32(0.05)
	cameraFar     = float32(500)
	edgeWidth     = float32(1)
	heldEdgeWidth = float32(2.5)
	warmSize      = 4
)

// boxFaces 包围盒 6 个面的角点下标（角点编号：bit0=x, bit1=y, bit2=z）
var boxFaces = [6][4]int{
	{0, 1, 3, 2}, {4, 6, 7, 5}, // -Z, +Z
	{0, 4, 5, 1}, {2, 3, 7, 6}, // -Y, +Y
	{0, 2, 6, 4}, {1, 5, 7, 3}, // -X, +X
}

// boxEdges 包围盒 12 条边
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Camera 透视相机
type Camera struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	FovY        float32
}

// CameraFromRig 由 PlayerRig 得到相机
func CameraFromRig(r *game.PlayerRig) Camera {
	return Camera{Position: r.CameraPosition(), Orientation: r.Orientation(), FovY: DefaultFovY}
}

// ViewProjection 返回 投影 * 视图 矩阵
func (c Camera) ViewProjection(width, height float64) mgl32.Mat4 {
	world := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.Orientation.Normalize().Mat4())
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width / height)
	}
	return mgl32.Perspective(c.FovY, aspect, cameraNear, cameraFar).Mul4(world.Inv())
}

// Project 把世界坐标投影到屏幕坐标，位于相机后方时返回 false
func Project(vp mgl32.Mat4, p mgl32.Vec3, width, height float64) (float32, float32, float32, bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip.W() <= cameraNear {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x := (ndc.X() + 1) / 2 * float32(width)
	y := (1 - ndc.Y()) / 2 * float32(height)
	return x, y, clip.W(), true
}

// drawFace 一个待绘制的面，按深度从远到近排序
type drawFace struct {
	xs, ys [4]float32
	depth  float32
	color  color.RGBA
}

// RenderSystem 以包围盒为几何体的简化 3D 渲染
//
// 每个可见网格节点绘制为半透明面 + 描边，文字标签在其中心绘制文本。
// 面使用画家算法按深度排序，与 DrawTriangles 填充凸多边形的方式一致。
type RenderSystem struct {
	entityManager *ecs.EntityManager

	whiteImage *ebiten.Image
	warmTarget *ebiten.Image
	vertices   []ebiten.Vertex
	indices    []uint16
	faces      []drawFace

	// HeldAssetID 当前携带的资源，加粗描边
	HeldAssetID string
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(em *ecs.EntityManager) *RenderSystem {
	return &RenderSystem{entityManager: em}
}

// Prewarm 预先创建纹理并按网格数量分配顶点缓冲，
// 然后向离屏图像画一个面和一条描边，让首帧之前完成着色器和图集的初始化。
// 由加载流程在最后一个模型插入之后调用
func (s *RenderSystem) Prewarm() {
	if s.whiteImage == nil {
		s.whiteImage = ebiten.NewImage(3, 3)
		s.whiteImage.Fill(color.White)
	}
	meshes := len(ecs.GetEntitiesWith1[*components.MeshComponent](s.entityManager))
	s.faces = make([]drawFace, 0, meshes*6)
	s.vertices = make([]ebiten.Vertex, 0, 4)
	s.indices = make([]uint16, 0, 6)

	if s.warmTarget == nil {
		s.warmTarget = ebiten.NewImage(warmSize, warmSize)
	}
	s.warmTarget.Clear()
	s.fillQuad(s.warmTarget, &drawFace{
		xs:    [4]float32{0, warmSize, warmSize, 0},
		ys:    [4]float32{0, 0, warmSize, warmSize},
		color: color.RGBA{A: 0xff},
	})
	vector.StrokeLine(s.warmTarget, 0, 0, warmSize, warmSize, edgeWidth, color.White, true)
}

// Draw 渲染场景
func (s *RenderSystem) Draw(screen *ebiten.Image, cam Camera) {
	if s.whiteImage == nil {
		s.Prewarm()
	}
	b := screen.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	vp := cam.ViewProjection(w, h)

	s.faces = s.faces[:0]
	type outline struct {
		pts   [8][2]float32
		ok    [8]bool
		color color.RGBA
		width float32
	}
	var outlines []outline
	type label struct {
		text string
		x, y int
	}
	var labels []label

	for _, id := range ecs.GetEntitiesWith2[*components.MeshComponent, *components.NodeComponent](s.entityManager) {
		mesh, _ := ecs.GetComponent[*components.MeshComponent](s.entityManager, id)
		if mesh.Released || !entities.VisibleInHierarchy(s.entityManager, id) {
			continue
		}
		world := entities.WorldMatrix(s.entityManager, id)
		col := entities.DefaultAssetColor
		opacity := float32(1)
		if mat, ok := ecs.GetComponent[*components.MaterialComponent](s.entityManager, id); ok {
			col, opacity = mat.Color, mat.Opacity
		}

		var ol outline
		ol.color, ol.width = col, edgeWidth
		if tag, _, ok := entities.NearestTaggedAncestor(s.entityManager, id); ok && tag.AssetID == s.HeldAssetID && s.HeldAssetID != "" {
			ol.width = heldEdgeWidth
		}
		var depths [8]float32
		lo, hi := mesh.Bounds.Min(), mesh.Bounds.Max()
		for i := 0; i < 8; i++ {
			corner := lo
			if i&1 != 0 {
				corner[0] = hi[0]
			}
			if i&2 != 0 {
				corner[1] = hi[1]
			}
			if i&4 != 0 {
				corner[2] = hi[2]
			}
			x, y, d, ok := Project(vp, mgl32.TransformCoordinate(corner, world), w, h)
			ol.pts[i], ol.ok[i], depths[i] = [2]float32{x, y}, ok, d
		}
		outlines = append(outlines, ol)

		fill := col
		fill.A = uint8(mgl32.Clamp(opacity*0.6, 0, 1) * 255)
		for _, f := range boxFaces {
			df := drawFace{color: fill}
			visible := true
			for k, ci := range f {
				if !ol.ok[ci] {
					visible = false
					break
				}
				df.xs[k], df.ys[k] = ol.pts[ci][0], ol.pts[ci][1]
				df.depth += depths[ci] / 4
			}
			if visible {
				s.faces = append(s.faces, df)
			}
		}

		if lc, ok := ecs.GetComponent[*components.LabelComponent](s.entityManager, id); ok {
			center := mgl32.TransformCoordinate(lo.Add(hi).Mul(0.5), world)
			if x, y, _, ok := Project(vp, center, w, h); ok {
				labels = append(labels, label{text: lc.Text, x: int(x), y: int(y)})
			}
		}
	}

	sort.SliceStable(s.faces, func(i, j int) bool { return s.faces[i].depth > s.faces[j].depth })
	for i := range s.faces {
		s.fillQuad(screen, &s.faces[i])
	}
	for _, ol := range outlines {
		for _, e := range boxEdges {
			if !ol.ok[e[0]] || !ol.ok[e[1]] {
				continue
			}
			a, b := ol.pts[e[0]], ol.pts[e[1]]
			vector.StrokeLine(screen, a[0], a[1], b[0], b[1], ol.width, ol.color, true)
		}
	}
	for _, l := range labels {
		ebitenutil.DebugPrintAt(screen, l.text, l.x, l.y)
	}
}

func (s *RenderSystem) fillQuad(screen *ebiten.Image, f *drawFace) {
	r, g, b, a := float32(f.color.R)/255, float32(f.color.G)/255, float32(f.color.B)/255, float32(f.color.A)/255
	s.vertices = s.vertices[:0]
	for k := 0; k < 4; k++ {
		s.vertices = append(s.vertices, ebiten.Vertex{
			DstX: f.xs[k], DstY: f.ys[k],
			SrcX: 1, SrcY: 1,
			ColorR: r * a, ColorG: g * a, ColorB: b * a, ColorA: a,
		})
	}
	s.indices = append(s.indices[:0], 0, 1, 2, 0, 2, 3)
	op := &ebiten.DrawTrianglesOptions{}
	screen.DrawTriangles(s.vertices, s.indices, s.whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image), op)
}

// DrawCrosshair 绘制屏幕中心准星（第一人称点击使用屏幕中心射线）
func DrawCrosshair(screen *ebiten.Image) {
	b := screen.Bounds()
	cx, cy := float32(b.Dx())/2, float32(b.Dy())/2
	vector.StrokeLine(screen, cx-6, cy, cx+6, cy, 1.5, color.White, true)
	vector.StrokeLine(screen, cx, cy-6, cx, cy+6, 1.5, color.White, true)
}
