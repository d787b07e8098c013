package components

// LabelComponent 文字标签内容，可能包含换行
type LabelComponent struct {
	Text string
}
