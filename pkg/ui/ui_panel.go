package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	sectionHeight = 25.0
	titleHeight   = 30.0
	margin        = 10.0
)

// Widget is implemented by everything a Panel can hold
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	Height() float64
	moveTo(y float64)
}

type sliderWidget struct{ *Slider }

func (s sliderWidget) Height() float64  { return s.H + 25 } // bar + label line
func (s sliderWidget) moveTo(y float64) { s.Y = y }

type checkboxWidget struct{ *Checkbox }

func (c checkboxWidget) Height() float64  { return c.Size + 20 }
func (c checkboxWidget) moveTo(y float64) { c.Y = y }

type buttonWidget struct{ *Button }

func (b buttonWidget) Height() float64  { return b.Button.Height + 8 }
func (b buttonWidget) moveTo(y float64) { b.Y = y }

// section is a title drawn above the widget at index start
type section struct {
	title string
	start int
	top   float64
}

// Panel is a scrollable column of labelled widgets drawn over the arena.
// Tab toggles its visibility; a hidden panel ignores input.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	Visible       bool
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA

	widgets  []Widget
	labels   []string
	tops     []float64 // scrolled y of each widget row
	sections []section
}

// NewPanel creates an empty, visible panel
func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		X: x, Y: y,
		Width: width, Height: height,
		Title:       title,
		Visible:     true,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new titled group; widgets added next belong to it
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, section{title: title, start: len(p.widgets)})
	p.layout()
}

// AddSlider adds a slider whose label shows its current value
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+margin, 0, p.Width-2*margin, label, min, max, value)
	p.add(sliderWidget{s}, label)
	return s
}

// AddCheckbox adds a checkbox
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+margin, 0, label, value)
	p.add(checkboxWidget{c}, label)
	return c
}

// AddButton adds a full width button
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+margin, 0, p.Width-2*margin, 22, label, onClick)
	p.add(buttonWidget{b}, "")
	return b
}

func (p *Panel) add(w Widget, label string) {
	p.widgets = append(p.widgets, w)
	p.labels = append(p.labels, label)
	p.tops = append(p.tops, 0)
	p.layout()
}

// layout places every widget at its scrolled position
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	placeUpTo := func(end int) {
		for ; next < end; next++ {
			p.tops[next] = y
			if p.labels[next] != "" {
				p.widgets[next].moveTo(y + 15)
			} else {
				p.widgets[next].moveTo(y)
			}
			y += p.widgets[next].Height()
		}
	}
	for i := range p.sections {
		placeUpTo(p.sections[i].start)
		p.sections[i].top = y
		y += sectionHeight
	}
	placeUpTo(len(p.widgets))
}

// shown reports whether a row starting at y lies inside the panel body
func (p *Panel) shown(y float64) bool {
	return y >= p.Y+titleHeight-5 && y <= p.Y+p.Height-15
}

func (p *Panel) contentHeight() float64 {
	h := titleHeight + float64(len(p.sections))*sectionHeight
	for _, w := range p.widgets {
		h += w.Height()
	}
	return h
}

// Contains reports whether the screen point is over the visible panel
func (p *Panel) Contains(x, y int) bool {
	fx, fy := float64(x), float64(y)
	return p.Visible && fx >= p.X && fx <= p.X+p.Width && fy >= p.Y && fy <= p.Y+p.Height
}

// Update handles scrolling and widget input
func (p *Panel) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		p.Visible = !p.Visible
	}
	if !p.Visible {
		return
	}

	if _, dy := ebiten.Wheel(); dy != 0 && p.Contains(ebiten.CursorPosition()) {
		p.ScrollOffset -= dy * 20
		maxScroll := max(p.contentHeight()-p.Height+40, 0)
		p.ScrollOffset = min(max(p.ScrollOffset, 0), maxScroll)
		p.layout()
	}

	for i, w := range p.widgets {
		if p.shown(p.tops[i]) {
			w.Update()
		}
	}
}

// Draw renders the panel and the widgets inside its bounds
func (p *Panel) Draw(screen *ebiten.Image) {
	if !p.Visible {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))

	for _, sec := range p.sections {
		if p.shown(sec.top) {
			vector.FillRect(screen, float32(p.X+5), float32(sec.top), float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, sec.title, int(p.X+margin), int(sec.top+3))
		}
	}
	for i := range p.widgets {
		if p.shown(p.tops[i]) {
			p.drawWidget(screen, i, p.tops[i])
		}
	}
}

func (p *Panel) drawWidget(screen *ebiten.Image, i int, y float64) {
	switch w := p.widgets[i].(type) {
	case sliderWidget:
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s: %.4g", w.Label, w.Value), int(p.X+margin), int(y))
	case checkboxWidget:
		ebitenutil.DebugPrintAt(screen, w.Label, int(p.X+margin+w.Size+8), int(y+15))
	}
	p.widgets[i].Draw(screen)
}
