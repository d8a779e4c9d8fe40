package camera

import "cloudy-sword/pkg/hexgrid"

// Параметры камеры
const (
	DragThreshold = 30.0 // Смещение (по любой оси), после которого жест считается панорамой
	ZoomStep      = 0.1
	MinScale      = 0.2
	MaxScale      = 2.0

	DefaultOffsetX = 200.0
	DefaultOffsetY = 0.0
)

// Camera хранит панораму и масштаб карты, а также состояние текущего жеста.
// Не знает ни о сети, ни о режиме интерфейса.
type Camera struct {
	OffsetX float64
	OffsetY float64
	Scale   float64

	pressed  bool
	dragging bool
	anchorX  float64 // Точка, от которой считается смещение
	anchorY  float64
}

// New создает камеру с начальными параметрами.
func New() *Camera {
	return &Camera{
		OffsetX: DefaultOffsetX,
		OffsetY: DefaultOffsetY,
		Scale:   1.0,
	}
}

// View возвращает параметры для пересчета координат.
func (c *Camera) View() hexgrid.View {
	return hexgrid.View{OffsetX: c.OffsetX, OffsetY: c.OffsetY, Scale: c.Scale}
}

// BeginDrag фиксирует нажатие. Пока порог не превышен, жест считается кликом.
func (c *Camera) BeginDrag(px, py float64) {
	c.pressed = true
	c.dragging = false
	c.anchorX = px
	c.anchorY = py
}

// UpdateDrag обрабатывает движение указателя при зажатой кнопке.
// Возвращает true, если камера сдвинулась.
func (c *Camera) UpdateDrag(px, py float64) bool {
	if !c.pressed {
		return false
	}

	dx := px - c.anchorX
	dy := py - c.anchorY
	if !c.dragging && abs(dx) <= DragThreshold && abs(dy) <= DragThreshold {
		return false
	}

	c.dragging = true
	c.OffsetX -= dx
	c.OffsetY -= dy
	c.anchorX = px
	c.anchorY = py
	return true
}

// EndDrag завершает жест. wasClick == true, если порог так и не был превышен.
func (c *Camera) EndDrag() (wasClick bool) {
	if !c.pressed {
		return false
	}
	wasClick = !c.dragging
	c.pressed = false
	return wasClick
}

// Dragging сообщает, является ли текущий (или последний) жест панорамой.
func (c *Camera) Dragging() bool {
	return c.dragging
}

// Zoom меняет масштаб на ZoomStep в сторону знака delta и ограничивает его.
func (c *Camera) Zoom(delta float64) {
	switch {
	case delta > 0:
		c.Scale += ZoomStep
	case delta < 0:
		c.Scale -= ZoomStep
	default:
		return
	}
	c.Scale = clamp(c.Scale, MinScale, MaxScale)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
