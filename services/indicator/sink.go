package indicator

import (
	"image/color"

	"tinygo.org/x/drivers"
)

// Sink receives one colour per animation frame.
type Sink interface {
	WriteRGB(r, g, b uint8) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(r, g, b uint8) error

func (f SinkFunc) WriteRGB(r, g, b uint8) error { return f(r, g, b) }

// DisplaySink drives a single pixel of a TinyGo display driver (ws2812
// strips, LED matrices, small panels) and flushes it every frame.
type DisplaySink struct {
	d    drivers.Displayer
	x, y int16
}

// NewDisplaySink writes frames to pixel (x, y) of d.
func NewDisplaySink(d drivers.Displayer, x, y int16) *DisplaySink {
	return &DisplaySink{d: d, x: x, y: y}
}

func (s *DisplaySink) WriteRGB(r, g, b uint8) error {
	s.d.SetPixel(s.x, s.y, color.RGBA{R: r, G: g, B: b, A: 255})
	return s.d.Display()
}
