// ABOUTME: Camera sources for the robot agent
// ABOUTME: PatternCamera renders moving color bars as RGB888 frames
package robot

import (
	"sync"

	"github.com/livecam/livecam-go/internal/protocol"
)

// QVGA is the default camera resolution
const (
	QVGAWidth  = 320
	QVGAHeight = 240
)

// Camera produces frames on demand
type Camera interface {
	Frame() (protocol.CameraFrame, error)
}

var barColors = [][3]byte{
	{255, 255, 255},
	{255, 255, 0},
	{0, 255, 255},
	{0, 255, 0},
	{255, 0, 255},
	{255, 0, 0},
	{0, 0, 255},
	{0, 0, 0},
}

// PatternCamera is a synthetic camera; bars shift one column per frame
type PatternCamera struct {
	Width  int
	Height int

	mu     sync.Mutex
	offset int
}

// NewPatternCamera creates a QVGA pattern camera
func NewPatternCamera() *PatternCamera {
	return &PatternCamera{Width: QVGAWidth, Height: QVGAHeight}
}

func (c *PatternCamera) Frame() (protocol.CameraFrame, error) {
	c.mu.Lock()
	offset := c.offset
	c.offset = (c.offset + 1) % c.Width
	c.mu.Unlock()

	barWidth := c.Width / len(barColors)
	if barWidth == 0 {
		barWidth = 1
	}

	pixels := make([]byte, c.Width*c.Height*3)
	row := pixels[:c.Width*3]
	for x := 0; x < c.Width; x++ {
		color := barColors[((x+offset)/barWidth)%len(barColors)]
		copy(row[x*3:], color[:])
	}
	for y := 1; y < c.Height; y++ {
		copy(pixels[y*c.Width*3:], row)
	}

	return protocol.CameraFrame{Width: c.Width, Height: c.Height, Pixels: pixels}, nil
}
