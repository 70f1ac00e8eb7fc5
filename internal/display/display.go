// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display renders posture status on a 128x64 SSD1306 OLED.
package display

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/posture_sense/internal/posture"
)

const (
	Width  = 128
	Height = 64

	// TiltBarCells is the number of cells of the tilt bar; a full bar is
	// posture.MaxReasonableAngle degrees.
	TiltBarCells = 20

	barX      = 4
	barY      = 52
	barCellW  = 6
	barHeight = 10
)

// Drawer is the part of an SSD1306 device the display uses.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display shows rendered frames on a device.
type Display struct {
	dev Drawer
}

// New wraps an already initialized device.
func New(dev Drawer) *Display {
	return &Display{dev: dev}
}

// Open initializes periph, opens the I2C bus and the SSD1306 at its default
// address. The returned closer releases the bus.
func Open(busName string) (*Display, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("display: host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("display: open i2c bus %q: %w", busName, err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("display: init ssd1306: %w", err)
	}
	return New(dev), bus, nil
}

// Show draws a full frame.
func (d *Display) Show(img image.Image) error {
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

// ShowStatus renders and draws one posture status.
func (d *Display) ShowStatus(s posture.Status, calibrated bool) error {
	return d.Show(RenderStatus(s, calibrated))
}

// ShowCalibrating draws calibration progress.
func (d *Display) ShowCalibrating(done, total int) error {
	return d.Show(RenderCalibrating(done, total))
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// RenderSplash renders up to four centered lines.
func RenderSplash(lines ...string) *image1bit.VerticalLSB {
	img, d := newFrame()
	for i, line := range lines {
		if i == 4 {
			break
		}
		w := d.MeasureString(line).Round()
		x := (Width - w) / 2
		if x < 0 {
			x = 0
		}
		drawLine(d, x, 13*(i+1)+2, line)
	}
	return img
}

// RenderCalibrating renders calibration progress.
func RenderCalibrating(done, total int) *image1bit.VerticalLSB {
	img, d := newFrame()
	drawLine(d, 0, 13, "Calibrating")
	drawLine(d, 0, 26, "Hold posture")
	drawLine(d, 0, 39, fmt.Sprintf("%d/%d", done, total))
	fill := 0
	if total > 0 {
		fill = done * TiltBarCells / total
	}
	drawBar(img, fill)
	return img
}

// RenderStatus renders tilt against threshold, score, state and a tilt bar.
func RenderStatus(s posture.Status, calibrated bool) *image1bit.VerticalLSB {
	img, d := newFrame()

	drawLine(d, 0, 13, fmt.Sprintf("Tilt %4.1f/%4.1f", s.MaxAngle, s.Threshold))
	drawLine(d, 0, 26, fmt.Sprintf("Score %3.0f%%", s.Score()))

	state := "GOOD"
	if s.IsBadPosture {
		state = "BAD"
	}
	if !calibrated {
		state += " (no cal)"
	}
	drawLine(d, 0, 39, state)

	drawBar(img, TiltBarFill(s.MaxAngle))
	return img
}

// TiltBarFill returns how many bar cells a tilt fills, 0 to TiltBarCells.
func TiltBarFill(tilt float64) int {
	if !(tilt > 0) {
		return 0
	}
	n := int(tilt * TiltBarCells / posture.MaxReasonableAngle)
	if n > TiltBarCells {
		n = TiltBarCells
	}
	return n
}

// drawBar draws the bar outline and fills the first n cells.
func drawBar(img *image1bit.VerticalLSB, n int) {
	right := barX + TiltBarCells*barCellW
	bottom := barY + barHeight
	for x := barX - 1; x <= right; x++ {
		img.SetBit(x, barY-1, image1bit.On)
		img.SetBit(x, bottom, image1bit.On)
	}
	for y := barY - 1; y <= bottom; y++ {
		img.SetBit(barX-1, y, image1bit.On)
		img.SetBit(right, y, image1bit.On)
	}
	for c := 0; c < n; c++ {
		x0 := barX + c*barCellW
		for x := x0; x < x0+barCellW-1; x++ {
			for y := barY + 1; y < bottom-1; y++ {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
}
