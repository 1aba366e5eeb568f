package scene

import (
	"image/color"
	"math"

	"github.com/olivierh59500/particlelife/internal/matrix"
)

// ClassColor spreads the classes evenly around the hue wheel
func ClassColor(class uint8) color.RGBA {
	h := float64(class) / float64(matrix.ClassCount) * 360
	r, g, b := hsvToRGB(h, 1, 1)
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

// Heat maps a value in [0, 1] from blue to red
func Heat(v float64) color.RGBA {
	v = math.Max(0, math.Min(1, v))
	i := uint8(v * 255)
	return color.RGBA{i, 0, 255 - i, 255}
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
