/*
	pb – Braille Patterns

	Simple way to represent numeric lines like a plot in text.
*/

package bp

import (
	"fmt"
	"math"
	"strings"

	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

// ⣿⣶⣤⣀ – ok
// ⣾⣷⣴⣦⣠⣄ - ok
// ⣼⣧⣸⣇⣰⣆ - ok
// ⢸⢰⢠⢀⡇⡆⡄⡀ – ok
const (
	m44 = "⣿"
	m33 = "⣶"
	m22 = "⣤"
	m11 = "⣀"

	m34 = "⣾"
	m43 = "⣷"
	m23 = "⣴"
	m32 = "⣦"
	m12 = "⣠"
	m21 = "⣄"

	m24 = "⣼"
	m42 = "⣧"
	m14 = "⣸"
	m41 = "⣇"
	m13 = "⣰"
	m31 = "⣆"

	m40 = "⡇"
	m30 = "⡆"
	m20 = "⡄"
	m10 = "⡀"

	m04 = "⢸"
	m03 = "⢰"
	m02 = "⢠"
	m01 = "⢀"
	m00 = "⠀"
)

var bps = [5][]rune{
	[]rune(m00 + m01 + m02 + m03 + m04),
	[]rune(m10 + m11 + m12 + m13 + m14),
	[]rune(m20 + m21 + m22 + m23 + m24),
	[]rune(m30 + m31 + m32 + m33 + m34),
	[]rune(m40 + m41 + m42 + m43 + m44),
}

// SimplePlot draws data as a braille bar chart size rows high, two values
// per column, scaled to the range of data. An odd value count leaves the
// right half of the last column empty.
func SimplePlot(size int, data []float64) string {
	if len(data) == 0 || size <= 0 {
		return ""
	}

	lo, hi := minMax(data)
	log.Debg.Printf("hi: %.2f lo: %.2f", hi, lo)

	levels := float64(size * 4)
	// flat data still gets the bottom dot row
	dot := (hi - lo) / (levels - 1)

	ps := pairs(data)
	for c := range ps {
		for i, v := range ps[c] {
			switch {
			case math.IsNaN(v):
				ps[c][i] = 0
			case dot == 0:
				ps[c][i] = 1
			default:
				ps[c][i] = 1 + math.Round((v-lo)/dot)
			}
		}
	}
	log.Debg.Println("dot ps:", ps)

	// add value bounds
	return fmt.Sprintf("%.2f\n%s%.2f", hi, render(size, ps), lo)
}

func render(size int, ps [][2]float64) string {
	plot := make([][]string, size)
	for r := range plot {
		plot[r] = make([]string, len(ps))
	}

	for c, p := range ps {
		fst, snd := int(p[0]), int(p[1])
		for r := len(plot) - 1; r >= 0; r, fst, snd = r-1, fst-4, snd-4 {
			currFst, currSnd := max(0, fst), max(0, snd)
			currFst, currSnd = min(4, currFst), min(4, currSnd)
			plot[r][c] = string(bps[currFst][currSnd])
		}
	}

	sb := strings.Builder{}
	for _, line := range plot {
		sb.WriteString(strings.Join(line, "") + "\n")
	}

	return sb.String()
}

// pairs groups xs by two, padding an odd tail with NaN.
func pairs(xs []float64) [][2]float64 {
	ps := make([][2]float64, 0, (len(xs)+1)/2)
	for i := 0; i < len(xs); i += 2 {
		p := [2]float64{xs[i], math.NaN()}
		if i+1 < len(xs) {
			p[1] = xs[i+1]
		}
		ps = append(ps, p)
	}

	return ps
}

func minMax(xs []float64) (float64, float64) {
	minimum, maximum := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		minimum = math.Min(minimum, x)
		maximum = math.Max(maximum, x)
	}

	return minimum, maximum
}
