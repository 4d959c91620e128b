package render

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tickSteps = []float64{0.25, 0.5, 1, 2, 5, 10, 15, 20, 30, 45, 60, 90}

// maxTicks bounds the frame annotations per axis.
const maxTicks = 7

// Ticks picks round degree positions inside [lo, hi], at most maxTicks of
// them, the way GMT's automatic frame annotation does.
func Ticks(lo, hi float64) []float64 {
	step := tickSteps[len(tickSteps)-1]
	for _, s := range tickSteps {
		if (hi-lo)/s <= maxTicks {
			step = s
			break
		}
	}
	var out []float64
	for k := math.Ceil(lo/step - 1e-9); k*step <= hi+1e-9; k++ {
		out = append(out, k*step)
	}
	return out
}

var printer = message.NewPrinter(language.English)

// FormatLon renders a longitude as "45°E".
func FormatLon(v float64) string { return formatDegrees(v, "E", "W") }

// FormatLat renders a latitude as "30°N".
func FormatLat(v float64) string { return formatDegrees(v, "N", "S") }

func formatDegrees(v float64, pos, neg string) string {
	hemi := pos
	if v < 0 {
		hemi, v = neg, -v
	}
	if v == 0 {
		hemi = ""
	}
	return printer.Sprintf("%s°%s", trimFloat(v), hemi)
}

// FormatEdges labels colorbar edges with the fewest decimals that keep every
// label exact, grouping thousands ("1,000").
func FormatEdges(edges []float64) []string {
	prec := 0
	for _, e := range edges {
		s := strconv.FormatFloat(roundTo(e, 9), 'f', -1, 64)
		for i := range s {
			if s[i] == '.' {
				prec = max(prec, len(s)-i-1)
				break
			}
		}
	}
	out := make([]string, len(edges))
	for i, e := range edges {
		v := roundTo(e, prec)
		if v == 0 {
			v = 0 // no "-0"
		}
		out[i] = printer.Sprintf("%.*f", prec, v)
	}
	return out
}

func trimFloat(v float64) string { return strconv.FormatFloat(roundTo(v, 6), 'f', -1, 64) }

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
