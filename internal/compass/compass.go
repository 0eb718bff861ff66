// Package compass implements the political-compass geometry: quadrant
// classification, distance from the center, intensity buckets and label
// placement for the chart.
package compass

import (
	"fmt"
	"math"

	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
)

// Axis bounds for both coordinates.
const (
	Min = -10.0
	Max = 10.0
)

// Quadrant of the compass. X grows to the right (economic), Y grows up
// (authoritarian).
type Quadrant int

const (
	LibertarianLeft Quadrant = iota
	AuthoritarianRight
	AuthoritarianLeft
	LibertarianRight
)

// Classify returns the quadrant of (x, y). Points on an axis, including
// the origin, belong to LibertarianLeft.
func Classify(x, y float64) Quadrant {
	switch {
	case x > 0 && y > 0:
		return AuthoritarianRight
	case x < 0 && y > 0:
		return AuthoritarianLeft
	case x > 0 && y < 0:
		return LibertarianRight
	default:
		return LibertarianLeft
	}
}

// Label returns the display name with its color marker.
func (q Quadrant) Label() string {
	switch q {
	case AuthoritarianRight:
		return "🟦 Autoritário Direita"
	case AuthoritarianLeft:
		return "🟥 Autoritário Esquerda"
	case LibertarianRight:
		return "🟨 Libertário Direita"
	default:
		return "🟩 Libertário Esquerda"
	}
}

func (q Quadrant) String() string {
	switch q {
	case AuthoritarianRight:
		return "authoritarian_right"
	case AuthoritarianLeft:
		return "authoritarian_left"
	case LibertarianRight:
		return "libertarian_right"
	default:
		return "libertarian_left"
	}
}

// Intensity buckets the distance from the center.
type Intensity int

const (
	Moderate Intensity = iota
	Strong
	Extreme
)

// Distance is the Euclidean distance of (x, y) from the origin.
func Distance(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}

// IntensityOf buckets a distance: below 5 is Moderate, below 8 is Strong,
// anything else is Extreme.
func IntensityOf(distance float64) Intensity {
	switch {
	case distance < 5:
		return Moderate
	case distance < 8:
		return Strong
	default:
		return Extreme
	}
}

func (i Intensity) String() string {
	switch i {
	case Strong:
		return "Forte"
	case Extreme:
		return "Extremo"
	default:
		return "Moderado"
	}
}

// Position is a classified point.
type Position struct {
	X, Y      float64
	Quadrant  Quadrant
	Distance  float64
	Intensity Intensity
}

// Locate classifies (x, y).
func Locate(x, y float64) Position {
	d := Distance(x, y)
	return Position{
		X:         x,
		Y:         y,
		Quadrant:  Classify(x, y),
		Distance:  d,
		Intensity: IntensityOf(d),
	}
}

// Validate checks that both coordinates lie in [Min, Max].
func Validate(x, y float64) error {
	if math.IsNaN(x) || x < Min || x > Max {
		return domerrors.NewValidationError("x", fmt.Sprintf("A coordenada X deve estar entre %.0f e %.0f.", Min, Max))
	}
	if math.IsNaN(y) || y < Min || y > Max {
		return domerrors.NewValidationError("y", fmt.Sprintf("A coordenada Y deve estar entre %.0f e %.0f.", Min, Max))
	}
	return nil
}

// Label spacing used by LayoutLabels.
const (
	labelMinDistance = 0.5
	labelStep        = 0.2
)

// Point is a labelled position on the chart.
type Point struct {
	X, Y  float64
	Label string
}

// Placed is a point with the coordinates where its label is drawn.
type Placed struct {
	Point
	LabelX, LabelY float64
}

// LayoutLabels places labels in input order. While a label would sit
// within labelMinDistance of an already placed label on both axes, it is
// moved down by labelStep.
func LayoutLabels(points []Point) []Placed {
	out := make([]Placed, 0, len(points))
	for _, p := range points {
		lx, ly := p.X, p.Y
		for overlaps(out, lx, ly) {
			ly -= labelStep
		}
		out = append(out, Placed{Point: p, LabelX: lx, LabelY: ly})
	}
	return out
}

func overlaps(placed []Placed, x, y float64) bool {
	for _, p := range placed {
		if math.Abs(y-p.LabelY) < labelMinDistance && math.Abs(x-p.LabelX) < labelMinDistance {
			return true
		}
	}
	return false
}
