package windtunnel

import (
	"fmt"
	"math"
	"strings"
)

// Body defines an atmospheric celestial body. Distances are in meters.
type Body struct {
	Name            string
	Radius          float64
	μ               float64
	AtmosphereDepth float64
	density         *FloatCurve // kg/m³ versus altitude
	speedOfSound    *FloatCurve // m/s versus altitude
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (b *Body) GM() float64 {
	return b.μ
}

// String implements the Stringer interface.
func (b *Body) String() string {
	return b.Name + " body"
}

// Density returns the atmospheric density at the given altitude, zero above the atmosphere.
func (b *Body) Density(altitude float64) float64 {
	if altitude >= b.AtmosphereDepth {
		return 0
	}
	return math.Max(b.density.EvaluateThreadSafe(altitude), 0)
}

// SpeedOfSound returns the speed of sound at the given altitude.
func (b *Body) SpeedOfSound(altitude float64) float64 {
	return b.speedOfSound.EvaluateThreadSafe(altitude)
}

// Gravity returns the gravitational acceleration at the given altitude.
func (b *Body) Gravity(altitude float64) float64 {
	r := b.Radius + altitude
	return b.μ / (r * r)
}

// NewBody returns a body with an exponential atmosphere of the provided sea level density
// and scale height, tabulated every kilometer, and a speed of sound profile given as
// (altitude, speed) pairs.
func NewBody(name string, radius, μ, depth, ρ0, scaleHeight float64, soundAltitudes, soundSpeeds []float64) (*Body, error) {
	if !(radius > 0) || !(μ > 0) || !(depth > 0) || !(ρ0 >= 0) || !(scaleHeight > 0) {
		return nil, fmt.Errorf("%w: body %s has non-positive physical constants", ErrInvalidArgument, name)
	}
	n := int(math.Ceil(depth/1000)) + 1
	alts := linspace(0, depth, n)
	keys := make([]Keyframe, n)
	for i, h := range alts {
		ρ := ρ0 * math.Exp(-h/scaleHeight)
		keys[i] = Keyframe{Time: h, Value: ρ, InTangent: -ρ / scaleHeight, OutTangent: -ρ / scaleHeight}
	}
	density, err := NewFloatCurve(keys...)
	if err != nil {
		return nil, err
	}
	sound, err := NewSmoothFloatCurve(soundAltitudes, soundSpeeds)
	if err != nil {
		return nil, err
	}
	return &Body{Name: name, Radius: radius, μ: μ, AtmosphereDepth: depth, density: density, speedOfSound: sound}, nil
}

func mustBody(b *Body, err error) *Body {
	if err != nil {
		panic(err)
	}
	return b
}

/* Definitions */

var kerbolSound = []float64{0, 10000, 20000, 40000, 70000, 90000}

// Kerbin is home.
var Kerbin = mustBody(NewBody("Kerbin", 600000, 3.5316e12, 70000, 1.225, 5600, kerbolSound, []float64{340, 305, 295, 320, 290, 280}))

// Eve has a thick atmosphere.
var Eve = mustBody(NewBody("Eve", 700000, 8.1717302e12, 90000, 6.2, 7200, kerbolSound, []float64{330, 300, 285, 300, 280, 270}))

// Duna has a thin atmosphere.
var Duna = mustBody(NewBody("Duna", 320000, 3.0136321e11, 50000, 0.0147, 5700, kerbolSound, []float64{290, 270, 255, 250, 245, 240}))

// Laythe is Jool's oceanic moon.
var Laythe = mustBody(NewBody("Laythe", 500000, 1.962e12, 50000, 0.76, 4000, kerbolSound, []float64{330, 300, 290, 300, 285, 280}))

// BodyFromString returns the body from its name.
func BodyFromString(name string) (*Body, error) {
	switch strings.ToLower(name) {
	case "kerbin":
		return Kerbin, nil
	case "eve":
		return Eve, nil
	case "duna":
		return Duna, nil
	case "laythe":
		return Laythe, nil
	default:
		return nil, fmt.Errorf("undefined body '%s'", name)
	}
}
