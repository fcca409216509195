package lambert

import (
	"strings"
)

// CelestialObject defines a central body of a transfer.
type CelestialObject struct {
	Name   string
	Radius float64 // mean equatorial radius, in km
	μ      float64 // gravitational parameter, in km^3/s^2
}

// NewCelestialObject returns a body of the provided gravitational parameter.
func NewCelestialObject(name string, radius, μ float64) CelestialObject {
	return CelestialObject{Name: name, Radius: radius, μ: μ}
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "sun":
		return Sun, nil
	case "earth":
		return Earth, nil
	case "venus":
		return Venus, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	default:
		return CelestialObject{}, invalidInputf("undefined body '%s'", name)
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700, 1.32712440017987e11}

// Venus is poisonous.
var Venus = CelestialObject{"Venus", 6051.8, 3.24858599e5}

// Earth is home. Its μ is the EGM96 value.
var Earth = CelestialObject{"Earth", 6378.1363, 3.986004418e5}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3396.19, 4.28283100e4}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 71492.0, 1.266865361e8}

// BelowSurface returns whether the periapsis of the orbit is lower than the radius of the body.
// The transfer arc may not go through periapsis, so this is only a warning.
func (c CelestialObject) BelowSurface(o *Orbit) bool {
	return o.Periapsis() < c.Radius
}
