package lambert

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/require"
)

func TestTransferGeometry(t *testing.T) {
	// From Vallado 4th edition, page 497
	Ri := mat64.NewVector(3, []float64{15945.34, 0, 0})
	Rf := mat64.NewVector(3, []float64{12214.83399, 10249.46731, 0})
	geom, err := NewTransferGeometry(Ri, Rf, Prograde)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	t.Logf("%s", geom)
	if !floats.EqualWithinAbs(geom.Δθ, Deg2rad(40), 1e-6) {
		t.Fatalf("Δθ=%f deg", Rad2deg(geom.Δθ))
	}
	if !floats.EqualWithinAbs(geom.Chord, 10907.256998, 1e-6) {
		t.Fatalf("chord=%f", geom.Chord)
	}
	if !floats.EqualWithinAbs(geom.S, 21398.966646, 1e-6) {
		t.Fatalf("s=%f", geom.S)
	}
	if !floats.EqualWithinAbs(geom.Lambda(), 0.700207455621, 1e-10) {
		t.Fatalf("λ=%f", geom.Lambda())
	}
	if !floats.EqualWithinAbs(geom.A(), 21190.174366, 1e-5) {
		t.Fatalf("A=%f", geom.A())
	}
	if geom.LongWay() {
		t.Fatal("prograde 40 deg transfer should be the short way")
	}

	retro, err := NewTransferGeometry(Ri, Rf, Retrograde)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !retro.LongWay() || retro.Direction != Retrograde {
		t.Fatal("retrograde 40 deg transfer should be the long way")
	}
	if !floats.EqualWithinAbs(retro.Δθ, Deg2rad(320), 1e-6) {
		t.Fatalf("Δθ=%f deg", Rad2deg(retro.Δθ))
	}
	if !floats.EqualWithinAbs(retro.Lambda(), -geom.Lambda(), 1e-15) || !floats.EqualWithinAbs(retro.A(), -geom.A(), 1e-8) {
		t.Fatal("long way must flip the signs of λ and A")
	}
	if retro.Chord != geom.Chord || retro.S != geom.S {
		t.Fatal("chord and semi-perimeter do not depend on the direction")
	}

	// Swapping the vectors makes the Z component of the angular momentum negative.
	swapped, err := NewTransferGeometry(Rf, Ri, Prograde)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !swapped.LongWay() {
		t.Fatal("prograde transfer with h_z < 0 should be the long way")
	}
}

func TestTransferGeometryPolar(t *testing.T) {
	// Z component of the angular momentum is exactly zero: treated as positive.
	geom, err := NewTransferGeometry(mat64.NewVector(3, []float64{7000, 0, 0}), mat64.NewVector(3, []float64{0, 0, 7000}), Prograde)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if geom.LongWay() || !floats.EqualWithinAbs(geom.Δθ, math.Pi/2, 1e-12) {
		t.Fatalf("polar transfer should be the short way: %s", geom)
	}
}

func TestTransferGeometryErrors(t *testing.T) {
	R := mat64.NewVector(3, []float64{7000, 0, 0})
	var geomErr *GeometryError
	for name, Rf := range map[string]*mat64.Vector{
		"parallel":      mat64.NewVector(3, []float64{8000, 0, 0}),
		"anti-parallel": mat64.NewVector(3, []float64{-8000, 0, 0}),
		"near parallel": mat64.NewVector(3, []float64{8000, 1e-6, 0}),
		"zero":          mat64.NewVector(3, []float64{0, 0, 0}),
		"dimension":     mat64.NewVector(2, []float64{8000, 1}),
		"nil":           nil,
	} {
		_, err := NewTransferGeometry(R, Rf, Prograde)
		require.ErrorAs(t, err, &geomErr, name)
		t.Logf("[OK] %s: %s", name, err)
	}
	_, err := NewTransferGeometry(R, mat64.NewVector(3, []float64{0, math.NaN(), 0}), Prograde)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewTransferGeometry(R, mat64.NewVector(3, []float64{0, 7000, 0}), Direction(3))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDirectionFromString(t *testing.T) {
	for name, exp := range map[string]Direction{"": Prograde, "prograde": Prograde, "retrograde": Retrograde} {
		dir, err := DirectionFromString(name)
		require.NoError(t, err)
		if dir != exp {
			t.Fatalf("`%s` -> %s, expected %s", name, dir, exp)
		}
		if name != "" && dir.String() != name {
			t.Fatalf("%s.String() != %s", dir, name)
		}
	}
	_, err := DirectionFromString("sideways")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransferGeometryCollinearThreshold(t *testing.T) {
	Ri := mat64.NewVector(3, []float64{7000, 0, 0})
	for _, tc := range []struct {
		deg       float64
		collinear bool
	}{{1e-4, false}, {2e-5, true}, {180 - 1e-4, false}, {180 - 2e-5, true}} {
		s, c := math.Sincos(tc.deg * math.Pi / 180)
		_, err := NewTransferGeometry(Ri, mat64.NewVector(3, []float64{7000 * c, 7000 * s, 0}), Prograde)
		var geomErr *GeometryError
		if tc.collinear {
			require.ErrorAs(t, err, &geomErr, "Δθ=%g deg", tc.deg)
		} else {
			require.NoError(t, err, "Δθ=%g deg", tc.deg)
		}
	}
}
