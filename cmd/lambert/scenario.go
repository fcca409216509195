package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ChristopherRabotin/lambert"
	"github.com/gonum/matrix/mat64"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// scenario is a transfer read from a TOML file.
type scenario struct {
	conf               lambert.Config
	body               lambert.CelestialObject
	Ri, Rf             *mat64.Vector
	departure, arrival time.Time
	Δt                 float64 // seconds
	revs               uint
	samples, workers   int
	σR                 float64
}

// loadScenario reads the scenario file, with or without its .toml extension.
func loadScenario(path string) (sc scenario, err error) {
	v := viper.New()
	if !strings.HasSuffix(path, ".toml") {
		path += ".toml"
	}
	v.SetConfigFile(path)
	if err = v.ReadInConfig(); err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		return
	}
	if sc.conf, err = lambert.ConfigFromViper(v); err != nil {
		return
	}
	v.SetDefault("transfer.body", "earth")
	if sc.body, err = lambert.CelestialObjectFromString(v.GetString("transfer.body")); err != nil {
		return
	}
	if sc.Ri, err = confReadVector(v, "transfer.R0"); err != nil {
		return
	}
	if sc.Rf, err = confReadVector(v, "transfer.R1"); err != nil {
		return
	}
	if v.IsSet("transfer.tof") {
		sc.Δt = v.GetDuration("transfer.tof").Seconds()
	} else {
		sc.departure = confReadJDEorTime(v, "transfer.departure")
		sc.arrival = confReadJDEorTime(v, "transfer.arrival")
		sc.Δt = sc.arrival.Sub(sc.departure).Seconds()
	}
	if !(sc.Δt > 0) {
		err = fmt.Errorf("%s: time of flight must be positive, got %fs", path, sc.Δt)
		return
	}
	revs := v.GetInt("transfer.revolutions")
	if revs < 0 {
		err = fmt.Errorf("%s: negative number of revolutions", path)
		return
	}
	sc.revs = uint(revs)
	v.SetDefault("dispersion.samples", 100)
	v.SetDefault("dispersion.sigma", 1.0)
	sc.samples = v.GetInt("dispersion.samples")
	sc.workers = v.GetInt("dispersion.workers")
	sc.σR = v.GetFloat64("dispersion.sigma")
	return
}

// confReadVector reads a 3x1 vector from an array of numbers.
func confReadVector(v *viper.Viper, key string) (*mat64.Vector, error) {
	vals, err := cast.ToFloat64SliceE(v.Get(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("%s: expected 3 components, got %d", key, len(vals))
	}
	return mat64.NewVector(3, vals), nil
}

// confReadJDEorTime reads a date either as a Julian date or as a TOML date.
func confReadJDEorTime(v *viper.Viper, key string) (dt time.Time) {
	jde := v.GetFloat64(key)
	if jde == 0 {
		dt = v.GetTime(key)
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}
