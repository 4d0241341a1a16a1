package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"runtime"
	"strings"

	"github.com/signorgelato/stellar"
	"github.com/spf13/viper"
)

// Computes a mass radius curve by scanning a range of central densities.
// Each central density is an independent integration, so they run in
// parallel over the configured number of workers.

const defaultScenario = "~~unset~~"

var scenario string

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}

	consts := stellar.StandardConstants()
	eosName := viper.GetString("eos.name")
	eos, err := stellar.LoadEOS(eosName, viper.GetString("eos.file"), consts)
	if err != nil {
		log.Fatalf("loading EoS: %s", err)
	}

	ρMin := viper.GetFloat64("curve.rho_min")
	ρMax := viper.GetFloat64("curve.rho_max")
	count := viper.GetInt("curve.count")
	if count < 2 || ρMin <= 0 || ρMax <= ρMin {
		log.Fatalf("invalid curve range: [%g, %g] over %d points", ρMin, ρMax, count)
	}
	workers := viper.GetInt("curve.workers")
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	// Log spaced central densities.
	densities := make([]float64, count)
	lnStep := (math.Log(ρMax) - math.Log(ρMin)) / float64(count-1)
	for i := range densities {
		densities[i] = ρMin * math.Exp(float64(i)*lnStep)
	}

	grid := stellar.NewRadialGrid(viper.GetFloat64("integration.start"), viper.GetFloat64("integration.rmax"), viper.GetInt("integration.points"))
	tol := viper.GetFloat64("integration.tolerance")
	if tol == 0 {
		tol = 1e-6
	}
	method := stellar.DormandPrince
	if strings.EqualFold(viper.GetString("integration.method"), "rk4") {
		method = stellar.RK4
	}

	points := stellar.MassRadiusCurve(eos, densities, grid, tol, method, workers)
	fmt.Println("rho_c,R_km,M_sun,unreliable")
	for _, pt := range points {
		if pt.Err != nil {
			log.Printf("rho_c=%g: %s", pt.RhoC, pt.Err)
			continue
		}
		fmt.Printf("%.6e,%.6f,%.6f,%v\n", pt.RhoC, consts.RadiusKm(pt.R), consts.SolarMasses(pt.M), pt.Unreliable)
	}
}
