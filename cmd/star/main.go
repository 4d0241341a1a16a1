package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/signorgelato/stellar"
	"github.com/spf13/viper"
)

// This code effectively only reads the scenario file and integrates the star.

const defaultScenario = "~~unset~~"

var (
	scenario string
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "really verbose (esp. for configuration)")
}

func main() {
	flag.Parse()
	// Load scenario
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}

	// Read the equation of state
	eosName := viper.GetString("eos.name")
	eosFile := viper.GetString("eos.file")
	if eosName == "" || eosFile == "" {
		log.Fatal("scenario is missing eos.name or eos.file")
	}
	consts := stellar.StandardConstants()
	eos, err := stellar.LoadEOS(eosName, eosFile, consts)
	if err != nil {
		log.Fatalf("loading %s: %s", eosFile, err)
	}
	if verbose {
		log.Printf("[conf] %s\n", eos)
	}

	// Read the integration parameters
	ρc := viper.GetFloat64("integration.rho_c")
	r0 := viper.GetFloat64("integration.start")
	rMax := viper.GetFloat64("integration.rmax")
	points := viper.GetInt("integration.points")
	tol := viper.GetFloat64("integration.tolerance")
	if tol == 0 {
		tol = 1e-6
	}
	method := stellar.RK4
	if m := viper.GetString("integration.method"); strings.EqualFold(m, "dopri") || strings.EqualFold(m, "dormand-prince") {
		method = stellar.DormandPrince
	}
	if verbose {
		log.Printf("[conf] ρc=%g grid=[%g, %g] n=%d tol=%g method=%s\n", ρc, r0, rMax, points, tol, method)
	}

	if points < 2 || r0 <= 0 || rMax <= r0 {
		log.Fatalf("invalid grid: start=%g rmax=%g points=%d", r0, rMax, points)
	}

	export := stellar.ExportConfig{
		Filename:  viper.GetString("export.filename"),
		AsCSV:     viper.GetBool("export.csv"),
		Timestamp: viper.GetBool("export.timestamp"),
	}

	grid := stellar.NewRadialGrid(r0, rMax, points)
	s, err := stellar.NewStructure(eosName, eos, ρc, grid, tol, method, export)
	if err != nil {
		log.Fatalf("configuration: %s", err)
	}
	sol, err := s.Solve()
	if err != nil {
		log.Fatalf("integration: %s", err)
	}
	if sol.GridExhausted {
		log.Printf("WARNING: no surface found within rmax=%g, result unreliable: increase integration.rmax", rMax)
	}

	fmt.Printf("R = %.4f km\nM = %.4f solar masses\n", consts.RadiusKm(sol.R()), consts.SolarMasses(sol.M()))
}
