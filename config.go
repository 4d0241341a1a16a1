package stellar

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

var (
	cfgOnce sync.Once
	config  = _stellarconfig{dataDir: ".", outputDir: "."}
)

// _stellarconfig is a "hidden" struct, just use `stellarConfig`
type _stellarconfig struct {
	dataDir   string
	outputDir string
}

// EOSPath resolves the path of an equation of state data file against the
// configured data directory.
func (c _stellarconfig) EOSPath(filename string) string {
	return fmt.Sprintf("%s/%s", c.dataDir, filename)
}

// stellarConfig returns the stellar configuration. If the STELLAR_CONFIG
// environment variable points to a directory with a conf.toml, the data and
// output directories are read from it; otherwise both default to the
// working directory. Loaded once, then cached.
func stellarConfig() _stellarconfig {
	cfgOnce.Do(func() {
		confPath := os.Getenv("STELLAR_CONFIG")
		if confPath == "" {
			return
		}
		v := viper.New()
		v.SetConfigName("conf")
		v.AddConfigPath(confPath)
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Errorf("%s/conf.toml not found", confPath))
		}
		if dir := v.GetString("general.data_path"); dir != "" {
			config.dataDir = dir
		}
		if dir := v.GetString("general.output_path"); dir != "" {
			config.outputDir = dir
		}
	})
	return config
}

// DataDir returns the configured equation of state data directory.
func DataDir() string {
	return stellarConfig().dataDir
}

// OutputDir returns the configured output directory.
func OutputDir() string {
	return stellarConfig().outputDir
}
