package stellar

import (
	"fmt"
	"os"
	"time"

	"github.com/soniakeys/meeus/julian"
)

// ExportConfig configures the exporting of the integration.
type ExportConfig struct {
	Filename  string
	AsCSV     bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV
}

// createProfileCSVFile returns a file which requires a defer close statement!
func createProfileCSVFile(conf ExportConfig) *os.File {
	config := stellarConfig()
	var filename string
	if conf.Timestamp {
		t := time.Now()
		filename = fmt.Sprintf("%s/profile-%s-%d-%02d-%02dT%02d.%02d.%02d.csv", config.outputDir, conf.Filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("%s/profile-%s.csv", config.outputDir, conf.Filename)
	}
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	// Header
	now := time.Now().UTC()
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s (JD: %f)
# Records are r, mu, m, p.
#   Radius and mass in code units (G=c=1)
#   Energy density and pressure in units of the nuclear saturation density
r,mu,m,p
`, now, julian.TimeToJD(now)))
	return f
}

// StreamProfile streams the output of the channel to the configured file.
func StreamProfile(conf ExportConfig, stateChan <-chan (ProfileState)) {
	if conf.IsUseless() {
		for range stateChan {
			// Drain so the integration never blocks on a dead export.
		}
		return
	}
	f := createProfileCSVFile(conf)
	defer f.Close()
	for state := range stateChan {
		f.WriteString(fmt.Sprintf("%.12e,%.12e,%.12e,%.12e\n", state.R, state.Mu, state.M, state.P))
	}
}
