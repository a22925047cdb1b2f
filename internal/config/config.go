// Package config parses the node settings from command line flags. Any flag
// not given on the command line falls back to the NODE_<FLAG> environment
// variable, e.g. -poll-interval to NODE_POLL_INTERVAL.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/bmp180"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

const envPrefix = "NODE_"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	I2CBus  int
	I2CAddr uint
	DHTPin  string

	PollInterval     time.Duration
	HumidityInterval time.Duration
	PressureMode     bmp180.Mode
	BaroDriver       string

	Listen    string
	HomeKit   bool
	HapPin    string
	HapDB     string
	NtfyURL   string
	Retention time.Duration

	// FailureThreshold is the number of consecutive failed reads of one
	// sensor before a notification goes out.
	FailureThreshold int

	Debug bool
}

// Parse reads args (without the program name) and the environment through
// getenv.
func Parse(name string, args []string, getenv func(string) string) (*Config, error) {
	c := &Config{}
	var mode string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&c.I2CBus, "i2c-bus", 1, "i2c bus of the BMP180")
	fs.UintVar(&c.I2CAddr, "i2c-addr", bmp180.Address, "i2c address of the BMP180")
	fs.StringVar(&c.DHTPin, "dht-pin", "GPIO18", "gpio of the DHT11 data line")
	fs.DurationVar(&c.PollInterval, "poll-interval", 5*time.Second, "pressure and temperature read period")
	fs.DurationVar(&c.HumidityInterval, "humidity-interval", 5*time.Second, "humidity read period")
	fs.StringVar(&mode, "pressure-mode", bmp180.UltraHighRes.String(), "BMP180 oversampling mode")
	fs.StringVar(&c.BaroDriver, "baro-driver", sensors.DriverNative, "barometer driver: native or bsbmp")
	fs.StringVar(&c.Listen, "listen", ":8080", "status page and /metrics address")
	fs.BoolVar(&c.HomeKit, "homekit", true, "publish to HomeKit")
	fs.StringVar(&c.HapPin, "hap-pin", "11112222", "HomeKit pairing PIN")
	fs.StringVar(&c.HapDB, "hap-db", "./db", "HomeKit pairing store directory")
	fs.StringVar(&c.NtfyURL, "ntfy-url", "", "ntfy topic URL for sensor alerts, empty to disable")
	fs.DurationVar(&c.Retention, "retention", 30*24*time.Hour, "in-memory metrics retention")
	fs.IntVar(&c.FailureThreshold, "failure-threshold", 5, "consecutive failures before an alert")
	fs.BoolVar(&c.Debug, "debug", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := fromEnv(fs, getenv); err != nil {
		return nil, err
	}

	m, err := bmp180.ParseMode(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: -pressure-mode: %w", ErrInvalid, err)
	}
	c.PressureMode = m

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.HumidityInterval < dht11.MinReadInterval {
		log.Info.Printf("humidity interval %v is too short for the DHT11, use %v", c.HumidityInterval, dht11.MinReadInterval)
		c.HumidityInterval = dht11.MinReadInterval
	}

	return c, nil
}

// fromEnv fills every flag not set on the command line from its variable.
func fromEnv(fs *flag.FlagSet, getenv func(string) string) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || set[f.Name] {
			return
		}

		key := EnvName(f.Name)
		v := getenv(key)
		if v == "" {
			return
		}

		if e := fs.Set(f.Name, v); e != nil {
			err = fmt.Errorf("%w: %s: %w", ErrInvalid, key, e)
		}
	})

	return err
}

// EnvName is the environment variable backing flag name.
func EnvName(name string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func (c *Config) Validate() error {
	switch {
	case c.I2CBus < 0:
		return fmt.Errorf("%w: i2c bus %d", ErrInvalid, c.I2CBus)
	case c.I2CAddr < 0x03 || c.I2CAddr > 0x77:
		return fmt.Errorf("%w: i2c address 0x%02X", ErrInvalid, c.I2CAddr)
	case c.DHTPin == "":
		return fmt.Errorf("%w: empty dht pin", ErrInvalid)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval %v", ErrInvalid, c.PollInterval)
	case c.HumidityInterval <= 0:
		return fmt.Errorf("%w: humidity interval %v", ErrInvalid, c.HumidityInterval)
	case !c.PressureMode.IsPressure():
		return fmt.Errorf("%w: pressure mode %s", ErrInvalid, c.PressureMode)
	case c.BaroDriver != sensors.DriverNative && c.BaroDriver != sensors.DriverBsbmp:
		return fmt.Errorf("%w: barometer driver %q", ErrInvalid, c.BaroDriver)
	case c.Listen == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	case c.HomeKit && len(c.HapPin) != 8:
		return fmt.Errorf("%w: HomeKit PIN must have 8 digits", ErrInvalid)
	case c.FailureThreshold < 1:
		return fmt.Errorf("%w: failure threshold %d", ErrInvalid, c.FailureThreshold)
	case c.Retention < 0:
		return fmt.Errorf("%w: retention %v", ErrInvalid, c.Retention)
	}

	return nil
}
