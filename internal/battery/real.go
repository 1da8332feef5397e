package battery

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Cell voltage window for a single LiPo cell measured through the board's
// divider. Readings are mapped linearly onto 0-100%.
const (
	emptyMillivolts = 3200
	fullMillivolts  = 4200
)

// RealMonitor reads battery voltage from a Linux IIO ADC channel.
type RealMonitor struct {
	rawPath   string
	scalePath string
}

// NewRealMonitor creates a monitor for the given ADC channel of iio:device0.
// It fails fast if the channel is not present so a miswired deployment is
// caught at startup.
func NewRealMonitor(channel int) (*RealMonitor, error) {
	m := &RealMonitor{
		rawPath:   fmt.Sprintf("/sys/bus/iio/devices/iio:device0/in_voltage%d_raw", channel),
		scalePath: "/sys/bus/iio/devices/iio:device0/in_voltage_scale",
	}
	if _, err := os.Stat(m.rawPath); err != nil {
		return nil, fmt.Errorf("adc channel %d: %w", channel, err)
	}
	return m, nil
}

// ReadPercent samples the ADC and maps the voltage onto 0-100%.
func (m *RealMonitor) ReadPercent() (int, error) {
	raw, err := readSysfsFloat(m.rawPath)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}

	// Scale file holds millivolts per raw count. If absent, assume a
	// 12-bit ADC over 3.3 V.
	scale, err := readSysfsFloat(m.scalePath)
	if err != nil {
		scale = 3300.0 / 4096.0
	}

	mv := raw * scale
	pct := int((mv - emptyMillivolts) * 100 / (fullMillivolts - emptyMillivolts))
	return clampPercent(pct), nil
}

// Close releases nothing; sysfs files are opened per read.
func (m *RealMonitor) Close() error {
	return nil
}

func readSysfsFloat(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
