package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LabelValue is a label supplied as either a JSON string or a JSON number.
// Numbers are formatted in plain decimal notation, so 1e3 becomes "1000".
type LabelValue string

// UnmarshalJSON implements json.Unmarshaler.
func (l *LabelValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LabelValue(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("label value must be a string or number: %s", data)
	}
	*l = LabelValue(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// MeterReading is a single energy meter observation.
type MeterReading struct {
	MeterName *string     `json:"meterName"`
	Reading   *float64    `json:"reading"`
	Timestamp *LabelValue `json:"timestamp"`
}

// BuildingMeterReading is a meter observation attributed to a building.
type BuildingMeterReading struct {
	Building  *string     `json:"building"`
	MeterName *string     `json:"meterName"`
	Reading   *float64    `json:"reading"`
	Timestamp *LabelValue `json:"timestamp"`
}

// TankLevel is a tank level observation.
type TankLevel struct {
	TankName *string     `json:"tankName"`
	Level    *float64    `json:"level"`
	Date     *LabelValue `json:"date"`
}

// TankVolume is a tank level observation with the tank geometry.
type TankVolume struct {
	TankName *string     `json:"tankName"`
	Diameter *float64    `json:"diameter"`
	Level    *float64    `json:"level"`
	Date     *LabelValue `json:"date"`
}

// HTPanelMeterReading is a pair of readings from an HT panel meter.
type HTPanelMeterReading struct {
	MeterName         *string     `json:"meterName"`
	PreviousReading   *float64    `json:"previousReading"`
	PresentReading    *float64    `json:"presentReading"`
	MultiplyingFactor *float64    `json:"multiplyingFactor"`
	Timestamp         *LabelValue `json:"timestamp"`
}

// ValidationError reports required fields that were absent.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Missing, ", ")
}

// fields collects missing required fields in declaration order.
type fields struct {
	missing []string
}

func (f *fields) text(name string, v *string) {
	if v == nil || *v == "" {
		f.missing = append(f.missing, name)
	}
}

func (f *fields) label(name string, v *LabelValue) {
	if v == nil || *v == "" {
		f.missing = append(f.missing, name)
	}
}

func (f *fields) number(name string, v *float64) {
	if v == nil {
		f.missing = append(f.missing, name)
	}
}

func (f *fields) err() error {
	if len(f.missing) == 0 {
		return nil
	}
	return &ValidationError{Missing: f.missing}
}

// Validate reports missing fields.
func (r MeterReading) Validate() error {
	var f fields
	f.text("meterName", r.MeterName)
	f.number("reading", r.Reading)
	f.label("timestamp", r.Timestamp)
	return f.err()
}

// Validate reports missing fields.
func (r BuildingMeterReading) Validate() error {
	var f fields
	f.text("building", r.Building)
	f.text("meterName", r.MeterName)
	f.number("reading", r.Reading)
	f.label("timestamp", r.Timestamp)
	return f.err()
}

// Validate reports missing fields.
func (r TankLevel) Validate() error {
	var f fields
	f.text("tankName", r.TankName)
	f.number("level", r.Level)
	f.label("date", r.Date)
	return f.err()
}

// Validate reports missing fields.
func (r TankVolume) Validate() error {
	var f fields
	f.text("tankName", r.TankName)
	f.number("diameter", r.Diameter)
	f.number("level", r.Level)
	f.label("date", r.Date)
	return f.err()
}

// Validate reports missing fields.
func (r HTPanelMeterReading) Validate() error {
	var f fields
	f.text("meterName", r.MeterName)
	f.number("previousReading", r.PreviousReading)
	f.number("presentReading", r.PresentReading)
	f.number("multiplyingFactor", r.MultiplyingFactor)
	f.label("timestamp", r.Timestamp)
	return f.err()
}
