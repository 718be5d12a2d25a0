// Package ingest turns sensor observations into metric writes.
package ingest

import (
	"fmt"
	"log/slog"

	"github.com/neox5/meterbox/internal/metric"
	"github.com/neox5/meterbox/internal/tank"
)

// Fixed metric names.
const (
	TankLevelName            = "tank_level"
	TankVolumeName           = "tank_volume"
	TankAddedConsumptionName = "tank_added_consumption"
	ReadingsTotalName        = "meter_readings_total"
)

var (
	timestampLabels = []string{"timestamp"}
	tankLabels      = []string{"tankName", "date"}
)

// Service records observations into a metric registry.
type Service struct {
	factory *metric.Factory
	tanks   *tank.Tracker

	tankLevel            *metric.Metric
	tankVolume           *metric.Metric
	tankAddedConsumption *metric.Metric
	readingsTotal        *metric.Metric
}

// New registers the fixed metrics in registry and returns a service
// creating dynamic gauges through factory.
func New(registry *metric.Registry, factory *metric.Factory, tanks *tank.Tracker) (*Service, error) {
	s := &Service{
		factory: factory,
		tanks:   tanks,
	}

	fixed := []struct {
		target **metric.Metric
		def    metric.Definition
	}{
		{&s.tankLevel, metric.Definition{
			Name:       TankLevelName,
			Type:       metric.MetricTypeGauge,
			Help:       "Current level of the tank",
			LabelNames: tankLabels,
		}},
		{&s.tankVolume, metric.Definition{
			Name:       TankVolumeName,
			Type:       metric.MetricTypeGauge,
			Help:       "Volume of liquid in the tank",
			LabelNames: tankLabels,
		}},
		{&s.tankAddedConsumption, metric.Definition{
			Name:       TankAddedConsumptionName,
			Type:       metric.MetricTypeGauge,
			Help:       "Added consumption of liquid in the tank",
			LabelNames: tankLabels,
		}},
		{&s.readingsTotal, metric.Definition{
			Name: ReadingsTotalName,
			Type: metric.MetricTypeCounter,
			Help: "Total number of meter readings received",
		}},
	}

	for _, f := range fixed {
		m, err := registry.Register(f.def)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", f.def.Name, err)
		}
		*f.target = m
	}

	return s, nil
}

// RecordMeterReading sets the gauge of the named meter.
func (s *Service) RecordMeterReading(r MeterReading) error {
	if err := r.Validate(); err != nil {
		return err
	}

	g, err := s.factory.GetOrCreate(metric.MeterScheme, *r.MeterName,
		fmt.Sprintf("Energy meter reading for %s in kWh", *r.MeterName), timestampLabels)
	if err != nil {
		return err
	}

	slog.Debug("meter reading", "meter", *r.MeterName, "reading", *r.Reading)
	return g.Set(*r.Reading, string(*r.Timestamp))
}

// RecordBuildingMeterReading sets the gauge of the building.
// The gauge is keyed on the building only; readings from different meters
// of one building share a series per timestamp.
func (s *Service) RecordBuildingMeterReading(r BuildingMeterReading) error {
	if err := r.Validate(); err != nil {
		return err
	}

	g, err := s.factory.GetOrCreate(metric.BuildingScheme, *r.Building,
		fmt.Sprintf("Energy meter reading for %s - %s in kWh", *r.Building, *r.MeterName), timestampLabels)
	if err != nil {
		return err
	}

	slog.Debug("building meter reading", "building", *r.Building, "meter", *r.MeterName, "reading", *r.Reading)
	return g.Set(*r.Reading, string(*r.Timestamp))
}

// RecordTankLevel sets the level of a tank.
func (s *Service) RecordTankLevel(r TankLevel) error {
	if err := r.Validate(); err != nil {
		return err
	}

	slog.Debug("tank level", "tank", *r.TankName, "level", *r.Level)
	return s.tankLevel.Set(*r.Level, *r.TankName, string(*r.Date))
}

// RecordTankVolume sets the volume of a tank and the consumption added
// since its previous level.
func (s *Service) RecordTankVolume(r TankVolume) error {
	if err := r.Validate(); err != nil {
		return err
	}

	labels := []string{*r.TankName, string(*r.Date)}
	_, _, err := s.tanks.Record(*r.TankName, *r.Diameter, *r.Level, func(volume, added float64) error {
		slog.Debug("tank volume", "tank", *r.TankName, "volume", volume, "added", added)

		if err := s.tankVolume.Set(volume, labels...); err != nil {
			return err
		}
		return s.tankAddedConsumption.Set(added, labels...)
	})
	return err
}

// RecordHTPanelMeterReading sets the gauge of an HT panel meter to the
// difference between its present and previous reading.
// The multiplying factor is required but not applied.
func (s *Service) RecordHTPanelMeterReading(r HTPanelMeterReading) error {
	if err := r.Validate(); err != nil {
		return err
	}

	g, err := s.factory.GetOrCreate(metric.HTPanelScheme, *r.MeterName,
		fmt.Sprintf("ht panel meter reading for %s in kWh", *r.MeterName), timestampLabels)
	if err != nil {
		return err
	}

	consumed := *r.PresentReading - *r.PreviousReading
	slog.Debug("ht panel meter reading", "meter", *r.MeterName, "consumed", consumed)

	if err := g.Set(consumed, string(*r.Timestamp)); err != nil {
		return err
	}
	return s.readingsTotal.Inc()
}
