package seatgeek

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// SearchSettings holds the configurable part of the performer lookup.
type SearchSettings struct {
	City       string `yaml:"city" mapstructure:"city" validate:"required"`
	WindowDays int    `yaml:"window_days" mapstructure:"window_days" default:"7" validate:"gte=1,lte=90"`
	PerPage    int    `yaml:"per_page" mapstructure:"per_page" default:"50" validate:"gte=1,lte=500"`
	Taxonomy   string `yaml:"taxonomy" mapstructure:"taxonomy" default:"concert"`
}

// ParseSearchSettings decodes free-form settings into SearchSettings.
func ParseSearchSettings(settings map[string]any) (*SearchSettings, error) {
	var s SearchSettings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode search settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &s, nil
}

// Query builds an events query starting at now. A non-nil start or end
// overrides the rolling window.
func (s *SearchSettings) Query(now time.Time, start, end *time.Time) Query {
	from := now
	if start != nil {
		from = *start
	}
	to := from.AddDate(0, 0, s.WindowDays)
	if end != nil {
		to = *end
	}
	return Query{
		City:     s.City,
		From:     from,
		To:       to,
		Taxonomy: s.Taxonomy,
		PerPage:  s.PerPage,
	}
}
