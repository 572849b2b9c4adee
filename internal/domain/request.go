package domain

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// GroupBy selects the period granularity for trend bucketing.
type GroupBy string

// Supported period granularities.
const (
	GroupByDay     GroupBy = "day"
	GroupByWeek    GroupBy = "week"
	GroupByMonth   GroupBy = "month"
	GroupByQuarter GroupBy = "quarter"
	GroupByYear    GroupBy = "year"
)

// DefaultGroupBy is used when a request does not specify a granularity.
const DefaultGroupBy = GroupByMonth

// ReportFilters narrows the match set a report is built from.
// Filtering itself is performed by the match source.
type ReportFilters struct {
	From         *time.Time  `json:"from,omitempty"`
	To           *time.Time  `json:"to,omitempty"`
	TeamID       string      `json:"teamId,omitempty"`
	PlayerID     string      `json:"playerId,omitempty"`
	TournamentID string      `json:"tournamentId,omitempty"`
	Status       MatchStatus `json:"status,omitempty"`
	Location     string      `json:"location,omitempty"`
}

// ReportOptions controls which optional sections are computed.
type ReportOptions struct {
	GroupBy         GroupBy `json:"groupBy"`
	IncludeInsights bool    `json:"includeInsights"`
	IncludeCharts   bool    `json:"includeCharts"`
}

// WithDefaults returns a copy of the options with an empty GroupBy replaced by DefaultGroupBy.
func (o ReportOptions) WithDefaults() ReportOptions {
	if o.GroupBy == "" {
		o.GroupBy = DefaultGroupBy
	}
	return o
}

// OptionsRequest represents the incoming JSON options of a report request.
type OptionsRequest struct {
	GroupBy         string `json:"groupBy,omitempty" validate:"omitempty,oneof=day week month quarter year"`
	IncludeInsights bool   `json:"includeInsights,omitempty"`
	IncludeCharts   bool   `json:"includeCharts,omitempty"`
}

// ReportRequest represents the incoming JSON request for a report over stored matches.
type ReportRequest struct {
	From            string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To              string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	TeamID          string `json:"teamId,omitempty" validate:"max=64"`
	PlayerID        string `json:"playerId,omitempty" validate:"max=64"`
	TournamentID    string `json:"tournamentId,omitempty" validate:"max=64"`
	Status          string `json:"status,omitempty" validate:"omitempty,matchstatus"`
	Location        string `json:"location,omitempty" validate:"max=255"`
	GroupBy         string `json:"groupBy,omitempty" validate:"omitempty,oneof=day week month quarter year"`
	IncludeInsights bool   `json:"includeInsights,omitempty"`
	IncludeCharts   bool   `json:"includeCharts,omitempty"`
}

// ComputeRequest carries an explicit match list to aggregate without a data source.
type ComputeRequest struct {
	Matches []MatchRecord  `json:"matches"`
	Options OptionsRequest `json:"options"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names in field errors instead of Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("matchstatus", func(fl validator.FieldLevel) bool {
		return MatchStatus(fl.Field().String()).IsValid()
	})
	return v
}

// ToQuery validates the request and converts it to filters and options.
// Returns a ValidationError if any validation fails.
func (r *ReportRequest) ToQuery() (ReportFilters, ReportOptions, error) {
	if err := validateStruct(r); err != nil {
		return ReportFilters{}, ReportOptions{}, err
	}

	filters := ReportFilters{
		TeamID:       strings.TrimSpace(r.TeamID),
		PlayerID:     strings.TrimSpace(r.PlayerID),
		TournamentID: strings.TrimSpace(r.TournamentID),
		Status:       MatchStatus(r.Status),
		Location:     strings.TrimSpace(r.Location),
	}
	if r.From != "" {
		from, _ := time.Parse(time.RFC3339, r.From)
		filters.From = &from
	}
	if r.To != "" {
		to, _ := time.Parse(time.RFC3339, r.To)
		filters.To = &to
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return ReportFilters{}, ReportOptions{}, NewValidationError("to", "must not be before from")
	}

	opts := ReportOptions{
		GroupBy:         GroupBy(r.GroupBy),
		IncludeInsights: r.IncludeInsights,
		IncludeCharts:   r.IncludeCharts,
	}
	return filters, opts.WithDefaults(), nil
}

// ToOptions validates the options request and converts it to ReportOptions.
func (r *OptionsRequest) ToOptions() (ReportOptions, error) {
	if err := validateStruct(r); err != nil {
		return ReportOptions{}, err
	}
	opts := ReportOptions{
		GroupBy:         GroupBy(r.GroupBy),
		IncludeInsights: r.IncludeInsights,
		IncludeCharts:   r.IncludeCharts,
	}
	return opts.WithDefaults(), nil
}

// validateStruct runs struct validation and reports the first failing field as a ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("body", "is invalid")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "oneof":
		return NewValidationError(fe.Field(), "must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
	case "matchstatus":
		return NewValidationError(fe.Field(), "must be a valid match status")
	case "datetime":
		return NewValidationError(fe.Field(), "must be a valid RFC3339 timestamp")
	case "max":
		return NewValidationError(fe.Field(), "must be at most "+fe.Param()+" characters")
	default:
		return NewValidationError(fe.Field(), "is invalid")
	}
}
