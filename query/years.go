package query

import (
	"fmt"
	"strconv"
	"strings"
)

// FAF5 year domain: actual years are contiguous, forecast years run on
// a fixed five-year stride. Anything else is invalid.
const (
	firstActualYear   = 2017
	lastActualYear    = 2024
	firstForecastYear = 2030
	lastForecastYear  = 2050
	forecastStride    = 5
)

// metricPrefixes are the metric families carried as per-year columns
// (tons_2020, value_2030_high, ...).
var metricPrefixes = []string{"tons", "value", "tmiles", "current_value"}

// ActualYears returns the actual (observed) years in the dataset.
func ActualYears() []int {
	years := make([]int, 0, lastActualYear-firstActualYear+1)
	for y := firstActualYear; y <= lastActualYear; y++ {
		years = append(years, y)
	}
	return years
}

// ForecastYears returns the forecast years in the dataset.
func ForecastYears() []int {
	years := make([]int, 0)
	for y := firstForecastYear; y <= lastForecastYear; y += forecastStride {
		years = append(years, y)
	}
	return years
}

// IsValidYear reports whether a year is in the actual or forecast
// domain.
func IsValidYear(year int) bool {
	if year >= firstActualYear && year <= lastActualYear {
		return true
	}
	return IsForecastYear(year)
}

// IsForecastYear reports whether a year is a forecast year.
func IsForecastYear(year int) bool {
	return year >= firstForecastYear && year <= lastForecastYear &&
		(year-firstForecastYear)%forecastStride == 0
}

// yearsInRange expands an inclusive range into valid years, spanning
// the gap between the last actual year and the first forecast year.
func yearsInRange(start, end int) []int {
	var years []int
	for y := start; y <= end && y <= lastActualYear; y++ {
		if y >= firstActualYear {
			years = append(years, y)
		}
	}
	for y := firstForecastYear; y <= end && y <= lastForecastYear; y += forecastStride {
		if y >= start {
			years = append(years, y)
		}
	}
	return years
}

// metricColumn builds a metric-year column name, e.g. tons_2020.
func metricColumn(metric string, year int) string {
	return fmt.Sprintf("%s_%d", metric, year)
}

// scenarioColumn builds a scenario-suffixed metric column name,
// e.g. tons_2030_high. Base scenario columns are unsuffixed.
func scenarioColumn(metric string, year int, scenario string) string {
	if scenario == ScenarioBase {
		return metricColumn(metric, year)
	}
	return fmt.Sprintf("%s_%d_%s", metric, year, scenario)
}

// parseMetricYear splits a plain metric-year column name into its
// metric and year. Scenario-suffixed columns do not parse here; the
// forecast reshaper strips the suffix first.
func parseMetricYear(col string) (metric string, year int, ok bool) {
	i := strings.LastIndexByte(col, '_')
	if i < 0 {
		return "", 0, false
	}
	y, err := strconv.Atoi(col[i+1:])
	if err != nil || len(col[i+1:]) != 4 {
		return "", 0, false
	}
	prefix := col[:i]
	for _, p := range metricPrefixes {
		if prefix == p {
			return prefix, y, true
		}
	}
	return "", 0, false
}

// isMetricColumn reports whether a column is a metric-year column,
// scenario-suffixed or not.
func isMetricColumn(col string) bool {
	if _, _, ok := parseMetricYear(col); ok {
		return true
	}
	for _, s := range []string{"_" + ScenarioHigh, "_" + ScenarioLow} {
		if base, found := strings.CutSuffix(col, s); found {
			if _, _, ok := parseMetricYear(base); ok {
				return true
			}
		}
	}
	return false
}
