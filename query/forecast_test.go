package query

import (
	"errors"
	"testing"

	"github.com/darshanpandit/tidyfaf/reader"
)

func forecastRows() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"dms_orig": int64(61), "dms_dest": int64(121),
			"sctg2": int64(34), "dms_mode": int64(1), "trade_type": int64(1),
			"tons_2030": float64(100), "tons_2030_high": float64(120), "tons_2030_low": float64(80),
			"value_2030": float64(200), "value_2030_high": float64(240), "value_2030_low": float64(160),
		},
	}
}

func TestForecastScenarioSplit(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.HiLoForecast: forecastRows(),
	})

	res, err := NewForecastQuery(WithCache(cache)).Origins(61).Years(2030).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Long format by default: three scenarios, two metrics each.
	if len(res.Rows) != 6 {
		t.Fatalf("Get() returned %d rows, want 6", len(res.Rows))
	}

	tonsByScenario := make(map[string]float64)
	for _, row := range res.Rows {
		sc, _ := row[colScenario].(string)
		if sc == "" {
			t.Fatalf("row missing scenario column: %v", row)
		}
		if metric, _ := row[colMetric].(string); metric == "tons" {
			tonsByScenario[sc] = tonsOf(t, row, colVal)
		}
	}
	want := map[string]float64{ScenarioBase: 100, ScenarioHigh: 120, ScenarioLow: 80}
	for sc, tons := range want {
		if tonsByScenario[sc] != tons {
			t.Errorf("tons for %s = %g, want %g", sc, tonsByScenario[sc], tons)
		}
	}
}

func TestForecastScenarioFilter(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.HiLoForecast: forecastRows(),
	})

	res, err := NewForecastQuery(WithCache(cache)).Scenarios(ScenarioHigh).Years(2030).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Get() returned %d rows, want 2", len(res.Rows))
	}
	for _, row := range res.Rows {
		if sc, _ := row[colScenario].(string); sc != ScenarioHigh {
			t.Errorf("scenario = %q, want high", sc)
		}
	}
}

func TestForecastWideFormat(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.HiLoForecast: forecastRows(),
	})

	res, err := NewForecastQuery(WithCache(cache)).Years(2030).GetFormat(FormatWide)
	if err != nil {
		t.Fatalf("GetFormat() error = %v", err)
	}
	// One row per scenario, metrics under their base names.
	if len(res.Rows) != 3 {
		t.Fatalf("GetFormat() returned %d rows, want 3", len(res.Rows))
	}
	for _, row := range res.Rows {
		if _, ok := row["tons_2030"]; !ok {
			t.Errorf("row missing tons_2030: %v", row)
		}
		if _, ok := row["tons_2030_high"]; ok {
			t.Errorf("scenario-suffixed column leaked into output: %v", row)
		}
	}
}

func TestForecastInvalidScenario(t *testing.T) {
	cache, _ := newTestEnv(t, nil)

	err := NewForecastQuery(WithCache(cache)).Scenarios("wild").Validate()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Validate() error = %v, want ErrInvalidInput", err)
	}
}

func TestCompareScenarios(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.HiLoForecast: forecastRows(),
	})

	res, err := NewForecastQuery(WithCache(cache)).CompareScenarios(2030)
	if err != nil {
		t.Fatalf("CompareScenarios() error = %v", err)
	}
	// One row per flow and metric.
	if len(res.Rows) != 2 {
		t.Fatalf("CompareScenarios() returned %d rows, want 2", len(res.Rows))
	}
	for _, row := range res.Rows {
		metric, _ := row[colMetric].(string)
		if metric == "tons" {
			if row[ScenarioBase] != float64(100) || row[ScenarioHigh] != float64(120) || row[ScenarioLow] != float64(80) {
				t.Errorf("tons comparison row = %v, want base 100, high 120, low 80", row)
			}
		}
	}

	if _, err := NewForecastQuery(WithCache(cache)).CompareScenarios(2020); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CompareScenarios(2020) error = %v, want ErrInvalidInput", err)
	}
	if _, err := NewRegionalQuery(WithCache(cache)).CompareScenarios(2030); !errors.Is(err, ErrUnsupported) {
		t.Errorf("CompareScenarios on regional error = %v, want ErrUnsupported", err)
	}
}
