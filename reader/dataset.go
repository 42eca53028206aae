package reader

import (
	"errors"
	"fmt"
	"strings"
)

// Dataset is the logical identity of a backing parquet file. Every
// identity maps to exactly one file under the loader's data directory,
// and a given identity always yields the same schema.
type Dataset string

const (
	// Regional holds FAF zone-to-zone flows.
	Regional Dataset = "regional"
	// State holds state-to-state aggregated flows.
	State Dataset = "state"
	// Network holds FAF5 highway network links.
	Network Dataset = "network"
	// HiLoForecast holds zone-level flows with high/low scenario columns.
	HiLoForecast Dataset = "hilo"
	// StateHiLoForecast holds state-level flows with scenario columns.
	StateHiLoForecast Dataset = "state_hilo"
	// ZoneGeometry holds FAF zone polygons.
	ZoneGeometry Dataset = "zones"

	// Reference tables, converted from the FAF metadata workbook by the
	// ETL pipeline.
	RefStates      Dataset = "ref_states"
	RefModes       Dataset = "ref_modes"
	RefCommodities Dataset = "ref_commodities"
	RefZones       Dataset = "ref_zones"
)

// ErrInvalidDataset indicates an unrecognized dataset identity.
var ErrInvalidDataset = errors.New("invalid dataset")

// ErrDatasetNotFound indicates the backing file for a dataset is absent.
var ErrDatasetNotFound = errors.New("dataset not found")

var datasetFiles = map[Dataset]string{
	Regional:          "FAF5.7.1.parquet",
	State:             "FAF5.7.1_State.parquet",
	HiLoForecast:      "FAF5.7.1_HiLoForecasts.parquet",
	StateHiLoForecast: "FAF5.7.1_State_HiLoForecasts.parquet",
	Network:           "FAF5_Network_Links.parquet",
	ZoneGeometry:      "FAF5_Zones_Processed.parquet",
	RefStates:         "FAF5_Metadata_States.parquet",
	RefModes:          "FAF5_Metadata_Modes.parquet",
	RefCommodities:    "FAF5_Metadata_Commodities.parquet",
	RefZones:          "FAF5_Metadata_Zones.parquet",
}

// CountyOriginFactors returns the dataset identity of the origin
// disaggregation factor table for a mode (e.g. "truck", "rail").
func CountyOriginFactors(mode string) Dataset {
	return Dataset("county_factors/" + mode + "_origin")
}

// CountyDestinationFactors returns the dataset identity of the
// destination disaggregation factor table for a mode.
func CountyDestinationFactors(mode string) Dataset {
	return Dataset("county_factors/" + mode + "_destination")
}

// Filename returns the file name backing a dataset identity, relative
// to the data directory. Unknown identities fail with ErrInvalidDataset.
func Filename(ds Dataset) (string, error) {
	if name, ok := datasetFiles[ds]; ok {
		return name, nil
	}
	// County factor tables follow a per-mode naming pattern:
	// county_factors/<mode>_origin -> county_factors/<mode>_origin_factors.parquet
	if rest, ok := strings.CutPrefix(string(ds), "county_factors/"); ok {
		for _, suffix := range []string{"_origin", "_destination"} {
			if mode, ok := strings.CutSuffix(rest, suffix); ok && mode != "" {
				return fmt.Sprintf("county_factors/%s%s_factors.parquet", mode, suffix), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDataset, ds)
}
