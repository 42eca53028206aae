package query

// FAF column names. Flow tables use the dms_/fr_ prefixes from the
// published datasets; the network table carries its own attribute
// columns.
const (
	colOriginZone  = "dms_orig"
	colDestZone    = "dms_dest"
	colOriginState = "dms_origst"
	colDestState   = "dms_destst"
	colCommodity   = "sctg2"
	colMode        = "dms_mode"
	colTradeType   = "trade_type"
	colDistBand    = "dist_band"

	colForeignOrigin  = "fr_orig"
	colForeignDest    = "fr_dest"
	colForeignInMode  = "fr_inmode"
	colForeignOutMode = "fr_outmode"

	colSCTGGroup    = "sctgG5"
	colOriginCounty = "dms_orig_cnty"
	colDestCounty   = "dms_dest_cnty"
	colOriginFactor = "f_orig"
	colDestFactor   = "f_dest"

	colRoadName  = "Road_Name"
	colSignRoute = "Sign_Rte"
	colNetState  = "STATE"
	colNetZone   = "FAFZONE"
	colFuncClass = "Class_Description"
	colNHFN      = "NHFN"
	colNHS       = "NHS"
	colTruck     = "Truck"
	colTollType  = "Toll_Type"
	colLength    = "LENGTH"

	colZoneID   = "FAFZONE"
	colGeometry = "geometry"

	// Long-format columns produced by the reshaper.
	colYear     = "year"
	colMetric   = "metric"
	colVal      = "value"
	colScenario = "scenario"
)

// dimensionColumns are the flow-table identifier columns, in output
// order. Metric columns follow them.
var dimensionColumns = []string{
	colOriginZone, colDestZone,
	colOriginState, colDestState,
	colForeignOrigin, colForeignDest,
	colForeignInMode, colForeignOutMode,
	colCommodity, colMode, colTradeType, colDistBand,
}
