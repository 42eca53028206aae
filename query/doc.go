// Package query builds and executes filtered queries against the FAF
// freight-flow parquet datasets.
//
// Queries are immutable: every filter method returns a new Query value
// and never mutates the receiver, so partially-built queries can be
// shared and extended independently. Nothing is read from disk until a
// terminal method (Get, GetFormat, EstimateSize) runs; execution
// computes a signature of the filter state, consults the result cache,
// and on a miss translates eligible filters into a parquet read plan
// (column projection plus "in" predicates) before applying the
// remaining filters in memory.
//
// Example:
//
//	q := query.NewRegionalQuery(query.WithMetadata(md)).
//	    OriginStates("California", "Texas").
//	    Commodities("Electronics").
//	    Years(2017, 2020)
//	res, err := q.Get()
package query
