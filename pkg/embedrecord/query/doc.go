// Package query builds filters over reference columns.
//
// A single reference column holds a record position and is filtered with
// In; a multi reference column holds a bitmask and is filtered with AnyBits
// or AllBits. WhereOne, WhereAny and WhereAll resolve record ids through a
// bound relation first, so callers filter by id:
//
//	red, _ := query.WhereAny(ShirtColors, embedrecord.Sym("red"))
//	unset := query.Unset(CarColor)
//	rows, err := st.Select(ctx, query.Or(red, unset))
//
// Every Predicate renders to SQL for the SQLite store, evaluates against a
// single row, and resolves against the in-memory store's bitmap index. The
// three forms return the same rows.
package query
