// Package core serves database tables as interactive grids.
//
// It sits between the grid engine and the transports. Web handlers and the
// terminal client both go through [Service] without knowing about SQL.
//
// # Grid Registry
//
// Grids are registered at startup using [Register], usually from the YAML
// file the schema package loads. Each [GridDefinition] names a table, its
// key column and the columns to show:
//
//	core.Register(GridDefinition{
//	    Info:      GridInfo{Key: "customers", Group: "Sales", Label: "Customers"},
//	    Table:     "customers",
//	    KeyColumn: "id",
//	    Columns: []ColumnDef{
//	        {Name: "name", Type: form.Text, Editable: true, Required: true},
//	        {Name: "tier", Type: form.Enum, OptionsQuery: "SELECT code, label FROM tiers"},
//	    },
//	    Delete: true,
//	})
//
// # Sessions
//
// The first request for a grid loads its rows and builds it; later
// requests share that session until [Service.Reload]. A session is
// single-threaded, so every operation on it holds the session lock.
//
//  1. Edits stage values in the grid's inputs
//  2. [Service.Save] validates them, then writes the changed columns
//  3. A failed write restores the row as it was loaded
//
// # Batch Delete
//
// [Service.Delete] and the grid's delete action take a slot from the
// [BatchLimiter] before running. Every row is attempted and the
// [DeleteSummary] lists each one; a partially failed batch also leaves a
// report grid for the next view.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - GRD001-GRD010: Grid errors (missing rows, editing, selection)
//   - FRM001-FRM004: Input errors (dates, numbers, required values)
//   - DB001-DB008: Database errors (duplicates, constraints, connections)
//   - REQ001-REQ003, RATE001: Request errors (canceled, timeout, busy)
package core
