// Package stages holds the static stage catalogs for the INCO and ANTI
// pipelines.
//
// Each catalog is an ordered list of named stages with strictly increasing
// progress weights ending at 100. The last stage of each pipeline is its
// hand-off stage: recording a date for it moves a work order to the next
// location. Catalogs are loaded at process start and never change; accessors
// return copies so callers cannot mutate the shared tables.
package stages
