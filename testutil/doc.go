// Package testutil provides testing utilities for pointgrid.
//
// This package is intended for use in tests and benchmarks only. It provides
// deterministic generators for point clouds: uniform clouds spanning many
// regions and clustered clouds that stress uneven region occupancy.
package testutil
