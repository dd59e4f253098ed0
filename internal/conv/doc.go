// Package conv provides checked integer conversions.
//
// These functions bounds-check conversions between Go's platform-dependent
// int and the fixed-width types used in snapshot headers and offset tables,
// so untrusted on-disk counts can never silently wrap.
//
// For conversions that are provably safe by domain constraints (loop indices,
// bounded counters), use direct casts instead.
package conv
