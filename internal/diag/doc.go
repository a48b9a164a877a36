// Package diag defines the diagnostic model shared by every compiler pass.
//
// Passes never print. They report through a Reporter (usually a BagReporter
// bound to a Bag) and keep going so that one run surfaces as many problems as
// possible. The driver checks Bag.HasErrors at fixed checkpoints (after symbol
// installation, after type resolution, after lowering) and stops before the
// next pass when anything was recorded.
//
// Internal compiler errors are not diagnostics: they are panics or plain Go
// errors and never go through this package, with one exception. Backend
// verification failures are reported as BackendVerifyFailed so the user sees
// them alongside the rest.
//
// Rendering lives in internal/diagfmt.
package diag
