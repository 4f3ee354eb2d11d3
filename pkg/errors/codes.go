package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: COMMON (cross-cutting), GRID
// (interpolation), DIH (dihedral registry), RST (restraint registries),
// VAL (validation / scoring).
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal      ErrorCode = "COMMON_001"
	ErrCodeInvalidParam  ErrorCode = "COMMON_002"
	ErrCodeNotFound      ErrorCode = "COMMON_003"
	ErrCodeConflict      ErrorCode = "COMMON_004"
	ErrCodeRejected      ErrorCode = "COMMON_005"
	ErrCodeNotImplemented ErrorCode = "COMMON_006"
)

// Canonical aliases used at call sites.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeInvalidParam
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRejected     = ErrCodeRejected
)

// Grid interpolation error codes.
const (
	// CodeGridMetadataMismatch covers every construction-time inconsistency:
	// axis/data length mismatch, axis with fewer than two samples, inverted
	// bounds, or a sparse coordinate outside the grid.
	CodeGridMetadataMismatch ErrorCode = "GRID_001"
	// CodeGridDimensionMismatch is returned when a query point's dimension
	// does not match the interpolator's.
	CodeGridDimensionMismatch ErrorCode = "GRID_002"
)

// Dihedral registry error codes.
const (
	CodeDihedralDefDuplicate ErrorCode = "DIH_001"
	CodeDihedralDefNotFound  ErrorCode = "DIH_002"
	CodeDihedralNotFound     ErrorCode = "DIH_003"
	CodeAtomDuplicate        ErrorCode = "DIH_004"
	CodeAtomsNotBonded       ErrorCode = "DIH_005"
)

// Restraint registry error codes.
const (
	CodeRestraintNotFound  ErrorCode = "RST_001"
	CodeAtomWrongStructure ErrorCode = "RST_002"
	CodeAtomHydrogen       ErrorCode = "RST_003"
	CodeAtomsBonded        ErrorCode = "RST_004"
)

// Validation error codes.
const (
	CodeCaseNotRegistered ErrorCode = "VAL_001"
	CodeColorScaleInvalid ErrorCode = "VAL_002"
)

// ModuleForCode returns the module prefix of an ErrorCode ("COMMON", "GRID",
// "DIH", "RST", "VAL"), or "UNKNOWN" for malformed codes.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
