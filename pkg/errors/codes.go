package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by all modules.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeExternalService    ErrorCode = "COMMON_011"
	ErrCodeCanceled           ErrorCode = "COMMON_012"
)

// Plot ingestion error codes.
const (
	ErrCodeNotGeoJSON        ErrorCode = "PLOT_001" // top-level type is neither Feature nor FeatureCollection
	ErrCodeNoFeatures        ErrorCode = "PLOT_002" // features missing, not a list, or empty
	ErrCodeInvalidGeometry   ErrorCode = "PLOT_003" // unparseable or degenerate geometry
	ErrCodeAllFeaturesFailed ErrorCode = "PLOT_004" // every submitted feature was rejected
	ErrCodeUnsupportedFormat ErrorCode = "PLOT_005" // file extension not .geojson/.json/.kml
	ErrCodeKMLParse          ErrorCode = "PLOT_006"
)

// Classification oracle error codes.
const (
	ErrCodeOracleUnreachable ErrorCode = "ORACLE_001"
	ErrCodeOracleBadResponse ErrorCode = "ORACLE_002"
	ErrCodeOracleTimeout     ErrorCode = "ORACLE_003"
)

// Analysis session error codes.
const (
	ErrCodeSessionNotFound ErrorCode = "SESSION_001"
	ErrCodeSessionCorrupt  ErrorCode = "SESSION_002"
	ErrCodeBadIntent       ErrorCode = "SESSION_003" // restore requested without a recognised intent
)

// Overlay loader error codes.
const (
	ErrCodeLayerUnavailable ErrorCode = "OVERLAY_001" // every strategy in the chain failed
	ErrCodeUnknownLayer     ErrorCode = "OVERLAY_002"
)

// HTTPStatus maps an ErrorCode to the HTTP status the interface layer should
// respond with.  Codes not listed here map to 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeNotGeoJSON, ErrCodeNoFeatures,
		ErrCodeAllFeaturesFailed, ErrCodeUnsupportedFormat, ErrCodeKMLParse,
		ErrCodeBadIntent, ErrCodeUnknownLayer:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTimeout, ErrCodeOracleTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeServiceUnavailable, ErrCodeOracleUnreachable, ErrCodeLayerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
