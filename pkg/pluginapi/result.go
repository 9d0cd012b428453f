package pluginapi

import "fmt"

// Result is the status code returned by capability functions and decision handlers.
// Negative values are errors; ranges are partitioned by subsystem.
type Result int32

// Success codes.
const (
	ResultOK    Result = 0
	ResultAllow Result = 1
	ResultDeny  Result = 2
)

// General errors (-1 to -99).
const (
	ResultError            Result = -1
	ResultInvalidParam     Result = -2
	ResultNullPointer      Result = -3
	ResultOutOfRange       Result = -4
	ResultNotFound         Result = -5
	ResultPermissionDenied Result = -6
	ResultInvalidState     Result = -7
)

// Player errors (-100 to -199).
const (
	ResultPlayerNotFound     Result = -100
	ResultPlayerDead         Result = -101
	ResultPlayerDisconnected Result = -102
	ResultInvalidTeam        Result = -103
	ResultInvalidHP          Result = -104
)

// Map errors (-200 to -299).
const (
	ResultMapOutOfBounds  Result = -200
	ResultMapInvalidColor Result = -201
	ResultMapNoBlock      Result = -202
)

// Command errors (-300 to -399).
const (
	ResultCmdAlreadyRegistered Result = -300
	ResultCmdInvalidName       Result = -301
	ResultCmdTooMany           Result = -302
)

var resultText = map[Result]string{
	ResultOK:                   "Success",
	ResultAllow:                "Allow",
	ResultDeny:                 "Deny",
	ResultError:                "Generic error",
	ResultInvalidParam:         "Invalid parameter",
	ResultNullPointer:          "NULL pointer",
	ResultOutOfRange:           "Value out of range",
	ResultNotFound:             "Not found",
	ResultPermissionDenied:     "Permission denied",
	ResultInvalidState:         "Invalid state",
	ResultPlayerNotFound:       "Player not found",
	ResultPlayerDead:           "Player is dead",
	ResultPlayerDisconnected:   "Player disconnected",
	ResultInvalidTeam:          "Invalid team",
	ResultInvalidHP:            "Invalid HP value (must be 0-100)",
	ResultMapOutOfBounds:       "Coordinates out of map bounds",
	ResultMapInvalidColor:      "Invalid color value",
	ResultMapNoBlock:           "No block at position",
	ResultCmdAlreadyRegistered: "Command already registered",
	ResultCmdInvalidName:       "Invalid command name",
	ResultCmdTooMany:           "Too many commands registered",
}

// ResultString returns the human-readable message for r.
// The boolean is false when the code is not recognized.
func ResultString(r Result) (string, bool) {
	s, ok := resultText[r]
	return s, ok
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if s, ok := resultText[r]; ok {
		return s
	}
	return fmt.Sprintf("unknown result (%d)", int32(r))
}

// IsError reports whether r is in one of the error ranges.
func (r Result) IsError() bool {
	return r < 0
}
