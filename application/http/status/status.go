package status

import "strconv"

type Status struct {
	Code         uint
	ReasonPhrase string
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15
var (
	OK                  = Status{200, "OK"}
	Created             = Status{201, "Created"}
	NotFound            = Status{404, "Not Found"}
	InternalServerError = Status{500, "Internal Server Error"}
)

// Line returns the status line without its terminator, e.g. "HTTP/1.1 200 OK".
func (s Status) Line(version string) string {
	return version + " " + strconv.FormatUint(uint64(s.Code), 10) + " " + s.ReasonPhrase
}

func (s Status) String() string {
	return strconv.FormatUint(uint64(s.Code), 10) + " " + s.ReasonPhrase
}
