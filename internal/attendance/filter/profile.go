package filter

// Profile holds the row-cap defaults for one endpoint. A missing or
// non-positive limit becomes DefaultLimit; anything above Ceiling is
// clamped without error.
type Profile struct {
	DefaultLimit int
	Ceiling      int
}

var (
	LogsProfile        = Profile{DefaultLimit: 500, Ceiling: 2000}
	MessagesProfile    = Profile{DefaultLimit: 200, Ceiling: 1000}
	LiveProfile        = Profile{DefaultLimit: 50, Ceiling: 500}
	ReportProfile      = Profile{DefaultLimit: 2000, Ceiling: 2000}
	HistoryPageProfile = Profile{DefaultLimit: 20, Ceiling: 200}
)

// Clamp applies the profile to a parsed limit.
func (p Profile) Clamp(n int) int {
	if n <= 0 {
		n = p.DefaultLimit
	}
	if p.Ceiling > 0 && n > p.Ceiling {
		n = p.Ceiling
	}
	return n
}
