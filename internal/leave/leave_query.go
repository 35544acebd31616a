package leave

import "strings"

// FilterLeaves keeps the requests whose reason, status, remarks, start date or
// end date contains q, ignoring case. A blank q returns list unchanged.
func FilterLeaves(list []Leave, q string) []Leave {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return list
	}

	out := make([]Leave, 0, len(list))
	for _, l := range list {
		if matches(l, needle) {
			out = append(out, l)
		}
	}
	return out
}

func matches(l Leave, needle string) bool {
	fields := [...]string{
		l.Reason,
		string(l.Status),
		l.Remarks,
		l.StartDate.Format(dateLayout),
		l.EndDate.Format(dateLayout),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
