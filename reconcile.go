package testplan

// Reconcile rebuilds the local collection from server-confirmed test cases.
//
// Each server item is matched to at most one local item, preferring an
// identical id, then the positional id the backend derives from issueKey and
// the item's index, then (only for server items without an id) an identical
// title. Matched items keep their Selected and Expanded flags; unmatched
// items start collapsed and unselected. Server items without an id receive
// their positional id, and StepsText is re-encoded from the structured steps.
func Reconcile(issueKey string, server, local []TestCase) []TestCase {
	used := make([]bool, len(local))
	out := make([]TestCase, 0, len(server))

	for i, s := range server {
		positional := PositionalID(issueKey, i)
		match := -1
		if s.ID != "" {
			match = findLocal(local, used, func(l TestCase) bool { return l.ID == s.ID })
		}
		if match < 0 {
			match = findLocal(local, used, func(l TestCase) bool { return l.ID == positional })
		}
		if match < 0 && s.ID == "" {
			match = findLocal(local, used, func(l TestCase) bool { return l.Title == s.Title })
		}

		tc := s.Clone()
		if tc.ID == "" {
			tc.ID = positional
		}
		tc.StepsText = EncodeSteps(tc.Steps)
		tc.Selected = false
		tc.Expanded = false
		if match >= 0 {
			used[match] = true
			tc.Selected = local[match].Selected
			tc.Expanded = local[match].Expanded
		}
		out = append(out, tc)
	}

	return out
}

func findLocal(local []TestCase, used []bool, pred func(TestCase) bool) int {
	for i, l := range local {
		if !used[i] && pred(l) {
			return i
		}
	}
	return -1
}

// FromServer converts freshly fetched or generated test cases into their UI
// form with no prior local state.
func FromServer(issueKey string, server []TestCase) []TestCase {
	return Reconcile(issueKey, server, nil)
}
