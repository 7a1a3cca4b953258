package lobby

import "sort"

// Merge combines per-worker lobby lists into one snapshot. Entries without a
// non-empty gameID string are dropped; on id collision the later list wins.
// The result is ordered ascending by gameID for deterministic output.
func Merge(lists ...[]Lobby) []Lobby {
	byID := make(map[string]Lobby)
	for _, list := range lists {
		for _, l := range list {
			id, _ := l["gameID"].(string)
			if id == "" {
				continue
			}
			byID[id] = l
		}
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	merged := make([]Lobby, 0, len(ids))
	for _, id := range ids {
		merged = append(merged, byID[id])
	}
	return merged
}
