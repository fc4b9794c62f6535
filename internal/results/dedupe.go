package results

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
)

// Hash identifies an item by its title and snippet.
func Hash(it Item) string {
	sum := md5.Sum([]byte(it.Title + it.Snippet))
	return hex.EncodeToString(sum[:])
}

// Dedupe collapses items with identical hashes, keeping the higher relevance
// in the position of the first occurrence, then sorts by relevance descending
// and keeps the top 50.
func Dedupe(items []Item) []Item {
	if len(items) == 0 {
		return items
	}
	index := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		h := Hash(it)
		if i, ok := index[h]; ok {
			if it.Relevance > out[i].Relevance {
				out[i] = it
			}
			continue
		}
		index[h] = len(out)
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	if len(out) > maxPerBucket {
		out = out[:maxPerBucket]
	}
	return out
}
