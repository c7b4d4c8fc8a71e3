package recommend

import "sort"

// TieBand is the score gap within which distance decides order.
const TieBand = 5.0

// Rank orders recommendations in place: by score descending, then within each
// band of scores no more than TieBand below the band's leader, by ascending
// distance. Unknown distances sort last; remaining ties break on program id.
//
// "Within TieBand" is not transitive: for scores 50, 46 and 44 the outer pair
// is 6 apart while each neighbour pair is close. No total order satisfies the
// pairwise rule then, so bands are anchored on their leader and a pair that
// straddles a band edge keeps score order even when the lower one is closer.
func Rank(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Program.ID < recs[j].Program.ID
	})

	for start := 0; start < len(recs); {
		end := start + 1
		for end < len(recs) && recs[start].Score-recs[end].Score <= TieBand {
			end++
		}
		band := recs[start:end]
		sort.SliceStable(band, func(i, j int) bool {
			return closer(band[i], band[j])
		})
		start = end
	}
}

func closer(a, b Recommendation) bool {
	da, db := a.Details.DistanceMiles, b.Details.DistanceMiles
	switch {
	case da != nil && db != nil && *da != *db:
		return *da < *db
	case da != nil && db == nil:
		return true
	case da == nil && db != nil:
		return false
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Program.ID < b.Program.ID
}
