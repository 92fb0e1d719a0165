package twise

// coverageScores computes, for each configuration, a score in [0,1]: the
// fraction of target combinations it covers, where a combination covered by
// k configurations contributes 1/k to each of them. Invalid (empty) and
// uncovered combinations contribute nothing.
func coverageScores(configs []*Configuration, sup Supplier) []float64 {
	scores := make([]float64, len(configs))
	covering := make([]int, 0, len(configs))
	for {
		combo, ok := sup.Next()
		if !ok {
			break
		}
		if combo.Len() == 0 {
			continue
		}
		covering = covering[:0]
		for i, c := range configs {
			if c.ContainsAll(combo) {
				covering = append(covering, i)
			}
		}
		if len(covering) == 0 {
			continue
		}
		w := 1.0 / float64(len(covering))
		for _, i := range covering {
			scores[i] += w
		}
	}
	if n := sup.Size(); n > 0 {
		for i := range scores {
			scores[i] /= float64(n)
		}
	}
	return scores
}
