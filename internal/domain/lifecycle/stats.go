package lifecycle

// Summary counts KPIs per statistics bucket.
type Summary struct {
	Total      int            `json:"total"`
	Buckets    map[Bucket]int `json:"buckets"`
	Unbucketed int            `json:"unbucketed"`
	Anomalies  int            `json:"anomalies"`
}

// Summarize buckets states through Derive, so counts always agree with the
// stage each KPI shows.
func Summarize(states []State) Summary {
	summary := Summary{Buckets: make(map[Bucket]int, len(Buckets))}
	for _, bucket := range Buckets {
		summary.Buckets[bucket] = 0
	}
	for _, state := range states {
		derived := Derive(state)
		summary.Total++
		if derived.Anomaly != "" {
			summary.Anomalies++
		}
		if derived.Bucket == BucketNone {
			summary.Unbucketed++
			continue
		}
		summary.Buckets[derived.Bucket]++
	}
	return summary
}
