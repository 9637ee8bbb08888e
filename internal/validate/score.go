package validate

// DefaultThreshold is the gaming score above which a run is blocked.
const DefaultThreshold = 0.3

// GamingResult is the outcome of a gaming scan.
type GamingResult struct {
	Score           float64     `json:"score"`
	Threshold       float64     `json:"threshold"`
	Passed          bool        `json:"passed"`
	TotalFiles      int         `json:"total_files"`
	TotalViolations int         `json:"total_violations"`
	Violations      []Violation `json:"violations"`
}

// QualityResult is the outcome of a zero-tolerance scan.
type QualityResult struct {
	Passed          bool        `json:"passed"`
	TotalViolations int         `json:"total_violations"`
	Violations      []Violation `json:"violations"`
}

// GamingScore computes the weighted violation score normalized by the
// number of scanned files, capped at 1.0.
func GamingScore(violations []Violation, totalFiles int) float64 {
	if totalFiles == 0 {
		return 0.0
	}

	var weighted float64
	for _, v := range violations {
		w, ok := CategoryWeights[v.Category]
		if !ok {
			w = DefaultWeight
		}
		weighted += w
	}

	score := weighted / float64(max(totalFiles, 1))
	return min(1.0, score)
}

// NewGamingResult bundles a scan into a result with its verdict.
func NewGamingResult(violations []Violation, totalFiles int, threshold float64) GamingResult {
	score := GamingScore(violations, totalFiles)
	return GamingResult{
		Score:           score,
		Threshold:       threshold,
		Passed:          score <= threshold,
		TotalFiles:      totalFiles,
		TotalViolations: len(violations),
		Violations:      violations,
	}
}

// NewQualityResult bundles a zero-tolerance scan into a result.
func NewQualityResult(violations []Violation) QualityResult {
	return QualityResult{
		Passed:          len(violations) == 0,
		TotalViolations: len(violations),
		Violations:      violations,
	}
}
