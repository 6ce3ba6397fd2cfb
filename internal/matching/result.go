package matching

import "math"

// Result is the outcome of matching one candidate against one job. It is
// computed per request and never stored.
type Result struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
	JobTitle    string `json:"job_title,omitempty"`
	Company     string `json:"company,omitempty"`

	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	MatchPercentage int      `json:"match_percentage"`
	MatchScore      float64  `json:"match_score"`

	// EmbeddingSimilarity is the similarity as a percentage, nil when the
	// store produced no signal for this pair.
	EmbeddingSimilarity *float64         `json:"embedding_similarity"`
	EmbeddingBased      bool             `json:"embedding_based"`
	SimilarityStatus    SimilarityStatus `json:"similarity_status"`

	Breakdown *Breakdown `json:"factor_breakdown"`
}

func similarityPercent(s Similarity) *float64 {
	if s.Status != SimilarityFound {
		return nil
	}
	v := math.Round(clamp(s.Value, 0, 1)*1000) / 10
	return &v
}
