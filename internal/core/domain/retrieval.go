package domain

type Status string

const (
	StatusOK                     Status = "OK"
	StatusLowRetrievalConfidence Status = "Low retrieval confidence"
	StatusNoGroundedAnswer       Status = "No grounded answer found"
)

// RefusalAnswer is returned when no retrieved sentence is grounded enough.
const RefusalAnswer = "I cannot answer this question using the provided context."

// ScoredID is a raw vector index hit.
type ScoredID struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
}

type RetrievalResult struct {
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	Topic   string  `json:"topic"`
	ChunkID int     `json:"chunk_id"`
}

type Citation struct {
	Topic              string   `json:"topic"`
	RetrievalScore     float64  `json:"retrieval_score"`
	ChunkID            int      `json:"chunk_id"`
	Chunk              string   `json:"chunk"`
	SentenceSimilarity *float64 `json:"sentence_similarity,omitempty"`
}

type ContextSentence struct {
	Sentence string   `json:"sentence"`
	Source   Citation `json:"source"`
}

type PipelineResponse struct {
	Answer     *string    `json:"answer"`
	Confidence float64    `json:"confidence"`
	Citations  []Citation `json:"citations"`
	Status     Status     `json:"status"`
}

// AnswerText returns the answer or an empty string when there is none.
func (r PipelineResponse) AnswerText() string {
	if r.Answer == nil {
		return ""
	}
	return *r.Answer
}

type AnswerRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
	MaxChunks int    `json:"max_chunks,omitempty"`
}

// AnswerLogEntry is one audited pipeline call.
type AnswerLogEntry struct {
	ID         string  `json:"id"`
	Query      string  `json:"query"`
	Status     Status  `json:"status"`
	Confidence float64 `json:"confidence"`
	Answer     string  `json:"answer,omitempty"`
	ChunkID    *int    `json:"chunk_id,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}
