package document

// Chunk is a contiguous window of source text used as a retrieval unit.
// Chunks are immutable once produced by a chunker.
type Chunk struct {
	ID    int    `json:"chunk_id"` // 0-based position in the chunk sequence
	Text  string `json:"text"`
	Start int    `json:"start"` // character offset of the window start
	End   int    `json:"end"`   // character offset one past the window end
}

// Texts returns the text of every chunk in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// CloneChunks returns a copy of the slice so callers cannot alias stored chunks.
func CloneChunks(chunks []Chunk) []Chunk {
	if chunks == nil {
		return nil
	}
	out := make([]Chunk, len(chunks))
	copy(out, chunks)
	return out
}
