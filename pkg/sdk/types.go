package askctx

// SectionKey identifies a document section.
type SectionKey struct {
	Title   string
	Heading string
}

// Section is a section's text with its precomputed token length.
type Section struct {
	Title   string
	Heading string
	Content string
	Tokens  int
}

// Embedding is a section's document embedding.
type Embedding struct {
	Title   string
	Heading string
	Vector  []float32
}

// Prompt is an assembled completion prompt.
type Prompt struct {
	Text       string
	Sections   []SectionKey
	TokensUsed int
	// EmbeddingTokens is the number of tokens spent embedding the question.
	EmbeddingTokens int
}

// RankedSection is a section with its similarity to the question.
type RankedSection struct {
	SectionKey
	Score float64
}

// PromptConfig holds prompt assembly settings.
// Zero fields fall back to the defaults, except SeparatorTokens which is used as given
// once Separator is set.
type PromptConfig struct {
	Header           string
	Separator        string
	SeparatorTokens  int
	MaxSectionTokens int
}
