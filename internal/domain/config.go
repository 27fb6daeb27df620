package domain

// PromptConfig holds prompt assembly settings, not exposed to clients.
type PromptConfig struct {
	Header           string
	Separator        string
	SeparatorTokens  int
	MaxSectionTokens int
}

// DefaultPromptHeader instructs the completion model to stay within the supplied context.
const DefaultPromptHeader = "Answer the question as truthfully as possible using the provided context, " +
	"and if the answer is not contained within the text below, say \"I don't know.\"\n\nContext:\n"

// DefaultPromptConfig returns the defaults tuned for GPT-2/3 style tokenizers,
// where "\n* " encodes to 3 tokens.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		Header:           DefaultPromptHeader,
		Separator:        "\n* ",
		SeparatorTokens:  3,
		MaxSectionTokens: 500,
	}
}

// VectorConfig holds embedding model settings.
type VectorConfig struct {
	DocumentModel string
	QueryModel    string
	Dimensions    int
}

// DefaultVectorConfig returns the default document/query model pair.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		DocumentModel: "text-embedding-3-small",
		QueryModel:    "text-embedding-3-small",
		Dimensions:    1536,
	}
}

// KeyPrefix namespaces every key written to the shared store.
const KeyPrefix = "askctx:"
