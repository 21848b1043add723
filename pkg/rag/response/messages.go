package response

// Fixed, non-generated templates. These are returned verbatim so callers and
// tests can rely on exact equality; they are never sent through the model.
const (
	// NoRelevantInformationMessage is the answer when corpus-wide retrieval
	// finds nothing.
	NoRelevantInformationMessage = "No relevant information was found in the book for this question."

	// RefusalMessage replaces any generated answer that fails grounding
	// validation. Wording follows the book-assistant contract.
	RefusalMessage = "This information is not available in the book."
)
