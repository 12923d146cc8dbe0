package features

// FunctionWords is the closed-class word list. Order is the emission order of
// the per-word presence flags, so it must stay stable across releases of a
// trained model's feature files.
var FunctionWords = []string{
	// determiners
	"the", "a", "an", "this", "that", "these", "those",
	// pronouns
	"i", "you", "he", "she", "it", "we", "they",
	"me", "him", "her", "us", "them",
	"my", "your", "his", "its", "our", "their",
	// prepositions
	"in", "on", "at", "to", "of", "with", "for", "from", "by", "up", "down",
	// conjunctions
	"and", "but", "or", "because", "if", "when", "so",
	// auxiliaries and copulas
	"is", "are", "was", "were", "am", "be", "been",
	"do", "does", "did", "have", "has", "had",
	"can", "could", "will", "would",
	// wh-words
	"what", "who", "where", "why", "how",
	// negation
	"not", "no",
}

var functionWordSet = func() map[string]bool {
	s := make(map[string]bool, len(FunctionWords))
	for _, w := range FunctionWords {
		s[w] = true
	}
	return s
}()

// IsFunctionWord reports closed-class membership for a lowercased token.
func IsFunctionWord(token string) bool {
	return functionWordSet[token]
}

// Markers are the subordinators and connectives flagged as syntactic cues.
var Markers = []string{"because", "when", "that", "if", "so"}

// negationTokens trigger the has_negation flag.
var negationTokens = map[string]bool{"not": true, "don't": true}

// unintelligibleTokens are the CHAT markers for speech the transcriber could
// not make out.
var unintelligibleTokens = map[string]bool{"xxx": true, "yyy": true}
