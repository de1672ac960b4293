package assistant

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intent is the kind of answer a user request calls for.
type Intent string

const (
	// IntentDeliverable asks the assistant to produce or change something.
	IntentDeliverable Intent = "deliverable"
	// IntentConversation is everything else.
	IntentConversation Intent = "conversation"
)

// Keywords are matched as substrings on lowercased, accent-folded text.
var (
	deliverableKeywords = []string{
		"cree", "creer", "ajoute", "ajouter", "redige", "rediger", "ecris", "ecrire",
		"genere", "generer", "prepare", "preparer", "produis", "produire", "planifie", "planifier",
		"organise", "organiser", "assigne", "assigner", "deplace", "deplacer", "supprime", "supprimer",
		"fais-moi", "fais moi", "propose", "proposer",
		"document", "rapport", "cahier des charges", "specification", "presentation", "livrable",
		"compte rendu", "compte-rendu", "reunion", "tache", "roadmap", "feuille de route",
	}
	conversationKeywords = []string{
		"bonjour", "salut", "merci", "comment ca va", "qui es-tu", "qui es tu",
		"c'est quoi", "qu'est-ce que", "pourquoi", "explique", "comment fonctionne",
	}
)

// fold lowercases s and strips diacritics.
func fold(s string) string {
	// transformers keep state, so each call builds its own chain
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(folder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// ClassifyIntent guesses whether text asks for a deliverable. It is a keyword
// heuristic and misclassifies phrasing it has no keyword for.
func ClassifyIntent(text string) Intent {
	t := fold(text)
	deliverable := containsAny(t, deliverableKeywords)
	if !deliverable {
		return IntentConversation
	}
	// a question about a thing is not a request to make one
	if containsAny(t, conversationKeywords) && strings.HasSuffix(strings.TrimSpace(t), "?") {
		return IntentConversation
	}
	return IntentDeliverable
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
