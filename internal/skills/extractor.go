package skills

import (
	"regexp"
	"sort"
	"strings"

	"github.com/postulamatic/harvester/internal/domain/models"
)

// Extractor derives a skill profile from free text by lexical detection
// against a Lexicon. Identical input text always yields an identical profile.
type Extractor struct {
	lexicon *Lexicon
	terms   []string            // canonical terms plus synonym aliases, sorted
	phrases map[string][]string // term -> normalized tokens
}

func NewExtractor(lexicon *Lexicon) *Extractor {
	e := &Extractor{
		lexicon: lexicon,
		phrases: make(map[string][]string, len(lexicon.Terms())+len(lexicon.synonyms)),
	}
	// aliases take part in detection so that "golang" or "js" in raw text
	// still lands on the canonical skill
	for _, term := range lexicon.Terms() {
		e.phrases[term] = strings.Fields(normalize(term))
	}
	for alias := range lexicon.synonyms {
		if _, exists := e.phrases[alias]; !exists {
			e.phrases[alias] = strings.Fields(normalize(alias))
		}
	}
	e.terms = make([]string, 0, len(e.phrases))
	for term := range e.phrases {
		e.terms = append(e.terms, term)
	}
	sort.Strings(e.terms)
	return e
}

const (
	exactConfidence     = 1.0
	phraseConfidence    = 0.9
	frequencyStep       = 0.3
	frequencyCap        = 0.8
	contextConfidence   = 0.6
	minContextPhraseLen = 3
)

// Extract runs the three detectors (exact boundary matches, frequency-scaled
// keyword matches, contextual pattern matches), merges them keeping the
// maximum confidence per canonical skill, and drops everything below
// minConfidence.
func (e *Extractor) Extract(text string, minConfidence float64) models.SkillProfile {
	if strings.TrimSpace(text) == "" {
		return models.EmptySkillProfile()
	}

	tokens := tokenize(text)
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}

	candidates := make(map[string]float64)
	record := func(term string, confidence float64) {
		canonical := e.lexicon.Canonical(term)
		if confidence > candidates[canonical] {
			candidates[canonical] = confidence
		}
	}

	// (a) exact lexicon matches and (b) frequency-scaled keyword matches
	for _, term := range e.terms {
		phrase := e.phrases[term]
		if len(phrase) == 0 {
			continue
		}
		if len(phrase) == 1 {
			if n := counts[phrase[0]]; n > 0 {
				record(term, exactConfidence)
				record(term, min(float64(n)*frequencyStep, frequencyCap))
			}
			continue
		}
		if containsPhrase(tokens, phrase) {
			record(term, exactConfidence)
			record(term, phraseConfidence)
		}
	}

	// (c) contextual patterns over the lowercased raw text
	for _, candidate := range contextCandidates(strings.ToLower(text)) {
		if len(candidate) < minContextPhraseLen || e.lexicon.isStopWord(candidate) {
			continue
		}
		for _, term := range e.lexicon.Terms() {
			if strings.Contains(candidate, term) || strings.Contains(term, candidate) {
				record(term, contextConfidence)
			}
		}
	}

	return e.buildProfile(candidates, minConfidence)
}

func (e *Extractor) buildProfile(candidates map[string]float64, minConfidence float64) models.SkillProfile {
	profile := models.EmptySkillProfile()

	for skill, confidence := range candidates {
		if confidence < minConfidence {
			continue
		}
		profile.Skills[skill] = confidence

		category, ok := e.lexicon.Category(skill)
		if !ok {
			category = "other"
		}
		profile.Categories[category] = append(profile.Categories[category], skill)
	}

	for _, group := range profile.Categories {
		sort.Strings(group)
	}

	return profile
}

// normalize lowercases and strips punctuation while preserving the characters
// skill names are made of.
var normalizeRe = regexp.MustCompile(`[^\p{L}\p{N}\s#+./_-]+`)
var spaceRe = regexp.MustCompile(`\s+`)

func normalize(text string) string {
	text = strings.ToLower(text)
	text = normalizeRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// tokenize splits normalized text into words. Trailing dots are sentence
// punctuation, not part of a name, so "firebase." counts as "firebase" while
// "node.js" stays intact.
func tokenize(text string) []string {
	fields := strings.Fields(normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimRight(field, "."); field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, word := range phrase {
			if tokens[i+j] != word {
				continue outer
			}
		}
		return true
	}
	return false
}

var contextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:experience|experiencia|conocimientos?|knowledge|skills|habilidades)\s+(?:with|in|en|de)\s+([\p{L}\p{N} ,;#+./_-]+)`),
	regexp.MustCompile(`(?:proficient|skilled|experto|experta)\s+(?:in|en)\s+([\p{L}\p{N} ,;#+./_-]+)`),
	regexp.MustCompile(`(?:worked|trabajé|trabajado)\s+(?:with|con)\s+([\p{L}\p{N} ,;#+./_-]+)`),
	regexp.MustCompile(`(?:technologies|tecnologías|tools|herramientas)\s*:\s*([\p{L}\p{N} ,;#+./_-]+)`),
}

var phraseSplitRe = regexp.MustCompile(`[,;]`)

func contextCandidates(text string) []string {
	var candidates []string
	for _, pattern := range contextPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			for _, piece := range phraseSplitRe.Split(match[1], -1) {
				if piece = strings.TrimSpace(piece); piece != "" {
					candidates = append(candidates, piece)
				}
			}
		}
	}
	return candidates
}
