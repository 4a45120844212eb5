package skills

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func Test_Extract_WhenTextEmpty_ShouldReturnEmptyProfile(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())

	profile := extractor.Extract("", 0.5)
	assert.Empty(t, profile.Skills)
	assert.Empty(t, profile.Categories)

	profile = extractor.Extract("   \n\t ", 0.5)
	assert.Empty(t, profile.Skills)
}

func Test_Extract_FindsExactAndPhraseMatches(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())

	profile := extractor.Extract("Android Developer. Kotlin, Jetpack Compose, Firebase.", 0.5)

	assert.Equal(t, []string{"android", "firebase", "jetpack compose", "kotlin"}, profile.Names())
	assert.Equal(t, 1.0, profile.Skills["android"])
	assert.Equal(t, 1.0, profile.Skills["jetpack compose"])
	assert.Contains(t, profile.Categories["mobile"], "android")
}

func Test_Extract_PreservesPunctuatedSkillNames(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())

	profile := extractor.Extract("Se busca fullstack: C++, C# y Node.js", 0.5)

	assert.True(t, profile.Has("c++"))
	assert.True(t, profile.Has("c#"))
	assert.True(t, profile.Has("node.js"))
}

func Test_Extract_CanonicalizesSynonyms(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())

	profile := extractor.Extract("Backend con Golang y JS, postgres y k8s", 0.5)

	assert.True(t, profile.Has("go"))
	assert.True(t, profile.Has("javascript"))
	assert.True(t, profile.Has("postgresql"))
	assert.True(t, profile.Has("kubernetes"))
	assert.False(t, profile.Has("golang"))
}

func Test_Extract_ContextPatternCatchesFuzzyMention(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())

	// "postgre" is not a lexicon term; only the contextual detector ties it
	// to postgresql, at its lower confidence
	profile := extractor.Extract("Se requiere experiencia en postgre", 0.5)

	assert.True(t, profile.Has("postgresql"))
	assert.Equal(t, 0.6, profile.Skills["postgresql"])
}

func Test_Extract_ThresholdDropsEverything(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())

	profile := extractor.Extract("python java docker", 1.1)
	assert.Empty(t, profile.Skills)
}

func Test_Extract_IsDeterministic(t *testing.T) {
	extractor := NewExtractor(DefaultLexicon())
	text := "Experiencia con Python, Django y PostgreSQL. Conocimientos de Docker, AWS, inglés."

	first := extractor.Extract(text, 0.5)
	second := extractor.Extract(text, 0.5)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Names(), second.Names())
}

func Test_Lexicon_CanonicalAndCategory(t *testing.T) {
	lexicon := DefaultLexicon()

	assert.Equal(t, "javascript", lexicon.Canonical("JS"))
	assert.Equal(t, "unknownterm", lexicon.Canonical("UnknownTerm"))

	category, ok := lexicon.Category("firebase")
	assert.True(t, ok)
	assert.Equal(t, "mobile", category)

	_, ok = lexicon.Category("no-such-skill")
	assert.False(t, ok)
}

func Test_Extract_UncategorizedSkillGoesToOtherBucket(t *testing.T) {
	lexicon := NewLexicon(
		map[string][]string{"programming": {"python"}},
		map[string]string{"cobol85": "cobol"},
		nil,
	)
	extractor := NewExtractor(lexicon)

	profile := extractor.Extract("python y cobol85", 0.5)

	// cobol85 canonicalizes to cobol, which has no category of its own
	assert.True(t, profile.Has("python"))
	if assert.True(t, profile.Has("cobol")) {
		assert.Contains(t, profile.Categories["other"], "cobol")
	}
}
