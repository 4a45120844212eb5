package skills

import (
	"sort"
	"strings"
	"sync"
)

// Lexicon is the static mapping of canonical skill names to categories plus a
// synonym alias table. It is immutable after construction and safe to share
// by reference across extractors.
type Lexicon struct {
	categories map[string]string   // canonical term -> category
	synonyms   map[string]string   // alias -> canonical term
	stopWords  map[string]struct{} // noise words skipped by contextual detection
	terms      []string            // sorted canonical terms
}

func NewLexicon(byCategory map[string][]string, synonyms map[string]string, stopWords []string) *Lexicon {
	l := &Lexicon{
		categories: make(map[string]string),
		synonyms:   make(map[string]string, len(synonyms)),
		stopWords:  make(map[string]struct{}, len(stopWords)),
	}

	for category, terms := range byCategory {
		for _, term := range terms {
			l.categories[strings.ToLower(term)] = category
		}
	}
	for alias, canonical := range synonyms {
		l.synonyms[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	for _, word := range stopWords {
		l.stopWords[word] = struct{}{}
	}

	l.terms = make([]string, 0, len(l.categories))
	for term := range l.categories {
		l.terms = append(l.terms, term)
	}
	sort.Strings(l.terms)

	return l
}

// Terms returns all canonical terms in deterministic order.
func (l *Lexicon) Terms() []string { return l.terms }

// Canonical resolves a synonym alias to its canonical name; unknown terms map
// to themselves.
func (l *Lexicon) Canonical(term string) string {
	if canonical, ok := l.synonyms[strings.ToLower(term)]; ok {
		return canonical
	}
	return strings.ToLower(term)
}

// Category returns the category of a canonical term.
func (l *Lexicon) Category(term string) (string, bool) {
	category, ok := l.categories[strings.ToLower(term)]
	return category, ok
}

func (l *Lexicon) isStopWord(word string) bool {
	_, ok := l.stopWords[word]
	return ok
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the built-in lexicon, constructed once.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		defaultLexicon = NewLexicon(defaultCategories, defaultSynonyms, defaultStopWords)
	})
	return defaultLexicon
}

var defaultCategories = map[string][]string{
	"programming": {
		"python", "java", "javascript", "typescript", "c++", "c#", "php", "ruby", "go", "rust",
		"kotlin", "swift", "scala", "sql", "html", "css", "react", "angular", "vue",
		"node.js", "django", "flask", "spring", "laravel", "express", "rails", "svelte",
		"retrofit", "okhttp", "coroutines", "dagger", "hilt", "room",
	},
	"databases": {
		"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "oracle", "sqlite",
		"mariadb", "cassandra", "neo4j", "dynamodb",
	},
	"cloud": {
		"aws", "azure", "gcp", "google cloud", "amazon web services", "docker", "kubernetes",
		"terraform", "ansible", "jenkins", "gitlab ci", "github actions",
	},
	"mobile": {
		"android", "ios", "react native", "flutter", "xamarin", "ionic", "cordova",
		"jetpack compose", "firebase", "viewmodel", "navigation component", "workmanager", "jsoup",
	},
	"data_science": {
		"machine learning", "deep learning", "pandas", "numpy", "scikit-learn", "tensorflow",
		"pytorch", "keras", "jupyter", "spark", "hadoop", "tableau", "power bi", "excel",
	},
	"ai_ml": {
		"artificial intelligence", "neural networks", "natural language processing",
		"computer vision", "opencv", "nltk", "spacy", "transformers", "bert", "gpt",
	},
	"design": {
		"photoshop", "illustrator", "indesign", "figma", "sketch", "adobe xd", "invision",
		"canva", "ui design", "ux design", "wireframing", "prototyping", "material design",
		"typography", "branding", "logo design",
	},
	"marketing": {
		"google analytics", "google ads", "facebook ads", "seo", "sem", "content marketing",
		"social media", "email marketing", "hubspot", "salesforce", "mailchimp",
	},
	"project_management": {
		"agile", "scrum", "kanban", "jira", "trello", "asana", "confluence", "slack", "notion",
	},
	"languages": {
		"español", "inglés", "francés", "alemán", "italiano", "portugués",
		"spanish", "english", "french", "german", "italian", "portuguese",
	},
	"soft_skills": {
		"liderazgo", "trabajo en equipo", "comunicación", "resolución de problemas",
		"leadership", "teamwork", "communication", "problem solving", "critical thinking",
		"adaptability", "time management", "negotiation",
	},
	"architecture": {
		"mvvm", "mvc", "mvp", "clean architecture", "repository pattern", "dependency injection",
		"rest api", "graphql", "microservices", "soa",
	},
	"multimedia": {
		"after effects", "premiere pro", "final cut pro", "davinci resolve", "motion graphics",
		"video editing", "sound design", "color grading", "compositing", "visual effects",
		"3d modeling", "blender", "maya", "cinema 4d", "houdini", "zbrush", "nuke",
		"character animation", "character rigging", "motion capture", "storyboarding",
	},
	"game_development": {
		"unity", "unreal engine", "godot", "game design", "level design", "gameplay programming",
		"shaders", "opengl", "directx", "vulkan", "collision detection", "pathfinding",
	},
}

var defaultSynonyms = map[string]string{
	"js":          "javascript",
	"react.js":    "react",
	"node":        "node.js",
	"nodejs":      "node.js",
	"postgres":    "postgresql",
	"ml":          "machine learning",
	"dl":          "deep learning",
	"nlp":         "natural language processing",
	"ui/ux":       "ui design",
	"ux/ui":       "ux design",
	"rest":        "rest api",
	"k8s":         "kubernetes",
	"golang":      "go",
	"ae":          "after effects",
	"ps":          "photoshop",
	"xd":          "adobe xd",
	"ue":          "unreal engine",
	"3ds":         "3d modeling",
	"c4d":         "cinema 4d",
	"resolve":     "davinci resolve",
	"fcp":         "final cut pro",
	"vfx":         "visual effects",
	"mocap":       "motion capture",
	"rigging":     "character rigging",
	"compose":     "jetpack compose",
	"amazon":      "amazon web services",
	"gamedev":     "game design",
	"unreal":      "unreal engine",
	"wireframe":   "wireframing",
	"prototype":   "prototyping",
	"ingles":      "inglés",
	"espanol":     "español",
	"react-native": "react native",
}

var defaultStopWords = []string{
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"el", "la", "los", "las", "de", "del", "en", "con", "para", "por", "sobre",
	"y", "o", "pero", "sin", "entre", "hasta", "desde", "hacia", "durante",
}
