package models

type Document struct {
	ID       string
	Name     string
	Source   string
	Content  string
	Metadata map[string]interface{}
}

// ProjectRecord is one project entry recovered from a document.
type ProjectRecord struct {
	Name        string
	Description string
}

// KeywordSet is an ordered, de-duplicated list of matched keywords.
// Order follows the keyword list, never the alphabet.
type KeywordSet []string

func (k KeywordSet) Present() bool {
	return len(k) > 0
}

func (k KeywordSet) Contains(keyword string) bool {
	for _, kw := range k {
		if kw == keyword {
			return true
		}
	}
	return false
}

type AnnotatedRecord struct {
	ProjectRecord
	NameKeywords        KeywordSet
	DescriptionKeywords KeywordSet
}

// Matched reports whether any keyword was found in the name or description.
func (r AnnotatedRecord) Matched() bool {
	return r.NameKeywords.Present() || r.DescriptionKeywords.Present()
}

type DocumentResult struct {
	Document Document
	Strategy string
	Records  []AnnotatedRecord
	Err      error
}

type Stats struct {
	Total              int
	NameMatches        int
	DescriptionMatches int
	AnyMatches         int
}

func (r DocumentResult) Stats() Stats {
	stats := Stats{Total: len(r.Records)}
	for _, rec := range r.Records {
		if rec.NameKeywords.Present() {
			stats.NameMatches++
		}
		if rec.DescriptionKeywords.Present() {
			stats.DescriptionMatches++
		}
		if rec.Matched() {
			stats.AnyMatches++
		}
	}
	return stats
}
