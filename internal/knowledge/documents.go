// Package knowledge implements the support knowledge base: an embedding-backed
// similarity index paired position-for-position with a document store.
package knowledge

import (
	"encoding/json"
	"fmt"
)

// Document is a stored knowledge-base entry. FullText is the exact string
// that was embedded for this document.
type Document struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FullText string `json:"full_text"`
}

// NewDocument builds a document from title and content. The embedded text is
// always title + "\n" + content.
func NewDocument(title, content string) Document {
	return Document{
		Title:    title,
		Content:  content,
		FullText: title + "\n" + content,
	}
}

// ScoredDocument is a search hit: the matched document with its squared L2
// distance to the query embedding.
type ScoredDocument struct {
	Document
	Distance float32 `json:"distance"`
}

// DocumentStore is an append-only ordered sequence of documents addressed by
// zero-based position. It is not safe for concurrent use; the Manager guards it.
type DocumentStore struct {
	docs []Document
}

// NewDocumentStore returns an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make([]Document, 0)}
}

// Append adds doc at the next position.
func (s *DocumentStore) Append(doc Document) {
	s.docs = append(s.docs, doc)
}

// Get returns the document at position, or ErrOutOfRange past the end.
func (s *DocumentStore) Get(position int) (Document, error) {
	if position < 0 || position >= len(s.docs) {
		return Document{}, fmt.Errorf("%w: position %d, count %d", ErrOutOfRange, position, len(s.docs))
	}
	return s.docs[position], nil
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count() int {
	return len(s.docs)
}

// ContainsFullText reports whether any stored document embeds exactly fullText.
func (s *DocumentStore) ContainsFullText(fullText string) bool {
	for _, doc := range s.docs {
		if doc.FullText == fullText {
			return true
		}
	}
	return false
}

// ToJSON returns the store as an indented JSON array preserving order.
func (s *DocumentStore) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s.docs, "", "  ")
}

// FromJSON replaces the store contents from a JSON array produced by ToJSON.
func (s *DocumentStore) FromJSON(data []byte) error {
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse documents: %w", err)
	}
	s.docs = docs
	return nil
}
