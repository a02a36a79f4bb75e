// Package documents loads the tutor's fixed set of knowledge documents into
// an immutable in-memory store.
package documents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/fabfab/learning-assistant/logging"
)

// Catalog is the fixed set of document names, in display order.
var Catalog = []string{"ai_basics", "ml", "gen_ai"}

var errNotFound = errors.New("no file for document")

type Document struct {
	Name    string
	Path    string
	Content string
}

// Store holds the loaded documents. It is never mutated after construction
// and is safe to share between requests.
type Store struct {
	docs  []Document
	index map[string]int
}

// NewStore builds a store from already loaded documents, keeping their order.
// Later documents with a duplicate name replace earlier ones.
func NewStore(docs ...Document) *Store {
	s := &Store{index: make(map[string]int, len(docs))}
	for _, doc := range docs {
		if i, ok := s.index[doc.Name]; ok {
			s.docs[i] = doc
			continue
		}
		s.index[doc.Name] = len(s.docs)
		s.docs = append(s.docs, doc)
	}
	return s
}

// Load reads every catalog document from dir. Documents that cannot be found
// or read are kept with empty content.
func Load(dir string, logger *zap.Logger) *Store {
	return LoadFS(os.DirFS(dir), dir, logger)
}

// LoadFS is Load over an arbitrary filesystem; root is only used to report
// document paths.
func LoadFS(fsys fs.FS, root string, logger *zap.Logger) *Store {
	logger = logging.OrNop(logger)

	docs := make([]Document, 0, len(Catalog))
	for _, name := range Catalog {
		doc := Document{Name: name}

		file, content, err := readDocument(fsys, name)
		if file != "" {
			doc.Path = path.Join(root, file)
		}
		if err != nil {
			logger.Warn("document unavailable, using empty content",
				zap.String("document", name),
				zap.String("dir", root),
				zap.Error(err),
			)
		} else {
			doc.Content = content
			logger.Debug("document loaded",
				zap.String("document", name),
				zap.String("path", doc.Path),
				zap.Int("bytes", len(content)),
			)
		}

		docs = append(docs, doc)
	}

	return NewStore(docs...)
}

func readDocument(fsys fs.FS, name string) (string, string, error) {
	for _, ext := range Extensions {
		file := name + ext
		data, err := fs.ReadFile(fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return file, "", fmt.Errorf("read %s: %w", file, err)
		}

		content, err := Parse(DetectFormat(file), data)
		if err != nil {
			return file, "", fmt.Errorf("parse %s: %w", file, err)
		}
		return file, content, nil
	}
	return "", "", fmt.Errorf("%w %q", errNotFound, name)
}

// Names returns the document names in store order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.docs))
	for i, doc := range s.docs {
		names[i] = doc.Name
	}
	return names
}

// Documents returns a copy of the stored documents in store order.
func (s *Store) Documents() []Document {
	if s == nil {
		return nil
	}
	return append([]Document(nil), s.docs...)
}

func (s *Store) Get(name string) (Document, bool) {
	if s == nil {
		return Document{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Document{}, false
	}
	return s.docs[i], true
}

// Content returns the text of the named document, or "" if it is unknown.
func (s *Store) Content(name string) string {
	doc, _ := s.Get(name)
	return doc.Content
}

// Map returns the documents as a name to content mapping.
func (s *Store) Map() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	m := make(map[string]string, len(s.docs))
	for _, doc := range s.docs {
		m[doc.Name] = doc.Content
	}
	return m
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.docs)
}
