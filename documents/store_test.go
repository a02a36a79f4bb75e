package documents_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabfab/learning-assistant/documents"
)

func TestLoadFSReadsCatalogInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"gen_ai.txt":    {Data: []byte("Generative AI creates content.")},
		"ai_basics.txt": {Data: []byte("AI basics.")},
		"ml.md":         {Data: []byte("# ML\n\nModels learn from data.")},
		"unrelated.txt": {Data: []byte("ignored")},
	}

	store := documents.LoadFS(fsys, "data", zap.NewNop())

	assert.Equal(t, []string{"ai_basics", "ml", "gen_ai"}, store.Names())
	assert.Equal(t, "AI basics.", store.Content("ai_basics"))
	assert.Equal(t, "# ML\n\nModels learn from data.", store.Content("ml"))
	assert.Equal(t, "Generative AI creates content.", store.Content("gen_ai"))

	doc, ok := store.Get("ml")
	require.True(t, ok)
	assert.Equal(t, "data/ml.md", doc.Path)

	_, ok = store.Get("unrelated")
	assert.False(t, ok)
}

func TestLoadFSPrefersTextOverOtherFormats(t *testing.T) {
	fsys := fstest.MapFS{
		"ml.txt": {Data: []byte("plain")},
		"ml.md":  {Data: []byte("markdown")},
	}

	store := documents.LoadFS(fsys, ".", nil)
	assert.Equal(t, "plain", store.Content("ml"))
}

func TestLoadFSMissingFilesDegradeToEmpty(t *testing.T) {
	store := documents.LoadFS(fstest.MapFS{}, "data", nil)

	require.Equal(t, len(documents.Catalog), store.Len())
	for _, doc := range store.Documents() {
		assert.Empty(t, doc.Content, doc.Name)
		assert.Empty(t, doc.Path, doc.Name)
	}
	assert.Equal(t, map[string]string{"ai_basics": "", "ml": "", "gen_ai": ""}, store.Map())
}

func TestLoadFSUnreadablePDFDegradesToEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"gen_ai.pdf": {Data: []byte("definitely not a pdf")},
	}

	store := documents.LoadFS(fsys, "data", nil)

	doc, ok := store.Get("gen_ai")
	require.True(t, ok)
	assert.Empty(t, doc.Content)
	assert.Equal(t, "data/gen_ai.pdf", doc.Path)
}

func TestLoadMissingDirectory(t *testing.T) {
	store := documents.Load(filepath.Join(t.TempDir(), "does-not-exist"), nil)

	assert.Equal(t, documents.Catalog, store.Names())
	for _, name := range store.Names() {
		assert.Empty(t, store.Content(name))
	}
}

func TestNewStoreReplacesDuplicates(t *testing.T) {
	store := documents.NewStore(
		documents.Document{Name: "a", Content: "first"},
		documents.Document{Name: "b", Content: "second"},
		documents.Document{Name: "a", Content: "third"},
	)

	assert.Equal(t, []string{"a", "b"}, store.Names())
	assert.Equal(t, "third", store.Content("a"))
}

func TestStoreDocumentsReturnsCopy(t *testing.T) {
	store := documents.NewStore(documents.Document{Name: "a", Content: "original"})

	docs := store.Documents()
	docs[0].Content = "changed"

	assert.Equal(t, "original", store.Content("a"))
}

func TestNilStoreIsEmpty(t *testing.T) {
	var store *documents.Store

	assert.Empty(t, store.Names())
	assert.Empty(t, store.Documents())
	assert.Empty(t, store.Content("ml"))
	assert.Zero(t, store.Len())
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, documents.FormatText, documents.DetectFormat("notes/ml.txt"))
	assert.Equal(t, documents.FormatMarkdown, documents.DetectFormat("README.MD"))
	assert.Equal(t, documents.FormatPDF, documents.DetectFormat("paper.pdf"))
	assert.Equal(t, documents.FormatUnknown, documents.DetectFormat("image.png"))
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := documents.Parse(documents.FormatUnknown, []byte("x"))
	assert.Error(t, err)
}
