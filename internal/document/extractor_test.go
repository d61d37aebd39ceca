package document

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second line</w:t></w:r></w:p>
  </w:body>
</w:document>`

func slideXML(text string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
}

func TestExtract_PlainTextUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.MD")
	require.NoError(t, os.WriteFile(path, []byte("# héllo"), 0o644))

	got, err := NewExtractor(nil).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "# héllo", got)
}

func TestExtract_PlainTextLatin1Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(path, []byte{'c', 'a', 'f', 0xE9}, 0o644))

	got, err := NewExtractor(nil).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "café", got)
}

func TestExtract_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	writeZip(t, path, map[string]string{"word/document.xml": docxBody})

	got, err := NewExtractor(nil).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond line", got)
}

func TestExtract_PPTXSlideOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide10.xml":           slideXML("ten"),
		"ppt/slides/slide2.xml":            slideXML("two"),
		"ppt/slides/slide1.xml":            slideXML("one"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	got, err := NewExtractor(nil).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nten", got)
}

const presentationXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:sldIdLst>
    <p:sldId id="258" r:id="rId4"/>
    <p:sldId id="256" r:id="rId2"/>
    <p:sldId id="257" r:id="rId3"/>
  </p:sldIdLst>
</p:presentation>`

const presentationRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>
  <Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="/ppt/slides/slide3.xml"/>
</Relationships>`

func TestExtract_PPTXReorderedDeckFollowsSlideList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reordered.pptx")
	writeZip(t, path, map[string]string{
		"ppt/presentation.xml":            presentationXML,
		"ppt/_rels/presentation.xml.rels": presentationRels,
		"ppt/slides/slide1.xml":           slideXML("intro"),
		"ppt/slides/slide2.xml":           slideXML("body"),
		"ppt/slides/slide3.xml":           slideXML("moved to front"),
	})

	got, err := NewExtractor(nil).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "moved to front\nintro\nbody", got)
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := NewExtractor(nil).Extract("/tmp/archive.rar")

	var ute *UnsupportedTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, ".rar", ute.Ext)
	assert.Contains(t, ute.Supported, ".pdf")
}

func TestExtract_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := NewExtractor(nil).Extract(path)

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "docx", ee.Strategy)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewExtractor(nil).Extract(filepath.Join(t.TempDir(), "gone.txt"))

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "héllo", Truncate("héllo", 0))
}
