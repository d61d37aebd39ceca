package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `model_name,use_case_tags,size_gb,link,source,notes
phi3,"chat, reasoning",2.3,https://ollama.com/library/phi3,Ollama,small
codellama,"coding, debugging",3.8,https://ollama.com/library/codellama,Ollama,code focus
llama3,"chat, writing, analysis",4.7,https://ollama.com/library/llama3,Ollama,general
deepseek-coder,"coding, completion",3.8,https://ollama.com/library/deepseek-coder,Ollama,
starcoder2,"coding",1.7,https://ollama.com/library/starcoder2,Ollama,
mistral,"writing, chat",4.1,https://ollama.com/library/mistral,Ollama,fast
`

func sampleStore(t *testing.T) *Store {
	t.Helper()
	s, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return s
}

func names(es []Entry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Name)
	}
	return out
}

func TestSearch_CatalogOrderTruncatedToThree(t *testing.T) {
	s := sampleStore(t)

	got, err := s.Search("which model is best for coding?")
	require.NoError(t, err)
	assert.Equal(t, []string{"codellama", "deepseek-coder", "starcoder2"}, names(got))
}

func TestSearch_AnyTokenMatches(t *testing.T) {
	s := sampleStore(t)

	got, err := s.Search("Recommend LLM for WRITING")
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "mistral"}, names(got))
}

func TestSearch_Deterministic(t *testing.T) {
	s := sampleStore(t)
	first, err := s.Search("chat and coding")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Search("chat and coding")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.LessOrEqual(t, len(first), MaxResults)
}

func TestSearch_NoTokens(t *testing.T) {
	got, err := sampleStore(t).Search("a an of")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_Unavailable(t *testing.T) {
	var s *Store
	_, err := s.Search("coding")
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("name,tags\nx,y\n"))
	require.Error(t, err)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"the", "best", "llm", "for", "coding"}, Tokens("the best LLM, for coding!"))
}

func TestFormatResults(t *testing.T) {
	out := FormatResults([]Entry{{Name: "phi3", UseCaseTags: "chat", SizeGB: "2.3", Link: "https://x", Source: "Ollama", Notes: "small"}})
	assert.Contains(t, out, "### 1. **phi3**")
	assert.Contains(t, out, "[Ollama Page](https://x)")
}
