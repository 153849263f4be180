package wordlist

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCleansWords(t *testing.T) {
	input := strings.Join([]string{
		"  Apple ",
		"",
		"bad_word",
		"x-ray",
		"toolongword",
		"42",
	}, "\n")
	var diag bytes.Buffer

	words, err := Read(strings.NewReader(input), 6, &diag)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "x-ray", "42"}, words)
	assert.Contains(t, diag.String(), "Warning: Skipping invalid word 'bad_word' at line 3")
	assert.NotContains(t, diag.String(), "toolongword")
}

func TestReadNoWords(t *testing.T) {
	_, err := Read(strings.NewReader("\n  \n***\n"), 0, nil)
	assert.ErrorIs(t, err, ErrNoWords)
}

func TestReadInvalidUTF8(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("ok\n\xff\xfe\n")), 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding issue")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"), 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wordlist file not found")
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(p, []byte("alpha\nbeta\n"), 0644))
	words, err := Load(p, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, words)
}

func TestLookup(t *testing.T) {
	src, err := Lookup("names")
	require.NoError(t, err)
	assert.Equal(t, "first-names.txt", src.DefaultOutput())

	_, err = Lookup("klingon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjectives, common, common-small, common-tiny, names")

	assert.Len(t, List(), 5)
	assert.Equal(t, "adjectives", List()[0].Name)
}

func TestDefaultOutputFallback(t *testing.T) {
	src := Source{Name: "mine", URL: "https://example.com/"}
	assert.Equal(t, "mine.txt", src.DefaultOutput())
}

func TestDownload(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("one\ntwo\nthree\n"))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "list.txt")
	src := Source{Name: "test", URL: srv.URL + "/list.txt"}
	var progress bytes.Buffer

	res, err := Download(context.Background(), srv.Client(), src, DownloadOptions{
		Output:    out,
		UserAgent: "domain-checker/0.1",
		Progress:  &progress,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Lines)
	assert.True(t, res.ValidUTF8)
	assert.Equal(t, "domain-checker/0.1", gotUA)
	assert.Contains(t, progress.String(), "Downloading test wordlist from")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", string(data))

	// existing target without force
	_, err = Download(context.Background(), srv.Client(), src, DownloadOptions{Output: out})
	assert.True(t, errors.Is(err, ErrExists))

	_, err = Download(context.Background(), srv.Client(), src, DownloadOptions{Output: out, Force: true})
	assert.NoError(t, err)
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "list.txt")
	_, err := Download(context.Background(), srv.Client(), Source{Name: "x", URL: srv.URL}, DownloadOptions{Output: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.NoFileExists(t, out)
}
