package wordlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Source describes a downloadable public wordlist
type Source struct {
	Name        string
	URL         string
	Description string
}

// Sources are the predefined wordlists, keyed by name
var Sources = map[string]Source{
	"common": {
		Name:        "common",
		URL:         "https://raw.githubusercontent.com/dwyl/english-words/master/words_alpha.txt",
		Description: "Common English words (370k+ words)",
	},
	"common-small": {
		Name:        "common-small",
		URL:         "https://raw.githubusercontent.com/first20hours/google-10000-english/master/google-10000-english-usa.txt",
		Description: "10,000 most common English words",
	},
	"common-tiny": {
		Name:        "common-tiny",
		URL:         "https://raw.githubusercontent.com/first20hours/google-10000-english/master/google-10000-english-usa-no-swears.txt",
		Description: "10,000 most common English words (no profanity)",
	},
	"names": {
		Name:        "names",
		URL:         "https://raw.githubusercontent.com/dominictarr/random-name/master/first-names.txt",
		Description: "Common first names",
	},
	"adjectives": {
		Name:        "adjectives",
		URL:         "https://raw.githubusercontent.com/hugsy/stuff/main/random-word/english-adjectives.txt",
		Description: "English adjective words",
	},
}

// ErrExists is returned when the download target exists and force is off
var ErrExists = errors.New("file already exists")

// List returns the predefined sources sorted by name
func List() []Source {
	out := make([]Source, 0, len(Sources))
	for _, s := range Sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a predefined source by name
func Lookup(name string) (Source, error) {
	s, ok := Sources[name]
	if !ok {
		names := make([]string, 0, len(Sources))
		for _, src := range List() {
			names = append(names, src.Name)
		}
		return Source{}, fmt.Errorf("unknown wordlist '%s'. Available: %s", name, strings.Join(names, ", "))
	}
	return s, nil
}

// DefaultOutput is the file name a source is saved under when no output is
// given: the last element of its URL path, or "<name>.txt".
func (s Source) DefaultOutput() string {
	u, err := url.Parse(s.URL)
	if err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return s.Name + ".txt"
}

// Doer is the subset of *http.Client used for downloads
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DownloadOptions configures Download
type DownloadOptions struct {
	Output    string // Target path; empty uses Source.DefaultOutput
	Force     bool   // Overwrite an existing target
	UserAgent string
	Progress  io.Writer // Receives status lines; nil discards them
}

// DownloadResult describes a finished download
type DownloadResult struct {
	Path  string
	Bytes int64
	Lines int
	// ValidUTF8 is false when the content contains invalid UTF-8
	ValidUTF8 bool
}

// Download fetches src and stores it on disk. The body is written to a
// temporary file next to the target and renamed into place once complete.
func Download(ctx context.Context, client Doer, src Source, opts DownloadOptions) (*DownloadResult, error) {
	out := opts.Output
	if out == "" {
		out = src.DefaultOutput()
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	if _, err := os.Stat(out); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: '%s'. Use --force to overwrite", ErrExists, out)
	}

	fmt.Fprintf(progress, "Downloading %s wordlist from %s\n", src.Name, src.URL)
	fmt.Fprintf(progress, "Output: %s\n", out)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error downloading wordlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download wordlist: HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), ".wordlist-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("error saving wordlist file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("error saving wordlist file: %w", err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		return nil, fmt.Errorf("error saving wordlist file: %w", err)
	}

	res := &DownloadResult{Path: out, Bytes: n}
	res.Lines, res.ValidUTF8, err = countLines(out)
	if err != nil {
		return nil, fmt.Errorf("could not validate downloaded file: %w", err)
	}
	return res, nil
}

func countLines(p string) (int, bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	valid := true
	lines := 0
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			lines++
			if valid && !utf8.ValidString(line) {
				valid = false
			}
		}
		if err == io.EOF {
			return lines, valid, nil
		}
		if err != nil {
			return 0, false, err
		}
	}
}
