package search

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/boyter/gocodewalker"
	"github.com/h2non/filetype"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// TreeOptions configures a TreeProvider.
type TreeOptions struct {
	// Root is the directory to search under.
	Root string
	// ExcludeDirectories are directory names never descended into
	// (node_modules, .git and friends).
	ExcludeDirectories []string
	// CacheSize limits the token result cache, zero disables caching.
	CacheSize int
}

// TreeProvider implements Provider by walking the tree under a root and
// scanning candidate files line by line. Walks honor ignore files the same
// way source tools do, binary files are detected and skipped. Results are
// cached per (token, glob) - the same selector commonly repeats across media
// blocks.
type TreeProvider struct {
	root     string
	excluded []string
	cache    *lru.Cache[string, []string]
	log      *zap.Logger
}

// NewTreeProvider creates a search provider rooted at opts.Root.
func NewTreeProvider(opts TreeOptions, log *zap.Logger) (*TreeProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	root := opts.Root
	if len(root) == 0 {
		root = "."
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unable to access search root %q: %w", root, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("search root is not a directory: %s", root)
	}

	p := &TreeProvider{
		root:     root,
		excluded: opts.ExcludeDirectories,
		log:      log.Named("search"),
	}
	if opts.CacheSize > 0 {
		if p.cache, err = lru.New[string, []string](opts.CacheSize); err != nil {
			return nil, fmt.Errorf("unable to create search cache: %w", err)
		}
	}
	return p, nil
}

// Search walks the tree once and returns root-relative slash-separated paths
// of files mentioning token, in walk order. An empty glob matches everything.
func (p *TreeProvider) Search(ctx context.Context, token, glob string) ([]string, error) {
	if len(token) == 0 {
		return nil, errors.New("empty search token")
	}

	key := token + "\x00" + glob
	if p.cache != nil {
		if hit, ok := p.cache.Get(key); ok {
			p.log.Debug("Search cache hit", zap.String("token", token))
			return slices.Clone(hit), nil
		}
	}

	fileListQueue := make(chan *gocodewalker.File, 100)

	walker := gocodewalker.NewFileWalker(p.root, fileListQueue)
	walker.ExcludeDirectory = p.excluded

	errChan := make(chan error, 1)
	go func() {
		errChan <- walker.Start()
		close(errChan)
	}()

	var (
		matches []string
		ctxErr  error
	)
	for f := range fileListQueue {
		if err := ctx.Err(); err != nil {
			// stop the walk but keep draining the queue
			if ctxErr == nil {
				ctxErr = err
				walker.Terminate()
			}
			continue
		}

		rel := p.relative(f.Location)
		if len(glob) > 0 {
			if ok, err := doublestar.Match(glob, rel); err != nil || !ok {
				continue
			}
		}

		found, err := fileMentions(f.Location, token)
		if err != nil {
			p.log.Debug("Skipping unreadable file", zap.String("file", f.Location), zap.Error(err))
			continue
		}
		if found {
			matches = append(matches, rel)
		}
	}

	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("unable to walk search root %q: %w", p.root, err)
	}
	if ctxErr != nil {
		return nil, ctxErr
	}

	if p.cache != nil {
		p.cache.Add(key, slices.Clone(matches))
	}
	p.log.Debug("Search completed", zap.String("token", token), zap.Int("matches", len(matches)))
	return matches, nil
}

// relative converts an absolute walk location to a root-relative slash path.
func (p *TreeProvider) relative(location string) string {
	if rel, err := filepath.Rel(p.root, location); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(location)
}

// fileMentions reports whether the file contains token as a substring of any
// line. Files whose head matches a known binary signature are never scanned.
func fileMentions(path, token string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return false, err
	}
	if kind, _ := filetype.Match(head[:n]); kind != filetype.Unknown {
		// known binary or media format
		return false, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, err
	}

	scanner := bufio.NewScanner(f)
	// allow long minified lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), token) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
