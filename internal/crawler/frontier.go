package crawler

import urlutil "github.com/law-makers/seocrawl/internal/utils/url"

// frontier is the FIFO queue of one crawl plus its de-duplication sets.
// Keys are normalized URLs.
type frontier struct {
	queue   []string
	queued  map[string]bool
	visited map[string]bool
}

func newFrontier(seed string) *frontier {
	f := &frontier{
		queued:  make(map[string]bool),
		visited: make(map[string]bool),
	}
	f.push(seed, urlutil.Normalize(seed))
	return f
}

func (f *frontier) push(rawURL, key string) {
	f.queued[key] = true
	f.queue = append(f.queue, rawURL)
}

// pop removes the next URL and marks it visited. It reports false for a URL
// that was visited already.
func (f *frontier) pop() (string, bool) {
	next := f.queue[0]
	f.queue = f.queue[1:]

	key := urlutil.Normalize(next)
	if f.visited[key] {
		return "", false
	}
	f.visited[key] = true
	return next, true
}

func (f *frontier) seen(key string) bool {
	return f.visited[key] || f.queued[key]
}

func (f *frontier) len() int { return len(f.queue) }

func (f *frontier) visitedCount() int { return len(f.visited) }
