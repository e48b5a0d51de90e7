package browser

import (
	"fmt"

	"github.com/gobwas/glob"
)

// URLPolicy restricts which pages the gateway may act on. An empty policy
// allows every page.
type URLPolicy struct {
	patterns []string
	globs    []glob.Glob
}

// NewURLPolicy compiles glob patterns such as "https://*.example.com/**".
// '*' does not cross '/' or '.', '**' matches anything.
func NewURLPolicy(patterns []string) (*URLPolicy, error) {
	p := &URLPolicy{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/', '.')
		if err != nil {
			return nil, fmt.Errorf("invalid allowed URL pattern %q: %w", pattern, err)
		}
		p.patterns = append(p.patterns, pattern)
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// Allows reports whether rawURL matches at least one pattern.
func (p *URLPolicy) Allows(rawURL string) bool {
	if p == nil || len(p.globs) == 0 {
		return true
	}
	for _, g := range p.globs {
		if g.Match(rawURL) {
			return true
		}
	}
	return false
}

// Patterns returns the configured patterns.
func (p *URLPolicy) Patterns() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.patterns...)
}
