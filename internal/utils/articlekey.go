package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultProject is the site used when an article key has no project.
const DefaultProject = "https://en.wikipedia.org"

// ArticleKey builds the variant-agnostic database key for an article,
// e.g. "https://en.wikipedia.org/wiki/Ada_Lovelace".
func ArticleKey(project, title string) string {
	project = strings.TrimRight(project, "/")
	if project == "" {
		project = DefaultProject
	}
	title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	return project + "/wiki/" + title
}

// ParseArticleKey splits an article key into its project URL and title.
func ParseArticleKey(key string) (project, title string, err error) {
	u, err := url.Parse(key)
	if err != nil {
		return "", "", fmt.Errorf("invalid article key %q: %w", key, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("invalid article key %q: missing site", key)
	}
	path := u.Path
	if !strings.HasPrefix(path, "/wiki/") {
		return "", "", fmt.Errorf("invalid article key %q: missing /wiki/ path", key)
	}
	title = strings.TrimPrefix(path, "/wiki/")
	if title == "" {
		return "", "", fmt.Errorf("invalid article key %q: missing title", key)
	}
	return u.Scheme + "://" + u.Host, title, nil
}

// DisplayTitle turns a key title into its display form.
func DisplayTitle(title string) string {
	return strings.ReplaceAll(title, "_", " ")
}
