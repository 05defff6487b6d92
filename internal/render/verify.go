package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// VerifySite checks every internal reference in the rendered site: each
// relative href/src must resolve to a file inside siteDir. A broken
// cross-reference fails the build; there is no skip-and-continue mode.
func VerifySite(siteDir string) error {
	var broken []string

	err := filepath.WalkDir(siteDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		refs, err := extractRefs(path)
		if err != nil {
			return fmt.Errorf("failed to parse rendered page %s: %w", path, err)
		}
		for _, ref := range refs {
			if !internalRef(ref) {
				continue
			}
			target := ref
			if idx := strings.IndexAny(target, "#?"); idx >= 0 {
				target = target[:idx]
			}
			if target == "" {
				continue
			}
			resolved := filepath.Join(filepath.Dir(path), filepath.FromSlash(target))
			if _, err := os.Stat(resolved); err != nil {
				rel, _ := filepath.Rel(siteDir, path)
				broken = append(broken, fmt.Sprintf("%s -> %s", rel, ref))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(broken) > 0 {
		return fmt.Errorf("site verification failed, %d broken reference(s): %s",
			len(broken), strings.Join(broken, ", "))
	}
	return nil
}

// extractRefs collects href and src attribute values from an HTML file.
func extractRefs(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := html.Parse(file)
	if err != nil {
		return nil, err
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key == "href" || attr.Key == "src" {
					refs = append(refs, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

// internalRef reports whether ref points into the rendered site rather than
// at an external resource.
func internalRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return false
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "//") {
		return false
	}
	if strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "data:") {
		return false
	}
	if strings.HasPrefix(ref, "/") {
		// Absolute paths depend on the serving prefix; left to the host.
		return false
	}
	return true
}
