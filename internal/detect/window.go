package detect

import "strings"

// maxWindowLines bounds the handler-body window so degenerate files
// cannot blow up the textual checks.
const maxWindowLines = 60

// defSearchSpan is how far below a route registration the handler
// definition is searched for.
const defSearchSpan = 10

// HandlerWindow returns the bounded textual window around the handler
// registered at routeIdx (0-based line index): the lines between the
// registration and the handler definition (stacked decorators) plus the
// handler body, found by scanning for the nearest enclosing block
// boundary via indentation. ok is false when no handler definition
// follows the registration, as with class-based url tables.
func HandlerWindow(lines []string, routeIdx int) (window []string, ok bool) {
	defIdx := -1
	for i := routeIdx + 1; i < len(lines) && i <= routeIdx+defSearchSpan; i++ {
		t := strings.TrimSpace(lines[i])
		if strings.HasPrefix(t, "def ") || strings.HasPrefix(t, "async def ") {
			defIdx = i
			break
		}
	}
	if defIdx < 0 {
		return nil, false
	}

	defIndent := indentWidth(lines[defIdx])
	window = append(window, lines[routeIdx+1:defIdx+1]...)

	for i := defIdx + 1; i < len(lines) && len(window) < maxWindowLines; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			window = append(window, lines[i])
			continue
		}
		if indentWidth(lines[i]) <= defIndent {
			break
		}
		window = append(window, lines[i])
	}
	return window, true
}

// indentWidth measures leading whitespace, counting tabs as 8 columns.
func indentWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 8
		default:
			return w
		}
	}
	return w
}

// windowContains reports whether any window line contains the literal.
func windowContains(window []string, literal string) bool {
	for _, l := range window {
		if strings.Contains(l, literal) {
			return true
		}
	}
	return false
}
