package routes

import "strings"

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux and returns the registered
// patterns in order.
func Register(mux Mux, groups ...Group) []string {
	var patterns []string
	for _, g := range groups {
		patterns = register(mux, "", g, patterns)
	}
	return patterns
}

func register(mux Mux, parent string, g Group, patterns []string) []string {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		pattern := prefix + r.Pattern
		if r.Method != "" {
			pattern = strings.ToUpper(r.Method) + " " + pattern
		}
		mux.HandleFunc(pattern, r.Handler)
		patterns = append(patterns, pattern)
	}
	for _, child := range g.Children {
		patterns = register(mux, prefix, child, patterns)
	}
	return patterns
}
