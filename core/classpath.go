package core

import (
	"fmt"
	"strings"
)

// ClasspathSeparator returns the path list separator of the platform
func ClasspathSeparator(p Platform) string {
	if p.OS == OSWindows {
		return ";"
	}
	return ":"
}

// AssembleClasspath joins the libraries in order followed by the client jar, which must come last
// for classes it shares with a library to be shadowed correctly. Repeated paths are only kept once.
func AssembleClasspath(libraries []string, clientJar string, sep string) (string, error) {
	seen := make(map[string]bool, len(libraries)+1)
	entries := make([]string, 0, len(libraries)+1)
	for _, lib := range libraries {
		if lib == "" || seen[lib] || lib == clientJar {
			continue
		}
		seen[lib] = true
		entries = append(entries, lib)
	}
	if clientJar != "" {
		entries = append(entries, clientJar)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: no libraries or client jar", ErrEmptyClasspath)
	}
	return strings.Join(entries, sep), nil
}
