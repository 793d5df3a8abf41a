package cmdshared

import (
	"slices"
	"testing"

	"github.com/spf13/viper"
)

var knownVersions = []string{"1.21.8", "1.21.7", "1.21.1", "1.20.1", "25w41a", "1.8.9"}

func TestSuggestVersions(t *testing.T) {
	suggestions := SuggestVersions("1.21", knownVersions)
	if len(suggestions) == 0 {
		t.Fatal("Expected suggestions for 1.21")
	}
	for _, s := range suggestions {
		if !slices.Contains(knownVersions, s) {
			t.Errorf("Unexpected suggestion %s", s)
		}
	}
	if slices.Contains(suggestions, "25w41a") {
		t.Errorf("Expected snapshots not matching the query to be left out, got %v", suggestions)
	}
	if len(SuggestVersions("forge", knownVersions)) != 0 {
		t.Error("Expected no suggestions for an unrelated query")
	}
}

func TestChooseVersionNonInteractive(t *testing.T) {
	viper.Set("non-interactive", true)
	defer viper.Set("non-interactive", false)

	if _, err := ChooseVersion("1.21", knownVersions); err == nil {
		t.Error("Expected an error instead of a prompt in non-interactive mode")
	}
	if _, err := ChooseVersion("forge", knownVersions); err == nil {
		t.Error("Expected an error without suggestions")
	}
}
