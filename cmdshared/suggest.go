package cmdshared

import (
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/viper"
	"gopkg.in/dixonwille/wmenu.v4"
)

// MaxSuggestions is the number of versions offered when a version is not found
const MaxSuggestions = 8

// SuggestVersions returns the known versions that best match an unknown one, best first
func SuggestVersions(unknown string, known []string) []string {
	matches := fuzzy.Find(unknown, known)
	suggestions := make([]string, 0, MaxSuggestions)
	for _, m := range matches {
		if len(suggestions) == MaxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}

// ChooseVersion asks which of the known versions was meant when a version cannot be found.
// It never prompts in non-interactive mode.
func ChooseVersion(unknown string, known []string) (string, error) {
	suggestions := SuggestVersions(unknown, known)
	if len(suggestions) == 0 {
		return "", fmt.Errorf("version %s cannot be found", unknown)
	}
	if viper.GetBool("non-interactive") {
		return "", fmt.Errorf("version %s cannot be found, did you mean %s?", unknown, suggestions[0])
	}

	fmt.Printf("Version %s cannot be found! Did you mean one of these?\n", unknown)
	var chosen string
	menu := wmenu.NewMenu("Choose a number:")
	menu.Option("Cancel", nil, false, nil)
	for i, v := range suggestions {
		menu.Option(v, v, i == 0, nil)
	}
	menu.Action(func(menuRes []wmenu.Opt) error {
		if len(menuRes) != 1 || menuRes[0].Value == nil {
			return errors.New("version selection cancelled")
		}
		version, ok := menuRes[0].Value.(string)
		if !ok {
			return errors.New("error converting interface from wmenu")
		}
		chosen = version
		return nil
	})
	if err := menu.Run(); err != nil {
		return "", err
	}
	return chosen, nil
}
