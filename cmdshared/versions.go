package cmdshared

import (
	"context"
	"slices"

	"github.com/packwiz/launchwiz/core"
)

// CheckVersion returns id if it is installed or published, otherwise the version the user meant
func CheckVersion(ctx context.Context, l *core.Launcher, id string) (string, error) {
	local := core.LocalCatalog{Dirs: l.Dirs}
	installed, err := local.Installed()
	if err != nil {
		return "", err
	}
	if slices.Contains(installed, id) {
		return id, nil
	}
	list, err := l.Remote.Versions(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := list.Find(id); ok {
		return id, nil
	}
	return ChooseVersion(id, append(installed, list.IDs()...))
}
