package core

import (
	"context"
	"crypto/md5"
	"fmt"
	"maps"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultLauncherName is passed to the game as ${launcher_name}
const DefaultLauncherName = "launchwiz"

// LaunchBuilder turns a prepared installation into the command line of the game
type LaunchBuilder struct {
	Memory          MemoryPolicy
	LauncherName    string
	LauncherVersion string
}

// LaunchInput is everything the command line is built from
type LaunchInput struct {
	Installation ResolvedInstallation
	Dirs         Dirs
	Platform     Platform
	Classpath    string
	NativesDir   string
	Runtime      JavaRuntime
	RequestedMB  uint64
	SystemMB     uint64
	Username     string
	GameDir      string
	// UUID and AccessToken default to an offline session
	UUID        string
	AccessToken string
	// Width and Height set a custom window size when both are positive
	Width  int
	Height int
}

// LaunchPlan is a ready to run game process. It is never started by the core.
type LaunchPlan struct {
	Executable string
	Args       []string
	WorkingDir string
	Memory     MemoryBounds
	Classpath  string
	NativesDir string
	MainClass  string
}

// Command creates the process of the plan; the caller wires its stdio and starts it
func (p LaunchPlan) Command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Executable, p.Args...)
	cmd.Dir = p.WorkingDir
	return cmd
}

// String formats the plan as a shell-like command line
func (p LaunchPlan) String() string {
	parts := make([]string, 0, len(p.Args)+1)
	for _, a := range append([]string{p.Executable}, p.Args...) {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// OfflineUUID derives the UUID the game uses for a player without an account
func OfflineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id
}

// Build checks the memory request and expands the argument templates of the version.
// Arguments are ordered: heap bounds, JVM arguments, log configuration, main class, game arguments.
func (b LaunchBuilder) Build(in LaunchInput) (LaunchPlan, error) {
	m := in.Installation.Manifest
	if in.Classpath == "" {
		return LaunchPlan{}, fmt.Errorf("%w: nothing to launch %s with", ErrEmptyClasspath, m.ID)
	}
	bounds, err := b.Memory.Clamp(in.RequestedMB, in.SystemMB)
	if err != nil {
		return LaunchPlan{}, err
	}

	p := in.Platform
	p.Features = maps.Clone(in.Platform.Features)
	if p.Features == nil {
		p.Features = make(map[string]bool)
	}
	p.Features["is_demo_user"] = false
	p.Features["has_custom_resolution"] = in.Width > 0 && in.Height > 0

	values := b.placeholders(in)
	args := []string{
		"-Xms" + strconv.FormatUint(bounds.MinMB, 10) + "M",
		"-Xmx" + strconv.FormatUint(bounds.MaxMB, 10) + "M",
	}

	jvm := []Argument{
		{Value: []string{"-Djava.library.path=${natives_directory}"}},
		{Value: []string{"-cp", "${classpath}"}},
	}
	if m.Arguments != nil && len(m.Arguments.JVM) > 0 {
		jvm = m.Arguments.JVM
	}
	expanded, err := expandArguments(jvm, p, values)
	if err != nil {
		return LaunchPlan{}, fmt.Errorf("failed to expand jvm arguments: %w", err)
	}
	args = append(args, expanded...)

	if lc := in.Installation.LogConfig; lc != nil && lc.Argument != "" {
		arg, err := expandPlaceholders(lc.Argument, map[string]string{"path": in.Dirs.LogConfig(lc.File.ID)})
		if err != nil {
			return LaunchPlan{}, fmt.Errorf("failed to expand log configuration argument: %w", err)
		}
		args = append(args, arg)
	}

	args = append(args, m.MainClass)

	game := legacyArguments(m.MinecraftArguments)
	if m.Arguments != nil && len(m.Arguments.Game) > 0 {
		game = m.Arguments.Game
	}
	expanded, err = expandArguments(game, p, values)
	if err != nil {
		return LaunchPlan{}, fmt.Errorf("failed to expand game arguments: %w", err)
	}
	args = append(args, expanded...)

	return LaunchPlan{
		Executable: in.Runtime.Path,
		Args:       args,
		WorkingDir: in.GameDir,
		Memory:     bounds,
		Classpath:  in.Classpath,
		NativesDir: in.NativesDir,
		MainClass:  m.MainClass,
	}, nil
}

func (b LaunchBuilder) placeholders(in LaunchInput) map[string]string {
	m := in.Installation.Manifest
	name := b.LauncherName
	if name == "" {
		name = DefaultLauncherName
	}
	version := b.LauncherVersion
	if version == "" {
		version = "1.0"
	}
	id := in.UUID
	if id == "" {
		id = OfflineUUID(in.Username).String()
	}
	token := in.AccessToken
	if token == "" {
		token = "0"
	}
	assetIndex := m.Assets
	if m.AssetIndex != nil && m.AssetIndex.ID != "" {
		assetIndex = m.AssetIndex.ID
	}
	versionType := m.Type
	if versionType == "" {
		versionType = "release"
	}

	values := map[string]string{
		"auth_player_name":    in.Username,
		"version_name":        m.ID,
		"game_directory":      in.GameDir,
		"assets_root":         in.Dirs.Assets(),
		"game_assets":         in.Dirs.Assets(),
		"assets_index_name":   assetIndex,
		"auth_uuid":           strings.ReplaceAll(id, "-", ""),
		"auth_access_token":   token,
		"auth_session":        token,
		"clientid":            "0",
		"auth_xuid":           "0",
		"user_type":           "legacy",
		"user_properties":     "{}",
		"version_type":        versionType,
		"natives_directory":   in.NativesDir,
		"launcher_name":       name,
		"launcher_version":    version,
		"classpath":           in.Classpath,
		"classpath_separator": ClasspathSeparator(in.Platform),
		"library_directory":   in.Dirs.Libraries(),
	}
	if in.Width > 0 && in.Height > 0 {
		values["resolution_width"] = strconv.Itoa(in.Width)
		values["resolution_height"] = strconv.Itoa(in.Height)
	}
	return values
}
