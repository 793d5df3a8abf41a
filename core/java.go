package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/dlclark/regexp2"
	"github.com/unascribed/FlexVer/go/flexver"
)

// JavaRuntime is a probed Java executable
type JavaRuntime struct {
	Path    string
	Major   int
	Version *semver.Version
}

// RuntimeProbe runs `java -version` and returns its output
type RuntimeProbe func(ctx context.Context, path string) (string, error)

// RuntimeLocator finds Java runtimes on the machine
type RuntimeLocator struct {
	// Override is a runtime chosen by the user; when set nothing else is considered
	Override string
	JavaHome string
	// ManagedDir holds runtimes installed for the launcher, as java-<major>/bin/java
	ManagedDir string
	// SearchDirs are directories whose subdirectories are Java installations
	SearchDirs []string
	LookPath   func(file string) (string, error)
	Probe      RuntimeProbe
	Logger     *log.Logger
}

// NewRuntimeLocator creates a RuntimeLocator searching the usual places of the current OS
func NewRuntimeLocator(managedDir string, logger *log.Logger) *RuntimeLocator {
	return &RuntimeLocator{
		JavaHome:   os.Getenv("JAVA_HOME"),
		ManagedDir: managedDir,
		SearchDirs: DefaultJavaSearchDirs(),
		LookPath:   exec.LookPath,
		Probe:      ProbeJava,
		Logger:     orDiscard(logger),
	}
}

// DefaultJavaSearchDirs returns where Java is commonly installed on the current OS
func DefaultJavaSearchDirs() []string {
	switch runtime.GOOS {
	case "windows":
		var dirs []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			if root := os.Getenv(env); root != "" {
				for _, vendor := range []string{"Java", "Eclipse Adoptium", "Microsoft", "Zulu", "BellSoft"} {
					dirs = append(dirs, filepath.Join(root, vendor))
				}
			}
		}
		return dirs
	case "darwin":
		return []string{"/Library/Java/JavaVirtualMachines"}
	default:
		return []string{"/usr/lib/jvm", "/usr/java", "/opt/java", "/opt/jdk"}
	}
}

func javaBinary() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// ProbeJava runs the executable with -version
func ProbeJava(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to run %s -version: %w", path, err)
	}
	return string(out), nil
}

var javaVersionPattern = regexp2.MustCompile(`version "([^"]+)"`, regexp2.None)

// ParseJavaVersion reads the version from `java -version` output. Pre-9 versions are
// reported as 1.<major>, e.g. 1.8.0_292 is major version 8.
func ParseJavaVersion(output string) (*semver.Version, int, error) {
	m, err := javaVersionPattern.FindStringMatch(output)
	if err != nil || m == nil {
		return nil, 0, fmt.Errorf("no version in java output %q", strings.TrimSpace(output))
	}
	raw := m.GroupByNumber(1).String()
	v, err := semver.NewVersion(strings.Replace(raw, "_", "+", 1))
	if err != nil {
		// Versions such as 17.0.1.1 have more components than semver allows
		parts := strings.SplitN(raw, ".", 4)
		if len(parts) < 3 {
			return nil, 0, fmt.Errorf("invalid java version %q: %w", raw, err)
		}
		v, err = semver.NewVersion(strings.Join(parts[:3], "."))
		if err != nil {
			return nil, 0, fmt.Errorf("invalid java version %q: %w", raw, err)
		}
	}
	major := int(v.Major())
	if major == 1 {
		major = int(v.Minor())
	}
	return v, major, nil
}

// Locate returns the first runtime with at least the given major version.
// An override that is too old is an ErrRuntimeTooOld rather than falling back to other runtimes.
func (l *RuntimeLocator) Locate(ctx context.Context, minMajor int) (JavaRuntime, error) {
	logger := orDiscard(l.Logger)
	if l.Override != "" {
		rt, err := l.probe(ctx, l.Override)
		if err != nil {
			return JavaRuntime{}, fmt.Errorf("%w: %v", ErrNoRuntimeFound, err)
		}
		if rt.Major < minMajor {
			return JavaRuntime{}, fmt.Errorf("%w: %s is Java %d, Java %d is required", ErrRuntimeTooOld,
				rt.Path, rt.Major, minMajor)
		}
		return rt, nil
	}

	var older []string
	for _, candidate := range l.candidates(minMajor) {
		if err := ctx.Err(); err != nil {
			return JavaRuntime{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		rt, err := l.probe(ctx, candidate)
		if err != nil {
			logger.Debug("skipping java candidate", "path", candidate, "err", err)
			continue
		}
		if rt.Major >= minMajor {
			logger.Debug("found java", "path", rt.Path, "version", rt.Version)
			return rt, nil
		}
		older = append(older, fmt.Sprintf("%s (Java %d)", rt.Path, rt.Major))
	}
	if len(older) > 0 {
		return JavaRuntime{}, fmt.Errorf("%w: Java %d is required, found only %s", ErrNoRuntimeFound, minMajor,
			strings.Join(older, ", "))
	}
	return JavaRuntime{}, fmt.Errorf("%w: Java %d is required", ErrNoRuntimeFound, minMajor)
}

// Discover probes every candidate runtime, returning those that work
func (l *RuntimeLocator) Discover(ctx context.Context) []JavaRuntime {
	var found []JavaRuntime
	candidates := l.candidates(0)
	if l.Override != "" {
		candidates = append([]string{l.Override}, candidates...)
	}
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		if rt, err := l.probe(ctx, candidate); err == nil {
			found = append(found, rt)
		}
	}
	return found
}

func (l *RuntimeLocator) probe(ctx context.Context, path string) (JavaRuntime, error) {
	if l.Probe == nil {
		return JavaRuntime{}, errors.New("no runtime probe")
	}
	out, err := l.Probe(ctx, path)
	if err != nil {
		return JavaRuntime{}, err
	}
	v, major, err := ParseJavaVersion(out)
	if err != nil {
		return JavaRuntime{}, err
	}
	return JavaRuntime{Path: path, Major: major, Version: v}, nil
}

// candidates lists possible java executables in search order, without duplicates.
// Managed runtimes for the wanted version come first, then JAVA_HOME, the remaining
// managed runtimes, installations in the search dirs and finally the PATH.
func (l *RuntimeLocator) candidates(wantMajor int) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if seen[p] {
			return
		}
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	if l.ManagedDir != "" && wantMajor > 0 {
		add(filepath.Join(l.ManagedDir, "java-"+strconv.Itoa(wantMajor), "bin", javaBinary()))
	}
	if l.JavaHome != "" {
		add(filepath.Join(l.JavaHome, "bin", javaBinary()))
	}
	if l.ManagedDir != "" {
		for _, dir := range installDirs(l.ManagedDir) {
			add(filepath.Join(dir, "bin", javaBinary()))
		}
	}
	for _, root := range l.SearchDirs {
		for _, dir := range installDirs(root) {
			add(filepath.Join(dir, "bin", javaBinary()))
			add(filepath.Join(dir, "Contents", "Home", "bin", javaBinary()))
		}
	}
	if l.LookPath != nil {
		if p, err := l.LookPath(javaBinary()); err == nil {
			add(p)
		}
	}
	return out
}

// installDirs returns the subdirectories of root, newest version first
func installDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	flexver.VersionSlice(names).Sort()
	dirs := make([]string, len(names))
	for i, name := range names {
		dirs[len(names)-1-i] = filepath.Join(root, name)
	}
	return dirs
}
