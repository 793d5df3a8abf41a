package core

import (
	"runtime"
	"sync"

	"github.com/dlclark/regexp2"
)

// Operating system names, as used by version manifests
const (
	OSLinux   = "linux"
	OSWindows = "windows"
	OSMac     = "osx"
)

// Platform describes the machine a version is being installed for
type Platform struct {
	// OS is the manifest OS name (linux, windows, osx)
	OS string
	// Arch is the manifest architecture name (x86_64, x86, arm64, arm32)
	Arch string
	// Version is the OS version string, matched against os.version rules
	Version string
	// Features holds launcher feature flags such as is_demo_user or has_custom_resolution
	Features map[string]bool
}

// CurrentPlatform returns the Platform of the running process
func CurrentPlatform() Platform {
	return Platform{
		OS:      osName(runtime.GOOS),
		Arch:    archName(runtime.GOARCH),
		Version: osVersion(),
	}
}

func osName(goos string) string {
	switch goos {
	case "darwin":
		return OSMac
	case "windows":
		return OSWindows
	default:
		return OSLinux
	}
}

func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm":
		return "arm32"
	default:
		return goarch
	}
}

// Bits returns "64" or "32", the value substituted for ${arch} in native classifiers
func (p Platform) Bits() string {
	if p.Arch == "x86" || p.Arch == "arm32" {
		return "32"
	}
	return "64"
}

// RuleAction is the outcome of a matching Rule
type RuleAction string

const (
	ActionAllow    RuleAction = "allow"
	ActionDisallow RuleAction = "disallow"
)

// Rule is a platform predicate with an allow/disallow outcome
type Rule struct {
	Action   RuleAction      `json:"action"`
	OS       *OSCondition    `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// OSCondition restricts a Rule to an OS name, architecture and/or OS version (a regex)
type OSCondition struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

type condition interface {
	matches(p Platform) bool
}

type osFamilyCondition string

func (c osFamilyCondition) matches(p Platform) bool { return string(c) == p.OS }

type archCondition string

func (c archCondition) matches(p Platform) bool { return string(c) == p.Arch }

type osVersionCondition string

func (c osVersionCondition) matches(p Platform) bool {
	re, err := compileVersionPattern(string(c))
	if err != nil {
		return false
	}
	ok, err := re.MatchString(p.Version)
	return err == nil && ok
}

type featureCondition struct {
	name  string
	value bool
}

func (c featureCondition) matches(p Platform) bool { return p.Features[c.name] == c.value }

// conditions decomposes the rule into the conditions that must all hold for it to match
func (r Rule) conditions() []condition {
	var conds []condition
	if r.OS != nil {
		if r.OS.Name != "" {
			conds = append(conds, osFamilyCondition(r.OS.Name))
		}
		if r.OS.Arch != "" {
			conds = append(conds, archCondition(r.OS.Arch))
		}
		if r.OS.Version != "" {
			conds = append(conds, osVersionCondition(r.OS.Version))
		}
	}
	for name, value := range r.Features {
		conds = append(conds, featureCondition{name, value})
	}
	return conds
}

// Matches returns true if every condition of the rule holds on the platform
func (r Rule) Matches(p Platform) bool {
	for _, c := range r.conditions() {
		if !c.matches(p) {
			return false
		}
	}
	return true
}

// EvaluateRules folds the rules in order, the last matching rule deciding the outcome.
// An empty rule list allows; a non-empty list where nothing matches disallows.
func EvaluateRules(rules []Rule, p Platform) bool {
	allowed, _ := evaluateRules(rules, p)
	return allowed
}

// evaluateRules also returns the number of conditions of the deciding rule (0 when no rule decided)
func evaluateRules(rules []Rule, p Platform) (bool, int) {
	if len(rules) == 0 {
		return true, 0
	}
	allowed := false
	specificity := 0
	for _, r := range rules {
		if r.Matches(p) {
			allowed = r.Action == ActionAllow
			specificity = len(r.conditions())
		}
	}
	return allowed, specificity
}

var versionPatterns sync.Map

// os.version rules are Java regexes, so they are compiled with regexp2 rather than regexp
func compileVersionPattern(expr string) (*regexp2.Regexp, error) {
	if re, ok := versionPatterns.Load(expr); ok {
		return re.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, err
	}
	versionPatterns.Store(expr, re)
	return re, nil
}
