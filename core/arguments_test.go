package core

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestArgumentUnmarshal(t *testing.T) {
	var args []Argument
	err := json.Unmarshal([]byte(`[
		"--username",
		{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": ["-XstartOnFirstThread"]},
		{"rules": [{"action": "allow", "features": {"has_custom_resolution": true}}], "value": ["--width", "${resolution_width}"]},
		{"rules": [{"action": "allow", "os": {"arch": "x86"}}], "value": "-Xss1M"}
	]`), &args)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 4 {
		t.Fatalf("Expected 4 arguments, got %d", len(args))
	}
	if len(args[0].Rules) != 0 || args[0].Value[0] != "--username" {
		t.Errorf("Unexpected plain argument %+v", args[0])
	}
	if args[1].Rules[0].OS == nil || args[1].Rules[0].OS.Name != OSMac {
		t.Errorf("Expected an os rule, got %+v", args[1].Rules)
	}
	if !args[2].Rules[0].Features["has_custom_resolution"] || len(args[2].Value) != 2 {
		t.Errorf("Expected a feature rule with two values, got %+v", args[2])
	}
	if args[3].Rules[0].OS.Arch != "x86" || !slices.Equal(args[3].Value, []string{"-Xss1M"}) {
		t.Errorf("Expected a single string value, got %+v", args[3])
	}

	var bad Argument
	if err := json.Unmarshal([]byte(`{"rules": []}`), &bad); err == nil {
		t.Error("Expected an error for an argument without a value")
	}
}

func TestArgumentRoundTrip(t *testing.T) {
	in := []Argument{
		{Value: []string{"--demo"}},
		{Value: []string{"--width", "${resolution_width}"}, Rules: []Rule{{Action: ActionAllow, Features: map[string]bool{"has_custom_resolution": true}}}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out []Argument
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Value[0] != "--demo" || !slices.Equal(out[1].Value, in[1].Value) || len(out[1].Rules) != 1 {
		t.Errorf("Arguments changed after encoding: %s", data)
	}
}

func TestExpandArguments(t *testing.T) {
	args := []Argument{
		{Value: []string{"--username", "${auth_player_name}"}},
		{Value: []string{"-XstartOnFirstThread"}, Rules: []Rule{{Action: ActionAllow, OS: &OSCondition{Name: OSMac}}}},
		{Value: []string{"-Dpath=${natives_directory}/x"}},
		{Value: []string{"${unknown_value}"}},
	}
	values := map[string]string{"auth_player_name": "Steve", "natives_directory": "/n"}
	out, err := expandArguments(args, linuxOn("x86_64"), values)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"--username", "Steve", "-Dpath=/n/x", "${unknown_value}"}
	if !slices.Equal(out, expected) {
		t.Errorf("Expected %v, got %v", expected, out)
	}
}

func TestLegacyArguments(t *testing.T) {
	args := legacyArguments("--username ${auth_player_name}  --version ${version_name}")
	out, err := expandArguments(args, linuxOn("x86_64"), map[string]string{"auth_player_name": "Alex", "version_name": "1.8.9"})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out, []string{"--username", "Alex", "--version", "1.8.9"}) {
		t.Errorf("Unexpected legacy arguments %v", out)
	}
}
