package core

import (
	"errors"
	"path/filepath"
	"testing"
)

const graphManifest = `{
  "id": "1.12.2",
  "mainClass": "net.minecraft.client.main.Main",
  "assetIndex": {"id": "1.12", "sha1": "aa", "size": 1, "url": "https://example.com/1.12.json"},
  "downloads": {"client": {"sha1": "bb", "size": 2, "url": "https://example.com/client.jar"}},
  "logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "type": "log4j2-xml",
    "file": {"id": "client-1.12.xml", "sha1": "cc", "size": 3, "url": "https://example.com/client-1.12.xml"}}},
  "libraries": [
    {"name": "com.mojang:patchy:1.1",
     "downloads": {"artifact": {"path": "com/mojang/patchy/1.1/patchy-1.1.jar", "sha1": "01", "size": 1, "url": "https://libraries.minecraft.net/com/mojang/patchy/1.1/patchy-1.1.jar"}}},
    {"name": "org.lwjgl.lwjgl:lwjgl-platform:2.9.4",
     "natives": {"linux": "natives-linux", "windows": "natives-windows-${arch}"},
     "extract": {"exclude": ["META-INF/"]},
     "downloads": {"classifiers": {
       "natives-linux": {"path": "org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar", "sha1": "02", "size": 2, "url": "https://libraries.minecraft.net/l.jar"},
       "natives-windows-64": {"path": "org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-windows-64.jar", "sha1": "03", "size": 3, "url": "https://libraries.minecraft.net/w.jar"}}}},
    {"name": "ca.weblite:java-objc-bridge:1.0.0",
     "rules": [{"action": "allow", "os": {"name": "osx"}}],
     "downloads": {"artifact": {"path": "ca/weblite/java-objc-bridge/1.0.0/java-objc-bridge-1.0.0.jar", "sha1": "04", "size": 4, "url": "https://libraries.minecraft.net/o.jar"}}},
    {"name": "org.ow2.asm:asm:9.8", "url": "https://maven.fabricmc.net", "sha1": "05", "size": 5},
    {"name": "org.lwjgl:lwjgl:3.3.3:natives-linux",
     "rules": [{"action": "allow", "os": {"name": "linux"}}],
     "downloads": {"artifact": {"path": "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar", "sha1": "06", "size": 6, "url": "https://libraries.minecraft.net/n.jar"}}}
  ]
}`

func TestBuildGraph(t *testing.T) {
	m := mustParse(t, graphManifest)
	inst, err := BuildGraph(m, linuxOn("x86_64"))
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, lib := range inst.Libraries {
		names = append(names, lib.Name)
	}
	expected := []string{"com.mojang:patchy:1.1", "org.ow2.asm:asm:9.8", "org.lwjgl:lwjgl:3.3.3:natives-linux"}
	if len(names) != len(expected) {
		t.Fatalf("Expected classpath libraries %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected classpath libraries %v, got %v", expected, names)
			break
		}
	}

	asm := inst.Libraries[1]
	if asm.Download.URL != "https://maven.fabricmc.net/org/ow2/asm/asm/9.8/asm-9.8.jar" || asm.Download.SHA1 != "05" {
		t.Errorf("Unexpected maven download %+v", asm.Download)
	}

	if len(inst.Natives) != 2 {
		t.Fatalf("Expected 2 native archives, got %+v", inst.Natives)
	}
	if inst.Natives[0].Download.SHA1 != "02" || len(inst.Natives[0].Exclude) != 1 {
		t.Errorf("Unexpected native %+v", inst.Natives[0])
	}
	if inst.Natives[1].Path != "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar" {
		t.Errorf("Unexpected native %+v", inst.Natives[1])
	}
	if inst.ClientJarID != "1.12.2" || inst.LogConfig == nil || inst.AssetIndex == nil {
		t.Error("Expected the client jar, log config and asset index to be resolved")
	}
}

func TestBuildGraphNativeArch(t *testing.T) {
	m := mustParse(t, graphManifest)
	inst, err := BuildGraph(m, Platform{OS: OSWindows, Arch: "x86_64"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inst.Natives) != 1 || inst.Natives[0].Download.SHA1 != "03" {
		t.Errorf("Expected the 64 bit windows natives, got %+v", inst.Natives)
	}

	if _, err := BuildGraph(m, Platform{OS: OSWindows, Arch: "x86"}); !errors.Is(err, ErrNoArtifactForPlatform) {
		t.Errorf("Expected ErrNoArtifactForPlatform for missing 32 bit natives, got %v", err)
	}
}

func TestBuildGraphNoClient(t *testing.T) {
	m := mustParse(t, `{"id": "x", "mainClass": "a.B"}`)
	if _, err := BuildGraph(m, linuxOn("x86_64")); !errors.Is(err, ErrNoArtifactForPlatform) {
		t.Errorf("Expected ErrNoArtifactForPlatform, got %v", err)
	}
}

func TestBuildGraphDeduplicates(t *testing.T) {
	m := mustParse(t, `{
	  "id": "x", "mainClass": "a.B",
	  "downloads": {"client": {"url": "https://example.com/client.jar"}},
	  "libraries": [
	    {"name": "g:lib:1", "url": "https://one.example.com/", "rules": [{"action": "allow", "os": {"name": "linux", "arch": "x86_64"}}]},
	    {"name": "g:other:1"},
	    {"name": "g:lib:2", "url": "https://two.example.com/"},
	    {"name": "g:other:2"}
	  ]
	}`)
	inst, err := BuildGraph(m, linuxOn("x86_64"))
	if err != nil {
		t.Fatal(err)
	}
	if len(inst.Libraries) != 2 {
		t.Fatalf("Expected 2 libraries, got %+v", inst.Libraries)
	}
	if inst.Libraries[0].Name != "g:lib:1" {
		t.Errorf("Expected the library with the more specific rule to be kept, got %s", inst.Libraries[0].Name)
	}
	if inst.Libraries[1].Name != "g:other:2" {
		t.Errorf("Expected the later library to win a tie, got %s", inst.Libraries[1].Name)
	}
}

func TestInstallationTasks(t *testing.T) {
	m := mustParse(t, graphManifest)
	inst, err := BuildGraph(m, linuxOn("x86_64"))
	if err != nil {
		t.Fatal(err)
	}
	d := Dirs{Root: t.TempDir()}
	tasks := inst.Tasks(d)

	byKind := make(map[TaskKind]int)
	ids := make(map[string]bool)
	for _, task := range tasks {
		byKind[task.Kind]++
		ids[task.ID] = true
	}
	if byKind[KindClient] != 1 || byKind[KindLibrary] != 3 || byKind[KindNative] != 2 ||
		byKind[KindAssetIndex] != 1 || byKind[KindLogConfig] != 1 {
		t.Errorf("Unexpected tasks %v", byKind)
	}
	// The natives-linux jar is both a library and a native archive, but only downloaded once
	if len(ids) != len(tasks)-1 {
		t.Errorf("Expected exactly one duplicated task id, got %d ids for %d tasks", len(ids), len(tasks))
	}
	if tasks[0].Dest != filepath.Join(d.Root, "versions", "1.12.2", "1.12.2.jar") {
		t.Errorf("Unexpected client jar destination %s", tasks[0].Dest)
	}
}
