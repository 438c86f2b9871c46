package scanner_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ludex/internal/logging"
	"ludex/internal/scanner"
)

func epicItem(appName, displayName, installLocation, launchExe string) string {
	return fmt.Sprintf(`{
	"AppName": %q,
	"DisplayName": %q,
	"InstallLocation": %q,
	"LaunchExecutable": %q
}`, appName, displayName, installLocation, launchExe)
}

func TestEpicScanEmitsInstalledGame(t *testing.T) {
	manifests := t.TempDir()
	install := t.TempDir()
	content := epicItem("Sugar", "Rocket League", install, "Binaries/Win64/RocketLeague.exe")
	if err := os.WriteFile(filepath.Join(manifests, "ABC123.item"), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := scanner.NewEpicScanner(manifests, logging.NewNop()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.Title != "Rocket League" || got.AppID != "Sugar" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if got.InstallPath != install {
		t.Fatalf("InstallPath = %q", got.InstallPath)
	}
	want := filepath.Join(install, "Binaries", "Win64", "RocketLeague.exe")
	if got.ExePath != want {
		t.Fatalf("ExePath = %q, want %q", got.ExePath, want)
	}
}

func TestEpicScanSkipsMissingInstallPath(t *testing.T) {
	manifests := t.TempDir()
	gone := filepath.Join(t.TempDir(), "uninstalled")
	content := epicItem("Pear", "Gone Game", gone, "game.exe")
	if err := os.WriteFile(filepath.Join(manifests, "DEF456.item"), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := scanner.NewEpicScanner(manifests, logging.NewNop()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected stale manifest skipped, got %#v", results)
	}
}

func TestEpicScanSkipsManifestWithoutInstallLocation(t *testing.T) {
	manifests := t.TempDir()
	content := `{"AppName": "NoHome", "DisplayName": "Homeless"}`
	if err := os.WriteFile(filepath.Join(manifests, "GHI789.item"), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := scanner.NewEpicScanner(manifests, logging.NewNop()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected manifest without InstallLocation skipped, got %#v", results)
	}
}

func TestEpicScanToleratesMalformedJSON(t *testing.T) {
	manifests := t.TempDir()
	install := t.TempDir()
	if err := os.WriteFile(filepath.Join(manifests, "bad.item"), []byte(`{"AppName": "Trunc`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	good := epicItem("Apple", "Good Game", install, "")
	if err := os.WriteFile(filepath.Join(manifests, "good.item"), []byte(good), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := scanner.NewEpicScanner(manifests, logging.NewNop()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Good Game" {
		t.Fatalf("expected malformed manifest skipped, got %#v", results)
	}
}

func TestEpicScanDerivesNameFromInstallPath(t *testing.T) {
	manifests := t.TempDir()
	base := t.TempDir()
	install := filepath.Join(base, "rocket_league")
	if err := os.MkdirAll(install, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := epicItem("Nameless", "", install, "")
	if err := os.WriteFile(filepath.Join(manifests, "no-name.item"), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	results, err := scanner.NewEpicScanner(manifests, logging.NewNop()).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Rocket League" {
		t.Fatalf("expected derived title, got %#v", results)
	}
}

func TestEpicScanMissingRootIsEmpty(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	results, err := scanner.NewEpicScanner(missing, logging.NewNop()).Scan(context.Background())
	if err != nil {
		t.Fatalf("expected missing root to be non-fatal, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}
