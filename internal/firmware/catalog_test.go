package firmware

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBin(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte{0xE9}, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		role Role
		ok   bool
	}{
		{"bootloader.bin", RoleBootloader, true},
		{"BOOTLOADER_v2.BIN", RoleBootloader, true},
		{"partition-table.bin", RolePartitionTable, true},
		{"partitions.bin", RolePartitionTable, true},
		{"boot_app0.bin", RoleOTASelector, true},
		{"firmware.bin", RoleApplication, true},
		{"signal_processor_v1.2.bin", RoleApplication, true},
		{"readme.txt", "", false},
		{"firmware.elf", "", false},
	}
	for _, c := range cases {
		role, ok := Classify(c.name)
		if ok != c.ok || role != c.role {
			t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)", c.name, role, ok, c.role, c.ok)
		}
	}
}

func TestClassifyBootloaderBeatsPartition(t *testing.T) {
	// Precedence is fixed: a name matching several substrings takes the
	// first role in the precedence chain.
	role, ok := Classify("bootloader_partition.bin")
	if !ok || role != RoleBootloader {
		t.Fatalf("expected bootloader, got %q", role)
	}
}

func TestListVersionsCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "bin")

	versions := ListVersions(root)
	if len(versions) != 0 {
		t.Fatalf("expected no versions, got %d", len(versions))
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("expected root to be created: %v", err)
	}
}

func TestListVersionsSortedDirsOnly(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "2.0.0"), 0o755)
	os.MkdirAll(filepath.Join(root, "1.0.0"), 0o755)
	writeBin(t, root, "stray.bin")

	versions := ListVersions(root)
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].Name != "1.0.0" || versions[1].Name != "2.0.0" {
		t.Fatalf("expected sorted versions, got %v", versions)
	}
	if versions[0].Dir != filepath.Join(root, "1.0.0") {
		t.Fatalf("unexpected dir %q", versions[0].Dir)
	}
}

func TestResolveFilesCompleteSet(t *testing.T) {
	dir := t.TempDir()
	writeBin(t, dir, "bootloader.bin")
	writeBin(t, dir, "partition-table.bin")
	writeBin(t, dir, "boot_app0.bin")
	writeBin(t, dir, "firmware.bin")

	fs := ResolveFiles(dir)
	if !fs.Complete() {
		t.Fatalf("expected complete set, missing %v", fs.Missing())
	}
	if fs[RoleApplication] != filepath.Join(dir, "firmware.bin") {
		t.Fatalf("unexpected application path %q", fs[RoleApplication])
	}
}

func TestResolveFilesMissingRoles(t *testing.T) {
	dir := t.TempDir()
	writeBin(t, dir, "firmware.bin")

	fs := ResolveFiles(dir)
	if fs.Complete() {
		t.Fatal("expected incomplete set")
	}
	missing := fs.Missing()
	want := []Role{RoleBootloader, RolePartitionTable, RoleOTASelector}
	if len(missing) != len(want) {
		t.Fatalf("expected %v missing, got %v", want, missing)
	}
	for i, r := range want {
		if missing[i] != r {
			t.Fatalf("expected %v missing, got %v", want, missing)
		}
	}
}

func TestResolveFilesRemovingOneFileFlipsCompleteness(t *testing.T) {
	dir := t.TempDir()
	writeBin(t, dir, "bootloader.bin")
	writeBin(t, dir, "partition-table.bin")
	writeBin(t, dir, "boot_app0.bin")
	writeBin(t, dir, "firmware.bin")

	if !ResolveFiles(dir).Complete() {
		t.Fatal("expected complete set")
	}

	os.Remove(filepath.Join(dir, "boot_app0.bin"))

	fs := ResolveFiles(dir)
	if fs.Complete() {
		t.Fatal("expected incomplete set after removal")
	}
	missing := fs.Missing()
	if len(missing) != 1 || missing[0] != RoleOTASelector {
		t.Fatalf("expected ota_selector missing, got %v", missing)
	}
}

func TestResolveFilesMissingDir(t *testing.T) {
	fs := ResolveFiles(filepath.Join(t.TempDir(), "nope"))
	if len(fs) != 0 {
		t.Fatalf("expected empty set, got %v", fs)
	}
}

func TestResolveFilesLastApplicationWins(t *testing.T) {
	dir := t.TempDir()
	writeBin(t, dir, "app_v1.bin")
	writeBin(t, dir, "app_v2.bin")

	// Directory listing order decides which application candidate is
	// kept; os.ReadDir returns entries sorted by name.
	fs := ResolveFiles(dir)
	if fs[RoleApplication] != filepath.Join(dir, "app_v2.bin") {
		t.Fatalf("expected app_v2.bin to win, got %q", fs[RoleApplication])
	}
}

func TestRoleNames(t *testing.T) {
	got := RoleNames([]Role{RoleBootloader, RoleOTASelector})
	if got != "bootloader, ota_selector" {
		t.Fatalf("unexpected names %q", got)
	}
}
