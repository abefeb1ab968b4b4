package firmware

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BinExt is the only file extension considered during role classification.
const BinExt = ".bin"

// Role identifies one of the four flash images required to boot the device.
type Role string

const (
	RoleBootloader     Role = "bootloader"
	RolePartitionTable Role = "partition_table"
	RoleOTASelector    Role = "ota_selector"
	RoleApplication    Role = "application"
)

// RequiredRoles lists every role a version must provide before it can be
// flashed, in flash-address order.
var RequiredRoles = []Role{
	RoleBootloader,
	RolePartitionTable,
	RoleOTASelector,
	RoleApplication,
}

// Version is a firmware version discovered as a subdirectory of the
// firmware root.
type Version struct {
	Name string
	Dir  string
}

// FileSet maps each discovered role to the binary that provides it.
type FileSet map[Role]string

// Missing returns the required roles absent from the set, in flash order.
func (fs FileSet) Missing() []Role {
	var missing []Role
	for _, r := range RequiredRoles {
		if _, ok := fs[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// Complete reports whether all four required roles are present.
func (fs FileSet) Complete() bool {
	return len(fs.Missing()) == 0
}

// ListVersions returns the version directories under root, sorted by name.
// The root is created if it does not exist yet; an unreadable root yields
// an empty list rather than an error so a freshly unpacked installation
// still starts.
func ListVersions(root string) []Version {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var versions []Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		versions = append(versions, Version{
			Name: e.Name(),
			Dir:  filepath.Join(root, e.Name()),
		})
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Name < versions[j].Name
	})
	return versions
}

// ResolveFiles scans a version directory (non-recursively) and classifies
// every .bin file into a role. The result replaces any prior resolution;
// callers must check Complete before flashing. A missing or unreadable
// directory yields an empty set.
func ResolveFiles(dir string) FileSet {
	fs := FileSet{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fs
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		role, ok := Classify(e.Name())
		if !ok {
			continue
		}
		// Last match wins when several files map to the same role.
		fs[role] = filepath.Join(dir, e.Name())
	}
	return fs
}

// Classify maps a filename to its flash role. Only .bin files qualify.
// Matching is case-insensitive substring with fixed precedence:
// "bootloader", then "partition", then "boot_app0"; any other .bin file is
// the application image.
func Classify(name string) (Role, bool) {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, BinExt) {
		return "", false
	}
	switch {
	case strings.Contains(lower, "bootloader"):
		return RoleBootloader, true
	case strings.Contains(lower, "partition"):
		return RolePartitionTable, true
	case strings.Contains(lower, "boot_app0"):
		return RoleOTASelector, true
	default:
		return RoleApplication, true
	}
}

// RoleNames renders roles for user-facing validation messages.
func RoleNames(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
