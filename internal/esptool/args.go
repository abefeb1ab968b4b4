package esptool

import (
	"github.com/buckleypaul/sigflash/internal/firmware"
)

const (
	// Chip is the target family for every device this tool provisions.
	Chip = "esp32s3"

	// Baud is the fixed transfer rate for esptool invocations.
	Baud = "115200"
)

// Flash offsets are a contract with the device's partition layout and are
// written in strictly ascending order.
const (
	OffsetBootloader     = "0x0"
	OffsetPartitionTable = "0x8000"
	OffsetOTASelector    = "0xe000"
	OffsetApplication    = "0x10000"
)

// flashLayout pairs each role with its offset, in write order.
var flashLayout = []struct {
	offset string
	role   firmware.Role
}{
	{OffsetBootloader, firmware.RoleBootloader},
	{OffsetPartitionTable, firmware.RolePartitionTable},
	{OffsetOTASelector, firmware.RoleOTASelector},
	{OffsetApplication, firmware.RoleApplication},
}

// WriteFlashArgs builds the esptool argument list for writing a complete
// file set. Address/file pairs always come out in ascending address order
// regardless of map iteration order.
func WriteFlashArgs(port string, files firmware.FileSet) []string {
	args := []string{
		"--chip", Chip,
		"--port", port,
		"--baud", Baud,
		"--before", "default-reset",
		"--after", "hard-reset",
		"write_flash",
		"--flash-mode", "keep",
		"--flash-freq", "keep",
		"--flash-size", "keep",
		"-z",
	}
	for _, region := range flashLayout {
		args = append(args, region.offset, files[region.role])
	}
	return args
}

// ChipIDArgs builds the argument list for the non-destructive chip-id query
// used to verify the device responds after configuration.
func ChipIDArgs(port string) []string {
	return []string{
		"--chip", Chip,
		"--port", port,
		"--baud", Baud,
		"--after", "hard-reset",
		"chip-id",
	}
}
