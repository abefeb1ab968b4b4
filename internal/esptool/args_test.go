package esptool

import (
	"reflect"
	"testing"

	"github.com/buckleypaul/sigflash/internal/firmware"
)

func TestWriteFlashArgsFixedContract(t *testing.T) {
	files := firmware.FileSet{
		// Deliberately assigned out of flash order; map order must not
		// leak into the argument list.
		firmware.RoleApplication:    "bin/1.0.0/firmware.bin",
		firmware.RoleOTASelector:    "bin/1.0.0/boot_app0.bin",
		firmware.RoleBootloader:     "bin/1.0.0/bootloader.bin",
		firmware.RolePartitionTable: "bin/1.0.0/partition-table.bin",
	}

	got := WriteFlashArgs("/dev/ttyUSB0", files)
	want := []string{
		"--chip", "esp32s3",
		"--port", "/dev/ttyUSB0",
		"--baud", "115200",
		"--before", "default-reset",
		"--after", "hard-reset",
		"write_flash",
		"--flash-mode", "keep",
		"--flash-freq", "keep",
		"--flash-size", "keep",
		"-z",
		"0x0", "bin/1.0.0/bootloader.bin",
		"0x8000", "bin/1.0.0/partition-table.bin",
		"0xe000", "bin/1.0.0/boot_app0.bin",
		"0x10000", "bin/1.0.0/firmware.bin",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WriteFlashArgs mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestChipIDArgs(t *testing.T) {
	got := ChipIDArgs("COM3")
	want := []string{
		"--chip", "esp32s3",
		"--port", "COM3",
		"--baud", "115200",
		"--after", "hard-reset",
		"chip-id",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChipIDArgs mismatch:\n got %v\nwant %v", got, want)
	}
}
