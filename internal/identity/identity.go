// Package identity confirms the platform is a supported Framework laptop
// before any EC control point is registered.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version is the fwecd software version string.
const Version = "0.3.0"

// SupportedVendor is the DMI system vendor a supported platform reports.
const SupportedVendor = "Framework"

// ACPI IDs the EC enumerates under on supported boards. Recorded for
// diagnostics; the DMI vendor check is what gates registration.
var ACPIDeviceIDs = []string{"FRMW0001", "FRMW0004"}

// dmiDir is the sysfs DMI identity directory.
const dmiDir = "/sys/class/dmi/id"

// Platform holds DMI-derived platform identity.
type Platform struct {
	Vendor  string
	Product string
}

// Supported reports whether this platform's EC speaks the Framework
// command set.
func (p Platform) Supported() bool {
	return p.Vendor == SupportedVendor
}

// Detect reads the platform identity from sysfs DMI.
func Detect() (Platform, error) {
	return DetectFromDir(dmiDir)
}

// DetectFromDir reads DMI identity from a specific directory.
// This variant is exported for testing.
func DetectFromDir(dir string) (Platform, error) {
	vendor, err := readDMIField(dir, "sys_vendor")
	if err != nil {
		return Platform{}, fmt.Errorf("identity: read vendor: %w", err)
	}
	product, err := readDMIField(dir, "product_name")
	if err != nil {
		return Platform{}, fmt.Errorf("identity: read product: %w", err)
	}
	return Platform{Vendor: vendor, Product: product}, nil
}

func readDMIField(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "fwec"
	}
	return h
}
