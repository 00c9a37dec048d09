//go:build !windows

package system

// IsAdmin always reports false outside Windows.
func IsAdmin() bool { return false }
