//go:build windows

package system

import "golang.org/x/sys/windows"

// IsAdmin reports whether the process token is a member of BUILTIN\Administrators.
func IsAdmin() bool {
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	// Token 0 checks the process token, which is enough for an elevated process.
	isMember, err := windows.Token(0).IsMember(sid)
	if err != nil {
		return false
	}
	return isMember
}
