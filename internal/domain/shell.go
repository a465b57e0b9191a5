package domain

import "strings"

// ShellKind enumerates supported shells.
type ShellKind string

const (
	ShellUnknown    ShellKind = "unknown"
	ShellSh         ShellKind = "sh"
	ShellBash       ShellKind = "bash"
	ShellZsh        ShellKind = "zsh"
	ShellFish       ShellKind = "fish"
	ShellPowerShell ShellKind = "powershell"
)

// ParseShellKind maps a shell name (or a full path like /bin/zsh) to a ShellKind.
func ParseShellKind(value string) ShellKind {
	name := strings.ToLower(strings.TrimSpace(value))
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	switch name {
	case "sh", "dash", "ash":
		return ShellSh
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	case "powershell", "pwsh":
		return ShellPowerShell
	default:
		return ShellUnknown
	}
}
