// Package fonts resolves the burn font's family name and makes sure the system
// font index knows about it before ffmpeg asks libass for it by name.
package fonts
