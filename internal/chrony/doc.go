// Package chrony reads and rewrites the server declarations of a chronyd
// configuration file.
//
// # Managed lines
//
// A line is a server declaration when it matches [ServerLinePattern]:
//
//	server 0.fedora.pool.ntp.org iburst
//
// Rewrites put a fixed [Heading] comment at the top of the file, followed by
// one declaration per requested server and then every other line of the
// original file, byte for byte. Old declarations and any heading left by a
// previous rewrite are dropped, so repeated rewrites with the same servers
// produce identical files.
//
// # Replacement
//
// [SaveServers] either writes to an explicit output path or builds the new
// file next to the original and renames it into place, keeping the original
// permission bits. The rename is the only destructive step.
//
// All I/O failures are reported as [*ConfigAccessError].
package chrony
