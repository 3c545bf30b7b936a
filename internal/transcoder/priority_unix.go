//go:build unix

package transcoder

import "golang.org/x/sys/unix"

// setPriority renices the child so long encodes stay out of the way of
// interactive work on the host.
func setPriority(pid, nice int) error {
	if nice == 0 {
		return nil
	}
	return unix.Setpriority(unix.PRIO_PROCESS, pid, nice)
}
