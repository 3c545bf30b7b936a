//go:build !unix

package transcoder

func setPriority(pid, nice int) error {
	return nil
}
