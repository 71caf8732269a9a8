//go:build !linux

package chrony

func syncDir(dir string) error {
	return nil
}
