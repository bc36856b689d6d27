package v4l2

import (
	"fmt"
	"os"
	"regexp"
)

const deviceRoot = "/dev"

// devicePattern matches the V4L device node names Linux creates under /dev
// (video0, vbi0, media0, ...).
var devicePattern = regexp.MustCompile(fmt.Sprintf(`%s/(video|radio|vbi|swradio|v4l-subdev|v4l-touch|media)[0-9]+`, deviceRoot))

// isDeviceNode reports whether path names an actual device file, following
// symlinks (a udev-managed by-id alias, for instance) through os.Stat.
func isDeviceNode(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if stat.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return false, err
		}
		return isDeviceNode(target)
	}
	return stat.Mode()&os.ModeDevice != 0, nil
}

// ListDevicePaths returns every V4L device node under /dev. Entries that
// cannot be stat'ed are skipped; an unreadable /dev is returned as a plain
// os error.
func ListDevicePaths() ([]string, error) {
	entries, err := os.ReadDir(deviceRoot)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		path := fmt.Sprintf("%s/%s", deviceRoot, entry.Name())
		if !devicePattern.MatchString(path) {
			continue
		}
		ok, err := isDeviceNode(path)
		if err != nil {
			continue
		}
		if ok {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// IsCaptureDevice opens path briefly to check whether it reports
// CapVideoCapture, without requesting streaming or holding the device open.
func IsCaptureDevice(path string) (bool, error) {
	fd, err := openDevice(path)
	if err != nil {
		return false, err
	}
	defer closeDevice(fd)

	cap, err := GetCapability(fd)
	if err != nil {
		return false, err
	}
	return cap.Has(CapVideoCapture), nil
}
