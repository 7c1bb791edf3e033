package filesystem

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/goph/emperror"
)

// LocalFs stores payloads below a base directory. An empty basepath
// addresses the filesystem root, so absolute folders work unmodified.
type LocalFs struct {
	basepath string
}

func NewLocalFs(basepath string) (*LocalFs, error) {
	if basepath != "" {
		basepath = filepath.Clean(basepath)
		info, err := os.Stat(basepath)
		if err != nil {
			return nil, emperror.Wrapf(err, "cannot stat basepath %s", basepath)
		}
		if !info.IsDir() {
			return nil, emperror.Wrapf(err, "basepath %s is not a directory", basepath)
		}
	}
	return &LocalFs{basepath: basepath}, nil
}

func (fs *LocalFs) IsLocal() bool { return true }

func (fs *LocalFs) Protocol() string { return "file://" }

func (fs *LocalFs) path(folder, name string) string {
	return filepath.Join(fs.basepath, folder, name)
}

func (fs *LocalFs) FileGet(folder, name string, opts FileGetOptions) ([]byte, error) {
	fp := fs.path(folder, name)
	data, err := ioutil.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{err: err}
		}
		return nil, emperror.Wrapf(err, "cannot read %s", fp)
	}
	return data, nil
}

func (fs *LocalFs) FilePut(folder, name string, data []byte, opts FilePutOptions) error {
	fp := fs.path(folder, name)
	if dir := filepath.Dir(fp); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return emperror.Wrapf(err, "cannot create folder %s", dir)
		}
	}
	if err := ioutil.WriteFile(fp, data, 0644); err != nil {
		return emperror.Wrapf(err, "cannot write %s", fp)
	}
	return nil
}

func (fs *LocalFs) FileExists(folder, name string) (bool, error) {
	info, err := os.Stat(fs.path(folder, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, emperror.Wrapf(err, "cannot stat %s", fs.path(folder, name))
	}
	return info.Mode().IsRegular(), nil
}
