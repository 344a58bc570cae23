package storage

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
)

// Removable wraps a file system whose medium can be pulled out. While
// ejected, every operation, including those on files opened earlier, fails
// with ErrNotPresent. FailWrites makes writes fail with the medium still
// present, as a full or failing card would.
type Removable struct {
	fs         afero.Fs
	ejected    atomic.Bool
	failWrites atomic.Bool
}

// NewRemovable wraps fs with the medium inserted.
func NewRemovable(fs afero.Fs) *Removable {
	return &Removable{fs: fs}
}

// Eject pulls the medium.
func (r *Removable) Eject() { r.ejected.Store(true) }

// Insert puts the medium back.
func (r *Removable) Insert() { r.ejected.Store(false) }

// Present reports whether the medium is inserted.
func (r *Removable) Present() bool { return !r.ejected.Load() }

// FailWrites switches write fault injection on or off.
func (r *Removable) FailWrites(fail bool) { r.failWrites.Store(fail) }

func (r *Removable) check() error {
	if r.ejected.Load() {
		return ErrNotPresent
	}
	return nil
}

func (r *Removable) wrap(f afero.File, err error) (afero.File, error) {
	if err != nil {
		return nil, err
	}
	return &removableFile{File: f, owner: r}, nil
}

func (r *Removable) Name() string { return "Removable(" + r.fs.Name() + ")" }

func (r *Removable) Create(name string) (afero.File, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.wrap(r.fs.Create(name))
}

func (r *Removable) Open(name string) (afero.File, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.wrap(r.fs.Open(name))
}

func (r *Removable) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.wrap(r.fs.OpenFile(name, flag, perm))
}

func (r *Removable) Mkdir(name string, perm os.FileMode) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.Mkdir(name, perm)
}

func (r *Removable) MkdirAll(path string, perm os.FileMode) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.MkdirAll(path, perm)
}

func (r *Removable) Remove(name string) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.Remove(name)
}

func (r *Removable) RemoveAll(path string) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.RemoveAll(path)
}

func (r *Removable) Rename(oldname, newname string) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.Rename(oldname, newname)
}

func (r *Removable) Stat(name string) (os.FileInfo, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	return r.fs.Stat(name)
}

func (r *Removable) Chmod(name string, mode os.FileMode) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.Chmod(name, mode)
}

func (r *Removable) Chown(name string, uid, gid int) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.Chown(name, uid, gid)
}

func (r *Removable) Chtimes(name string, atime, mtime time.Time) error {
	if err := r.check(); err != nil {
		return err
	}
	return r.fs.Chtimes(name, atime, mtime)
}

// removableFile fails I/O once its owner's medium is gone.
type removableFile struct {
	afero.File
	owner *Removable
}

func (f *removableFile) Read(p []byte) (int, error) {
	if err := f.owner.check(); err != nil {
		return 0, err
	}
	return f.File.Read(p)
}

func (f *removableFile) Write(p []byte) (int, error) {
	if err := f.owner.check(); err != nil {
		return 0, err
	}
	if f.owner.failWrites.Load() {
		return 0, ErrWriteFailed
	}
	return f.File.Write(p)
}

func (f *removableFile) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *removableFile) Sync() error {
	if err := f.owner.check(); err != nil {
		return err
	}
	return f.File.Sync()
}
