package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"ecgnote/internal/patientstore"
	"ecgnote/internal/technician"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFileReadable verifies that path is a regular file the process can read.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckStore loads the store document, which also validates it, and
// requires write access so checkpoints can succeed.
func CheckStore(name, path string) Result {
	if res := CheckFileReadable(name, path); !res.Passed {
		return res
	}
	store, err := patientstore.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d records, %d annotated)", path, store.Len(), store.AnnotatedCount()),
	}
}

// CheckStoreLock reports whether another session currently owns the store.
func CheckStoreLock(name, storePath string) Result {
	lock, err := patientstore.AcquireLock(storePath)
	if errors.Is(err, patientstore.ErrLocked) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another session)", patientstore.LockPath(storePath))}
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: %v", err)}
	}
	if err := lock.Release(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: release: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: "free"}
}

// CheckRoster loads the technician CSV.
func CheckRoster(name, path string) Result {
	if res := CheckFileReadable(name, path); !res.Passed {
		return res
	}
	roster, err := technician.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d patients)", path, roster.Len())}
}

// CheckCoverPDF verifies the cover can be read. A configured page count must
// match the document.
func CheckCoverPDF(name, path string, configured int, pages PageCounter) Result {
	if res := CheckFileReadable(name, path); !res.Passed {
		return res
	}
	n, err := pages.PageCount(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if configured > 0 && configured != n {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cover_pages is %d but the document has %d)", path, configured, n)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d pages)", path, n)}
}
