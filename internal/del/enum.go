package del

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// readDirBatch bounds how many directory entries are in memory per ReadDir
// call, keeping the footprint on very wide directories proportional to the
// live frontier rather than the directory size.
const readDirBatch = 512

// enumerate submits one child node per entry of dir. The parent's remaining
// counter is incremented strictly before each push, so a child that finishes
// instantly can never observe its directory as empty: the increment
// happens-before the child's terminal decrement via the queue handoff.
//
// A failure to open the stream, or a mid-iteration failure other than
// end-of-directory, stops enumeration of this directory. Children already
// submitted stay valid; the directory's own removal will then fail not-empty
// during the counter-walk and be counted.
func (w *worker) enumerate(dir *node) {
	f, err := os.Open(dir.path)
	if err != nil {
		w.fail("opendir", dir.path, err)
		return
	}
	defer f.Close()

	for {
		ents, err := f.ReadDir(readDirBatch)
		for _, de := range ents {
			mode, ok := entryMode(de)
			if !ok {
				// Vanished between ReadDir and Info: nothing left to delete.
				continue
			}
			child := newChild(dir, mode, de.Name())
			dir.remaining.Add(1)
			w.submit(child)
		}
		if err != nil {
			if err != io.EOF {
				w.fail("readdir", dir.path, err)
			}
			return
		}
	}
}

// entryMode captures an entry's mode at discovery. Info uses Lstat
// semantics, so a symlink is seen as a link, never as its target. When the
// entry disappeared mid-enumeration ok is false; any other Info failure
// falls back to the directory stream's type bits, which still carry the
// file-versus-directory decision the worker needs.
func entryMode(de fs.DirEntry) (os.FileMode, bool) {
	info, err := de.Info()
	if err == nil {
		return info.Mode(), true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false
	}
	return de.Type() | 0o200, true
}
