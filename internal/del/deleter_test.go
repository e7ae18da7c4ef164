package del

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func run(t *testing.T, root string, workers int) (Snapshot, error) {
	t.Helper()
	opts := DefaultOptions().WithWorkers(workers)
	return New(opts).Run(context.Background(), root)
}

func assertGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("%s still exists (err=%v)", path, err)
	}
}

func TestDeleteSingleFile(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "a.txt")
	mustWrite(t, file)

	snap, err := run(t, file, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != 1 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=1 failed=0", snap)
	}
	assertGone(t, file)
}

func TestDeleteEmptyDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "empty")
	mustMkdir(t, dir)

	snap, err := run(t, dir, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != 1 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=1 failed=0", snap)
	}
	assertGone(t, dir)
}

func TestDeleteShallowTree(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "d")
	mustMkdir(t, dir)
	for _, name := range []string{"f1", "f2", "f3"} {
		mustWrite(t, filepath.Join(dir, name))
	}

	snap, err := run(t, dir, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != 4 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=4 failed=0", snap)
	}
	assertGone(t, dir)
}

func TestDeleteDeepChain(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a")
	leafDir := filepath.Join(dir, "b", "c", "d", "e", "f")
	mustMkdir(t, leafDir)
	mustWrite(t, filepath.Join(leafDir, "leaf"))

	snap, err := run(t, dir, 8)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// A premature rmdir anywhere on the chain would fail not-empty and show
	// up in the failed count.
	if snap.Deleted != 7 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=7 failed=0", snap)
	}
	assertGone(t, dir)
}

func TestDeleteWideDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "w")
	mustMkdir(t, dir)
	const files = 2000
	for i := 0; i < files; i++ {
		mustWrite(t, filepath.Join(dir, fmt.Sprintf("f%04d", i)))
	}

	snap, err := run(t, dir, 16)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != files+1 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=%d failed=0", snap, files+1)
	}
	assertGone(t, dir)
}

func TestDeleteReadOnlyFile(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "ro")
	mustMkdir(t, dir)
	file := filepath.Join(dir, "a.txt")
	mustWrite(t, file)
	if err := os.Chmod(file, 0o444); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	snap, err := run(t, dir, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != 2 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=2 failed=0", snap)
	}
	assertGone(t, dir)
}

func TestDeleteReadOnlyDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "top")
	sub := filepath.Join(dir, "frozen")
	mustMkdir(t, sub)
	mustWrite(t, filepath.Join(sub, "a.txt"))
	if err := os.Chmod(sub, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(sub, 0o755) })

	snap, err := run(t, dir, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != 3 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=3 failed=0", snap)
	}
	assertGone(t, dir)
}

func TestSymlinkRemovedNotFollowed(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "target")
	mustMkdir(t, target)
	kept := filepath.Join(target, "keep.txt")
	mustWrite(t, kept)

	dir := filepath.Join(base, "doomed")
	mustMkdir(t, dir)
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	snap, err := run(t, dir, 4)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.Deleted != 2 || snap.Failed != 0 {
		t.Fatalf("snapshot: %+v, want deleted=2 failed=0", snap)
	}
	assertGone(t, dir)
	if _, err := os.Stat(kept); err != nil {
		t.Fatalf("symlink target was touched: %v", err)
	}
}

func TestNonexistentRoot(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "missing"), 4)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("run: got %v, want fs.ErrNotExist", err)
	}
}

func TestSecondRunFailsInspection(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "once")
	mustMkdir(t, dir)
	mustWrite(t, filepath.Join(dir, "f"))

	if _, err := run(t, dir, 4); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := run(t, dir, 4); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("second run: got %v, want fs.ErrNotExist", err)
	}
}

func TestWorkerCountConsistency(t *testing.T) {
	build := func(t *testing.T) (string, int64) {
		base := t.TempDir()
		dir := filepath.Join(base, "tree")
		total := int64(1)
		for i := 0; i < 4; i++ {
			sub := filepath.Join(dir, fmt.Sprintf("d%d", i))
			for j := 0; j < 3; j++ {
				leaf := filepath.Join(sub, fmt.Sprintf("s%d", j))
				mustMkdir(t, leaf)
				total += 1
				for k := 0; k < 5; k++ {
					mustWrite(t, filepath.Join(leaf, fmt.Sprintf("f%d", k)))
					total++
				}
			}
			total++ // sub itself
		}
		return dir, total
	}

	for _, workers := range []int{1, 2, 8, 32} {
		dir, want := build(t)
		snap, err := run(t, dir, workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if snap.Deleted != want || snap.Failed != 0 {
			t.Fatalf("workers=%d: %+v, want deleted=%d failed=0", workers, snap, want)
		}
		assertGone(t, dir)
	}
}

func TestFailuresKeepAncestors(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission failures are not enforced for root")
	}
	base := t.TempDir()
	dir := filepath.Join(base, "top")
	sub := filepath.Join(dir, "locked")
	mustMkdir(t, sub)
	mustWrite(t, filepath.Join(sub, "hidden"))
	// Write-only: enumeration cannot open the stream, and the engine leaves
	// the write bit alone so no chmod rescues it.
	if err := os.Chmod(sub, 0o200); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(sub, 0o755) })

	snap, err := run(t, dir, 4)
	if !errors.Is(err, ErrFailures) {
		t.Fatalf("run: got %v, want ErrFailures", err)
	}
	// opendir on sub, rmdir sub (not empty), rmdir top (not empty).
	if snap.Failed != 3 {
		t.Fatalf("failed: got %d, want 3", snap.Failed)
	}
	if _, err := os.Lstat(dir); err != nil {
		t.Fatalf("ancestor of failed entry was removed: %v", err)
	}
}

func TestErrorReportLimit(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission failures are not enforced for root")
	}
	base := t.TempDir()
	dir := filepath.Join(base, "top")
	const locked = 15
	for i := 0; i < locked; i++ {
		sub := filepath.Join(dir, fmt.Sprintf("locked%02d", i))
		mustMkdir(t, sub)
		mustWrite(t, filepath.Join(sub, "hidden"))
		if err := os.Chmod(sub, 0o200); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		t.Cleanup(func() { os.Chmod(sub, 0o755) })
	}

	var mu sync.Mutex
	reported := 0
	all := 0
	opts := DefaultOptions().WithWorkers(8)
	opts.OnError = func(Failure) {
		mu.Lock()
		reported++
		mu.Unlock()
	}
	opts.OnFailure = func(Failure) {
		mu.Lock()
		all++
		mu.Unlock()
	}

	snap, err := New(opts).Run(context.Background(), dir)
	if !errors.Is(err, ErrFailures) {
		t.Fatalf("run: got %v, want ErrFailures", err)
	}
	if reported != errorReportLimit {
		t.Fatalf("reported errors: got %d, want %d", reported, errorReportLimit)
	}
	if int64(all) != snap.Failed {
		t.Fatalf("OnFailure calls: got %d, want failed count %d", all, snap.Failed)
	}
	if snap.Failed <= errorReportLimit {
		t.Fatalf("failed: got %d, want more than %d", snap.Failed, errorReportLimit)
	}
}

func TestFinalStatusEmitted(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "d")
	mustMkdir(t, dir)
	mustWrite(t, filepath.Join(dir, "f"))

	var mu sync.Mutex
	var last Snapshot
	calls := 0
	opts := DefaultOptions().WithWorkers(2)
	opts.OnStatus = func(s Snapshot) {
		mu.Lock()
		last = s
		calls++
		mu.Unlock()
	}

	if _, err := New(opts).Run(context.Background(), dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls == 0 {
		t.Fatalf("no status emitted")
	}
	if last.Deleted != 2 || last.Queued != 0 {
		t.Fatalf("final status: %+v, want deleted=2 queued=0", last)
	}
}

func TestCancelDrains(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "big")
	for i := 0; i < 20; i++ {
		sub := filepath.Join(dir, fmt.Sprintf("d%02d", i))
		mustMkdir(t, sub)
		for j := 0; j < 50; j++ {
			mustWrite(t, filepath.Join(sub, fmt.Sprintf("f%02d", j)))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := DefaultOptions().WithWorkers(4)
	_, err := New(opts).Run(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run: got %v, want context.Canceled", err)
	}
}

func TestProgressAfterRun(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "d")
	mustMkdir(t, dir)
	mustWrite(t, filepath.Join(dir, "f"))

	d := New(DefaultOptions().WithWorkers(2))
	if _, err := d.Run(context.Background(), dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	if p := d.Progress(); p.Deleted != 2 || p.Queued != 0 {
		t.Fatalf("progress after run: %+v", p)
	}
}
