package bildtext

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// FileFailure records one file that could not be processed.
type FileFailure struct {
	Path string
	Err  error
}

// BatchResult summarizes a directory run.
type BatchResult struct {
	Succeeded int
	Copied    int
	Failures  []FileFailure
}

// CandidatePath reports whether path names an image the annotator
// handles.
func CandidatePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// OutputName maps a relative input path to its output name. Formats we
// decode but never encode come out as JPEG.
func OutputName(rel string) string {
	if strings.EqualFold(filepath.Ext(rel), ".webp") {
		return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".jpg"
	}
	return rel
}

// ProcessDir annotates every image under inDir, mirroring relative
// paths under outDir. Per-file failures are collected in the result
// and never halt the batch; only an unwalkable tree returns an error.
func ProcessDir(inDir, outDir string, opts *Options) (*BatchResult, error) {
	type job struct {
		in  string
		out string
	}

	res := &BatchResult{}
	jobs := []job{}

	var resMu sync.Mutex
	fail := func(path string, err error) {
		klog.Errorf("%s: %v", path, err)
		resMu.Lock()
		res.Failures = append(res.Failures, FileFailure{Path: path, Err: err})
		resMu.Unlock()
	}

	err := godirwalk.Walk(inDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != inDir && filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(inDir, path)
			if err != nil {
				return err
			}

			if !CandidatePath(path) {
				if opts.CopySkipped {
					if err := copy.Copy(path, filepath.Join(outDir, rel)); err != nil {
						fail(path, fmt.Errorf("copy: %w", err))
						return nil
					}
					res.Copied++
				}
				return nil
			}

			jobs = append(jobs, job{in: path, out: filepath.Join(outDir, OutputName(rel))})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	if len(jobs) == 0 {
		return res, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	klog.V(1).Infof("annotating %d images with %d workers", len(jobs), workers)

	ch := make(chan job)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each worker gets its own metadata reader; the brand
			// registry and fonts are shared read-only.
			r, rerr := NewTagReader(opts)
			if rerr == nil {
				defer r.Close()
			}

			for j := range ch {
				err := rerr
				if err == nil {
					err = processFile(r, j.in, j.out, opts)
				}
				if err != nil {
					fail(j.in, err)
					continue
				}
				resMu.Lock()
				res.Succeeded++
				resMu.Unlock()
			}
		}()
	}

	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	wg.Wait()

	slices.SortFunc(res.Failures, func(a, b FileFailure) int {
		return strings.Compare(a.Path, b.Path)
	})

	return res, nil
}
