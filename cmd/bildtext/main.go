package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"k8s.io/klog/v2"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	bildtext "github.com/mlindgren/bildtext/pkg/bildtext"
)

var (
	inFlag      = flag.String("in", "", "input image or directory")
	outFlag     = flag.String("out", "", "output image or directory")
	barHeight   = flag.Int("bar-height", 0, "info bar height in pixels (0 = proportional to the image)")
	force16x9   = flag.Bool("force-16x9", false, "pad the output to a 16:9 canvas")
	logoPath    = flag.String("logo", "", "logo image to composite instead of the detected brand mark")
	quality     = flag.Int("quality", 92, "JPEG output quality")
	workers     = flag.Int("workers", 0, "concurrent workers for directory input (0 = CPU count)")
	useExiftool = flag.Bool("exiftool", false, "read metadata via an exiftool subprocess")
	copySkipped = flag.Bool("copy-skipped", false, "copy non-image files into the output tree")
	watchFlag   = flag.Bool("watch", false, "watch the input directory and re-annotate changed images")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *inFlag == "" {
		klog.Exitf("--in is a required flag")
	}

	if *outFlag == "" {
		klog.Exitf("--out is a required flag")
	}

	opts := &bildtext.Options{
		BarHeight:   *barHeight,
		Force16x9:   *force16x9,
		LogoPath:    *logoPath,
		Quality:     *quality,
		Workers:     *workers,
		UseExiftool: *useExiftool,
		CopySkipped: *copySkipped,
	}

	st, err := os.Stat(*inFlag)
	if err != nil {
		klog.Exitf("stat failed: %v", err)
	}

	if !st.IsDir() {
		if *watchFlag {
			klog.Exitf("--watch needs a directory input")
		}
		out := singleOut(*inFlag, *outFlag)
		if err := bildtext.ProcessFile(*inFlag, out, opts); err != nil {
			klog.Exitf("annotate failed: %v", err)
		}
		klog.Infof("wrote %s", out)
		return
	}

	res, err := bildtext.ProcessDir(*inFlag, *outFlag, opts)
	if err != nil {
		klog.Exitf("batch failed: %v", err)
	}

	klog.Infof("%d annotated, %d copied, %d failed", res.Succeeded, res.Copied, len(res.Failures))
	for _, f := range res.Failures {
		klog.Errorf("%s: %v", f.Path, f.Err)
	}

	if res.Succeeded == 0 && !*watchFlag {
		if len(res.Failures) == 0 {
			klog.Exitf("no images found under %s", *inFlag)
		}
		klog.Exitf("all %d images failed", len(res.Failures))
	}

	if *watchFlag {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(*inFlag, *outFlag, opts); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
		wg.Wait()
	}
}

// singleOut picks the output path for single-image mode, mapping into
// out when it is an existing directory.
func singleOut(in, out string) string {
	st, err := os.Stat(out)
	if err == nil && st.IsDir() {
		return filepath.Join(out, bildtext.OutputName(filepath.Base(in)))
	}
	return out
}

// watch re-annotates images as they change under inDir.
func watch(inDir, outDir string, opts *bildtext.Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	// Start listening for events.
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				klog.V(1).Infof("event: %v", event)
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				if filepath.Base(event.Name)[0] == '.' {
					continue
				}

				st, err := os.Stat(event.Name)
				if err != nil {
					continue
				}

				if st.IsDir() {
					if err := w.Add(event.Name); err != nil {
						klog.Warningf("watch %s: %v", event.Name, err)
					}
					continue
				}

				if !bildtext.CandidatePath(event.Name) {
					continue
				}

				rel, err := filepath.Rel(inDir, event.Name)
				if err != nil {
					klog.Errorf("rel failed: %v", err)
					continue
				}

				out := filepath.Join(outDir, bildtext.OutputName(rel))
				if err := bildtext.ProcessFile(event.Name, out, opts); err != nil {
					klog.Errorf("annotate %s: %v", event.Name, err)
					continue
				}
				klog.Infof("wrote %s", out)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				klog.Errorf("watch error: %v", err)
			}
		}
	}()

	dirs := []string{inDir}
	err = godirwalk.Walk(inDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != inDir && filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}

	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("add %s: %w", d, err)
		}
	}

	<-make(chan struct{})
	return nil
}
