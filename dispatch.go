package stwarp

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ConvertAll converts files concurrently, at most Options.Workers at a time.
//
// A failing file never cancels the others: queued and running conversions continue,
// and the first failure observed is returned once every file has been processed.
// Skipped files are not errors.
func ConvertAll(files []string, m *STMap, outDir string, opts ...func(o *Options)) (*Summary, error) {
	opt := applyOptions(opts)

	var (
		// Plain group, no derived context: siblings are never cancelled.
		g       errgroup.Group
		mu      sync.Mutex
		results = make([]Result, 0, len(files))
	)
	g.SetLimit(opt.Workers)

	for _, path := range files {
		if opt.OnSubmit != nil {
			opt.OnSubmit(path)
		}
		path := path
		g.Go(func() error {
			res := runTask(path, m, outDir, &opt)

			mu.Lock()
			results = append(results, res)
			if opt.OnResult != nil {
				opt.OnResult(res)
			}
			mu.Unlock()

			if res.Status == StatusFailed {
				return fmt.Errorf("convert %s: %w", path, res.Err)
			}
			return nil
		})
	}
	err := g.Wait()

	return summarize(results), err
}

func runTask(path string, m *STMap, outDir string, opt *Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Input: path, Status: StatusFailed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return convertFile(path, m, outDir, opt)
}

func summarize(results []Result) *Summary {
	return &Summary{
		Converted: lo.CountBy(results, func(r Result) bool { return r.Status == StatusConverted }),
		Skipped:   lo.CountBy(results, func(r Result) bool { return r.Status == StatusSkipped }),
		Failed:    lo.CountBy(results, func(r Result) bool { return r.Status == StatusFailed }),
		Results:   results,
	}
}
