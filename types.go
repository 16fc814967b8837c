package stwarp

// Status describes the outcome of a single file conversion.
type Status int

const (
	// StatusConverted means the output JPEG was written.
	StatusConverted Status = iota
	// StatusSkipped means the input could not be decoded and was left alone.
	StatusSkipped
	// StatusFailed means an unexpected error occurred after decoding.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports a single file conversion.
type Result struct {
	Input  string
	Output string // empty unless Status is StatusConverted
	Status Status
	// Err holds the skip reason for StatusSkipped and the failure for StatusFailed.
	Err error
}

// Summary aggregates the results of a batch.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
	// Results are in completion order.
	Results []Result
}

// Options controls conversion and dispatch.
type Options struct {
	// Workers is the number of files converted concurrently.
	Workers int
	// Quality is the JPEG quality (1-100).
	Quality int
	// Interpolation selects the sampling kernel used by the remap.
	Interpolation Interpolation
	// Width and Height optionally resize the remapped frame before encoding.
	// Zero keeps the map dimensions; if only one is set the aspect ratio is preserved.
	Width, Height uint

	// OnSubmit is called with each input path before it is queued.
	OnSubmit func(path string)
	// OnResult is called once per finished file. Calls are serialized.
	OnResult func(res Result)
}

func defaultOptions() Options {
	return Options{
		Workers:       DefaultWorkers,
		Quality:       DefaultQuality,
		Interpolation: InterpolationLanczos4,
	}
}

func applyOptions(opts []func(o *Options)) Options {
	opt := defaultOptions()
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	if opt.Workers < 1 {
		opt.Workers = 1
	}
	if opt.Quality < 1 || opt.Quality > 100 {
		opt.Quality = DefaultQuality
	}
	return opt
}
