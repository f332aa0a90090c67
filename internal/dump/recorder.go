package dump

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/demsim/internal/config"
	"github.com/san-kum/demsim/internal/engine"
)

// ProgressEvery is the step interval of progress lines while output is
// still delayed.
const ProgressEvery = 1000

type Options struct {
	SaveInterval  int
	CSVInterval   int
	SaveDelay     int
	DumpSeparate  bool
	ProgressEvery int
}

func OptionsFrom(cfg *config.Config) Options {
	return Options{
		SaveInterval:  cfg.SaveInterval,
		CSVInterval:   cfg.CSVInterval,
		SaveDelay:     cfg.SaveDelay,
		DumpSeparate:  cfg.DumpSeparate,
		ProgressEvery: ProgressEvery,
	}
}

// Recorder is an engine observer that writes trajectory frames and CSV
// rows on their intervals once the save delay has passed. Before that it
// only logs progress.
type Recorder struct {
	opts   Options
	traj   io.Writer
	base   io.Writer
	csv    *CSV
	logger *log.Logger

	closers []io.Closer
	start   time.Time
	frames  int
	rows    int
}

// New returns a recorder over open writers. base is only used when
// DumpSeparate is set; csvOut may be nil to disable CSV output.
func New(opts Options, traj, base, csvOut io.Writer, logger *log.Logger) (*Recorder, error) {
	if opts.SaveInterval < 1 {
		opts.SaveInterval = 1
	}
	if opts.CSVInterval < 1 {
		opts.CSVInterval = 1
	}
	if opts.ProgressEvery < 1 {
		opts.ProgressEvery = ProgressEvery
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := &Recorder{opts: opts, traj: traj, base: base, logger: logger, start: time.Now()}
	if csvOut != nil {
		c, err := NewCSV(csvOut)
		if err != nil {
			return nil, err
		}
		r.csv = c
	}
	return r, nil
}

// Create opens the output files named in cfg.
func Create(cfg *config.Config, logger *log.Logger) (*Recorder, error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	open := func(path string) (*os.File, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, unavailable(err)
		}
		files = append(files, f)
		return f, nil
	}

	traj, err := open(cfg.SavePath)
	if err != nil {
		return nil, err
	}
	var base, csvOut io.Writer
	if cfg.DumpSeparate {
		if base, err = open(cfg.SavePathBase); err != nil {
			closeAll()
			return nil, err
		}
	}
	if cfg.CSVSavePath != "" {
		if csvOut, err = open(cfg.CSVSavePath); err != nil {
			closeAll()
			return nil, err
		}
	}

	r, err := New(OptionsFrom(cfg), traj, base, csvOut, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	for _, f := range files {
		r.closers = append(r.closers, f)
	}
	return r, nil
}

// Start writes the initial frame and, with separate dumps, the plate file.
func (r *Recorder) Start(e *engine.Engine) error {
	r.start = time.Now()
	r.progress(e)

	if r.opts.DumpSeparate && r.base != nil {
		if err := WriteFrame(r.base, e.Snapshot(true), false, true); err != nil {
			return err
		}
	}
	if e.StepNumber() >= r.opts.SaveDelay {
		return r.frame(e)
	}
	return nil
}

// OnStep implements engine.Observer.
func (r *Recorder) OnStep(e *engine.Engine) error {
	step := e.StepNumber()
	if step <= r.opts.SaveDelay {
		if step%r.opts.ProgressEvery == 0 {
			r.progress(e)
		}
		return nil
	}

	if r.csv != nil && step%r.opts.CSVInterval == 0 {
		if err := r.csv.WriteSnapshot(e.Snapshot(false)); err != nil {
			return err
		}
		r.rows += len(e.Particles())
	}
	if step%r.opts.SaveInterval == 0 {
		r.progress(e)
		return r.frame(e)
	}
	return nil
}

func (r *Recorder) frame(e *engine.Engine) error {
	embed := !r.opts.DumpSeparate
	if err := WriteFrame(r.traj, e.Snapshot(embed), true, embed); err != nil {
		return err
	}
	r.frames++
	return nil
}

func (r *Recorder) progress(e *engine.Engine) {
	r.logger.Info("dump",
		"time", e.Time(),
		"step", e.StepNumber(),
		"elapsed", time.Since(r.start).Round(time.Second))
}

// Frames returns the number of trajectory frames written.
func (r *Recorder) Frames() int { return r.frames }

// Rows returns the number of CSV rows written.
func (r *Recorder) Rows() int { return r.rows }

func (r *Recorder) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, unavailable(err))
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
