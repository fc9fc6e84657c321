// Package analyzer ties the scan pipeline together: walk a source
// tree, detect the routing framework, extract endpoints concurrently,
// run the heuristic detectors, and assemble the scored report.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaronchenweb/apiscan/internal/detect"
	"github.com/aaronchenweb/apiscan/internal/endpoint"
	"github.com/aaronchenweb/apiscan/internal/errors"
	"github.com/aaronchenweb/apiscan/internal/framework"
	"github.com/aaronchenweb/apiscan/internal/logger"
	"github.com/aaronchenweb/apiscan/internal/metrics"
	"github.com/aaronchenweb/apiscan/internal/output"
	"github.com/aaronchenweb/apiscan/internal/report"
	"github.com/aaronchenweb/apiscan/internal/state"
	"github.com/aaronchenweb/apiscan/internal/walker"
)

// Analyzer runs the full analysis pipeline over one source tree.
type Analyzer struct {
	config       *Config
	logger       *logger.Logger
	metrics      *metrics.Collector
	outputWriter io.Writer

	running   atomic.Bool
	startTime time.Time
}

// New creates a new analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if a.logger == nil {
		logLevel := logger.InfoLevel
		if a.config.Debug {
			logLevel = logger.DebugLevel
		} else if !a.config.Verbose {
			logLevel = logger.WarnLevel
		}
		a.logger = logger.New(logger.Config{
			Level:     logLevel,
			Pretty:    true,
			Component: "analyzer",
		})
	}

	if a.metrics == nil {
		a.metrics = metrics.New()
	}

	return a, nil
}

// Metrics returns the metrics collector.
func (a *Analyzer) Metrics() *metrics.Collector {
	return a.metrics
}

// MetricsSnapshot returns a point-in-time view of the metrics.
func (a *Analyzer) MetricsSnapshot() *metrics.Snapshot {
	return a.metrics.Snapshot()
}

// scanResult is one worker's output for a single file.
type scanResult struct {
	file    walker.File
	content []byte
	scan    endpoint.FileScan
	err     error
}

// Run executes the analysis. On cancellation it returns the report
// assembled from the files processed so far, together with a cancelled
// error, so callers can still persist partial results.
func (a *Analyzer) Run(ctx context.Context) (*report.AnalysisReport, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("analyzer is already running")
	}
	defer a.running.Store(false)
	a.startTime = time.Now()

	w, err := walker.New(a.config.Root, walker.Options{
		Extensions:     a.config.Extensions,
		ExcludeDirs:    a.config.ExcludeDirs,
		FilesPerSecond: a.config.FilesPerSecond,
		MaxFileSize:    a.config.MaxFileSize,
	})
	if err != nil {
		return nil, err
	}

	files, walkErr := w.Walk(ctx)
	if walkErr != nil && errors.GetErrorType(walkErr) != errors.Cancelled {
		return nil, walkErr
	}
	for range files {
		a.metrics.RecordFileWalked()
	}
	a.logger.Infof("walking %s: %d candidate files", a.config.Root, len(files))

	family, sampleCache := a.detectFramework(ctx, w, files)
	profile := framework.ProfileFor(family)
	a.logger.WithField("framework", string(family)).Info("framework selected")

	results := a.scanFiles(ctx, w, profile, files, sampleCache)

	// Restore walk order before deduplication so "first seen" is
	// deterministic regardless of worker scheduling.
	scans := a.collectScans(results)
	endpoints := endpoint.Merge(scans)
	a.metrics.RecordEndpoints(len(endpoints))
	a.logger.Infof("extracted %d endpoints from %d files", len(endpoints), len(scans))

	rep := a.diagnose(string(family), scans, endpoints)

	if ctx.Err() != nil {
		return rep, errors.NewCancelledError(a.config.Root, "analyze")
	}

	if a.outputWriter != nil {
		ow := output.NewWriter(a.outputWriter, output.Config{
			Format: a.config.Output.Format,
			Pretty: a.config.Output.Pretty,
		})
		if err := ow.WriteReport(rep); err != nil {
			return rep, fmt.Errorf("failed to write output: %w", err)
		}
		if err := ow.Close(); err != nil {
			return rep, fmt.Errorf("failed to flush output: %w", err)
		}
	}

	return rep, nil
}

// detectFramework resolves the routing family, either from the config
// hint or by sampling file contents. Sampled contents are returned so
// the scan phase does not read them twice.
func (a *Analyzer) detectFramework(ctx context.Context, w *walker.Walker, files []walker.File) (framework.Family, map[int][]byte) {
	cache := make(map[int][]byte)

	if a.config.Framework != "" {
		return framework.Family(a.config.Framework), cache
	}

	limit := a.config.SampleLimit
	if limit > len(files) {
		limit = len(files)
	}

	samples := make([]framework.Sample, 0, limit)
	for _, f := range files[:limit] {
		if ctx.Err() != nil {
			break
		}
		content, err := w.Read(ctx, f)
		if err != nil {
			continue // scan phase reports skip reasons
		}
		cache[f.Index] = content
		samples = append(samples, framework.Sample{File: f, Content: content})
	}

	return framework.NewDetector().Detect(samples), cache
}

// scanFiles fans files out to a worker pool and collects per-file scans.
func (a *Analyzer) scanFiles(ctx context.Context, w *walker.Walker, profile *framework.Profile, files []walker.File, cache map[int][]byte) []scanResult {
	extractor := endpoint.NewExtractor(profile)

	jobs := make(chan walker.File)
	out := make(chan scanResult, len(files))

	var wg sync.WaitGroup
	workers := a.config.Workers
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}
	a.metrics.SetActiveWorkers(int64(workers))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := a.logger.WithWorker(id)
			for f := range jobs {
				if ctx.Err() != nil {
					return
				}
				content, ok := cache[f.Index]
				if !ok {
					var err error
					content, err = w.Read(ctx, f)
					if err != nil {
						log.ErrorEvent(err, f.Path, "read")
						out <- scanResult{file: f, err: err}
						continue
					}
				}
				out <- scanResult{
					file:    f,
					content: content,
					scan:    extractor.ScanFile(f, content),
				}
			}
		}(i)
	}

dispatch:
	for _, f := range files {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(out)
	a.metrics.SetActiveWorkers(0)

	results := make([]scanResult, 0, len(files))
	for r := range out {
		results = append(results, r)
	}
	return results
}

// collectScans orders results by walk index, applies content
// deduplication sequentially, and records per-file metrics.
func (a *Analyzer) collectScans(results []scanResult) []endpoint.FileScan {
	var dedup *state.ContentDeduplicator
	if !a.config.NoDedup {
		dedup = state.NewContentDeduplicator(len(results))
	}

	scans := make([]endpoint.FileScan, 0, len(results))
	for _, r := range results {
		if r.err == nil {
			scans = append(scans, r.scan)
		}
	}
	endpoint.SortScans(scans)

	byIndex := make(map[int]scanResult, len(results))
	for _, r := range results {
		byIndex[r.file.Index] = r
	}

	kept := scans[:0]
	for _, s := range scans {
		r := byIndex[s.File.Index]
		if dedup != nil {
			if dup, first := dedup.Check(s.File.Path, r.content); dup {
				a.metrics.RecordDuplicateFile()
				a.logger.WithFile(s.File.Path).Debugf("duplicate of %s, skipping", first)
				continue
			}
		}
		a.metrics.RecordFileScanned(int64(len(r.content)))
		kept = append(kept, s)
	}

	for _, r := range results {
		if r.err != nil {
			a.metrics.RecordFileSkipped(errors.GetErrorType(r.err).String())
		}
	}

	return kept
}

// diagnose runs the detectors over the ordered scans and assembles the
// final report.
func (a *Analyzer) diagnose(family string, scans []endpoint.FileScan, endpoints []endpoint.Endpoint) *report.AnalysisReport {
	profile := framework.ProfileFor(framework.Family(family))

	versioningDet := detect.NewVersioningDetector(profile, detect.VersioningPolicy{
		SkewFactor:  a.config.SkewFactor,
		MaxExamples: a.config.MaxExamples,
	})
	authDet := detect.NewAuthDetector(profile, detect.DefaultAuthPolicy())
	restDet := detect.NewRESTfulDetector(profile, detect.RESTfulPolicy{
		MaxHierarchyDepth: a.config.MaxHierarchyDepth,
	})

	versioning, versionIssues := versioningDet.Detect(scans, endpoints)
	methods, authIssues, security := authDet.Detect(scans, endpoints)
	restIssues := restDet.Detect(scans, endpoints)

	issues := report.Aggregate(
		report.DetectorOutput{Detector: "versioning", Issues: versionIssues},
		report.DetectorOutput{Detector: "auth", Issues: authIssues},
		report.DetectorOutput{Detector: "restful", Issues: restIssues},
	)
	for _, issue := range issues {
		a.metrics.RecordIssue(string(issue.Severity))
	}

	// The RESTful score is a per-concern score: only the convention
	// checks deduct from it. Versioning issues carry no numeric score
	// and auth issues are already priced into the security score.
	scores := report.Scores{
		RESTful:   report.Score(restIssues),
		Auth:      security.Score,
		AuthGrade: security.Grade,
	}

	snap := a.metrics.Snapshot()
	stats := report.Stats{
		FilesWalked:    int(snap.FilesWalked),
		FilesScanned:   int(snap.FilesScanned),
		FilesSkipped:   int(snap.FilesSkipped),
		DuplicateFiles: int(snap.DuplicateFiles),
		BytesScanned:   snap.BytesScanned,
		Duration:       time.Since(a.startTime),
	}

	return report.Assemble(a.config.Root, family, endpoints, versioning, methods, issues, scores, stats)
}
