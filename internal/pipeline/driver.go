package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"

	"github.com/sentimentomatic/engine/internal/artifactstore"
	"github.com/sentimentomatic/engine/internal/chunker"
	"github.com/sentimentomatic/engine/internal/config"
	"github.com/sentimentomatic/engine/internal/domain"
	pipelineerrors "github.com/sentimentomatic/engine/internal/domain/errors"
	"github.com/sentimentomatic/engine/internal/inferencehost"
	"github.com/sentimentomatic/engine/internal/logging"
	"github.com/sentimentomatic/engine/internal/metrics"
	"github.com/sentimentomatic/engine/internal/neuralloader"
	"github.com/sentimentomatic/engine/internal/outputclassifier"
	"github.com/sentimentomatic/engine/internal/rulescorer"
)

var log = logging.For("pipeline")

var onnxInputNames = []string{"input_ids", "attention_mask"}
var onnxOutputNames = []string{"logits"}

// Driver executes a Plan column by column against a ResultMatrix,
// implementing the column-major wave algorithm: grounded on the teacher's
// Plan->Execute->Finalize executor.Engine shape. Every column, rule or
// neural, is processed one line at a time on the calling goroutine; neural
// columns use a single host, per the concurrency model's "parallelism
// inside a host is forbidden" rule.
type Driver struct {
	cfg       config.Config
	store     artifactstore.Store
	loader    *neuralloader.Loader
	openai    *neuralloader.RemoteOpenAILoader
	memPolicy *vm.Program
}

// NewDriver constructs a Driver. openaiLoader may be nil if the plan never
// references a LayoutRemoteOpenAI analyzer.
func NewDriver(cfg config.Config, store artifactstore.Store, openaiLoader *neuralloader.RemoteOpenAILoader) (*Driver, error) {
	var program *vm.Program
	if cfg.MemoryPressureExpr != "" {
		p, err := expr.Compile(cfg.MemoryPressureExpr, expr.Env(map[string]any{"rss_bytes": int64(0), "host_count": 0}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("pipeline: compiling memory pressure expression: %w", err)
		}
		program = p
	}
	return &Driver{
		cfg:       cfg,
		store:     store,
		loader:    neuralloader.New(store),
		openai:    openaiLoader,
		memPolicy: program,
	}, nil
}

func newRuleScorer(id domain.AnalyzerID) rulescorer.Scorer {
	switch id {
	case "afinn":
		return rulescorer.NewAfinnScorer()
	default:
		return rulescorer.NewVaderScorer()
	}
}

// Run executes plan to completion (or until ctx is cancelled), publishing
// cell transitions to any subscribers registered on the returned matrix
// before Run returns -- callers that want live updates should Subscribe
// first via the matrix returned on a prior dry-run allocation, or pass
// subscribers in and let Run register them before the first cell is
// written, which is what this implementation does.
func (d *Driver) Run(ctx context.Context, plan domain.Plan, subscribers ...Listener) (*ResultMatrix, domain.Summary, error) {
	ids := make([]domain.AnalyzerID, len(plan.Analyzers))
	for i, a := range plan.Analyzers {
		ids[i] = a.ID
	}
	matrix := NewResultMatrix(len(plan.Batch), ids)
	for _, s := range subscribers {
		matrix.Subscribe(s)
	}

	runID := uuid.New().String()
	collector := metrics.New()
	splitter := chunker.NewSplitterWithOverlap(d.cfg.ChunkMaxChars, d.cfg.ChunkOverlapRatio, d.cfg.ChunkMaxCount)

	start := time.Now()
	cancelled := false

	log.Info().Str("run_id", runID).Int("lines", len(plan.Batch)).Int("analyzers", len(plan.Analyzers)).Msg("plan starting")

	var host *inferencehost.Host
	consecutiveNeuralSinceTermination := 0

	terminateHost := func() {
		if host == nil {
			return
		}
		_ = host.Terminate()
		collector.RecordHostTermination()
		host = nil
		consecutiveNeuralSinceTermination = 0
	}

columns:
	for col, desc := range plan.Analyzers {
		if ctx.Err() != nil {
			cancelled = true
			break columns
		}

		switch desc.Kind {
		case domain.AnalyzerKindRule:
			scorer := newRuleScorer(desc.ID)
			for i, line := range plan.Batch {
				if ctx.Err() != nil {
					cancelled = true
					break columns
				}
				cellStart := time.Now()
				rs := scorer.Score(line)
				cell := outputclassifier.ClassifyRule(desc.ID, rs)
				cell.ProcessingMicros = time.Since(cellStart).Microseconds()
				matrix.Set(i, col, cell)
				collector.RecordCell(desc.ID, cell, time.Since(cellStart))
			}

		case domain.AnalyzerKindNeural:
			// A host resident from a previous column (kept alive because
			// the prior analyzer ran under KeepArtifactsResident) is always
			// bound to a different model and cannot serve this analyzer --
			// a Host loads exactly one model for its lifetime -- so it is
			// always retired before a new one starts.
			if host != nil {
				terminateHost()
			}

			h, err := d.startHost(ctx, desc)
			if err != nil {
				failColumn(matrix, collector, plan, col, domain.ErrModelLoadFailed, err.Error())
				terminateHost()
				continue columns
			}
			host = h

			infer := d.inferFuncFor(desc, host)

			columnFatal := false
			for i, line := range plan.Batch {
				if ctx.Err() != nil {
					cancelled = true
					break columns
				}

				cellStart := time.Now()
				chunks := splitter.Split(line)
				windows := make([]domain.RawPrediction, 0, len(chunks))
				var cellErr error
				for _, chunk := range chunks {
					pred, err := d.inferWithTimeout(ctx, infer, chunk)
					if err != nil {
						cellErr = err
						break
					}
					windows = append(windows, pred)
				}

				if cellErr != nil {
					kind := pipelineerrors.KindOf(cellErr)
					if kind == domain.ErrTimeout {
						terminateHost()
						cell := domain.Failed(desc.ID, domain.ErrTimeout, cellErr.Error())
						matrix.Set(i, col, cell)
						collector.RecordCell(desc.ID, cell, time.Since(cellStart))
						failRemainingInColumn(matrix, collector, plan, col, i+1, domain.ErrHostUnavailable, "host terminated after a prior infer call timed out")
						columnFatal = true
						break
					}
					if kind == domain.ErrHostUnavailable || kind == domain.ErrHostTerminated {
						failRemainingInColumn(matrix, collector, plan, col, i, domain.ErrHostUnavailable, cellErr.Error())
						columnFatal = true
						break
					}
					cell := domain.Failed(desc.ID, kind, cellErr.Error())
					matrix.Set(i, col, cell)
					collector.RecordCell(desc.ID, cell, time.Since(cellStart))
					continue
				}

				raw := chunker.Aggregate(windows, d.cfg.DefaultAggregation)
				cell := outputclassifier.Classify(desc.ID, raw)
				cell.ProcessingMicros = time.Since(cellStart).Microseconds()
				matrix.Set(i, col, cell)
				collector.RecordCell(desc.ID, cell, time.Since(cellStart))
			}

			if columnFatal {
				terminateHost()
				continue columns
			}

			if !plan.Options.KeepArtifactsResident {
				terminateHost()
				continue columns
			}

			// Column finished with the host still live at the caller's
			// request. The memory-pressure predicate decides whether two
			// consecutive resident neural columns is already too much:
			// if so, retire this one early rather than waiting for the
			// next column to force the issue.
			consecutiveNeuralSinceTermination++
			if consecutiveNeuralSinceTermination >= 2 && d.memoryPressureExceeded() {
				log.Warn().Str("analyzer", string(desc.ID)).Msg("memory pressure threshold exceeded, forcing host termination")
				terminateHost()
			}
		}
	}

	if host != nil && !plan.Options.KeepArtifactsResident {
		terminateHost()
	}
	if cancelled && host != nil {
		terminateHost()
	}

	completed, failed, terminations := collector.Summary()
	summary := domain.Summary{
		RunID:              runID,
		CompletedCells:     completed,
		FailedCells:        failed,
		HostTerminations:   terminations,
		TotalElapsedMicros: time.Since(start).Microseconds(),
		Cancelled:          cancelled,
	}
	var err error
	if cancelled {
		err = pipelineerrors.Cancelled()
	}
	log.Info().Str("run_id", runID).Int("completed", completed).Int("failed", failed).Bool("cancelled", cancelled).Msg("plan finished")
	return matrix, summary, err
}

// memoryPressureExceeded evaluates the configured expr-lang/expr predicate
// against process memory stats, grounded on the teacher's ConditionEvaluator
// compiling a caller-supplied boolean expression rather than hardcoding the
// threshold in Go.
func (d *Driver) memoryPressureExceeded() bool {
	if d.memPolicy == nil {
		return false
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	result, err := expr.Run(d.memPolicy, map[string]any{
		"rss_bytes":  int64(stats.Alloc),
		"host_count": 1,
	})
	if err != nil {
		log.Warn().Err(err).Msg("memory pressure expression evaluation failed, treating as not exceeded")
		return false
	}
	exceeded, _ := result.(bool)
	return exceeded
}

// startHost resolves and loads desc's weight file (for local-ONNX layout
// profiles) and starts a fresh Host. For LayoutRemoteOpenAI descriptors it
// only checks that d.openai is configured and returns an unstarted Host;
// inferFuncFor routes their inference straight to d.openai.
func (d *Driver) startHost(ctx context.Context, desc domain.AnalyzerDescriptor) (*inferencehost.Host, error) {
	if desc.LayoutProfile == domain.LayoutRemoteOpenAI {
		if d.openai == nil {
			return nil, pipelineerrors.ModelLoadFailed(desc.Artifact, fmt.Errorf("no OpenAI API key configured for remote analyzer %q", desc.ID))
		}
		return inferencehost.New(desc.ID), nil // no local session; Start is never called for this path
	}

	weights, err := d.loader.Resolve(ctx, desc)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "sentimentomatic-*.onnx")
	if err != nil {
		return nil, pipelineerrors.WeightLoadFailed(desc.Artifact, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(weights.Bytes); err != nil {
		tmp.Close()
		return nil, pipelineerrors.WeightLoadFailed(desc.Artifact, err)
	}
	tmp.Close()

	host := inferencehost.New(desc.ID)
	if err := host.Start(ctx, tmp.Name(), onnxInputNames, onnxOutputNames); err != nil {
		return nil, err
	}
	return host, nil
}

// inferWithTimeout wraps a single infer call with cfg.InferTimeoutMillis as
// a wall-clock budget; a zero timeout disables the wrapper entirely and
// calls infer directly. The ONNX call underlying infer is a blocking C
// call that does not observe context cancellation itself, so the budget
// is enforced by racing infer (run on its own goroutine) against the
// context deadline rather than trusting infer to return promptly --
// on expiry the goroutine is abandoned and domain.ErrTimeout is returned
// immediately; the caller is responsible for terminating the host, since
// its session is no longer safe to reuse once a call has been abandoned
// mid-flight.
func (d *Driver) inferWithTimeout(ctx context.Context, infer func(context.Context, string) (domain.RawPrediction, error), chunk string) (domain.RawPrediction, error) {
	if d.cfg.InferTimeoutMillis <= 0 {
		return infer(ctx, chunk)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(d.cfg.InferTimeoutMillis)*time.Millisecond)
	defer cancel()

	type result struct {
		pred domain.RawPrediction
		err  error
	}
	done := make(chan result, 1)
	go func() {
		pred, err := infer(timeoutCtx, chunk)
		done <- result{pred, err}
	}()

	select {
	case r := <-done:
		return r.pred, r.err
	case <-timeoutCtx.Done():
		return nil, pipelineerrors.Timeout()
	}
}

func (d *Driver) inferFuncFor(desc domain.AnalyzerDescriptor, host *inferencehost.Host) func(context.Context, string) (domain.RawPrediction, error) {
	if desc.LayoutProfile == domain.LayoutRemoteOpenAI {
		return func(ctx context.Context, text string) (domain.RawPrediction, error) {
			preds, err := d.openai.Moderate(ctx, []string{text})
			if err != nil {
				return nil, err
			}
			return preds[0], nil
		}
	}
	return func(ctx context.Context, text string) (domain.RawPrediction, error) {
		return host.InferText(ctx, text, desc.Labels, desc.MultiLabelHead)
	}
}

// failColumn marks every cell in column col as Failed{kind}, used when
// loadModel itself fails before any line has been processed.
func failColumn(matrix *ResultMatrix, collector *metrics.Collector, plan domain.Plan, col int, kind domain.ErrorKind, message string) {
	failRemainingInColumn(matrix, collector, plan, col, 0, kind, message)
}

// failRemainingInColumn marks cells [fromLine, len(plan.Batch)) in column
// col as Failed{kind} and records each one in collector.
func failRemainingInColumn(matrix *ResultMatrix, collector *metrics.Collector, plan domain.Plan, col int, fromLine int, kind domain.ErrorKind, message string) {
	for i := fromLine; i < len(plan.Batch); i++ {
		cell := domain.Failed(plan.Analyzers[col].ID, kind, message)
		matrix.Set(i, col, cell)
		collector.RecordCell(cell.AnalyzerID, cell, 0)
	}
}
