package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/domain"
	dombatch "github.com/kailas-cloud/vidclass/internal/domain/batch"
	batchuc "github.com/kailas-cloud/vidclass/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/vidclass/internal/usecase/health"
)

// maxLineBytes bounds one NDJSON input line.
const maxLineBytes = 4 << 20

type batchFlags struct {
	commonFlags
	in     string
	out    string
	scores bool
}

func batchCmd() *commander.Command {
	f := &batchFlags{}
	cmd := &commander.Command{
		Run: func(cmd *commander.Command, args []string) error {
			return runBatch(f)
		},
		UsageLine: "batch [options]",
		Short:     "classify NDJSON videos from stdin",
		Long: `
classify newline-delimited JSON videos and write one prediction per line

	$ vidclass batch < videos.ndjson > predictions.ndjson

Each input line is {"id": "...", "title": "...", "description": "..."}.
Output lines keep input order. A line that fails carries an "error" field
instead of a label. The ops server (/healthz, /metrics) runs while the batch
is processed when ops.port is set.
`,
		Flag: *flag.NewFlagSet("batch", flag.ExitOnError),
	}
	addCommonFlags(cmd, &f.commonFlags)
	cmd.Flag.StringVar(&f.in, "in", "", "input file (default stdin)")
	cmd.Flag.StringVar(&f.out, "out", "", "output file (default stdout)")
	cmd.Flag.BoolVar(&f.scores, "scores", false, "include per-class scores")
	return cmd
}

// batchLine is one NDJSON output record.
type batchLine struct {
	ID         string         `json:"id"`
	Label      string         `json:"label,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Scores     []domain.Score `json:"scores,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func runBatch(f *batchFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, f.commonFlags)
	if err != nil {
		return err
	}
	defer a.close()

	runID := uuid.NewString()
	logger := a.logger.With(zap.String("run_id", runID))

	b, err := a.loadBundle(ctx)
	if err != nil {
		return err
	}
	svc := a.newService(b)
	batchSvc := batchuc.New(a.buildClassifier(svc)).WithWorkers(a.cfg.Classify.Workers)

	if a.cfg.Ops.Port > 0 {
		ops := startOpsServer(a.cfg.Ops, healthuc.New(a.store, svc), logger)
		defer ops.shutdown(time.Duration(a.cfg.Ops.ShutdownSec) * time.Second)
	}

	in, closeIn, err := openInput(f.in)
	if err != nil {
		return err
	}
	defer closeIn()
	out, closeOut, err := openOutput(f.out)
	if err != nil {
		return err
	}
	defer closeOut()

	logger.Info("Batch started", zap.String("fingerprint", b.Fingerprint()))
	start := time.Now()

	stats, err := processBatch(ctx, batchSvc, in, out, f.scores)
	logger.Info("Batch finished",
		zap.Int("items", stats.items),
		zap.Int("failed", stats.failed),
		zap.Duration("duration", time.Since(start)),
	)
	return err
}

type batchStats struct {
	items  int
	failed int
}

// processBatch streams items through svc in chunks of batchuc.MaxBatchSize.
func processBatch(ctx context.Context, svc *batchuc.Service, in io.Reader, out io.Writer, scores bool) (batchStats, error) {
	var stats batchStats
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)

	chunk := make([]dombatch.Item, 0, batchuc.MaxBatchSize)
	var parseErrs []error // parse failures, aligned with chunk

	flush := func() error {
		results := svc.Classify(ctx, chunk)
		for i, r := range results {
			line := batchLine{ID: r.ID()}
			err := r.Err()
			if parseErrs[i] != nil {
				err = parseErrs[i]
			}
			if err != nil {
				line.Error = err.Error()
				stats.failed++
			} else {
				p := r.Prediction()
				line.Label, line.Confidence = p.Label, p.Confidence
				if scores {
					line.Scores = p.Scores
				}
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
		}
		stats.items += len(results)
		chunk, parseErrs = chunk[:0], parseErrs[:0]
		return w.Flush()
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var item dombatch.Item
		var parseErr error
		if err := json.Unmarshal(raw, &item); err != nil {
			// Keep the slot so output order still matches input order.
			item = dombatch.Item{ID: fmt.Sprintf("line-%d", lineNo)}
			parseErr = fmt.Errorf("line %d: %w", lineNo, err)
		}
		chunk = append(chunk, item)
		parseErrs = append(parseErrs, parseErr)

		if len(chunk) == batchuc.MaxBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
		if err := ctx.Err(); err != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	if len(chunk) > 0 {
		if err := flush(); err != nil {
			return stats, err
		}
	}
	return stats, ctx.Err()
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
