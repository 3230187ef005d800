package migrate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conductorone/keeper-migrate/pkg/onepassword"
)

// ItemOutcome is the per-item slot of a BatchResult, positionally aligned with
// the chunk's request list.
type ItemOutcome struct {
	Index     int
	Title     string
	Succeeded bool
	Error     string
}

// BatchResult is the outcome of one chunk call against one vault. A
// chunk-level transport failure sets Err and leaves PerItem empty; the items
// are still counted as failed exactly once.
type BatchResult struct {
	VaultID    string
	VaultName  string
	ChunkIndex int
	PerItem    []ItemOutcome
	Err        string
}

// Executor groups item requests by destination vault, splits each group into
// bounded chunks, and runs the chunk calls. Vaults execute concurrently,
// chunks within one vault in submission order.
type Executor struct {
	client      TargetClient
	maxBatch    int
	concurrency int
	callTimeout time.Duration
	dryRun      bool
	trace       *Trace
	report      *Report
}

func NewExecutor(client TargetClient, cfg Config, trace *Trace, report *Report) *Executor {
	return &Executor{
		client:      client,
		maxBatch:    cfg.MaxBatchSize,
		concurrency: cfg.VaultConcurrency,
		callTimeout: cfg.CallTimeout,
		dryRun:      cfg.DryRun,
		trace:       trace,
		report:      report,
	}
}

func chunkRequests(reqs []ItemCreateRequest, size int) [][]ItemCreateRequest {
	var chunks [][]ItemCreateRequest
	for start := 0; start < len(reqs); start += size {
		end := start + size
		if end > len(reqs) {
			end = len(reqs)
		}
		chunks = append(chunks, reqs[start:end])
	}
	return chunks
}

// Execute runs every batch. The returned results are ordered by the vault
// order given and by chunk index within a vault, so reporting is stable
// regardless of scheduling.
func (e *Executor) Execute(ctx context.Context, batches map[string][]ItemCreateRequest, order []string) []BatchResult {
	orderIndex := make(map[string]int, len(order))
	for i, vaultID := range order {
		orderIndex[vaultID] = i
	}

	var (
		mu      sync.Mutex
		results []BatchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, vaultID := range order {
		reqs := batches[vaultID]
		if len(reqs) == 0 {
			continue
		}
		vaultID := vaultID
		g.Go(func() error {
			for chunkIndex, chunk := range chunkRequests(reqs, e.maxBatch) {
				res := e.executeChunk(gctx, vaultID, chunkIndex, chunk)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}

	// Chunk failures are absorbed into results, so the group never errors.
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].VaultID != results[j].VaultID {
			return orderIndex[results[i].VaultID] < orderIndex[results[j].VaultID]
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	return results
}

func (e *Executor) executeChunk(ctx context.Context, vaultID string, chunkIndex int, chunk []ItemCreateRequest) BatchResult {
	l := ctxzap.Extract(ctx)
	vaultName := chunk[0].VaultName

	res := BatchResult{
		VaultID:    vaultID,
		VaultName:  vaultName,
		ChunkIndex: chunkIndex,
	}

	if e.dryRun {
		for i, req := range chunk {
			l.Info("would create item",
				zap.String("item", req.Title),
				zap.String("vault", vaultName),
				zap.Int("attachments", len(req.Params.Files)),
			)
			e.trace.Add("create item %q in vault %q", req.Title, vaultName)
			e.report.AddItemCreated()
			res.PerItem = append(res.PerItem, ItemOutcome{Index: i, Title: req.Title, Succeeded: true})
		}
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	created, err := e.client.CreateItems(callCtx, vaultID, requestParams(chunk))
	if err != nil {
		// Transport failure: one report line for the whole chunk, every item
		// counted failed, no retry.
		l.Error("batch create failed",
			zap.String("vault", vaultName),
			zap.Int("chunk", chunkIndex),
			zap.Int("items", len(chunk)),
			zap.Error(err),
		)
		res.Err = err.Error()
		for _, req := range chunk {
			e.report.AddItemFailed(vaultName, req.Title, err.Error())
		}
		return res
	}

	for i, req := range chunk {
		outcome := ItemOutcome{Index: i, Title: req.Title}
		if i < len(created) && created[i].Err == nil {
			outcome.Succeeded = true
			e.report.AddItemCreated()
		} else {
			reason := "no result returned for item"
			if i < len(created) && created[i].Err != nil {
				reason = created[i].Err.Error()
			}
			outcome.Error = reason
			l.Error("failed to create item",
				zap.String("item", req.Title),
				zap.String("vault", vaultName),
				zap.String("error", reason),
			)
			e.report.AddItemFailed(vaultName, req.Title, reason)
		}
		res.PerItem = append(res.PerItem, outcome)
	}

	l.Info("batch created items",
		zap.String("vault", vaultName),
		zap.Int("chunk", chunkIndex),
		zap.Int("requested", len(chunk)),
		zap.Int("succeeded", succeededCount(res.PerItem)),
	)
	return res
}

func requestParams(chunk []ItemCreateRequest) []onepassword.ItemCreateParams {
	params := make([]onepassword.ItemCreateParams, 0, len(chunk))
	for _, req := range chunk {
		params = append(params, req.Params)
	}
	return params
}

func succeededCount(outcomes []ItemOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}
