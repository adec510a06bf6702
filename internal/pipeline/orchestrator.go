package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noxpand/retile/internal/assemble"
	"github.com/noxpand/retile/internal/imagemeta"
	"github.com/noxpand/retile/internal/keyderive"
	"github.com/noxpand/retile/internal/manifest"
	"github.com/noxpand/retile/internal/model"
	"github.com/noxpand/retile/internal/tilecrypt"
)

// Fetcher retrieves raw tile ciphertext by its manifest locator.
// Implementations report retryable failures through an error whose
// Transient() method returns true; everything else is permanent.
type Fetcher interface {
	FetchTile(ctx context.Context, locator string) ([]byte, error)
}

// SecretProvider supplies the current session secret for key derivation.
// The orchestrator threads the secret straight into Derive calls and
// never stores or logs it.
type SecretProvider interface {
	SessionSecret(ctx context.Context) ([]byte, error)
}

// Sink consumes assembled pages. WritePage is called in strictly
// increasing page order, once per successful page.
type Sink interface {
	WritePage(ctx context.Context, page *model.AssembledPage) error
}

// Default orchestrator limits.
const (
	defaultPageConcurrency = 4
	defaultTileConcurrency = 8
	defaultRetryLimit      = 2
)

// Orchestrator runs the fetch, derive, decrypt, assemble flow for every
// page of one manifest and emits the results in page order.
type Orchestrator struct {
	fetcher Fetcher
	secrets SecretProvider
	sink    Sink
	logger  *slog.Logger

	// pageConcurrency caps pages in flight at once.
	pageConcurrency int

	// tileConcurrency caps concurrent tile tasks within one page.
	tileConcurrency int

	// retryLimit bounds retries of transient fetch failures and
	// corrupt-tile refetches, per tile.
	retryLimit int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithPageConcurrency caps the number of pages in flight.
func WithPageConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageConcurrency = n
		}
	}
}

// WithTileConcurrency caps concurrent tile tasks within one page.
func WithTileConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.tileConcurrency = n
		}
	}
}

// WithRetryLimit bounds per-tile retries of transient fetch failures and
// corrupt-ciphertext refetches. Zero disables retries.
func WithRetryLimit(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.retryLimit = n
		}
	}
}

// New creates an Orchestrator wired to its three collaborators.
func New(fetcher Fetcher, secrets SecretProvider, sink Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:         fetcher,
		secrets:         secrets,
		sink:            sink,
		pageConcurrency: defaultPageConcurrency,
		tileConcurrency: defaultTileConcurrency,
		retryLimit:      defaultRetryLimit,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// Run reconstructs every page of the manifest and writes them to the
// sink in page order. Page-level failures are recorded in the summary
// and do not stop the run; a *FatalError or context cancellation does.
//
// The returned summary is valid even when err is non-nil: it covers the
// pages that completed before the abort.
func (o *Orchestrator) Run(ctx context.Context, issueID, title string, m *manifest.Manifest) (*model.RunSummary, error) {
	summary := model.NewRunSummary(issueID, title, len(m.Pages))
	start := time.Now()

	o.logger.Info("starting page run",
		"issue", issueID,
		"pages", len(m.Pages),
		"page_concurrency", o.pageConcurrency,
		"tile_concurrency", o.tileConcurrency,
	)
	if !m.HasChecksums {
		o.logger.Debug("manifest omits tile checksums, corruption detection degrades to cipher integrity",
			"issue", issueID,
		)
	}

	buf := newReorderBuffer(o.sink)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.pageConcurrency)

	for i := range m.Pages {
		seq := i
		spec := &m.Pages[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			job := newPageJob(spec)
			page, err := o.runPage(gctx, job, m.HasChecksums)
			if err != nil {
				var fatal *FatalError
				if errors.As(err, &fatal) || gctx.Err() != nil {
					return err
				}
				o.logger.Warn("page failed",
					"issue", issueID,
					"page", spec.Index,
					"stage", string(job.failStage),
					"error", err,
				)
				mu.Lock()
				summary.AddFailure(spec.Index, job.failStage, err.Error())
				mu.Unlock()
				if skipErr := buf.skip(gctx, seq); skipErr != nil {
					// Skipping a slot can flush held pages to the
					// sink; a write failure there is run-fatal just
					// like one on the emit path.
					return &FatalError{Err: fmt.Errorf("flush pages past %d: %w", spec.Index, skipErr)}
				}
				return nil
			}

			if err := buf.emit(gctx, seq, page); err != nil {
				return &FatalError{Err: fmt.Errorf("write page %d: %w", spec.Index, err)}
			}
			mu.Lock()
			summary.Succeeded++
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	summary.Elapsed = time.Since(start)

	o.logger.Info("page run complete",
		"issue", issueID,
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failures),
		"elapsed", summary.Elapsed,
	)

	return summary, err
}

// runPage drives one page through the state machine. On failure the
// job's failStage names the stage that broke; run-fatal causes come back
// wrapped in *FatalError.
func (o *Orchestrator) runPage(ctx context.Context, job *pageJob, hasChecksums bool) (*model.AssembledPage, error) {
	spec := job.spec

	scheme, err := keyderive.Lookup(spec.KeyScheme)
	if err != nil {
		job.fail(model.StageDerive)
		return nil, &FatalError{Err: err}
	}

	job.advance(StateFetchingTiles)
	ciphertexts, err := o.fetchTiles(ctx, spec)
	if err != nil {
		job.fail(model.StageFetch)
		return nil, err
	}

	job.advance(StateDecrypting)
	secret, err := o.secrets.SessionSecret(ctx)
	if err != nil {
		job.fail(model.StageDerive)
		return nil, &FatalError{Err: fmt.Errorf("session secret: %w", err)}
	}

	plaintexts, err := o.decryptTiles(ctx, scheme, secret, spec, ciphertexts)
	if err != nil {
		var fatal *FatalError
		if errors.As(err, &fatal) {
			job.fail(model.StageDerive)
		} else {
			job.fail(model.StageDecrypt)
		}
		return nil, err
	}

	job.advance(StateAssembling)
	page, err := assemble.Assemble(o.placedTiles(spec, plaintexts), spec)
	if err != nil {
		job.fail(model.StageAssemble)
		return nil, err
	}

	job.advance(StateDone)
	return page, nil
}

// fetchTiles retrieves every tile ciphertext of the page concurrently.
func (o *Orchestrator) fetchTiles(ctx context.Context, spec *manifest.PageSpec) ([][]byte, error) {
	ciphertexts := make([][]byte, len(spec.Tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.tileConcurrency)
	for i := range spec.Tiles {
		locator := spec.Tiles[i].Locator
		g.Go(func() error {
			data, err := o.fetchTile(gctx, locator)
			if err != nil {
				return err
			}
			ciphertexts[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ciphertexts, nil
}

// fetchTile invokes the fetch collaborator, retrying transient failures
// up to the configured bound.
func (o *Orchestrator) fetchTile(ctx context.Context, locator string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= o.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := o.fetcher.FetchTile(ctx, locator)
		if err == nil {
			return data, nil
		}
		lastErr = err
		var t transienter
		if !errors.As(err, &t) || !t.Transient() {
			break
		}
		o.logger.Debug("transient tile fetch failure",
			"locator", locator,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("fetch tile %q: %w", locator, lastErr)
}

// decryptTiles derives per-tile keys and decrypts every ciphertext,
// bounded by the tile concurrency limit. The plaintext slice is indexed
// like spec.Tiles.
func (o *Orchestrator) decryptTiles(ctx context.Context, scheme keyderive.Scheme, secret []byte, spec *manifest.PageSpec, ciphertexts [][]byte) ([][]byte, error) {
	plaintexts := make([][]byte, len(spec.Tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.tileConcurrency)
	for i := range spec.Tiles {
		tile := spec.Tiles[i]
		ciphertext := ciphertexts[i]
		g.Go(func() error {
			plain, err := o.decryptTile(gctx, scheme, secret, tile, spec.Cipher, ciphertext)
			if err != nil {
				return err
			}
			o.auditTile(spec.Index, tile.Locator, plain)
			plaintexts[i] = plain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plaintexts, nil
}

// decryptTile decrypts one tile. A corrupt ciphertext is refetched and
// retried up to the retry limit; wrong-key failures surface immediately.
func (o *Orchestrator) decryptTile(ctx context.Context, scheme keyderive.Scheme, secret []byte, tile manifest.TileSpec, mode manifest.CipherMode, ciphertext []byte) ([]byte, error) {
	km, err := scheme.Derive(secret, tile)
	if err != nil {
		return nil, &FatalError{Err: err}
	}

	for attempt := 0; ; attempt++ {
		plain, err := tilecrypt.Decrypt(ciphertext, km, tile, mode)
		if err == nil {
			return plain, nil
		}

		var derr *tilecrypt.DecryptError
		if !errors.As(err, &derr) || !derr.Retryable() || attempt >= o.retryLimit {
			return nil, err
		}

		o.logger.Warn("tile ciphertext corrupt, refetching",
			"locator", tile.Locator,
			"attempt", attempt+1,
		)
		fresh, ferr := o.fetchTile(ctx, tile.Locator)
		if ferr != nil {
			return nil, ferr
		}
		ciphertext = fresh
	}
}

// placedTiles resolves each tile's true grid position. Scrambled pages
// store tiles in shuffled order; the seeded permutation is inverted to
// recover where each stored slot really belongs.
func (o *Orchestrator) placedTiles(spec *manifest.PageSpec, plaintexts [][]byte) []assemble.Tile {
	var positions []assemble.GridPos
	if spec.ScrambleSeed != 0 {
		positions = assemble.Unscramble(spec.ScrambleSeed, spec.Rows, spec.Cols)
	}

	tiles := make([]assemble.Tile, len(spec.Tiles))
	for i, ts := range spec.Tiles {
		pos := assemble.GridPos{Row: ts.Row, Col: ts.Col}
		if positions != nil {
			pos = positions[ts.Row*spec.Cols+ts.Col]
		}
		tiles[i] = assemble.Tile{Pos: pos, Data: plaintexts[i]}
	}
	return tiles
}

// auditTile scans a decrypted tile image for embedded EXIF metadata.
// Storefronts have been seen stamping purchaser identifiers into tiles;
// findings are surfaced in the log, never stripped.
func (o *Orchestrator) auditTile(page int, locator string, plain []byte) {
	audit, err := imagemeta.Scan(plain)
	if err != nil || audit.Clean() {
		return
	}
	if len(audit.Identifying) > 0 {
		o.logger.Warn("tile image carries identifying metadata",
			"page", page,
			"locator", locator,
			"tags", audit.Identifying,
		)
		return
	}
	o.logger.Debug("tile image carries EXIF metadata",
		"page", page,
		"locator", locator,
		"tag_count", len(audit.Tags),
	)
}
