package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	// bcrypt ignores everything past this many bytes on compare.
	maxPasswordBytes = 72
)

// ErrPoolStopped is returned once the pool's context has been cancelled.
var ErrPoolStopped = errors.New("hash pool stopped")

type jobKind int

const (
	jobHash jobKind = iota
	jobCompare
)

func (k jobKind) String() string {
	if k == jobCompare {
		return "compare"
	}
	return "hash"
}

type hashJob struct {
	kind     jobKind
	password string
	hash     string
	result   chan hashResult
}

type hashResult struct {
	hash string
	err  error
}

// HashPool runs bcrypt on a fixed set of worker goroutines so that the
// CPU-bound hashing work is bounded regardless of request concurrency.
type HashPool struct {
	jobs    chan hashJob
	workers int
	cost    int
	log     zerolog.Logger

	startOnce sync.Once
	quit      chan struct{}
}

// NewHashPool creates a HashPool with numWorkers workers hashing at the given
// bcrypt cost. If numWorkers <= 0, defaultWorkers is used.
func NewHashPool(numWorkers, cost int, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &HashPool{
		jobs:    make(chan hashJob, channelBuffer),
		workers: numWorkers,
		cost:    cost,
		log:     log,
		quit:    make(chan struct{}),
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
// Calling Start more than once has no effect.
func (p *HashPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.runWorker(ctx, i)
		}
		go func() {
			<-ctx.Done()
			close(p.quit)
		}()
	})
}

// Hash returns the bcrypt hash of password.
func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	res, err := p.submit(ctx, hashJob{kind: jobHash, password: password})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Compare checks password against a bcrypt hash in constant time.
func (p *HashPool) Compare(ctx context.Context, hash, password string) error {
	res, err := p.submit(ctx, hashJob{kind: jobCompare, hash: hash, password: password})
	if err != nil {
		return err
	}
	return res.err
}

func (p *HashPool) submit(ctx context.Context, job hashJob) (hashResult, error) {
	job.result = make(chan hashResult, 1)

	select {
	case p.jobs <- job:
	case <-p.quit:
		return hashResult{}, ErrPoolStopped
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}
	metrics.HashQueueDepth.Set(float64(len(p.jobs)))

	select {
	case res := <-job.result:
		return res, nil
	case <-p.quit:
		return hashResult{}, ErrPoolStopped
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}
}

func (p *HashPool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			metrics.HashQueueDepth.Set(float64(len(p.jobs)))
			start := time.Now()
			res := p.execute(job)
			metrics.PasswordHashDuration.WithLabelValues(job.kind.String()).Observe(time.Since(start).Seconds())
			if res.err != nil && !errors.Is(res.err, domain.ErrInvalidCredentials) && !errors.Is(res.err, domain.ErrValidation) {
				p.log.Error().Err(res.err).
					Str("op", job.kind.String()).
					Int("worker_id", id).
					Msg("password hashing failed")
			}
			job.result <- res
		}
	}
}

func (p *HashPool) execute(job hashJob) hashResult {
	switch job.kind {
	case jobCompare:
		if len(job.password) > maxPasswordBytes {
			return hashResult{err: passwordTooLong()}
		}
		err := bcrypt.CompareHashAndPassword([]byte(job.hash), []byte(job.password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return hashResult{err: domain.ErrInvalidCredentials}
		}
		if err != nil {
			return hashResult{err: fmt.Errorf("bcrypt compare: %w", err)}
		}
		return hashResult{}
	default:
		h, err := bcrypt.GenerateFromPassword([]byte(job.password), p.cost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return hashResult{err: passwordTooLong()}
		}
		if err != nil {
			return hashResult{err: fmt.Errorf("bcrypt hash: %w", err)}
		}
		return hashResult{hash: string(h)}
	}
}

func passwordTooLong() error {
	return &domain.ValidationError{
		Field:   "password",
		Message: fmt.Sprintf("password must be at most %d bytes long", maxPasswordBytes),
	}
}
