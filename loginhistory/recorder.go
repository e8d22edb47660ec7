package loginhistory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/campverse/authcore/internal"
)

// Recorder appends entries off the request path. When the queue is full the
// entry is dropped and counted; authentication never waits on the ledger.
type Recorder struct {
	ledger       Ledger
	log          *zap.Logger
	writeTimeout time.Duration
	now          func() time.Time

	ch        chan Entry
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewRecorder(ledger Ledger, queueSize int, writeTimeout time.Duration, log *zap.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		ledger:       ledger,
		log:          log.With(zap.String("component", "loginhistory.recorder")),
		writeTimeout: writeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		ch:           make(chan Entry, queueSize),
		done:         make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues e, filling ID and Timestamp when empty. Invalid entries are
// rejected synchronously.
func (r *Recorder) Record(e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if r == nil || r.closed.Load() {
		return nil
	}
	if e.ID == "" {
		e.ID = internal.NewID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	e.Device = e.Device.Normalize()

	select {
	case r.ch <- e:
	case <-r.done:
	default:
		r.dropped.Add(1)
	}
	return nil
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case e := <-r.ch:
			r.write(e)
		case <-r.done:
			for {
				select {
				case e := <-r.ch:
					r.write(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(e Entry) {
	ctx := context.Background()
	if r.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.writeTimeout)
		defer cancel()
	}
	if err := r.ledger.Append(ctx, e); err != nil {
		r.failed.Add(1)
		r.log.Warn("login history append failed",
			zap.String("user_id", e.UserID),
			zap.String("status", string(e.Status)),
			zap.Error(err),
		)
	}
}

// Close drains queued entries and stops the writer.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Recorder) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

func (r *Recorder) Failed() uint64 {
	if r == nil {
		return 0
	}
	return r.failed.Load()
}
