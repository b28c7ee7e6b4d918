package analyses

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var errBackendDown = errors.New("backend down")

// fakeRepo behaves like the hosted store: it assigns ids, keeps insertion
// order and treats deletes of absent ids as success.
type fakeRepo struct {
	mu      sync.Mutex
	records []domain.Analysis
	calls   []string

	failList, failCreate, failUpdate, failDelete bool
	// failCreateAfter > 0 lets that many creates through, then fails the rest.
	failCreateAfter int
	created         int
}

func (r *fakeRepo) record(op string) {
	r.calls = append(r.calls, op)
}

func (r *fakeRepo) List(ctx context.Context) ([]domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("list")
	if r.failList {
		return nil, errBackendDown
	}
	out := make([]domain.Analysis, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *fakeRepo) Create(ctx context.Context, f domain.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("create")
	if r.failCreate || (r.failCreateAfter > 0 && r.created >= r.failCreateAfter) {
		return errBackendDown
	}
	r.created++
	r.records = append(r.records, domain.Analysis{ID: domain.ID(uuid.NewString()), Fields: f})
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("update")
	if r.failUpdate {
		return errBackendDown
	}
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Fields = f
		}
	}
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("delete")
	if r.failDelete {
		return errBackendDown
	}
	out := r.records[:0]
	for _, a := range r.records {
		if a.ID != id {
			out = append(out, a)
		}
	}
	r.records = out
	return nil
}

func (r *fakeRepo) seed(fs ...domain.Fields) []domain.ID {
	ids := make([]domain.ID, 0, len(fs))
	for _, f := range fs {
		id := domain.ID(uuid.NewString())
		r.records = append(r.records, domain.Analysis{ID: id, Fields: f})
		ids = append(ids, id)
	}
	return ids
}

func (r *fakeRepo) mutations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		if c != "list" {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeRepo) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// inFlightRepo counts repository calls running at the same moment.
type inFlightRepo struct {
	domain.Repository

	cur, max atomic.Int32
}

func (r *inFlightRepo) enter() func() {
	n := r.cur.Add(1)
	for {
		m := r.max.Load()
		if n <= m || r.max.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(200 * time.Microsecond)
	return func() { r.cur.Add(-1) }
}

func (r *inFlightRepo) List(ctx context.Context) ([]domain.Analysis, error) {
	defer r.enter()()
	return r.Repository.List(ctx)
}

func (r *inFlightRepo) Create(ctx context.Context, f domain.Fields) error {
	defer r.enter()()
	return r.Repository.Create(ctx, f)
}

func (r *inFlightRepo) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	defer r.enter()()
	return r.Repository.Update(ctx, id, f)
}

func (r *inFlightRepo) Delete(ctx context.Context, id domain.ID) error {
	defer r.enter()()
	return r.Repository.Delete(ctx, id)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e domain.Event) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) kinds() []domain.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventKind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

type answer bool

func (a answer) Confirm(context.Context, domain.Analysis) (bool, error) { return bool(a), nil }

func fields(device, analysis string, cat domain.Category) domain.Fields {
	return domain.Fields{Device: device, Analysis: analysis, Category: cat, Severity: domain.SeveritySimple}
}
