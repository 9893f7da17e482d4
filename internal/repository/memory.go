package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kjusys/script-intake/constants"
	"github.com/kjusys/script-intake/internal/entity"
	"github.com/kjusys/script-intake/internal/utils"
)

// MemoryJobRepository is an in-memory JobRepository for tests and local
// runs. Besides the documents themselves it records every write, so tests
// can assert on the sequence of status and progress values a job went
// through.
type MemoryJobRepository struct {
	mu      sync.Mutex
	docs    map[string]Fields
	history map[string][]Fields

	// Now is the injectable clock.
	Now func() time.Time
	// CreateErr and UpdateErr, when set, fail the corresponding calls.
	CreateErr error
	UpdateErr error
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{
		docs:    make(map[string]Fields),
		history: make(map[string][]Fields),
		Now:     time.Now,
	}
}

func (r *MemoryJobRepository) CreateIfAbsent(ctx context.Context, jobID string, fields Fields) error {
	_ = ctx

	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(jobID, fields)
	if _, ok := r.docs[jobID]; ok {
		return nil
	}
	doc := Fields{"jobId": jobID, "createdAt": utils.ISTMillis(r.Now())}
	for k, v := range fields {
		doc[k] = v
	}
	r.docs[jobID] = doc
	return nil
}

func (r *MemoryJobRepository) Update(ctx context.Context, jobID string, fields Fields) error {
	_ = ctx

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(jobID, fields)
	doc, ok := r.docs[jobID]
	if !ok {
		// Mirrors the document store: updating a missing job is a no-op.
		return nil
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc["updatedAt"] = utils.ISTMillis(r.Now())
	return nil
}

func (r *MemoryJobRepository) Get(ctx context.Context, jobID string) (*entity.JobRecord, error) {
	_ = ctx

	r.mu.Lock()
	doc, ok := r.docs[jobID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrJobNotFound
	}

	// Round-trip through JSON so field maps land in the typed record.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var rec entity.JobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// record appends a copy of one write's fields. Callers hold the lock.
func (r *MemoryJobRepository) record(jobID string, fields Fields) {
	cp := make(Fields, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	r.history[jobID] = append(r.history[jobID], cp)
}

// Doc returns a copy of the current document for jobID.
func (r *MemoryJobRepository) Doc(jobID string) (Fields, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[jobID]
	if !ok {
		return nil, false
	}
	cp := make(Fields, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	return cp, true
}

// History returns the fields of every write attempted for jobID, in order.
func (r *MemoryJobRepository) History(jobID string) []Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Fields(nil), r.history[jobID]...)
}

// Statuses returns the status values written for jobID, in order.
func (r *MemoryJobRepository) Statuses(jobID string) []string {
	var out []string
	for _, fields := range r.History(jobID) {
		switch v := fields["status"].(type) {
		case constants.JobStatus:
			out = append(out, string(v))
		case string:
			out = append(out, v)
		}
	}
	return out
}

// Progresses returns the progress values written for jobID, in order.
func (r *MemoryJobRepository) Progresses(jobID string) []int {
	var out []int
	for _, fields := range r.History(jobID) {
		if v, ok := fields["progress"].(int); ok {
			out = append(out, v)
		}
	}
	return out
}
