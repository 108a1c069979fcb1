package core

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// memStore is an in-memory Store used by the batch tests.
type memStore struct {
	mu   sync.Mutex
	data *memData
	logs []MappingEntry

	// insertHook runs before every entity insert; a non-nil error fails it.
	insertHook func(entity schema.Entity) error
	beginErr   error
	commits    int
	rollbacks  int
}

type memPolicy struct {
	ProviderID uuid.UUID
	Policy     Policy
}

type memClaim struct {
	Links ClaimLinks
	Claim Claim
}

type memDiagnosis struct {
	ClaimID   uuid.UUID
	Diagnosis Diagnosis
}

type memData struct {
	imports   map[uuid.UUID]Import
	patients  map[uuid.UUID]Patient
	providers map[uuid.UUID]Provider
	policies  map[uuid.UUID]memPolicy
	claims    map[uuid.UUID]memClaim
	diagnoses map[uuid.UUID]memDiagnosis
}

func newMemData() *memData {
	return &memData{
		imports:   map[uuid.UUID]Import{},
		patients:  map[uuid.UUID]Patient{},
		providers: map[uuid.UUID]Provider{},
		policies:  map[uuid.UUID]memPolicy{},
		claims:    map[uuid.UUID]memClaim{},
		diagnoses: map[uuid.UUID]memDiagnosis{},
	}
}

func (d *memData) clone() *memData {
	return &memData{
		imports:   maps.Clone(d.imports),
		patients:  maps.Clone(d.patients),
		providers: maps.Clone(d.providers),
		policies:  maps.Clone(d.policies),
		claims:    maps.Clone(d.claims),
		diagnoses: maps.Clone(d.diagnoses),
	}
}

func newMemStore() *memStore {
	return &memStore{data: newMemData()}
}

// seedImport adds an import in status Uploaded and returns its id.
func (s *memStore) seedImport() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.data.imports[id] = Import{ID: id, Filename: "claims.csv", Status: StatusUploaded, UploadedAt: time.Now()}
	return id
}

func (s *memStore) importByID(id uuid.UUID) Import {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.imports[id]
}

func (s *memStore) CreateImport(_ context.Context, imp Import) (Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if imp.ID == uuid.Nil {
		imp.ID = uuid.New()
	}
	imp.Status = StatusUploaded
	imp.UploadedAt = time.Now()
	imp.StatusChangedAt = imp.UploadedAt
	s.data.imports[imp.ID] = imp
	return imp, nil
}

func (s *memStore) GetImport(_ context.Context, id uuid.UUID) (Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.data.imports[id]
	if !ok {
		return Import{}, ErrImportNotFound
	}
	return imp, nil
}

func (s *memStore) ListImports(_ context.Context) ([]Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Import, 0, len(s.data.imports))
	for _, imp := range s.data.imports {
		out = append(out, imp)
	}
	return out, nil
}

func (s *memStore) ListStaleImports(_ context.Context, status ImportStatus, before time.Time) ([]Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Import
	for _, imp := range s.data.imports {
		if imp.Status == status && imp.StatusChangedAt.Before(before) {
			out = append(out, imp)
		}
	}
	return out, nil
}

func (s *memStore) RecordMappings(_ context.Context, id uuid.UUID, entries []MappingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.data.imports[id]
	if !ok {
		return ErrImportNotFound
	}
	s.logs = append(s.logs, entries...)
	imp.Status = StatusMapping
	imp.StatusChangedAt = time.Now()
	s.data.imports[id] = imp
	return nil
}

func (s *memStore) BeginBatch(_ context.Context) (BatchTx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{store: s, work: s.data.clone()}, nil
}

type memTx struct {
	store *memStore
	work  *memData
	done  bool
}

func (tx *memTx) LoadRow(_ context.Context, fn func(EntityWriter) error) error {
	snapshot := tx.work.clone()
	if err := fn(&memWriter{tx: tx}); err != nil {
		tx.work = snapshot
		return err
	}
	return nil
}

func (tx *memTx) Finalize(_ context.Context, id uuid.UUID, totals FieldTotals, status ImportStatus) error {
	imp, ok := tx.work.imports[id]
	if !ok {
		return ErrImportNotFound
	}
	imp.FieldsSeen = totals.Seen
	imp.FieldsNormalized = totals.Normalized
	imp.FieldsFailed = totals.Failed
	imp.Status = status
	tx.work.imports[id] = imp
	return nil
}

func (tx *memTx) Commit(_ context.Context) error {
	if tx.done {
		return errors.New("tx closed")
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.data = tx.work
	tx.store.commits++
	tx.done = true
	return nil
}

func (tx *memTx) Rollback(_ context.Context) error {
	if tx.done {
		return nil
	}
	tx.store.mu.Lock()
	tx.store.rollbacks++
	tx.store.mu.Unlock()
	tx.done = true
	return nil
}

type memWriter struct {
	tx *memTx
}

func (w *memWriter) hook(e schema.Entity) error {
	if w.tx.store.insertHook != nil {
		return w.tx.store.insertHook(e)
	}
	return nil
}

func (w *memWriter) InsertPatient(_ context.Context, id uuid.UUID, p Patient) error {
	if err := w.hook(schema.EntityPatient); err != nil {
		return err
	}
	w.tx.work.patients[id] = p
	return nil
}

func (w *memWriter) InsertProvider(_ context.Context, id uuid.UUID, p Provider) error {
	if err := w.hook(schema.EntityProvider); err != nil {
		return err
	}
	w.tx.work.providers[id] = p
	return nil
}

func (w *memWriter) InsertPolicy(_ context.Context, id, providerID uuid.UUID, p Policy) error {
	if err := w.hook(schema.EntityPolicy); err != nil {
		return err
	}
	if _, ok := w.tx.work.providers[providerID]; !ok {
		return errors.New("policy provider_id violates foreign key")
	}
	w.tx.work.policies[id] = memPolicy{ProviderID: providerID, Policy: p}
	return nil
}

func (w *memWriter) InsertClaim(_ context.Context, id uuid.UUID, links ClaimLinks, c Claim) error {
	if err := w.hook(schema.EntityClaim); err != nil {
		return err
	}
	w.tx.work.claims[id] = memClaim{Links: links, Claim: c}
	return nil
}

func (w *memWriter) InsertDiagnosis(_ context.Context, id, claimID uuid.UUID, d Diagnosis) error {
	if err := w.hook(schema.EntityDiagnosis); err != nil {
		return err
	}
	if _, ok := w.tx.work.claims[claimID]; !ok {
		return errors.New("diagnosis claim_id violates foreign key")
	}
	w.tx.work.diagnoses[id] = memDiagnosis{ClaimID: claimID, Diagnosis: d}
	return nil
}
