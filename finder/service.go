package finder

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// snapshot is one loaded dataset with its index and cache. It is replaced as a
// whole on reload and never modified after publication.
type snapshot struct {
	dataset  Dataset
	index    *Index
	cache    *QueryCache
	source   string
	loadedAt time.Time
}

// Service owns the loaded dataset and answers entity and category queries over it.
// Queries may run concurrently with Load; each sees either the old or the new dataset.
type Service struct {
	cfgMu sync.RWMutex
	cfg   Config

	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex

	logger *log.Logger
}

// NewService constructs a service with no dataset loaded.
func NewService(cfg Config, logger *log.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{cfg: cfg, logger: logger}
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration and rebuilds the index of the loaded
// dataset so that field resolution and cached results follow the new settings.
// It serializes with loads and Clear, so it always rebuilds the dataset that is
// current at the time and never restores one that was replaced.
func (s *Service) UpdateConfig(cfg Config) error {
	cfg.ApplyDefaults()
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	if err := s.installLocked(snap.dataset, snap.source); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return nil
}

// Load indexes ds and makes it the current dataset.
func (s *Service) Load(ds Dataset) error {
	return s.install(ds, "")
}

// LoadFile reads path with the configured loader options and loads it.
func (s *Service) LoadFile(path string) error {
	cfg := s.Config()
	ds, err := ReadDataset(path, cfg.LoadOptions())
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	return s.install(ds, path)
}

// Reload reads the file of the current dataset again, or the configured dataset
// path when nothing was loaded from a file.
func (s *Service) Reload() error {
	path := s.Source()
	if path == "" {
		path = s.Config().DatasetPath
	}
	if path == "" {
		return fmt.Errorf("reload: no dataset path configured")
	}
	return s.LoadFile(path)
}

func (s *Service) install(ds Dataset, source string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.installLocked(ds, source)
}

// installLocked indexes ds and publishes it. s.loadMu must be held.
func (s *Service) installLocked(ds Dataset, source string) error {
	if len(ds.Headers) == 0 {
		return ErrEmptyDataset
	}
	cfg := s.Config()
	start := time.Now()
	idx := BuildIndex(ds, IndexOptions{Candidates: cfg.FieldCandidates})
	s.current.Store(&snapshot{
		dataset:  ds,
		index:    idx,
		cache:    NewQueryCache(),
		source:   source,
		loadedAt: time.Now(),
	})
	s.logf("Loaded %d rows, %d columns (version %s) in %s", idx.Len(), len(idx.Headers), idx.Version(), time.Since(start).Round(time.Millisecond))
	for f := FieldSiteName; f < fieldCount; f++ {
		if !idx.Fields[f].Found() {
			s.logf("Column %s not found; treated as empty", f)
		}
	}
	return nil
}

// Clear drops the current dataset.
func (s *Service) Clear() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.current.Swap(nil) != nil {
		s.logf("Dataset cleared")
	}
}

// Loaded reports whether a dataset is available.
func (s *Service) Loaded() bool {
	return s.current.Load() != nil
}

// Index returns the current index, or nil.
func (s *Service) Index() *Index {
	if snap := s.current.Load(); snap != nil {
		return snap.index
	}
	return nil
}

// Source returns the file the current dataset was read from, if any.
func (s *Service) Source() string {
	if snap := s.current.Load(); snap != nil {
		return snap.source
	}
	return ""
}

// LoadedAt returns when the current dataset was installed.
func (s *Service) LoadedAt() time.Time {
	if snap := s.current.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

// Version returns the digest of the current dataset, or "" when none is loaded.
func (s *Service) Version() string {
	if snap := s.current.Load(); snap != nil {
		return snap.index.Version()
	}
	return ""
}

// CacheStats reports the query cache counters of the current dataset.
func (s *Service) CacheStats() CacheStats {
	if snap := s.current.Load(); snap != nil {
		return snap.cache.Stats()
	}
	return CacheStats{}
}

func (s *Service) locateOptions(cfg Config) LocateOptions {
	return LocateOptions{
		Priority:      cfg.Priority(),
		Weights:       cfg.Weights,
		MinQueryLen:   cfg.MinQueryLen,
		MaxCandidates: cfg.MaxCandidates,
	}
}

// EntityCandidates returns every ranked locator match for query, up to MaxCandidates.
func (s *Service) EntityCandidates(query string) []EntityMatch {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	cfg := s.Config()
	q := SearchKey(query)
	if utf8.RuneCountInString(q) < cfg.MinQueryLen {
		return nil
	}
	return cached(snap.cache, KindEntity, q, func() []EntityMatch {
		return Locate(snap.index, q, s.locateOptions(cfg))
	})
}

// SearchEntities returns up to limit suggestion cards for query. A limit of zero
// uses the configured display limit.
func (s *Service) SearchEntities(query string, limit int) []EntitySuggestion {
	cfg := s.Config()
	if limit <= 0 {
		limit = cfg.DisplayLimit
	}
	return Suggest(s.EntityCandidates(query), query, limit, cfg.ClosedMarkers)
}

// CategoryMatches returns every header group matching query, ranked by coverage.
func (s *Service) CategoryMatches(query string) []CategoryMatch {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	cfg := s.Config()
	q := SearchKey(query)
	if utf8.RuneCountInString(q) < cfg.MinQueryLen {
		return nil
	}
	return cached(snap.cache, KindCategory, q, func() []CategoryMatch {
		return SearchCategories(snap.index, q, CategoryOptions{
			AllowList:   cfg.CategoryAllowList,
			MinQueryLen: cfg.MinQueryLen,
		})
	})
}

// SearchCategories returns up to limit category cards for query. A limit of zero
// uses the configured display limit.
func (s *Service) SearchCategories(query string, limit int) []CategorySuggestion {
	cfg := s.Config()
	if limit <= 0 {
		limit = cfg.DisplayLimit
	}
	return SuggestCategories(s.CategoryMatches(query), limit, cfg.TopMunicipalities)
}

// LookupEntity returns the first record with key.
func (s *Service) LookupEntity(key EntityKey) (*RowRecord, bool) {
	return s.Index().Lookup(key)
}

// SelectEntity returns the one-row selection of the first record with key.
// Suggestion cards select their own row through EntitySuggestion.Selection or
// SelectEntityAt, since several rows may share a key.
func (s *Service) SelectEntity(key EntityKey) (Selection, bool) {
	rec, ok := s.LookupEntity(key)
	if !ok {
		return Selection{}, false
	}
	return Selection{Records: []*RowRecord{rec}}, true
}

// SelectEntityAt returns the one-row selection of the record at pos, provided
// it still carries key. The check fails after a reload reorders the dataset.
func (s *Service) SelectEntityAt(key EntityKey, pos int) (Selection, bool) {
	rec, ok := s.Index().RecordAt(pos)
	if !ok || rec.Key != key {
		return Selection{}, false
	}
	return Selection{Records: []*RowRecord{rec}}, true
}

// SelectCategory returns the rows with data in the group labelled base, plus the
// group's headers as extra columns.
func (s *Service) SelectCategory(base string) (Selection, bool) {
	m, ok := CategoryByLabel(s.Index(), base)
	if !ok {
		return Selection{}, false
	}
	return m.Selection(), true
}

// Summary computes the KPIs of the whole dataset.
func (s *Service) Summary() Summary {
	idx := s.Index()
	if idx == nil {
		return Summary{}
	}
	return Summarize(idx.Records)
}

// Municipalities lists the municipalities of the current dataset.
func (s *Service) Municipalities() []string {
	return Municipalities(s.Index())
}

// FilterByMunicipality selects the records of one municipality.
func (s *Service) FilterByMunicipality(name string) Selection {
	return Selection{Records: FilterByMunicipality(s.Index(), name)}
}

// Request is one stamped query from a UI.
type Request struct {
	Seq   uint64    `json:"seq"`
	Kind  QueryKind `json:"kind"`
	Text  string    `json:"text"`
	Limit int       `json:"limit,omitempty"`
}

// Response carries the results of a Request with its stamp so the caller can drop
// responses older than the one on screen.
type Response struct {
	Seq        uint64               `json:"seq"`
	Kind       QueryKind            `json:"kind"`
	Query      string               `json:"query"`
	Version    string               `json:"version"`
	Entities   []EntitySuggestion   `json:"entities,omitempty"`
	Categories []CategorySuggestion `json:"categories,omitempty"`
}

// Query answers req synchronously. Unknown kinds yield an empty response.
func (s *Service) Query(req Request) Response {
	resp := Response{
		Seq:     req.Seq,
		Kind:    req.Kind,
		Query:   SearchKey(req.Text),
		Version: s.Version(),
	}
	switch req.Kind {
	case KindEntity:
		resp.Entities = s.SearchEntities(req.Text, req.Limit)
	case KindCategory:
		resp.Categories = s.SearchCategories(req.Text, req.Limit)
	}
	return resp
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
