package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"eventmanager/internal/domain"
)

// memData is the state of memStore. Transactions work on a copy and swap it in on commit.
type memData struct {
	events       map[string]*domain.Event
	participants map[string][]*domain.Participant
	categories   map[string]*domain.Category
	images       map[string]*domain.Image
	users        map[string]*domain.User
}

func newMemData() *memData {
	return &memData{
		events:       map[string]*domain.Event{},
		participants: map[string][]*domain.Participant{},
		categories:   map[string]*domain.Category{},
		images:       map[string]*domain.Image{},
		users:        map[string]*domain.User{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.events {
		c.events[k] = cloneEvent(v)
	}
	for k, v := range d.participants {
		c.participants[k] = append([]*domain.Participant(nil), v...)
	}
	for k, v := range d.categories {
		cp := *v
		c.categories[k] = &cp
	}
	for k, v := range d.images {
		cp := *v
		c.images[k] = &cp
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

func cloneEvent(e *domain.Event) *domain.Event {
	return &domain.Event{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		DateTime:        e.DateTime,
		Location:        e.Location,
		CategoryID:      e.CategoryID,
		MaxParticipants: e.MaxParticipants,
		ImageURLs:       append([]string{}, e.ImageURLs...),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// memStore is an in-memory domain.Transactor. Transactions are serialized, which stands
// in for the event row lock taken by GetByIDForUpdate.
type memStore struct {
	mu     sync.Mutex
	txLock sync.Mutex
	data   *memData

	beginErr             error
	flushErr             error
	commitErr            error
	createParticipantErr error
	createImageErr       error
	// extraCount is added to CountByEventID inside transactions to simulate a write that
	// slipped past the in-memory check.
	extraCount int

	commits   atomic.Int32
	rollbacks atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{data: newMemData()}
}

func (s *memStore) access(fn func(d *memData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *memStore) snapshot() *memData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

func (s *memStore) Begin(ctx context.Context) (domain.Tx, error) {
	if s.beginErr != nil {
		return nil, fmt.Errorf("%w: begin: %w", domain.ErrTransaction, s.beginErr)
	}
	s.txLock.Lock()
	return &memTx{store: s, data: s.snapshot()}, nil
}

func (s *memStore) Events() domain.EventRepository { return &memEventRepo{access: s.access} }
func (s *memStore) Participants() domain.ParticipantRepository {
	return &memParticipantRepo{access: s.access}
}
func (s *memStore) Categories() domain.CategoryRepository { return &memCategoryRepo{access: s.access} }
func (s *memStore) Images() domain.ImageRepository        { return &memImageRepo{access: s.access} }

func (s *memStore) addUser(id, email string) {
	s.data.users[id] = &domain.User{ID: id, Email: email, FirstName: "First " + id, LastName: "Last " + id}
}

func (s *memStore) addCategory(id, name string) {
	s.data.categories[id] = &domain.Category{ID: id, Name: name}
}

func (s *memStore) addEvent(id, name, categoryID string, capacity int) {
	s.data.events[id] = &domain.Event{
		ID: id, Name: name, DateTime: time.Now().Add(24 * time.Hour), Location: "Berlin",
		CategoryID: categoryID, MaxParticipants: capacity, ImageURLs: []string{},
	}
}

type memTx struct {
	store *memStore
	data  *memData
	done  bool
}

func (t *memTx) access(fn func(d *memData) error) error { return fn(t.data) }

func (t *memTx) Events() domain.EventRepository { return &memEventRepo{access: t.access} }
func (t *memTx) Participants() domain.ParticipantRepository {
	return &memParticipantRepo{access: t.access, createErr: t.store.createParticipantErr, extraCount: t.store.extraCount}
}
func (t *memTx) Categories() domain.CategoryRepository { return &memCategoryRepo{access: t.access} }
func (t *memTx) Images() domain.ImageRepository {
	return &memImageRepo{access: t.access, createErr: t.store.createImageErr}
}
func (t *memTx) Users() domain.UserRepository { return &memUserRepo{access: t.access} }

func (t *memTx) Flush(ctx context.Context) error { return t.store.flushErr }

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	defer t.store.txLock.Unlock()
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.mu.Lock()
	t.store.data = t.data
	t.store.mu.Unlock()
	t.store.commits.Add(1)
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	t.store.txLock.Unlock()
	t.store.rollbacks.Add(1)
	return nil
}

type accessFunc func(fn func(d *memData) error) error

type memEventRepo struct{ access accessFunc }

func (r *memEventRepo) Create(ctx context.Context, e *domain.Event) error {
	return r.access(func(d *memData) error {
		for _, other := range d.events {
			if other.Name == e.Name {
				return domain.Conflictf("event name %q already exists", e.Name)
			}
		}
		if _, ok := d.categories[e.CategoryID]; !ok {
			return domain.NotFoundf("category %s", e.CategoryID)
		}
		d.events[e.ID] = cloneEvent(e)
		return nil
	})
}

func (r *memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var out *domain.Event
	err := r.access(func(d *memData) error {
		e, ok := d.events[id]
		if !ok {
			return domain.NotFoundf("event %s", id)
		}
		out = cloneEvent(e)
		return nil
	})
	return out, err
}

func (r *memEventRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *memEventRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var out []*domain.Event
	total := 0
	err := r.access(func(d *memData) error {
		all := make([]*domain.Event, 0, len(d.events))
		for _, e := range d.events {
			all = append(all, cloneEvent(e))
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].DateTime.Equal(all[j].DateTime) {
				return all[i].ID < all[j].ID
			}
			return all[i].DateTime.Before(all[j].DateTime)
		})
		total = len(all)
		start := min(params.Offset(), total)
		end := min(start+params.Limit(), total)
		out = all[start:end]
		return nil
	})
	return out, total, err
}

func (r *memEventRepo) Update(ctx context.Context, e *domain.Event) error {
	return r.access(func(d *memData) error {
		if _, ok := d.events[e.ID]; !ok {
			return domain.NotFoundf("event %s", e.ID)
		}
		for _, other := range d.events {
			if other.ID != e.ID && other.Name == e.Name {
				return domain.Conflictf("event name %q already exists", e.Name)
			}
		}
		d.events[e.ID] = cloneEvent(e)
		return nil
	})
}

func (r *memEventRepo) Delete(ctx context.Context, id string) error {
	return r.access(func(d *memData) error {
		if _, ok := d.events[id]; !ok {
			return domain.NotFoundf("event %s", id)
		}
		delete(d.events, id)
		delete(d.participants, id)
		for imgID, img := range d.images {
			if img.EventID == id {
				delete(d.images, imgID)
			}
		}
		return nil
	})
}

func (r *memEventRepo) ExistsWithCategory(ctx context.Context, categoryID string) (bool, error) {
	found := false
	err := r.access(func(d *memData) error {
		for _, e := range d.events {
			if e.CategoryID == categoryID {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *memEventRepo) AppendImageURL(ctx context.Context, eventID, url string) error {
	return r.access(func(d *memData) error {
		e, ok := d.events[eventID]
		if !ok {
			return domain.NotFoundf("event %s", eventID)
		}
		e.ImageURLs = append(e.ImageURLs, url)
		return nil
	})
}

func (r *memEventRepo) RemoveImageURL(ctx context.Context, eventID, url string) error {
	return r.access(func(d *memData) error {
		e, ok := d.events[eventID]
		if !ok {
			return domain.NotFoundf("event %s", eventID)
		}
		kept := e.ImageURLs[:0:0]
		for _, u := range e.ImageURLs {
			if u != url {
				kept = append(kept, u)
			}
		}
		e.ImageURLs = kept
		return nil
	})
}

type memParticipantRepo struct {
	access     accessFunc
	createErr  error
	extraCount int
}

func (r *memParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.access(func(d *memData) error {
		if _, ok := d.events[p.EventID]; !ok {
			return domain.NotFoundf("event %s", p.EventID)
		}
		for _, existing := range d.participants[p.EventID] {
			if existing.UserID == p.UserID {
				return domain.ErrDuplicateParticipant
			}
		}
		d.participants[p.EventID] = append(d.participants[p.EventID], p)
		return nil
	})
}

func (r *memParticipantRepo) Delete(ctx context.Context, eventID, userID string) error {
	return r.access(func(d *memData) error {
		ps := d.participants[eventID]
		for i, p := range ps {
			if p.UserID == userID {
				d.participants[eventID] = append(ps[:i:i], ps[i+1:]...)
				return nil
			}
		}
		return domain.NotFoundf("participant %s", userID)
	})
}

func (r *memParticipantRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	var out []*domain.Participant
	err := r.access(func(d *memData) error {
		out = append([]*domain.Participant{}, d.participants[eventID]...)
		return nil
	})
	return out, err
}

func (r *memParticipantRepo) ListPageByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Participant, int, error) {
	all, err := r.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	start := min(params.Offset(), len(all))
	end := min(start+params.Limit(), len(all))
	return all[start:end], len(all), nil
}

func (r *memParticipantRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	n := 0
	err := r.access(func(d *memData) error {
		n = len(d.participants[eventID]) + r.extraCount
		return nil
	})
	return n, err
}

func (r *memParticipantRepo) ListEventIDsByUserID(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.access(func(d *memData) error {
		for eventID, ps := range d.participants {
			for _, p := range ps {
				if p.UserID == userID {
					ids = append(ids, eventID)
				}
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

type memCategoryRepo struct{ access accessFunc }

func (r *memCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0)
	err := r.access(func(d *memData) error {
		for _, c := range d.categories {
			cp := *c
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *memCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var out *domain.Category
	err := r.access(func(d *memData) error {
		c, ok := d.categories[id]
		if !ok {
			return domain.NotFoundf("category %s", id)
		}
		cp := *c
		out = &cp
		return nil
	})
	return out, err
}

func (r *memCategoryRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Category, error) {
	return r.GetByID(ctx, id)
}

func (r *memCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return r.access(func(d *memData) error {
		for _, other := range d.categories {
			if other.Name == c.Name {
				return domain.Conflictf("category name %q already exists", c.Name)
			}
		}
		cp := *c
		d.categories[c.ID] = &cp
		return nil
	})
}

func (r *memCategoryRepo) Rename(ctx context.Context, id, name string) error {
	return r.access(func(d *memData) error {
		c, ok := d.categories[id]
		if !ok {
			return domain.NotFoundf("category %s", id)
		}
		for _, other := range d.categories {
			if other.ID != id && other.Name == name {
				return domain.Conflictf("category name %q already exists", name)
			}
		}
		c.Name = name
		return nil
	})
}

func (r *memCategoryRepo) Delete(ctx context.Context, id string) error {
	return r.access(func(d *memData) error {
		if _, ok := d.categories[id]; !ok {
			return domain.NotFoundf("category %s", id)
		}
		for _, e := range d.events {
			if e.CategoryID == id {
				return domain.ErrCategoryInUse
			}
		}
		delete(d.categories, id)
		return nil
	})
}

type memImageRepo struct {
	access    accessFunc
	createErr error
}

func (r *memImageRepo) Create(ctx context.Context, img *domain.Image) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.access(func(d *memData) error {
		cp := *img
		d.images[img.ID] = &cp
		return nil
	})
}

func (r *memImageRepo) GetByEventAndURL(ctx context.Context, eventID, url string) (*domain.Image, error) {
	var out *domain.Image
	err := r.access(func(d *memData) error {
		for _, img := range d.images {
			if img.EventID == eventID && img.URL == url {
				cp := *img
				out = &cp
				return nil
			}
		}
		return domain.NotFoundf("image %s", url)
	})
	return out, err
}

func (r *memImageRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Image, error) {
	out := make([]*domain.Image, 0)
	err := r.access(func(d *memData) error {
		for _, img := range d.images {
			if img.EventID == eventID {
				cp := *img
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *memImageRepo) Delete(ctx context.Context, id string) error {
	return r.access(func(d *memData) error {
		if _, ok := d.images[id]; !ok {
			return domain.NotFoundf("image %s", id)
		}
		delete(d.images, id)
		return nil
	})
}

type memUserRepo struct{ access accessFunc }

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.access(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return domain.NotFoundf("user %s", id)
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

type userKey struct{}

func asUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// ctxIdentity reads the acting user set by asUser.
type ctxIdentity struct{}

func (ctxIdentity) UserID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userKey{}).(string)
	if !ok || id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

type recordingEmailService struct {
	mu   sync.Mutex
	sent []*domain.RegistrationEmailData
	err  error
}

func (m *recordingEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, data)
	return nil
}

func (m *recordingEmailService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// memFileStorage keeps files keyed by URL. Read optionally blocks on gate.
type memFileStorage struct {
	mu        sync.Mutex
	files     map[string][]byte
	reads     atomic.Int32
	seq       int
	gate      chan struct{}
	saveErr   error
	deleteErr error
}

func newMemFileStorage() *memFileStorage {
	return &memFileStorage{files: map[string][]byte{}}
}

func (s *memFileStorage) URL(eventID, fileName string) string {
	return "/images/" + eventID + "/" + fileName
}

func (s *memFileStorage) put(eventID, fileName string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[s.URL(eventID, fileName)] = data
}

func (s *memFileStorage) has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[url]
	return ok
}

func (s *memFileStorage) Save(ctx context.Context, eventID string, r io.Reader, suggestedName string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	url := s.URL(eventID, fmt.Sprintf("%03d_%s", s.seq, suggestedName))
	s.files[url] = buf.Bytes()
	return url, nil
}

func (s *memFileStorage) Read(ctx context.Context, eventID, fileName string) ([]byte, error) {
	s.reads.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[s.URL(eventID, fileName)]
	if !ok {
		return nil, domain.NotFoundf("image file %s", fileName)
	}
	return data, nil
}

func (s *memFileStorage) Delete(ctx context.Context, url string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, url)
	return nil
}

type memCache struct {
	mu        sync.Mutex
	items     map[string][]byte
	getErr    error
	removeErr error
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Remove(ctx context.Context, key string) error {
	if c.removeErr != nil {
		return c.removeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}
