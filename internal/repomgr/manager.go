package repomgr

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seafrepo/internal/branch"
	"seafrepo/internal/commit"
	"seafrepo/internal/errors"
	"seafrepo/internal/objectstore"
	"seafrepo/internal/storage"
)

// Manager owns the ordered repo map and every metadata table of spec
// §6. Grounded on the teacher's LocalWorkspace field layout (a struct
// holding a *badger.DB, a content store, and a mutex-guarded map),
// generalized from one workspace to many named repos.
type Manager struct {
	seafDir   string
	db        *badger.DB
	logger    *zap.Logger
	chunkSize int
	cacheSize int
	kdfIters  int

	repos    *storage.BadgerStore
	deleted  *storage.BadgerStore
	passwds  *storage.BadgerStore
	keys     *storage.BadgerStore
	props    *storage.BadgerStore
	lanToks  *storage.BadgerStore
	tmpToks  *storage.BadgerStore
	merges   *storage.BadgerStore

	branches *branch.Registry

	mu    sync.RWMutex // guards the ordered map and per-repo locks
	order []string     // repo ids, kept sorted (spec: "balanced BST keyed by id")
	live  map[string]*Repo
	locks map[string]*sync.Mutex // per-repo mutating-operation lock (spec §5)

	stores map[string]*objectstore.Store // one object store namespace per repo

	checkoutTasks map[string]*CheckoutTask
}

// Options configures a Manager (spec §3 config carries chunk size,
// cache size, KDF iterations from internal/config.Config).
type Options struct {
	SeafDir   string
	ChunkSize int
	CacheSize int
	KDFIters  int
}

func NewManager(db *badger.DB, logger *zap.Logger, opts Options) *Manager {
	return &Manager{
		seafDir:       opts.SeafDir,
		db:            db,
		logger:        logger,
		chunkSize:     opts.ChunkSize,
		cacheSize:     opts.CacheSize,
		kdfIters:      opts.KDFIters,
		repos:         storage.NewBadgerStore(db, "repo"),
		deleted:       storage.NewBadgerStore(db, "deleted-repo"),
		passwds:       storage.NewBadgerStore(db, "repo-passwd"),
		keys:          storage.NewBadgerStore(db, "repo-keys"),
		props:         storage.NewBadgerStore(db, "repo-property"),
		lanToks:       storage.NewBadgerStore(db, "repo-lantoken"),
		tmpToks:       storage.NewBadgerStore(db, "repo-tmptoken"),
		merges:        storage.NewBadgerStore(db, "merge-info"),
		branches:      branch.NewRegistry(storage.NewBadgerStore(db, "branch")),
		live:          make(map[string]*Repo),
		locks:         make(map[string]*sync.Mutex),
		stores:        make(map[string]*objectstore.Store),
		checkoutTasks: make(map[string]*CheckoutTask),
	}
}

var repoIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsRepoIDValid mirrors the original's defensive UUID-shape check
// before any lookup (SUPPLEMENTED FEATURES).
func IsRepoIDValid(id string) bool {
	return repoIDPattern.MatchString(id)
}

// CreateNewRepo allocates a UUID, inserts an empty Repo record, and
// creates its default branch and object store namespace.
func (m *Manager) CreateNewRepo(name, desc string) (*Repo, error) {
	id := uuid.NewString()
	r := &Repo{ID: id, Name: name, Desc: desc, HeadBranch: branch.DefaultName, CreatedAt: time.Now()}

	if err := m.repos.Create(r); err != nil {
		return nil, fmt.Errorf("persisting new repo: %w", err)
	}
	if _, err := m.branches.Create(id, branch.DefaultName, ""); err != nil {
		return nil, fmt.Errorf("creating default branch: %w", err)
	}

	if _, err := m.objectStore(id); err != nil {
		return nil, err
	}

	m.addRepo(r)
	return r, nil
}

func (m *Manager) addRepo(r *Repo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.live[r.ID] = r
	m.locks[r.ID] = &sync.Mutex{}

	pos := sort.SearchStrings(m.order, r.ID)
	if pos < len(m.order) && m.order[pos] == r.ID {
		return
	}
	m.order = append(m.order, "")
	copy(m.order[pos+1:], m.order[pos:])
	m.order[pos] = r.ID
}

// GetRepo returns the live repo for id, or NotFound if it doesn't
// exist or has a pending tombstone.
func (m *Manager) GetRepo(id string) (*Repo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.live[id]
	if !ok || r.DeletePending {
		return nil, errors.NotFound(fmt.Sprintf("repo %s not found", id))
	}
	return r, nil
}

// ErrAmbiguousPrefix is returned by GetRepoPrefix when more than one
// live repo id starts with the given prefix (REDESIGN: the original
// silently picked the first match).
var ErrAmbiguousPrefix = errors.InputError("repo id prefix is ambiguous")

// GetRepoPrefix returns the unique repo whose id starts with prefix.
func (m *Manager) GetRepoPrefix(prefix string) (*Repo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := sort.SearchStrings(m.order, prefix)
	var match *Repo
	for i := start; i < len(m.order) && len(m.order[i]) >= len(prefix) && m.order[i][:len(prefix)] == prefix; i++ {
		r := m.live[m.order[i]]
		if r == nil || r.DeletePending {
			continue
		}
		if match != nil {
			return nil, ErrAmbiguousPrefix
		}
		match = r
	}
	if match == nil {
		return nil, errors.NotFound(fmt.Sprintf("no repo matches prefix %q", prefix))
	}
	return match, nil
}

func (m *Manager) RepoExists(id string) bool {
	_, err := m.GetRepo(id)
	return err == nil
}

// GetRepoList returns up to limit live repos starting at offset start,
// in id order.
func (m *Manager) GetRepoList(start, limit int) []*Repo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Repo
	for i := start; i < len(m.order) && len(out) < limit; i++ {
		if r := m.live[m.order[i]]; r != nil && !r.DeletePending {
			out = append(out, r)
		}
	}
	return out
}

// repoLock returns (creating if necessary) the per-repo mutating-
// operation lock (spec §5: "at-most-one mutating operation at a time").
func (m *Manager) repoLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// objectStore lazily opens the per-repo content-addressed store,
// rooted under seaf_dir/storage/<repo_id> (spec §6 filesystem layout:
// "object store under a sibling path").
func (m *Manager) objectStore(id string) (*objectstore.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s, nil
	}

	root := m.storagePath(id)
	s, err := objectstore.New(root, m.db, m.cacheSize, m.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("opening object store for %s: %w", id, err)
	}
	m.stores[id] = s
	return s, nil
}

func (m *Manager) ObjectStore(id string) (*objectstore.Store, error) {
	return m.objectStore(id)
}

func (m *Manager) storagePath(id string) string {
	return m.seafDir + "/storage/" + id
}

func (m *Manager) indexPath(id string) string {
	return m.seafDir + "/index/" + id
}

func (m *Manager) IndexPath(id string) string { return m.indexPath(id) }

// commitManager returns a *commit.Manager bound to id's object store,
// used by Reset/checkout-related helpers elsewhere in this package.
func (m *Manager) commitManager(id string) (*commit.Manager, error) {
	store, err := m.objectStore(id)
	if err != nil {
		return nil, err
	}
	return commit.NewManager(store), nil
}

// ensureDirs creates the seaf_dir subdirectories the manager writes
// into, matching the original's mkdir-on-first-use behavior.
func (m *Manager) ensureDirs() error {
	for _, dir := range []string{m.seafDir, m.seafDir + "/index", m.seafDir + "/storage"} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
