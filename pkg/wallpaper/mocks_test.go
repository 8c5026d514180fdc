package wallpaper

import (
	"context"
	"fmt"
	"sync"

	"github.com/dixieflatline76/rngpaper/pkg/history"
	"github.com/dixieflatline76/rngpaper/pkg/wallhaven"
	"github.com/stretchr/testify/mock"
)

// MockDesktop implements Desktop for testing.
type MockDesktop struct {
	mock.Mock
}

func (m *MockDesktop) SetWallpaper(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockDesktop) CurrentWallpaper() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// MockRecorder implements Recorder for testing.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, e history.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// recordingDesktop is a Desktop that remembers what it was given.
type recordingDesktop struct {
	mu      sync.Mutex
	current string
	set     []string
}

func (d *recordingDesktop) SetWallpaper(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = path
	d.set = append(d.set, path)
	return nil
}

func (d *recordingDesktop) CurrentWallpaper() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

func (d *recordingDesktop) history() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.set...)
}

// fakeSearcher serves canned pages. Key 0 is the implicit first page.
type fakeSearcher struct {
	mu      sync.Mutex
	pages   map[int]wallhaven.Page
	err     error
	calls   []int
	queries []wallhaven.Query
}

func (f *fakeSearcher) Search(ctx context.Context, q wallhaven.Query, page int) (wallhaven.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	f.queries = append(f.queries, q)
	if f.err != nil {
		return wallhaven.Page{}, f.err
	}
	p, ok := f.pages[page]
	if !ok {
		return wallhaven.Page{}, fmt.Errorf("unexpected page %d", page)
	}
	return p, nil
}

func (f *fakeSearcher) requestedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// recordingNotifier collects change notifications.
type recordingNotifier struct {
	mu      sync.Mutex
	results []Result
}

func (n *recordingNotifier) WallpaperChanged(r Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

func items(ids ...string) []wallhaven.Item {
	var out []wallhaven.Item
	for _, id := range ids {
		out = append(out, wallhaven.Item{ID: id, Path: "https://w.wallhaven.cc/full/xx/wallhaven-" + id + ".jpg"})
	}
	return out
}

// fixedIntn returns a random source that always answers v clamped to n-1.
func fixedIntn(v int) func(int) int {
	return func(n int) int {
		if v >= n {
			return n - 1
		}
		return v
	}
}
