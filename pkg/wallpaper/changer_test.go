package wallpaper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/pkg/history"
	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"github.com/dixieflatline76/rngpaper/pkg/wallhaven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSnapshot() settings.Snapshot {
	return settings.Snapshot{
		Collections:     []string{"@arkas"},
		Categories:      settings.Categories{Anime: true},
		Purity:          settings.Purity{SFW: true},
		Orientation:     settings.Landscape,
		ImageResolution: "1920x1080",
		MaxEmptyRetries: 3,
		Workers:         2,
		ChangeTimeout:   10 * time.Second,
	}
}

// wallhavenServer serves a one-page search result for two images plus the images themselves.
type wallhavenServer struct {
	*httptest.Server
	mu        sync.Mutex
	queries   []url.Values
	downloads map[string]int
}

func newWallhavenServer(t *testing.T) *wallhavenServer {
	t.Helper()
	ws := &wallhavenServer{downloads: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		ws.mu.Lock()
		ws.queries = append(ws.queries, r.URL.Query())
		ws.mu.Unlock()

		resp := map[string]any{
			"data": []map[string]string{
				{"id": "one", "path": ws.URL + "/full/on/wallhaven-one.jpg"},
				{"id": "two", "path": ws.URL + "/full/tw/wallhaven-two.jpg"},
			},
			"meta": map[string]int{"last_page": 1},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/full/", func(w http.ResponseWriter, r *http.Request) {
		ws.mu.Lock()
		ws.downloads[r.URL.Path]++
		ws.mu.Unlock()
		_, _ = w.Write([]byte("image:" + r.URL.Path))
	})
	ws.Server = httptest.NewServer(mux)
	t.Cleanup(ws.Close)
	return ws
}

func newTestChanger(t *testing.T, ws *wallhavenServer, desktop Desktop, opts ...ChangerOption) (*Changer, *CacheStore) {
	t.Helper()
	client := wallhaven.NewClient(ws.Client(), wallhaven.WithSearchURL(ws.URL+"/api/v1/search"), wallhaven.WithLimiter(nil))
	cache := NewCacheStore(t.TempDir(), ws.Client())
	opts = append([]ChangerOption{WithEmptyPagesBackoff(time.Millisecond)}, opts...)
	return NewChanger(settings.NewHolder("", testSnapshot()), client, cache, desktop, opts...), cache
}

func TestChangeNowEndToEnd(t *testing.T) {
	ws := newWallhavenServer(t)
	desktop := &recordingDesktop{}
	counter := 0
	roundRobin := func(n int) int {
		if n == 1 {
			return 0
		}
		counter++
		return counter % n
	}
	changer, cache := newTestChanger(t, ws, desktop, WithRandom(roundRobin))

	for range 6 {
		_, err := changer.ChangeNow(context.Background(), SourceCLI)
		require.NoError(t, err)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, q := range ws.queries {
		assert.Equal(t, "@arkas", q.Get("q"))
		assert.Equal(t, "010", q.Get("categories"))
		assert.Equal(t, "100", q.Get("purity"))
		assert.False(t, q.Has("page"), "a single result page is never requested by number")
		assert.False(t, q.Has("apikey"))
	}
	assert.Len(t, ws.queries, 6)

	set := map[string]bool{}
	for _, p := range desktop.history() {
		set[p] = true
	}
	assert.True(t, set[filepath.Join(cache.Dir(), "wallhaven-one.jpg")], "first item reachable")
	assert.True(t, set[filepath.Join(cache.Dir(), "wallhaven-two.jpg")], "second item reachable")

	for path, n := range ws.downloads {
		assert.Equal(t, 1, n, "%s downloaded more than once", path)
	}
}

func TestChangeNowDefaultRandomReachesEveryItem(t *testing.T) {
	ws := newWallhavenServer(t)
	desktop := &recordingDesktop{}
	changer, cache := newTestChanger(t, ws, desktop)

	one := filepath.Join(cache.Dir(), "wallhaven-one.jpg")
	two := filepath.Join(cache.Dir(), "wallhaven-two.jpg")
	seen := map[string]bool{}
	for i := 0; i < 200 && !(seen[one] && seen[two]); i++ {
		result, err := changer.ChangeNow(context.Background(), SourceCLI)
		require.NoError(t, err)
		seen[result.LocalPath] = true
	}

	assert.True(t, seen[one], "first item never chosen")
	assert.True(t, seen[two], "second item never chosen")
	assert.Len(t, seen, 2)
}

func TestChangeNowKeepsPreviousWallpaper(t *testing.T) {
	ws := newWallhavenServer(t)
	previous := filepath.Join(t.TempDir(), "previous.jpg")
	require.NoError(t, os.WriteFile(previous, []byte("old"), 0o644))

	desktop := new(MockDesktop)
	desktop.On("CurrentWallpaper").Return(previous, nil)
	desktop.On("SetWallpaper", mock.AnythingOfType("string")).Return(nil)

	changer, _ := newTestChanger(t, ws, desktop, WithRandom(fixedIntn(0)))
	result, err := changer.ChangeNow(context.Background(), SourceHotkey)
	require.NoError(t, err)

	assert.Equal(t, previous, result.Previous)
	assert.Equal(t, "one", result.Item.ID)
	assert.Equal(t, SourceHotkey, result.Source)
	assert.NotEmpty(t, result.ID)
	_, statErr := os.Stat(previous)
	assert.NoError(t, statErr, "the previous wallpaper file must survive a change")
	desktop.AssertCalled(t, "SetWallpaper", result.LocalPath)
}

func TestChangeNowRecordsAndNotifies(t *testing.T) {
	ws := newWallhavenServer(t)
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(e history.Entry) bool {
		return e.ItemID == "two" && e.Tag == "@arkas" && e.Source == SourceAPI
	})).Return(nil).Once()
	notifier := &recordingNotifier{}

	changer, _ := newTestChanger(t, ws, &recordingDesktop{}, WithRandom(fixedIntn(1)), WithRecorder(recorder), WithNotifier(notifier))
	_, err := changer.ChangeNow(context.Background(), SourceAPI)
	require.NoError(t, err)

	recorder.AssertExpectations(t)
	assert.Equal(t, 1, notifier.count())
	assert.Equal(t, 1, changer.Stats().Applied)
}

func TestChangeNowRecorderFailureIsNotFatal(t *testing.T) {
	ws := newWallhavenServer(t)
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	changer, _ := newTestChanger(t, ws, &recordingDesktop{}, WithRecorder(recorder))
	_, err := changer.ChangeNow(context.Background(), SourceCLI)
	assert.NoError(t, err)
}

func TestChangeNowCurrentWallpaperUnknown(t *testing.T) {
	ws := newWallhavenServer(t)
	desktop := new(MockDesktop)
	desktop.On("CurrentWallpaper").Return("", fmt.Errorf("not supported"))
	desktop.On("SetWallpaper", mock.Anything).Return(nil)

	changer, _ := newTestChanger(t, ws, desktop)
	result, err := changer.ChangeNow(context.Background(), SourceCLI)
	require.NoError(t, err)
	assert.Empty(t, result.Previous)
}

func TestChangeNowAbortsBeforeSetWallpaper(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("%w: offline", errkind.ErrNetwork)}
	desktop := new(MockDesktop)

	changer := NewChanger(settings.NewHolder("", testSnapshot()), searcher, NewCacheStore(t.TempDir(), nil), desktop)
	_, err := changer.ChangeNow(context.Background(), SourceCLI)
	assert.ErrorIs(t, err, errkind.ErrNetwork)
	desktop.AssertNotCalled(t, "SetWallpaper", mock.Anything)
}

func TestChangeNowExhausted(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int]wallhaven.Page{0: {TotalPages: 0}}}
	desktop := new(MockDesktop)

	changer := NewChanger(settings.NewHolder("", testSnapshot()), searcher, NewCacheStore(t.TempDir(), nil), desktop,
		WithEmptyPagesBackoff(time.Millisecond))
	_, err := changer.ChangeNow(context.Background(), SourceCLI)
	assert.ErrorIs(t, err, errkind.ErrExhausted)
	assert.Len(t, searcher.requestedPages(), testSnapshot().MaxEmptyRetries+1)
	desktop.AssertNotCalled(t, "SetWallpaper", mock.Anything)
}

func TestTriggerRunsAsynchronously(t *testing.T) {
	ws := newWallhavenServer(t)
	desktop := &recordingDesktop{}
	notifier := &recordingNotifier{}
	changer, _ := newTestChanger(t, ws, desktop, WithNotifier(notifier))

	assert.False(t, changer.Trigger(SourceHotkey), "trigger before start is refused")

	changer.Start(context.Background())
	defer changer.Stop()

	assert.True(t, changer.Trigger(SourceHotkey))
	assert.True(t, changer.Trigger(SourceTimer))
	assert.Eventually(t, func() bool { return notifier.count() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, desktop.history(), 2)
}

func TestTriggerAfterStop(t *testing.T) {
	ws := newWallhavenServer(t)
	changer, _ := newTestChanger(t, ws, &recordingDesktop{})
	changer.Start(context.Background())
	changer.Stop()
	assert.False(t, changer.Trigger(SourceHotkey))
}

func TestChangerEmptyCache(t *testing.T) {
	ws := newWallhavenServer(t)
	changer, cache := newTestChanger(t, ws, &recordingDesktop{})
	_, err := changer.ChangeNow(context.Background(), SourceCLI)
	require.NoError(t, err)

	require.NoError(t, changer.EmptyCache())
	entries, err := cache.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChangeFitsToDetectedScreen(t *testing.T) {
	ws := newWallhavenServer(t)
	desktop := &recordingDesktop{}
	client := wallhaven.NewClient(ws.Client(), wallhaven.WithSearchURL(ws.URL+"/api/v1/search"), wallhaven.WithLimiter(nil))
	cache := NewCacheStore(t.TempDir(), ws.Client())

	snap := testSnapshot()
	snap.Fit = true
	snap.ImageResolution = settings.ScreenResolution

	detected := 0
	changer := NewChanger(settings.NewHolder("", snap), client, cache, desktop,
		WithFitter(NewFitter(cache.Dir())),
		WithRandom(fixedIntn(0)),
		WithScreenSize(func() (int, int, error) {
			detected++
			return 0, 0, errors.New("no display")
		}))

	result, err := changer.ChangeNow(context.Background(), SourceCLI)
	require.NoError(t, err)
	assert.Equal(t, 1, detected)
	assert.Equal(t, filepath.Join(cache.Dir(), "wallhaven-one.jpg"), result.LocalPath, "unfitted original when the screen is unknown")
}
