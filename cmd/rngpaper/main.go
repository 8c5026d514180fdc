package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/api"
	"github.com/dixieflatline76/rngpaper/pkg/history"
	"github.com/dixieflatline76/rngpaper/pkg/hotkey"
	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"github.com/dixieflatline76/rngpaper/pkg/wallhaven"
	"github.com/dixieflatline76/rngpaper/pkg/wallpaper"
	"github.com/dixieflatline76/rngpaper/util"
	"github.com/dixieflatline76/rngpaper/util/log"
	"golang.design/x/hotkey/mainthread"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHistoryCount = 10
	updateCheckTimeout  = 15 * time.Second
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [command]

Commands:
  run                 run in the background and change the wallpaper on hotkey, timer or API (default)
  change              change the wallpaper once
  cache               list the cached wallpapers
  empty-cache         remove every cached wallpaper
  history [n]         show the last n changes (default %d)
  set-api-key <key>   store the wallhaven API key in the OS keyring ("" removes it)
  version             print the version and check for updates
`, config.AppName, defaultHistoryCount)
}

func main() {
	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run":
		// Hotkey registration needs the main thread on macOS.
		mainthread.Init(runDaemon)
		return
	case "change":
		err = runChange()
	case "cache":
		err = runListCache()
	case "empty-cache":
		err = runEmptyCache()
	case "history":
		n := defaultHistoryCount
		if len(args) > 0 {
			n, err = strconv.Atoi(args[0])
			if err != nil || n < 1 {
				log.Fatalf("invalid history count %q", args[0])
			}
		}
		err = runHistory(n)
	case "set-api-key":
		if len(args) != 1 {
			usage()
			os.Exit(2)
		}
		err = settings.SaveAPIKey(args[0])
	case "version":
		runVersion()
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// app holds the wired components shared by the daemon and the one-shot commands.
type app struct {
	holder  *settings.Holder
	cache   *wallpaper.CacheStore
	history *history.Store
	changer *wallpaper.Changer
}

func newApp() (*app, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	holder, err := settings.LoadHolder(path)
	if err != nil {
		return nil, err
	}
	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}

	httpClient := wallhaven.NewHTTPClient(config.UserAgent, config.HTTPClientTimeout)
	a := &app{
		holder: holder,
		cache:  wallpaper.NewCacheStore(cacheDir, httpClient),
	}

	opts := []wallpaper.ChangerOption{wallpaper.WithFitter(wallpaper.NewFitter(cacheDir))}
	if a.history, err = openHistory(); err != nil {
		log.Printf("History disabled: %v", err)
	} else {
		opts = append(opts, wallpaper.WithRecorder(a.history))
	}

	a.changer = wallpaper.NewChanger(holder, wallhaven.NewClient(httpClient), a.cache, wallpaper.NewDesktop(), opts...)
	return a, nil
}

func openHistory() (*history.Store, error) {
	dir, err := config.HistoryDir()
	if err != nil {
		return nil, err
	}
	return history.Open(dir)
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Printf("Failed to close history: %v", err)
		}
	}
}

// historyReader keeps a missing store a nil interface.
func (a *app) historyReader() api.History {
	if a.history == nil {
		return nil
	}
	return a.history
}

func runDaemon() {
	ok, err := acquireLock()
	if err != nil {
		log.Fatalf("Failed to acquire single-instance lock: %v", err)
	}
	if !ok {
		log.Fatalf("Another instance of %s is already running.", config.AppName)
	}
	defer releaseLock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		log.Fatalf("Failed to start %s: %v", config.AppName, err)
	}
	defer a.close()

	snap := a.holder.Snapshot()
	log.Printf("%s %s starting (collections %v, every %v)", config.AppName, config.AppVersion, snap.Collections, snap.Interval)

	a.changer.Start(ctx)
	defer a.changer.Stop()

	scheduler := wallpaper.NewScheduler(a.holder, a.changer.Trigger)
	a.holder.OnChange(func(settings.Snapshot) { scheduler.Reset() })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(optional("Settings reload", func() error {
		return a.holder.Watch(gctx)
	}))
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})
	g.Go(optional("Hotkey", func() error {
		return hotkey.Run(gctx, a.holder, func() { a.changer.Trigger(wallpaper.SourceHotkey) })
	}))
	if snap.ControlAddr != "" {
		srv := api.NewServer(a.changer, a.cache, a.historyReader())
		a.changer.SetNotifier(srv)
		g.Go(optional("Control API", func() error {
			return srv.Start(gctx, snap.ControlAddr)
		}))
	}
	if snap.CheckUpdates {
		g.Go(func() error {
			checkUpdates(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("Shutting down: %v", err)
	}
	log.Printf("%s stopped.", config.AppName)
}

// optional wraps a daemon component whose failure is logged and leaves the rest running.
func optional(name string, fn func() error) func() error {
	return func() error {
		if err := fn(); err != nil {
			log.Printf("%s disabled: %v", name, err)
		}
		return nil
	}
}

// runChange asks a running daemon to change the wallpaper and falls back to changing it here.
func runChange() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if addr := a.holder.Snapshot().ControlAddr; addr != "" {
		err := newControlClient(addr).Change()
		if err == nil {
			fmt.Println("Change queued by the running instance.")
			return nil
		}
		if !errors.Is(err, errNoDaemon) {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	result, err := a.changer.ChangeNow(ctx, wallpaper.SourceCLI)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) -> %s\n", result.Item.ShortURL, result.Tag, result.LocalPath)
	return nil
}

func runEmptyCache() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if addr := a.holder.Snapshot().ControlAddr; addr != "" {
		err := newControlClient(addr).EmptyCache()
		if err == nil || !errors.Is(err, errNoDaemon) {
			return err
		}
	}
	return a.changer.EmptyCache()
}

func runListCache() error {
	dir, err := config.CacheDir()
	if err != nil {
		return err
	}
	entries, err := wallpaper.NewCacheStore(dir, nil).Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %8d KiB  %s\n", e.ModTime.Local().Format(time.DateTime), e.Size/1024, e.Name)
	}
	return nil
}

// runHistory reads the store directly, or through the daemon when it holds the store open.
func runHistory(n int) error {
	var entries []history.Entry
	store, err := openHistory()
	if err == nil {
		defer store.Close()
		entries, err = store.Recent(context.Background(), n)
	} else {
		log.Debugf("Reading history through the running instance: %v", err)
		path, perr := config.ConfigPath()
		if perr != nil {
			return perr
		}
		snap, perr := settings.Load(path)
		if perr != nil {
			return perr
		}
		if snap.ControlAddr == "" {
			return err
		}
		entries, err = newControlClient(snap.ControlAddr).History(n)
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%s  %-8s %-12s %s  %s\n", e.At.Local().Format(time.DateTime), e.Source, e.Tag, e.ShortURL, e.LocalPath)
	}
	return nil
}

func runVersion() {
	fmt.Printf("%s %s\n", config.AppName, config.AppVersion)
	ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
	defer cancel()
	res, err := util.NewUpdateChecker(nil).Check(ctx)
	if err != nil {
		fmt.Printf("Update check failed: %v\n", err)
		return
	}
	if res.UpdateAvailable {
		fmt.Printf("Update available: %s (%s)\n", res.LatestVersion, res.ReleaseURL)
	}
}

func checkUpdates(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, updateCheckTimeout)
	defer cancel()
	res, err := util.NewUpdateChecker(nil).Check(ctx)
	if err != nil {
		log.Printf("Update check failed: %v", err)
		return
	}
	if res.UpdateAvailable {
		log.Printf("Update available: %s -> %s (%s)", res.CurrentVersion, res.LatestVersion, res.ReleaseURL)
	}
}
