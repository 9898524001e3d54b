// Package games holds the platform's mini-game registry: which games
// exist, what they are called, and how many players they take.
package games

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"github.com/openminis/party/pkg/config"
	"github.com/openminis/party/pkg/logger"
)

// Meta describes one playable mini-game.
type Meta struct {
	Id         string `json:"id"`
	Name       string `json:"name"` // the display name of the game
	MinPlayers int    `json:"min_players"`
	MaxPlayers int    `json:"max_players"`
}

type Library interface {
	GetAll() []Meta
	FindById(id string) Meta
	Has(id string) bool
	Scan()
}

// libConf is an optimized internal library configuration
type libConf struct {
	path      string
	supported map[string]struct{}
	verbose   bool
	watchMode bool
}

type library struct {
	config libConf
	// indicates metadata source existence
	hasSource bool
	// scan time
	lastScanDuration time.Duration
	// game id -> game meta, duplicate ids are merged
	games map[string]Meta
	log   *logger.Logger

	// to restrict parallel execution for file watch mode
	mu                sync.Mutex
	isScanning        bool
	isScanningDelayed bool
}

// Builtin is the set of games every install ships with; a metadata
// directory extends or overrides it.
func Builtin() []Meta {
	return []Meta{
		{Id: "tic-tac-toe", Name: "Tic-Tac-Toe", MinPlayers: 2, MaxPlayers: 2},
		{Id: "2048", Name: "2048", MinPlayers: 1, MaxPlayers: 2},
		{Id: "tetris", Name: "Tetris", MinPlayers: 1, MaxPlayers: 2},
		{Id: "snake", Name: "Snake", MinPlayers: 1, MaxPlayers: 4},
		{Id: "drawing", Name: "Drawing Board", MinPlayers: 1, MaxPlayers: 8},
		{Id: "memory", Name: "Memory", MinPlayers: 1, MaxPlayers: 2},
	}
}

func NewLib(conf config.Library, log *logger.Logger) Library {
	hasSource := conf.BasePath != ""
	dir := ""
	if hasSource {
		var err error
		if dir, err = filepath.Abs(conf.BasePath); err != nil {
			hasSource = false
			log.Error().Err(err).Str("dir", conf.BasePath).Msg("Lib has invalid source")
		}
	}

	if len(conf.Supported) == 0 {
		conf.Supported = []string{"json"}
	}

	lib := &library{
		config: libConf{
			path:      dir,
			supported: toMap(conf.Supported),
			verbose:   conf.Verbose,
			watchMode: conf.WatchMode,
		},
		games:     map[string]Meta{},
		hasSource: hasSource,
		log:       log,
	}

	for _, g := range Builtin() {
		lib.games[g.Id] = g
	}

	if conf.WatchMode && hasSource {
		go lib.watch()
	}

	return lib
}

func (lib *library) GetAll() []Meta {
	lib.mu.Lock()
	res := make([]Meta, 0, len(lib.games))
	for _, value := range lib.games {
		res = append(res, value)
	}
	lib.mu.Unlock()
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res
}

// FindById returns the game meta or a zero value when unknown.
func (lib *library) FindById(id string) Meta {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	return lib.games[id]
}

func (lib *library) Has(id string) bool {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	_, ok := lib.games[id]
	return ok
}

func (lib *library) Scan() {
	if !lib.hasSource {
		lib.log.Debug().Msg("Lib scan... skipped (no source)")
		return
	}

	// scan throttling
	lib.mu.Lock()
	if lib.isScanning {
		defer lib.mu.Unlock()
		lib.isScanningDelayed = true
		lib.log.Debug().Msg("Lib scan... delayed")
		return
	}
	lib.isScanning = true
	lib.mu.Unlock()

	lib.log.Debug().Msg("Lib scan... started")

	start := time.Now()
	var found []Meta
	dir := lib.config.path
	err := filepath.WalkDir(dir, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info == nil || info.IsDir() || !lib.isExtAllowed(path) {
			return nil
		}
		meta, err := readMeta(path)
		if err != nil {
			lib.log.Warn().Err(err).Str("file", path).Msg("Lib bad metadata file")
			return nil
		}
		found = append(found, meta)
		return nil
	})
	if err != nil {
		lib.log.Error().Err(err).Str("dir", dir).Msg("Lib scan... failed")
		// release the throttle or every later scan parks as delayed
		lib.mu.Lock()
		lib.isScanning = false
		lib.isScanningDelayed = false
		lib.mu.Unlock()
		return
	}

	lib.set(found)

	lib.lastScanDuration = time.Since(start)
	if lib.config.verbose {
		lib.dumpLibrary()
	}

	// run scan again if delayed
	lib.mu.Lock()
	defer lib.mu.Unlock()
	lib.isScanning = false
	if lib.isScanningDelayed {
		lib.isScanningDelayed = false
		go lib.Scan()
	}

	lib.log.Info().Msg("Lib scan... completed")
}

// watch adds the ability to rescan the entire library
// during filesystem changes in a watched directory.
func (lib *library) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		lib.log.Error().Err(err).Msg("Lib watcher has failed")
		return
	}

	done := make(chan bool)
	go func(repo *library) {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Create || event.Op == fsnotify.Remove || event.Op == fsnotify.Write {
					repo.Scan()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}(lib)

	if err = watcher.Add(lib.config.path); err != nil {
		lib.log.Error().Err(err).Msg("Lib watch error")
	}
	<-done
	_ = watcher.Close()
	lib.log.Info().Msg("Lib watch has ended")
}

func (lib *library) set(found []Meta) {
	res := make(map[string]Meta)
	for _, g := range Builtin() {
		res[g.Id] = g
	}
	for _, g := range found {
		res[g.Id] = g
	}
	lib.mu.Lock()
	lib.games = res
	lib.mu.Unlock()
}

func (lib *library) isExtAllowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := lib.config.supported[ext[1:]]
	return ok
}

// readMeta parses one metadata file; a missing id defaults to the
// file name without its extension.
func readMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, err
	}
	if meta.Id == "" {
		name := filepath.Base(path)
		meta.Id = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if meta.Name == "" {
		meta.Name = meta.Id
	}
	return meta, nil
}

// dumpLibrary printouts the current library snapshot of games
func (lib *library) dumpLibrary() {
	var list strings.Builder
	for _, game := range lib.GetAll() {
		list.WriteString("    " + game.Id + " (" + game.Name + ")\n")
	}
	lib.log.Debug().Msgf("Lib dump\n"+
		"--------------------------------------------\n"+
		"%v"+
		"--- games: %03d %26s ---\n"+
		"--------------------------------------------",
		list.String(), len(lib.games), lib.lastScanDuration)
}

func toMap(list []string) map[string]struct{} {
	res := make(map[string]struct{}, len(list))
	for _, s := range list {
		res[s] = struct{}{}
	}
	return res
}
