// Skyframe display: polls the configured flight feed and alternates between
// a flight-information carousel and a photo slideshow when the sky is empty.
//
// All state machines are driven from the Bubble Tea update loop: poll
// completions, carousel ticks and slideshow timers arrive as messages, so
// every mutation happens on one logical thread of control.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/skyframe/internal/db"
	"github.com/unklstewy/skyframe/internal/display"
	"github.com/unklstewy/skyframe/internal/poller"
	"github.com/unklstewy/skyframe/internal/slideshow"
	"github.com/unklstewy/skyframe/pkg/config"
	"github.com/unklstewy/skyframe/pkg/feed"
)

var configPath = flag.String("config", "configs/config.json", "Path to configuration file")

type model struct {
	cfg *config.Config

	controller *display.Controller
	show       *slideshow.Engine
	loader     slideshow.Loader

	polls <-chan poller.Result

	lastSource string
	lastUpdate time.Time
	lastErr    error

	width  int
	height int
}

// Messages feeding the state machines.
type (
	pollMsg         poller.Result
	carouselTickMsg time.Time
	armExpiredMsg   struct{}
	crossfadeDone   struct{}
	preloadDoneMsg  struct {
		src string
		err error
	}
	cornerTickMsg time.Time
	driftTickMsg  time.Time
)

func waitForPoll(polls <-chan poller.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-polls
		if !ok {
			return tea.Quit()
		}
		return pollMsg(r)
	}
}

func (m model) carouselTick() tea.Cmd {
	d := time.Duration(m.cfg.Display.CarouselSeconds) * time.Second
	if d <= 0 {
		d = 15 * time.Second
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return carouselTickMsg(t)
	})
}

func cornerTick() tea.Cmd {
	return tea.Tick(slideshow.CornerTogglePeriod, func(t time.Time) tea.Msg {
		return cornerTickMsg(t)
	})
}

func driftTick() tea.Cmd {
	return tea.Tick(slideshow.DriftPeriod, func(t time.Time) tea.Msg {
		return driftTickMsg(t)
	})
}

// preload loads the hidden layer's photo off the update loop and reports
// completion. Success and failure both count as ready.
func (m model) preload() tea.Cmd {
	photo, ok := m.show.HiddenPhoto()
	if !ok {
		return nil
	}
	loader := m.loader
	src := photo.Src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := loader.Load(ctx, src)
		return preloadDoneMsg{src: src, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForPoll(m.polls),
		m.carouselTick(),
		cornerTick(),
		driftTick(),
		m.preload(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "right", "n":
			m.controller.Select((m.controller.Index() + 1) % max(len(m.controller.Flights()), 1))
		case "left", "p":
			n := len(m.controller.Flights())
			if n > 0 {
				m.controller.Select((m.controller.Index() + n - 1) % n)
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pollMsg:
		r := poller.Result(msg)
		m.controller.Apply(r)
		m.lastErr = r.Err
		if r.Err == nil {
			m.lastSource = r.Snapshot.Source
			m.lastUpdate = time.UnixMilli(r.Snapshot.Timestamp)
		}
		return m, waitForPoll(m.polls)

	case carouselTickMsg:
		m.controller.AdvanceCarousel()
		return m, m.carouselTick()

	case preloadDoneMsg:
		if msg.err != nil {
			log.Printf("[slideshow] preload of %s failed: %v", msg.src, msg.err)
		}
		m.show.PreloadDone(msg.src)
		if m.show.Armed() {
			return m, tea.Tick(m.show.Interval(), func(time.Time) tea.Msg {
				return armExpiredMsg{}
			})
		}
		return m, nil

	case armExpiredMsg:
		m.show.BeginTransition()
		if !m.show.Transitioning() {
			return m, nil
		}
		return m, tea.Tick(m.show.Crossfade(), func(time.Time) tea.Msg {
			return crossfadeDone{}
		})

	case crossfadeDone:
		m.show.CompleteTransition()
		return m, m.preload()

	case cornerTickMsg:
		m.show.ToggleCorners()
		return m, cornerTick()

	case driftTickMsg:
		m.show.RecomputeDrift()
		return m, driftTick()
	}

	return m, nil
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	provider, err := feed.New(cfg.Feed)
	if err != nil {
		log.Fatalf("Failed to build feed provider: %v", err)
	}
	defer provider.Close()

	photos, showCfg := loadPhotos(cfg)

	show := slideshow.New(photos, slideshow.Options{
		Shuffle:   showCfg.Shuffle,
		Interval:  time.Duration(showCfg.IntervalMs) * time.Millisecond,
		Crossfade: time.Duration(cfg.Slideshow.CrossfadeMs) * time.Millisecond,
	})

	p := poller.New(provider, cfg.Feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	m := model{
		cfg:        cfg,
		controller: display.New(cfg.Display.EmptyStreakThreshold),
		show:       show,
		loader:     slideshow.NewHTTPLoader(0),
		polls:      p.Results(),
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadPhotos reads the photo list and display settings from the database,
// falling back to the config file's slideshow section when no database is
// reachable. The display treats both as read-only inputs.
func loadPhotos(cfg *config.Config) ([]slideshow.Photo, config.SlideshowConfig) {
	showCfg := cfg.Slideshow

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Printf("[skyframe] database unavailable, slideshow disabled: %v", err)
		return nil, showCfg
	}
	defer database.Close()

	ctx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelLoad()

	repo := db.NewPhotoRepository(database)

	records, err := repo.List(ctx)
	if err != nil {
		log.Printf("[skyframe] failed to load photos: %v", err)
		return nil, showCfg
	}

	photos := make([]slideshow.Photo, 0, len(records))
	for _, rec := range records {
		photos = append(photos, rec.Slideshow())
	}

	if settings, err := repo.GetSettings(ctx); err == nil {
		showCfg.IntervalMs = settings.IntervalMs
		showCfg.Shuffle = settings.Shuffle
		showCfg.FitMode = settings.FitMode
	}

	return photos, showCfg
}
