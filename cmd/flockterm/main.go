package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
)

// arrows indexed by heading octant, screen y grows downwards
var arrows = []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

type Term struct {
	screen        tcell.Screen
	width, height int
	sim           *flock.Simulation
	seed          uint64
	frame         time.Duration
}

func NewTerm(sim *flock.Simulation, seed uint64, frame time.Duration) (*Term, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	t := &Term{screen: screen, sim: sim, seed: seed, frame: frame}
	t.width, t.height = screen.Size()
	return t, nil
}

// cell maps an arena position to a terminal cell, keeping the last row for the status line.
func (t *Term) cell(x, y, w, h float64) (int, int) {
	rows := max(t.height-1, 1)
	col := int((x + w/2) / w * float64(t.width))
	row := int((y + h/2) / h * float64(rows))
	return min(max(col, 0), t.width-1), min(max(row, 0), rows-1)
}

func arrow(heading float64) rune {
	octant := int(math.Round(heading/(math.Pi/4))) % 8
	if octant < 0 {
		octant += 8
	}
	return arrows[octant]
}

func (t *Term) draw() {
	t.screen.Clear()
	snap := t.sim.Snapshot()

	style := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	for _, a := range snap.Agents {
		col, row := t.cell(a.Position.X, a.Position.Y, snap.Width, snap.Height)
		t.screen.SetContent(col, row, arrow(a.Heading), nil, style)
	}

	status := fmt.Sprintf(" tick %d | %s | %d agents | space: pause  r: restart  q: quit ",
		snap.Tick, snap.State, len(snap.Agents))
	statusStyle := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	for i, r := range []rune(status) {
		if i >= t.width {
			break
		}
		t.screen.SetContent(i, t.height-1, r, nil, statusStyle)
	}
	t.screen.Show()
}

// handleInput returns false when the user asked to quit.
func (t *Term) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			if t.sim.State() == flock.Paused {
				t.sim.Resume()
			} else {
				t.sim.Pause()
			}
		case 'r', 'R':
			t.seed++
			_ = t.sim.Restart(t.seed)
		}

	case *tcell.EventResize:
		t.width, t.height = t.screen.Size()
		t.screen.Sync()
	}
	return true
}

func (t *Term) run() error {
	ticker := time.NewTicker(t.frame)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !t.handleInput(ev) {
				return nil
			}
		case <-ticker.C:
			if _, err := t.sim.Tick(t.frame.Seconds()); err != nil {
				return err
			}
			t.draw()
		}
	}
}

func main() {
	configFile := flag.String("config", "", "flock config file (.json or .toml), defaults when empty")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed of the first run")
	workers := flag.Int("workers", 0, "worker goroutines per tick, 0 means one per CPU")
	population := flag.Int("n", 300, "number of agents, overrides the config file when > 0")
	fps := flag.Int("fps", 30, "frames per second")
	flag.Parse()

	cfg := flock.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = flock.LoadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	if *population > 0 {
		cfg.Population = *population
	}

	sim, err := flock.New(cfg, flock.WithWorkers(*workers), flock.WithSpatialIndex(true))
	if err != nil {
		log.Fatal(err)
	}
	defer sim.Close()
	if err := sim.Initialize(*seed); err != nil {
		log.Fatal(err)
	}

	term, err := NewTerm(sim, *seed, time.Second/time.Duration(max(*fps, 1)))
	if err != nil {
		log.Fatal(err)
	}
	err = term.run()
	term.screen.Fini()
	if err != nil {
		log.Fatal(err)
	}
}
