package simulation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/proto"
)

var (
	whiteImage      = ebiten.NewImage(3, 3)
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	radiusColor     = color.RGBA{R: 255, G: 80, B: 80, A: 60}
)

// Game is the ebiten host: it drives the flock actor one tick per frame and
// draws the latest snapshot the actor pushed.
type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	flockPID   *actor.PID
	snapshotCh chan *flock.Snapshot
	lastState  *flock.Snapshot
	paused     bool

	// running config and the one the panel edits for the next restart
	cfg  flock.Config
	next flock.Config
	seed uint64

	// UI Controls
	panel *ui.Panel

	widgetPopulation      *ui.Slider
	widgetCohesionRadius  *ui.Slider
	widgetCohesionFactor  *ui.Slider
	widgetAlignmentRadius *ui.Slider
	widgetAlignmentFactor *ui.Slider
	widgetRepulsionRadius *ui.Slider
	widgetRepulsionFactor *ui.Slider
	widgetMinSpeed        *ui.Slider
	widgetMaxSpeed        *ui.Slider
	widgetMaxAcceleration *ui.Slider
	widgetDeadAngle       *ui.Slider
	widgetShowRepulsion   *ui.Checkbox
	widgetPause           *ui.Button

	lastError error

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame spawns the flock actor on system and builds the control panel.
func NewGame(ctx context.Context, system actor.ActorSystem, cfg *flock.Config, seed uint64, opts ...flock.Option) (*Game, error) {
	// Buffer to avoid blocking
	snapshotCh := make(chan *flock.Snapshot, 2)

	fa, err := NewFlockActor(cfg, seed, snapshotCh, opts...)
	if err != nil {
		return nil, err
	}
	pid, err := system.Spawn(ctx, "flock", fa)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn flock: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		flockPID:   pid,
		snapshotCh: snapshotCh,
		lastState:  &flock.Snapshot{Width: cfg.Width, Height: cfg.Height}, // Avoid nil pointer
		cfg:        *cfg,
		next:       *cfg,
		seed:       seed,
	}
	g.buildPanel()
	return g, nil
}

func (g *Game) buildPanel() {
	cfg := g.cfg
	panel := ui.NewPanel(10, 10, 260, cfg.Height-20, "Flock (Tab hides)")

	panel.AddSection("Cohesion")
	g.widgetCohesionRadius = panel.AddSlider("Radius", 0, 400, cfg.CohesionRadius)
	g.widgetCohesionFactor = panel.AddSlider("Factor", 0, 2000, cfg.CohesionFactor)

	panel.AddSection("Alignment")
	g.widgetAlignmentRadius = panel.AddSlider("Radius", 0, 400, cfg.AlignmentRadius)
	g.widgetAlignmentFactor = panel.AddSlider("Factor", 0, 1000, cfg.AlignmentFactor)

	panel.AddSection("Repulsion")
	g.widgetRepulsionRadius = panel.AddSlider("Radius", 0, 100, cfg.RepulsionRadius)
	g.widgetRepulsionFactor = panel.AddSlider("Factor", 0, 5000, cfg.RepulsionFactor)

	panel.AddSection("Physics")
	g.widgetMinSpeed = panel.AddSlider("Min Speed", 0, 300, cfg.MinSpeed)
	g.widgetMaxSpeed = panel.AddSlider("Max Speed", 0, 300, cfg.MaxSpeed)
	g.widgetMaxAcceleration = panel.AddSlider("Max Acceleration", 0, 2000, cfg.MaxAcceleration)
	g.widgetDeadAngle = panel.AddSlider("Dead Angle", 0, math.Pi, cfg.DeadAngle)

	panel.AddSection("Run (Space pauses, R restarts)")
	g.widgetPopulation = panel.AddSlider("Population", 0, 5000, float64(cfg.Population))
	g.widgetShowRepulsion = panel.AddCheckbox("Show repulsion radius", false)
	panel.AddButton("Restart", g.restart)
	g.widgetPause = panel.AddButton("Pause", g.togglePause)

	g.panel = panel
}

// readPanel copies the slider values into the config of the next run.
func (g *Game) readPanel() {
	g.next.Population = int(math.Round(g.widgetPopulation.Value))
	g.next.CohesionRadius = g.widgetCohesionRadius.Value
	g.next.CohesionFactor = g.widgetCohesionFactor.Value
	g.next.AlignmentRadius = g.widgetAlignmentRadius.Value
	g.next.AlignmentFactor = g.widgetAlignmentFactor.Value
	g.next.RepulsionRadius = g.widgetRepulsionRadius.Value
	g.next.RepulsionFactor = g.widgetRepulsionFactor.Value
	g.next.MinSpeed = g.widgetMinSpeed.Value
	g.next.MaxSpeed = g.widgetMaxSpeed.Value
	g.next.MaxAcceleration = g.widgetMaxAcceleration.Value
	g.next.DeadAngle = g.widgetDeadAngle.Value
}

func (g *Game) tell(msg proto.Message) {
	if err := actor.Tell(g.ctx, g.flockPID, msg); err != nil {
		g.lastError = err
	}
}

// restart applies the panel config when it changed, else re-seeds the flock.
// Either way the flock comes back Ready, so it runs on the next tick.
func (g *Game) restart() {
	g.readPanel()
	g.lastError = nil
	g.paused = false
	g.widgetPause.Label = "Pause"
	if g.next != g.cfg {
		if err := g.next.Validate(); err != nil {
			g.lastError = err
			return
		}
		msg, err := ReconfigureMessage(&g.next)
		if err != nil {
			g.lastError = err
			return
		}
		g.cfg = g.next
		g.tell(msg)
		return
	}
	g.seed++
	g.tell(RestartMessage(g.seed))
}

func (g *Game) togglePause() {
	g.paused = !g.paused
	if g.paused {
		g.widgetPause.Label = "Resume"
		g.tell(PauseMessage())
		return
	}
	g.widgetPause.Label = "Pause"
	g.tell(ResumeMessage())
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
	}

	// Retrieve Latest State (Non-blocking)
	for drained := false; !drained; {
		select {
		case snap := <-g.snapshotCh:
			g.lastState = snap
		default:
			drained = true
		}
	}

	// one tick of 1/TPS seconds per frame; paused flocks drop it
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	g.tell(TickMessage(time.Second / time.Duration(tps)))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)

	// the arena is centered on the origin, the screen starts at the top left
	offX, offY := g.lastState.Width/2, g.lastState.Height/2
	for _, a := range g.lastState.Agents {
		x, y := a.Position.X+offX, a.Position.Y+offY
		if g.widgetShowRepulsion.Value {
			vector.StrokeCircle(screen, float32(x), float32(y), float32(g.cfg.RepulsionRadius), 1, radiusColor, true)
		}
		drawBoid(screen, x, y, a.Heading)
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nTick: %d (%s)\nAgents: %d\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.lastState.Tick,
		g.lastState.State,
		len(g.lastState.Agents),
		g.updateAvg,
		g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.Width)-160, 10)

	if g.lastError != nil {
		ebitenutil.DebugPrintAt(screen, g.lastError.Error(), 10, int(g.cfg.Height)-20)
	}
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.Width), int(g.cfg.Height) }

func init() {
	whiteImage.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})
}

// drawBoid draws a small triangle pointing along heading.
func drawBoid(screen *ebiten.Image, x, y, heading float64) {
	tipX := x + math.Cos(heading)*6
	tipY := y + math.Sin(heading)*6
	rightX := x + math.Cos(heading+2.5)*5
	rightY := y + math.Sin(heading+2.5)*5
	leftX := x + math.Cos(heading-2.5)*5
	leftY := y + math.Sin(heading-2.5)*5

	vertices := []ebiten.Vertex{
		{DstX: float32(tipX), DstY: float32(tipY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: float32(rightX), DstY: float32(rightY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: float32(leftX), DstY: float32(leftY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})
}
