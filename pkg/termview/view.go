package termview

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/teslashibe/go-evergreen/pkg/formation"
	"github.com/teslashibe/go-evergreen/pkg/particles"
	"github.com/teslashibe/go-evergreen/pkg/session"
)

// Config controls the terminal view.
type Config struct {
	Camera    Camera
	DrawEvery int  // Redraw every N ticks
	MouseHand bool // Mouse and keys act as the hand tracker
}

// DefaultConfig draws every tick with the mouse as the hand.
func DefaultConfig() Config {
	return Config{
		Camera:    DefaultCamera(),
		DrawEvery: 1,
		MouseHand: true,
	}
}

// Depth bands used for shading: nearer elements are brighter.
const bands = 4

// View draws a session into a tcell screen.
type View struct {
	cfg    Config
	screen tcell.Screen
	buf    *Buffer
	input  *Input

	// Per-element styles for each depth band, built once per dataset.
	ds        *particles.Dataset
	foliage   [][bands]tcell.Style
	dust      [][bands]tcell.Style
	ornaments [][bands]tcell.Style
	lights    [][bands]tcell.Style
}

// New creates a view on screen. The caller owns screen's Init and Fini.
func New(screen tcell.Screen, cfg Config) *View {
	if cfg.DrawEvery < 1 {
		cfg.DrawEvery = 1
	}
	w, h := screen.Size()
	return &View{
		cfg:    cfg,
		screen: screen,
		buf:    NewBuffer(w, h),
		input:  NewInput(),
	}
}

// Buffer returns the composed frame.
func (v *View) Buffer() *Buffer { return v.buf }

// Draw composes and shows a frame. It is a session tick hook and runs on
// the tick goroutine, so it may read the engine directly.
func (v *View) Draw(f session.Frame, s *session.Session) {
	if f.Seq%uint64(v.cfg.DrawEvery) != 0 && !f.ModeChanged {
		return
	}
	v.Render(f, s)
	v.buf.Flush(v.screen)
}

// Render composes a frame into the buffer without touching the screen.
func (v *View) Render(f session.Frame, s *session.Session) {
	w, h := v.screen.Size()
	if bw, bh := v.buf.Size(); bw != w || bh != h {
		v.buf.Resize(w, h)
	} else {
		v.buf.Clear()
	}
	if w <= 0 || h <= 1 {
		return
	}
	v.prepare(s.Dataset())

	proj := v.cfg.Camera.Projector(f.Control.Rotation, f.Control.Zoom, w, h-1)
	dist := v.cfg.Camera.Distance(f.Control.Zoom)
	eng := s.Engine()

	v.plotFlat(proj, dist, eng.Dust(), v.dust, '.')
	v.plotFlat(proj, dist, eng.Foliage(), v.foliage, '*')
	for i, p := range eng.Ornaments() {
		glyph := 'o'
		if s.Dataset().Ornaments[i].Kind == particles.Gift {
			glyph = '#'
		}
		v.plot(proj, dist, p.X, p.Y, p.Z, v.ornaments[i], glyph)
	}
	for i, p := range eng.Lights() {
		v.plot(proj, dist, p.X, p.Y, p.Z, v.lights[i], '+')
	}

	if f.Hand.Active && f.Hand.PointerValid {
		x := int(f.Hand.Pointer.X * float64(w-1))
		y := int(f.Hand.Pointer.Y * float64(h-2))
		v.buf.Text(x, y, "@", tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	}

	v.buf.Text(0, h-1, status(f), statusStyle(f.Mode))
}

func (v *View) plotFlat(proj Projector, dist float64, flat []float32, styles [][bands]tcell.Style, glyph rune) {
	for i := 0; i*3+2 < len(flat); i++ {
		j := i * 3
		v.plot(proj, dist, float64(flat[j]), float64(flat[j+1]), float64(flat[j+2]), styles[i], glyph)
	}
}

func (v *View) plot(proj Projector, dist, x, y, z float64, styles [bands]tcell.Style, glyph rune) {
	col, row, depth, ok := proj.Project(x, y, z)
	if !ok {
		return
	}
	v.buf.Plot(col, row, glyph, styles[band(depth, dist)], depth)
}

// band maps depth to a shading band: 0 nearest.
func band(depth, dist float64) int {
	t := (depth - dist + 6) / 12
	return min(bands-1, max(0, int(t*bands)))
}

func (v *View) prepare(ds *particles.Dataset) {
	if v.ds == ds {
		return
	}
	v.ds = ds
	v.foliage = flatStyles(ds.Foliage)
	v.dust = flatStyles(ds.Dust)
	v.ornaments = recordStyles(ds.Ornaments)
	v.lights = recordStyles(ds.Lights)
}

var black = colorful.Color{}

func shades(c colorful.Color) [bands]tcell.Style {
	var out [bands]tcell.Style
	for b := range out {
		r, g, bl := c.BlendLab(black, float64(b)*0.2).Clamped().RGB255()
		out[b] = tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(bl)))
	}
	return out
}

func flatStyles(b *particles.FoliageBatch) [][bands]tcell.Style {
	out := make([][bands]tcell.Style, b.Len())
	for i := range out {
		j := i * 3
		c := colorful.Color{R: float64(b.Colors[j]), G: float64(b.Colors[j+1]), B: float64(b.Colors[j+2])}
		out[i] = shades(c)
	}
	return out
}

func recordStyles(recs []particles.Ornament) [][bands]tcell.Style {
	out := make([][bands]tcell.Style, len(recs))
	for i, o := range recs {
		out[i] = shades(o.Color)
	}
	return out
}

func status(f session.Frame) string {
	hand := "lost"
	if f.Hand.Active {
		hand = fmt.Sprintf("%.2f,%.2f", f.Hand.Pointer.X, f.Hand.Pointer.Y)
	}
	return fmt.Sprintf(" %-6s tick %-7s zoom %.2f spin %+.4f pose %-11s hand %-9s  space:toggle o/f/n:pose wheel:pinch h:hand q:quit",
		f.Mode, humanize.Comma(int64(f.Seq)), f.Control.Zoom, f.Control.SpinVelocity, f.Hand.Pose, hand)
}

func statusStyle(m formation.Mode) tcell.Style {
	if m == formation.Chaos {
		return tcell.StyleDefault.Foreground(tcell.ColorGold).Bold(true)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
}

// Run handles terminal events until the user quits or ctx ends. Samples go
// to r's mailbox when MouseHand is set; commands go through r.Submit.
func (v *View) Run(ctx context.Context, r *session.Runner) error {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if _, ok := ev.(*tcell.EventResize); ok {
				v.screen.Sync()
				continue
			}
			if v.apply(r, ev) {
				return nil
			}
		}
	}
}

// apply routes one event and reports whether the user asked to quit.
func (v *View) apply(r *session.Runner, ev tcell.Event) bool {
	w, h := v.screen.Size()
	res := v.input.Handle(ev, w, h)
	if res.Command != nil {
		r.Submit(*res.Command)
	}
	if res.Sample != nil && v.cfg.MouseHand {
		r.Mailbox().Put(*res.Sample)
	}
	return res.Quit
}
