// Package play is the terminal presentation of a game: it renders the store
// and turns typed commands into choices.
package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"weaver/internal/game"
	"weaver/internal/session"
)

const helpText = "Type a choice number, c <text> for your own action, r to retry, m for memories, s for your character, q to quit."

// View draws a snapshot. It may panic; the presenter recovers.
type View func(w io.Writer, st Styles, snap game.Snapshot)

type Presenter struct {
	in     *bufio.Scanner
	out    io.Writer
	styles Styles
	logger *zap.Logger
	view   View

	wasLoading bool
}

type Option func(*Presenter)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Presenter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithView(view View) Option {
	return func(p *Presenter) {
		p.view = view
	}
}

func New(in io.Reader, out io.Writer, opts ...Option) *Presenter {
	p := &Presenter{
		in:     bufio.NewScanner(in),
		out:    out,
		styles: NewStyles(out),
		logger: zap.NewNop(),
		view:   RenderSnapshot,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run renders the game and reads commands until q, end of input or ctx is
// done.
func (p *Presenter) Run(ctx context.Context, s *session.Session) error {
	unsubscribe := s.Store().Subscribe(p.onChange)
	defer unsubscribe()

	p.render(s.Store().Snapshot())
	fmt.Fprintln(p.out, p.styles.Muted.Render(helpText))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(p.out, p.styles.Key.Render("> "))
		if !p.in.Scan() {
			return p.in.Err()
		}

		quit := p.handle(ctx, s, strings.TrimSpace(p.in.Text()))
		if quit {
			return nil
		}
	}
}

func (p *Presenter) handle(ctx context.Context, s *session.Session, line string) bool {
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")

	switch strings.ToLower(cmd) {
	case "q", "quit":
		return true
	case "h", "help", "?":
		fmt.Fprintln(p.out, p.styles.Muted.Render(helpText))
	case "m", "memories":
		p.safe(func() { renderMemories(p.out, p.styles, s.Store().Snapshot()) })
	case "s", "sheet":
		p.safe(func() { renderCharacter(p.out, p.styles, s.Store().Snapshot()) })
	case "r", "retry":
		err := s.Retry(ctx)
		if errors.Is(err, session.ErrNothingToRetry) {
			err = nil
		}
		p.after(s, err)
	case "c", "custom":
		p.after(s, s.Choose(ctx, game.CustomChoice(arg)))
	default:
		choice, ok := p.numbered(s, line)
		if !ok {
			fmt.Fprintln(p.out, p.styles.Muted.Render("Unknown command. "+helpText))
			return false
		}
		p.after(s, s.Choose(ctx, choice))
	}
	return false
}

// numbered maps "2" to the second choice on screen.
func (p *Presenter) numbered(s *session.Session, line string) (game.Choice, bool) {
	n, err := strconv.Atoi(line)
	if err != nil {
		return game.Choice{}, false
	}
	segment := s.Store().Snapshot().Segment()
	if segment == nil || n < 1 || n > len(segment.Choices) {
		return game.Choice{}, false
	}
	return segment.Choices[n-1], true
}

func (p *Presenter) after(s *session.Session, err error) {
	var genErr *session.GenerationError
	switch {
	case err == nil, errors.As(err, &genErr):
		// Generation failures are already in the store.
		p.render(s.Store().Snapshot())
	case errors.Is(err, session.ErrTurnInProgress):
		fmt.Fprintln(p.out, p.styles.Muted.Render("The chronicle is still being written."))
	case errors.Is(err, session.ErrInvalidChoice):
		fmt.Fprintln(p.out, p.styles.Error.Render(err.Error()))
	default:
		p.logger.Error("turn failed", zap.Error(err))
		fmt.Fprintln(p.out, p.styles.Error.Render("Something went wrong: "+err.Error()))
	}
}

func (p *Presenter) onChange(snap game.Snapshot) {
	if snap.Loading && !p.wasLoading {
		fmt.Fprintln(p.out, p.styles.Loading.Render("The chronicle is being written..."))
	}
	p.wasLoading = snap.Loading
}

func (p *Presenter) render(snap game.Snapshot) {
	p.safe(func() { p.view(p.out, p.styles, snap) })
}

// safe is the render boundary: a panic is logged and replaced by a notice,
// never propagated.
func (p *Presenter) safe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("render panicked", zap.Any("panic", r), zap.Stack("stack"))
			fmt.Fprintln(p.out, p.styles.Error.Render("Something went wrong while drawing the story. Type r to retry or q to quit."))
		}
	}()
	fn()
}
