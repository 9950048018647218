package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/utils"
)

const helpText = `  /memory          Show the active topic
  /history         List stored memories
  /related <text>  Rank stored memories against text
  /flush           Save the active topic now
  /reset           Drop the active topic without saving
  /clear           Empty the memory log
  /exit            Save the active topic and quit`

// REPL runs a chat over a line-oriented reader. It does not close the App.
type REPL struct {
	app *app.App
	in  io.Reader
	out io.Writer

	lines chan string
	errs  chan error
}

func NewREPL(a *app.App, in io.Reader, out io.Writer) *REPL {
	return &REPL{app: a, in: in, out: out}
}

// Run reads turns until /exit, end of input, or ctx ends. Ending through
// ctx is a normal quit.
func (r *REPL) Run(ctx context.Context) error {
	r.lines = make(chan string)
	r.errs = make(chan error, 1)
	go r.read(ctx)

	fmt.Fprintf(r.out, "\n  %s %s\n", cliui.NameStyle.Render("mnemo"), cliui.DimStyle.Render(fmt.Sprintf("(%s / %s)", r.app.Config.Oracle.Provider, r.app.Config.Oracle.Model)))
	fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render("Type a message and press Enter. /help for commands, /exit or Ctrl+D to quit."))

	for {
		fmt.Fprint(r.out, cliui.UserPrompt)
		line, err := r.next(ctx)
		if err != nil {
			fmt.Fprintln(r.out)
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := r.command(ctx, input)
			if err != nil {
				fmt.Fprintf(r.out, "  %s %v\n\n", cliui.FailMark, err)
			}
			if quit {
				return nil
			}
			continue
		}

		r.turn(ctx, input)
	}
}

func (r *REPL) read(ctx context.Context) {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case r.lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	r.errs <- scanner.Err()
	close(r.lines)
}

// next returns the next input line, io.EOF at the end of input, or the
// context error.
func (r *REPL) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if ok {
			return line, nil
		}
		if err := <-r.errs; err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
}

func (r *REPL) turn(ctx context.Context, input string) {
	sess := r.app.Session

	bundle := sess.Prepare(ctx, input)
	reply := r.app.Responder.Reply(ctx, bundle)
	fmt.Fprintf(r.out, "%s%s\n\n", cliui.AgentPrompt, reply)

	outcome := sess.Commit(ctx, input, reply)
	if outcome.Action == memory.ActionRotated && outcome.Persisted && outcome.Retired != nil {
		fmt.Fprintf(r.out, "  %s %s\n\n", cliui.DimStyle.Render("saved memory:"), cliui.NameStyle.Render(outcome.Retired.Topic))
	}
}

// command runs a slash command and reports whether the chat should end.
func (r *REPL) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	sess := r.app.Session
	store := sess.Store()

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		fmt.Fprintf(r.out, "%s\n\n", helpText)

	case "/memory":
		r.printActive(store.Active())

	case "/history":
		recs, err := store.LoadAll(ctx)
		if err != nil {
			return false, err
		}
		r.printHistory(recs)

	case "/related":
		if arg == "" {
			return false, errors.New("usage: /related <text>")
		}
		if !store.RetrievalEnabled() {
			return false, errors.New("retrieval is disabled; set embedding.provider to enable it")
		}
		related, err := store.RetrieveRelated(ctx, arg, int(r.app.Config.Memory.TopK))
		if err != nil {
			return false, err
		}
		r.printRelated(related)

	case "/flush":
		saved, err := sess.Flush(ctx)
		if err != nil {
			return false, err
		}
		if saved {
			fmt.Fprintf(r.out, "  %s Active topic saved\n\n", cliui.SuccessMark)
		} else {
			fmt.Fprintf(r.out, "  %s Nothing to save\n\n", cliui.DimStyle.Render("●"))
		}

	case "/reset":
		sess.Reset()
		fmt.Fprintf(r.out, "  %s Active topic dropped\n\n", cliui.SuccessMark)

	case "/clear":
		fmt.Fprint(r.out, cliui.ConfirmPrompt("Delete every stored memory?"))
		answer, err := r.next(ctx)
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		if !cliui.IsYes(answer) {
			fmt.Fprintf(r.out, "  %s Kept the memory log\n\n", cliui.DimStyle.Render("●"))
			return errors.Is(err, io.EOF), nil
		}
		if err := sess.Clear(ctx); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "  %s Memory log cleared\n\n", cliui.SuccessMark)

	default:
		return false, fmt.Errorf("unknown command %s; try /help", name)
	}
	return false, nil
}

func (r *REPL) printActive(t *memory.Topic) {
	if t == nil {
		fmt.Fprintf(r.out, "  %s No active topic\n\n", cliui.DimStyle.Render("●"))
		return
	}
	fmt.Fprintf(r.out, "  %s %s\n", cliui.KeyStyle.Render("Topic:"), cliui.NameStyle.Render(t.Label))
	for _, k := range t.Info.Key {
		fmt.Fprintf(r.out, "    - %s\n", k)
	}
	fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d details, %d small-talk rounds", len(t.Info.Aux), len(t.Info.Noise))))
}

func (r *REPL) printHistory(recs []memory.Record) {
	if len(recs) == 0 {
		fmt.Fprintf(r.out, "  %s No memories stored yet\n\n", cliui.DimStyle.Render("●"))
		return
	}
	for _, rec := range recs {
		fmt.Fprintf(r.out, "  %s  %s\n", cliui.IDStyle.Render(rec.ID[:min(8, len(rec.ID))]), cliui.NameStyle.Render(rec.Topic))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) printRelated(related []memory.Related) {
	if len(related) == 0 {
		fmt.Fprintf(r.out, "  %s Nothing related\n\n", cliui.DimStyle.Render("●"))
		return
	}
	for _, rel := range related {
		fmt.Fprintf(r.out, "  %s  %s  %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%.2f", rel.Score)),
			cliui.NameStyle.Render(rel.Topic),
			cliui.DimStyle.Render(utils.Truncate(rel.Content, 60)),
		)
	}
	fmt.Fprintln(r.out)
}
