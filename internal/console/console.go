package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/pixil98/go-roomwatch/internal/unity"
)

const prompt = "> "

// Room is the read-only view of the registry the console needs.
type Room interface {
	Snapshot() map[int32]unity.Entity
	Get(index int32) (unity.Entity, bool)
	Len() int
}

type command struct {
	Name    string
	Usage   string
	Summary string
	run     func(c *Console, args []string) (string, error)
}

var commands []command

func init() {
	commands = []command{
		{Name: "who", Usage: "who", Summary: "list everything in the room", run: (*Console).who},
		{Name: "look", Usage: "look <index>", Summary: "show one entity", run: (*Console).look},
		{Name: "count", Usage: "count", Summary: "number of entities in the room", run: (*Console).count},
		{Name: "help", Usage: "help", Summary: "show this list", run: (*Console).help},
		{Name: "quit", Usage: "quit", Summary: "close the session"},
	}
}

// Console serves line-oriented diagnostic sessions over a room registry.
type Console struct {
	room Room
}

func NewConsole(room Room) *Console {
	return &Console{room: room}
}

// RunSession reads commands from rw until quit, EOF, or ctx is done.
func (c *Console) RunSession(ctx context.Context, rw io.ReadWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(rw)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	if _, err := io.WriteString(rw, prompt); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}

			out, quit := c.Execute(line)
			if quit {
				_, err := io.WriteString(rw, "Bye.\n")
				return err
			}
			if _, err := io.WriteString(rw, out+prompt); err != nil {
				return err
			}
		}
	}
}

// Execute runs a single command line and returns its output. quit reports
// whether the session should end.
func (c *Console) Execute(line string) (out string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}

	name := strings.ToLower(fields[0])
	if name == "exit" {
		name = "quit"
	}

	for _, cmd := range commands {
		if cmd.Name != name {
			continue
		}
		if cmd.run == nil {
			return "", true
		}
		out, err := cmd.run(c, fields[1:])
		if err != nil {
			slog.Warn("console command failed", "command", name, "error", err)
			return fmt.Sprintf("%s\n", err), false
		}
		return out, false
	}

	return fmt.Sprintf("Unknown command %q. Type help for a list.\n", fields[0]), false
}

func (c *Console) who(_ []string) (string, error) {
	snap := c.room.Snapshot()

	entities := make([]unity.Entity, 0, len(snap))
	for _, e := range snap {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Index < entities[j].Index
	})

	return render(whoTemplate, struct{ Entities []unity.Entity }{entities})
}

func (c *Console) look(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: look <index>")
	}
	idx, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid index", args[0])
	}

	e, ok := c.room.Get(int32(idx))
	if !ok {
		return fmt.Sprintf("Nothing at index %d.\n", idx), nil
	}
	return render(lookTemplate, struct{ Entity *unity.Entity }{&e})
}

func (c *Console) count(_ []string) (string, error) {
	n := c.room.Len()
	if n == 1 {
		return "1 entity in room.\n", nil
	}
	return fmt.Sprintf("%d entities in room.\n", n), nil
}

func (c *Console) help(_ []string) (string, error) {
	return render(helpTemplate, struct{ Commands []command }{commands})
}
