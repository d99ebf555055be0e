// Package shell provides the interactive escape hatch: a small
// read-eval-print loop over an explicit variable context. It is a manual
// debugging aid, not part of the automated trace path; the program is
// suspended until the operator leaves the session.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"pov/internal/expr"
	"pov/internal/valuefmt"
)

// Options configures a session.
type Options struct {
	// NormalExit allows the "exit" command to terminate the process.
	// When false, "exit" prints a reminder instead.
	NormalExit bool
	// NormalQuit allows the "quit" command to terminate the process.
	NormalQuit bool
	// Depth is the value-rendering depth for echoed results.
	Depth int
	// Full renders unexported fields of echoed results.
	Full bool
	// Input defaults to os.Stdin.
	Input io.Reader
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Run starts an interactive session seeded with vars. It returns true if
// the operator asked to terminate the process and the relevant command was
// allowed; the caller decides how to exit.
func Run(vars map[string]any, opts Options) bool {
	in := opts.Input
	if in == nil {
		in = os.Stdin
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return runTea(vars, opts, in, out)
	}
	return runPlain(vars, opts, in, out)
}

func leaveMessage(opts Options) string {
	var cmds []string
	if opts.NormalExit {
		cmds = append(cmds, "type exit")
	}
	if opts.NormalQuit {
		cmds = append(cmds, "type quit")
	}
	if len(cmds) == 0 {
		cmds = append(cmds, "send an interrupt")
	}
	return "Press Ctrl-D to close interactive mode and continue.\n" +
		"To terminate the program, " + strings.Join(cmds, " or ") + "."
}

// evalLine handles one input line, returning the echo text and whether the
// operator requested process termination.
func evalLine(line string, vars map[string]any, opts Options) (string, bool) {
	switch strings.TrimSpace(line) {
	case "":
		return "", false
	case "exit", "exit()":
		if opts.NormalExit {
			return "", true
		}
		return leaveMessage(opts), false
	case "quit", "quit()":
		if opts.NormalQuit {
			return "", true
		}
		return leaveMessage(opts), false
	case "vars", "vars()":
		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		// Deterministic listing.
		for i := 1; i < len(names); i++ {
			for j := i; j > 0 && names[j] < names[j-1]; j-- {
				names[j], names[j-1] = names[j-1], names[j]
			}
		}
		return strings.Join(names, " "), false
	}

	val, err := expr.Eval(line, vars)
	if err != nil {
		return errStyle.Render(">< " + err.Error()), false
	}
	return valueStyle.Render("=> " + valuefmt.Print(val, opts.Depth, opts.Full).Plain()), false
}

// runPlain is the non-TTY loop: read a line, evaluate, echo.
func runPlain(vars map[string]any, opts Options, in io.Reader, out io.Writer) bool {
	fmt.Fprintln(out, "[ ] Entering interactive mode.")
	fmt.Fprintln(out, leaveMessage(opts))
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ">>> ")
		if !sc.Scan() {
			break
		}
		echo, terminate := evalLine(sc.Text(), vars, opts)
		if terminate {
			return true
		}
		if echo != "" {
			fmt.Fprintln(out, echo)
		}
	}
	fmt.Fprintln(out, "\n[ ] Resuming normal execution...")
	return false
}

type model struct {
	vars      map[string]any
	opts      Options
	input     textinput.Model
	history   []string
	terminate bool
	done      bool
}

func newModel(vars map[string]any, opts Options) *model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(">>> ")
	ti.Focus()
	return &model{vars: vars, opts: opts, input: ti}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlD:
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.SetValue("")
			m.history = append(m.history, promptStyle.Render(">>> ")+line)
			echo, terminate := evalLine(line, m.vars, m.opts)
			if terminate {
				m.terminate = true
				m.done = true
				return m, tea.Quit
			}
			if echo != "" {
				m.history = append(m.history, echo)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	var sb strings.Builder
	sb.WriteString(bannerStyle.Render("[ ] Entering interactive mode."))
	sb.WriteString("\n")
	sb.WriteString(bannerStyle.Render(leaveMessage(m.opts)))
	sb.WriteString("\n")
	for _, h := range m.history {
		sb.WriteString(h)
		sb.WriteString("\n")
	}
	if !m.done {
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
	}
	return sb.String()
}

func runTea(vars map[string]any, opts Options, in io.Reader, out io.Writer) bool {
	m := newModel(vars, opts)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		// Fall back to the plain loop rather than losing the session.
		return runPlain(vars, opts, in, out)
	}
	if !m.terminate {
		fmt.Fprintln(out, "[ ] Resuming normal execution...")
	}
	return m.terminate
}
