package main

import (
	"bufio"
	"chat-relay/client"
	"chat-relay/domain"
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type menu struct {
	in      *bufio.Scanner
	out     io.Writer
	client  *client.Client
	colours bool
}

func newMenu(in io.Reader, out io.Writer, c *client.Client, colours bool) *menu {
	return &menu{in: bufio.NewScanner(in), out: out, client: c, colours: colours}
}

// Run registers the user then loops on the menu until exit or end of input.
func (m *menu) Run() error {
	identity, ok := m.prompt("Enter your email: ")
	if !ok {
		return m.in.Err()
	}
	name, ok := m.prompt("Enter your name: ")
	if !ok {
		return m.in.Err()
	}
	if err := m.client.Register(identity, name); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	m.info("Registered as %s <%s>", name, identity)

	for {
		fmt.Fprintln(m.out, "\nMenu:")
		fmt.Fprintln(m.out, "1. Send a message")
		fmt.Fprintln(m.out, "2. Request all messages")
		fmt.Fprintln(m.out, "3. Exit")
		choice, ok := m.prompt("Enter your choice: ")
		if !ok {
			if err := m.in.Err(); err != nil {
				return err
			}
			return m.client.Exit()
		}

		switch choice {
		case "1":
			text, ok := m.prompt("Enter your message: ")
			if !ok {
				return m.client.Exit()
			}
			if err := m.client.Send(text); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			m.info("Message acknowledged")
		case "2":
			history, err := m.client.History()
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			m.render(history)
		case "3":
			fmt.Fprintln(m.out, "Exiting...")
			return m.client.Exit()
		default:
			m.warn("Invalid choice. Try again.")
		}
	}
}

func (m *menu) prompt(label string) (string, bool) {
	if m.colours {
		label = color.New(color.FgCyan).Render(label)
	}
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) render(history []domain.HistoryEntry) {
	if len(history) == 0 {
		m.info("No messages yet")
		return
	}
	table := tablewriter.NewWriter(m.out)
	table.SetHeader([]string{"#", "From", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, entry := range history {
		table.Append([]string{fmt.Sprint(i + 1), entry.SenderName, entry.Content})
	}
	table.Render()
}

func (m *menu) info(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if m.colours {
		line = color.New(color.FgGreen).Render(line)
	}
	fmt.Fprintln(m.out, line)
}

func (m *menu) warn(line string) {
	if m.colours {
		line = color.New(color.FgYellow).Render(line)
	}
	fmt.Fprintln(m.out, line)
}
