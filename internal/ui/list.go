package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type listItem struct {
	index int
	title string
}

func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.title }

// listModel is the fallback selector used when fzf is missing.
type listModel struct {
	list   list.Model
	choice int
}

func newListModel(prompt string, items []string) listModel {
	entries := make([]list.Item, len(items))
	for i, it := range items {
		entries[i] = listItem{index: i, title: it}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(entries, delegate, 80, 20)
	l.Title = prompt
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return listModel{list: l, choice: -1}
}

func (m listModel) Init() tea.Cmd { return nil }

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(listItem); ok {
				m.choice = it.index
			}
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.choice = -1
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m listModel) View() string {
	return m.list.View()
}

func selectList(prompt string, items []string) (int, error) {
	final, err := tea.NewProgram(newListModel(prompt, items), tea.WithOutput(os.Stderr), tea.WithAltScreen()).Run()
	if err != nil {
		return -1, fmt.Errorf("running selector: %w", err)
	}
	m, ok := final.(listModel)
	if !ok || m.choice < 0 {
		return -1, ErrCancelled
	}
	return m.choice, nil
}

// inputModel is the fallback free-text prompt.
type inputModel struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

func newInputModel(prompt string) inputModel {
	ti := textinput.New()
	ti.Prompt = prompt + " > "
	ti.Focus()
	return inputModel{input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	return m.input.View() + "\n"
}

func inputText(prompt string) (string, error) {
	final, err := tea.NewProgram(newInputModel(prompt), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(inputModel)
	if !ok || m.cancelled {
		return "", ErrCancelled
	}
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return "", fmt.Errorf("no input provided")
	}
	return query, nil
}
