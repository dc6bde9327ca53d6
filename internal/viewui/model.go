// Package viewui provides the Bubble Tea results browser.
package viewui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mzashi/moodkey/internal/freq"
	"github.com/mzashi/moodkey/internal/model"
	"github.com/mzashi/moodkey/internal/report"
	"github.com/mzashi/moodkey/internal/search"
)

const (
	tabOverview = iota
	tabKeys
	tabMessage
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea results browser.
type Model struct {
	results []search.Result
	formula *model.KeyFormula

	tabs      []string
	activeTab int

	keyTable    table.Model
	messageView viewport.Model

	width  int
	height int
}

// NewModel constructs a results browser over finished batch results.
func NewModel(results []search.Result, f *model.KeyFormula) *Model {
	m := &Model{
		results: results,
		formula: f,
		tabs:    []string{"Overview", "Keys", "Message"},
	}
	m.keyTable = buildKeyTable(results, 0, 1)
	m.messageView = viewport.New(0, 0)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderMessage()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabKeys {
				m.activeTab = tabMessage
				m.renderMessage()
				return m, tea.ClearScreen
			}
			return m, nil
		default:
			if m.activeTab == tabKeys {
				var cmd tea.Cmd
				m.keyTable, cmd = m.keyTable.Update(msg)
				m.renderMessage()
				return m, cmd
			}
			if m.activeTab == tabMessage {
				var cmd tea.Cmd
				m.messageView, cmd = m.messageView.Update(msg)
				return m, cmd
			}
			return m, nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderTabs()
	footer := headerStyle.Render("Nav: left/right  Select: up/down  Open: enter  Quit: q")
	var body string
	switch m.activeTab {
	case tabOverview:
		body = m.renderOverview()
	case tabKeys:
		body = m.keyTable.View()
	case tabMessage:
		body = m.messageView.View()
	}
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabKeys {
		m.keyTable.Focus()
	} else {
		m.keyTable.Blur()
	}
}

func (m *Model) updateLayout() {
	bodyHeight := m.height - lipgloss.Height(m.renderTabs()) - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.keyTable.SetWidth(m.width)
	m.keyTable.SetHeight(bodyHeight)
	m.messageView.Width = m.width
	m.messageView.Height = bodyHeight
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderOverview() string {
	accepted := 0
	for _, r := range m.results {
		if r.Err == nil {
			accepted++
		}
	}
	formulaText := "not induced"
	if m.formula != nil {
		formulaText = m.formula.String()
	}
	cards := []string{
		metricCard("Messages", strconv.Itoa(len(m.results))),
		metricCard("Keys recovered", strconv.Itoa(accepted)),
		metricCard("No convergence", strconv.Itoa(len(m.results)-accepted)),
		metricCard("Formula", formulaText),
	}
	if m.width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderMessage() {
	cursor := m.keyTable.Cursor()
	if cursor < 0 || cursor >= len(m.results) {
		m.messageView.SetContent("No message selected.")
		return
	}
	r := m.results[cursor]
	if r.Err != nil {
		m.messageView.SetContent(fmt.Sprintf("%s\n\n%v", r.Message.Label, r.Err))
		return
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	var chart bytes.Buffer
	if err := report.RenderFreqChart(&chart, "Ciphertext frequencies vs English",
		freq.New(r.Message.Ciphertext), width); err != nil {
		chart.Reset()
		chart.WriteString(fmt.Sprintf("Failed to render chart: %v", err))
	}

	sections := []string{
		cardValueStyle.Render(r.Message.Label),
		headerStyle.Render(fmt.Sprintf("Key %s  IoC %.4f  Chi2 %.1f",
			r.Record.Key, r.Record.IoC, r.Record.ChiSquared)),
	}
	if r.Record.Username != "" {
		sections = append(sections, headerStyle.Render("User: "+r.Record.Username))
	}
	sections = append(sections, "", wrapText(r.Record.Plaintext, width), "",
		strings.TrimRight(chart.String(), "\n"))
	m.messageView.SetContent(strings.Join(sections, "\n"))
}

func buildKeyTable(results []search.Result, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Message", Width: 12},
		{Title: "Mood", Width: 5},
		{Title: "a", Width: 3},
		{Title: "b", Width: 3},
		{Title: "IoC", Width: 7},
		{Title: "Chi2", Width: 8},
		{Title: "Status", Width: 14},
	}
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		mood := "-"
		if r.Message.Mood != nil {
			mood = strconv.Itoa(*r.Message.Mood)
		}
		if r.Err != nil {
			rows = append(rows, table.Row{r.Message.Label, mood, "-", "-", "-", "-", "no convergence"})
			continue
		}
		rows = append(rows, table.Row{
			r.Message.Label,
			mood,
			strconv.Itoa(r.Record.Key.A),
			strconv.Itoa(r.Record.Key.B),
			fmt.Sprintf("%.4f", r.Record.IoC),
			fmt.Sprintf("%.1f", r.Record.ChiSquared),
			"accepted",
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
