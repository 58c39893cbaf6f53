package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rigidlab/internal/advance"
	"github.com/san-kum/rigidlab/internal/metrics"
	"github.com/san-kum/rigidlab/internal/scenario"
)

const (
	canvasWidth  = 80
	canvasHeight = 24
	frameRate    = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model runs a scenario in real time and renders it on a braille canvas.
type Model struct {
	scene  *scenario.Scenario
	adv    *advance.CollisionAdvance
	energy *metrics.EnergyDrift
	canvas *Canvas

	running bool
	failed  error
}

func NewModel(scene *scenario.Scenario) Model {
	c := NewCanvas(canvasWidth, canvasHeight)
	c.FitBodies(scene.Sim.Bodies(), 0.5)
	return Model{
		scene:   scene,
		adv:     scene.NewAdvance(),
		energy:  metrics.NewEnergyDrift(scene.Sim),
		canvas:  c,
		running: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.failed == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		}
		return m, nil

	case TickMsg:
		if m.running && m.failed == nil {
			if err := m.adv.Advance(1.0 / frameRate); err != nil {
				m.failed = err
				m.running = false
			} else {
				m.energy.Observe(m.adv.Time())
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() {
	fresh, err := scenario.New(m.scene.Name, m.scene.Detector.Seed())
	if err != nil {
		return
	}
	m.scene = fresh
	m.adv = fresh.NewAdvance()
	m.energy = metrics.NewEnergyDrift(fresh.Sim)
	m.canvas.FitBodies(fresh.Sim.Bodies(), 0.5)
	m.failed = nil
	m.running = true
}

func (m Model) View() string {
	m.canvas.Clear()
	for _, b := range m.scene.Sim.Bodies() {
		m.canvas.DrawBody(b)
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(m.statsView()),
	)
	return view + "\n" + helpStyle.Render("space pause · r reset · q quit")
}

func (m Model) statsView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.scene.Name) + "\n")
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	totals := m.adv.Totals()
	row("time", fmt.Sprintf("%.3f s", m.adv.Time()))
	row("energy", fmt.Sprintf("%.4f", m.energy.Current()))
	row("drift", fmt.Sprintf("%.2e", m.energy.Value()))
	row("policy", m.scene.Policy.String())
	row("collisions", fmt.Sprintf("%d", totals.Collisions))
	row("searches", fmt.Sprintf("%d", totals.Searches))

	if m.failed != nil {
		b.WriteString("\n" + errorStyle.Render("FAILED") + "\n")
		b.WriteString(valueStyle.Render(m.failed.Error()) + "\n")
	} else if !m.running {
		b.WriteString("\n" + valueStyle.Render("paused") + "\n")
	}
	return b.String()
}

// Run starts the live viewer and blocks until quit.
func Run(scene *scenario.Scenario) error {
	p := tea.NewProgram(NewModel(scene))
	_, err := p.Run()
	return err
}
