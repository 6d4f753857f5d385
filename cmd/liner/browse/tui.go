package browsecmder

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type browseView int

const (
	viewList browseView = iota
	viewDetail
)

type browseModel struct {
	store         storage.Driver
	memories      []memory.Memory
	conversations []string
	chain         []memory.Memory
	view          browseView
	cursor        int
	chainCursor   int
	width         int
	height        int
	sortIndex     int
	filterIndex   int
	keys          browseKeyMap
	help          help.Model
}

var (
	browseTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	browseMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	browseSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	browseDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	browseFieldLabel     = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	browseFieldValue     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	browseHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
)

var sortOrder = []string{"time", "confidence", "conversation"}

type browseKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Sort    key.Binding
	Filter  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Back, k.Sort, k.Filter, k.Refresh, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Enter, k.Back}, {k.Sort, k.Filter, k.Refresh, k.Quit}}
}

func defaultKeyMap() browseKeyMap {
	return browseKeyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "inspect")),
		Back:    key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("h", "back")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "conversation")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type memoriesLoadedMsg struct {
	memories []memory.Memory
	err      error
}

type chainLoadedMsg struct {
	chain []memory.Memory
	err   error
}

func runBrowseTUI(ctx context.Context, store storage.Driver, memories []memory.Memory) error {
	model := newBrowseModel(store, memories)

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newBrowseModel(store storage.Driver, memories []memory.Memory) browseModel {
	return browseModel{
		store:         store,
		memories:      memories,
		conversations: conversationCycle(memories),
		view:          viewList,
		keys:          defaultKeyMap(),
		help:          help.New(),
	}
}

func (m browseModel) Init() bubbletea.Cmd {
	return nil
}

func (m browseModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case memoriesLoadedMsg:
		if msg.err != nil {
			return m, nil
		}
		current := m.conversations[m.filterIndex]
		m.memories = msg.memories
		m.conversations = conversationCycle(msg.memories)
		m.filterIndex = 0
		for i, id := range m.conversations {
			if id == current {
				m.filterIndex = i
			}
		}
		if visible := m.visibleMemories(); m.cursor >= len(visible) {
			m.cursor = max(len(visible)-1, 0)
		}
		return m, nil
	case chainLoadedMsg:
		if msg.err != nil || len(msg.chain) == 0 {
			return m, nil
		}
		m.chain = msg.chain
		m.chainCursor = 0
		m.view = viewDetail
		return m, nil
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m browseModel) View() string {
	switch m.view {
	case viewList:
		return m.viewList()
	case viewDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, bubbletea.Quit
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "l", "enter":
		if m.view == viewList {
			return m.inspectMemory()
		}
	case "h", "esc":
		if m.view == viewDetail {
			m.view = viewList
			m.chain = nil
			m.chainCursor = 0
		}
	case "s":
		if m.view == viewList {
			m.sortIndex = (m.sortIndex + 1) % len(sortOrder)
		}
	case "f":
		if m.view == viewList {
			m.filterIndex = (m.filterIndex + 1) % len(m.conversations)
			m.cursor = 0
		}
	case "r":
		if m.view == viewList {
			return m, loadMemoriesCmd(m.store)
		}
	}

	return m, nil
}

func (m browseModel) moveCursor(delta int) (bubbletea.Model, bubbletea.Cmd) {
	if m.view == viewList {
		visible := m.visibleMemories()
		if len(visible) == 0 {
			return m, nil
		}
		m.cursor = clamp(m.cursor+delta, len(visible)-1)
		return m, nil
	}

	if len(m.chain) == 0 {
		return m, nil
	}
	m.chainCursor = clamp(m.chainCursor+delta, len(m.chain)-1)
	return m, nil
}

func (m browseModel) inspectMemory() (bubbletea.Model, bubbletea.Cmd) {
	visible := m.visibleMemories()
	if len(visible) == 0 {
		return m, nil
	}

	mem := visible[clamp(m.cursor, len(visible)-1)]
	return m, loadChainCmd(m.store, mem.MemoryID)
}

// visibleMemories applies the conversation filter and the active sort order.
// Time sorts newest first, confidence highest first, conversation groups by
// conversation then turn.
func (m browseModel) visibleMemories() []memory.Memory {
	conversation := m.conversations[m.filterIndex]

	var visible []memory.Memory
	if conversation == "" {
		visible = make([]memory.Memory, len(m.memories))
		copy(visible, m.memories)
	} else {
		for _, mem := range m.memories {
			if mem.ConversationID == conversation {
				visible = append(visible, mem)
			}
		}
	}

	sortKey := sortOrder[m.sortIndex%len(sortOrder)]
	sort.SliceStable(visible, func(i, j int) bool {
		switch sortKey {
		case "confidence":
			if visible[i].Confidence == visible[j].Confidence {
				return visible[i].Timestamp.After(visible[j].Timestamp)
			}
			return visible[i].Confidence > visible[j].Confidence
		case "conversation":
			if visible[i].ConversationID == visible[j].ConversationID {
				if visible[i].TurnID == visible[j].TurnID {
					return visible[i].Timestamp.Before(visible[j].Timestamp)
				}
				return visible[i].TurnID < visible[j].TurnID
			}
			return visible[i].ConversationID < visible[j].ConversationID
		default:
			if visible[i].Timestamp.Equal(visible[j].Timestamp) {
				return visible[i].MemoryID < visible[j].MemoryID
			}
			return visible[i].Timestamp.After(visible[j].Timestamp)
		}
	})

	return visible
}

func (m browseModel) viewList() string {
	visible := m.visibleMemories()

	headerLeft := browseTitleStyle.Render("liner browse")
	headerRight := browseMutedStyle.Render(m.headerSummary(len(visible)))
	header := renderHeaderLine(m.width, headerLeft, headerRight)
	lines := make([]string, 0, 10)
	lines = append(lines, header, renderRule(m.width), "")

	if len(visible) == 0 {
		lines = append(lines, browseMutedStyle.Render("no memories"), "", m.viewFooter())
		return strings.Join(lines, "\n")
	}

	lines = append(lines, browseMutedStyle.Render(
		renderMemoryLine(m.width, " ", "memory", "conversation", "turn", "conf", "created", "idx", "content")))

	screenHeight := m.height
	if screenHeight <= 0 {
		screenHeight = 40
	}
	maxVisible := max(screenHeight-7, 1)
	start, end := visibleRange(len(visible), m.cursor, maxVisible)
	for i := start; i < end; i++ {
		mem := visible[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		indexed := " "
		if mem.Vector != nil {
			indexed = "●"
		}

		line := renderMemoryLine(
			m.width,
			cursor,
			mem.MemoryID,
			mem.ConversationID,
			strconv.Itoa(mem.TurnID),
			fmt.Sprintf("%.2f", mem.Confidence),
			formatWhen(mem.Timestamp),
			indexed,
			collapseSpace(mem.Content),
		)

		if i == m.cursor {
			line = browseHighlightStyle.Render(line)
		}

		lines = append(lines, line)
	}

	lines = append(lines, "", m.viewFooter())

	return strings.Join(lines, "\n")
}

func (m browseModel) headerSummary(visible int) string {
	sortKey := sortOrder[m.sortIndex%len(sortOrder)]
	conversation := m.conversations[m.filterIndex]
	if conversation == "" {
		return fmt.Sprintf("%d memories · sort: %s · conversation: all", len(m.memories), sortKey)
	}
	return fmt.Sprintf("%d/%d memories · sort: %s · conversation: %s", visible, len(m.memories), sortKey, conversation)
}

func (m browseModel) viewDetail() string {
	if len(m.chain) == 0 {
		return browseMutedStyle.Render("no memory selected")
	}

	selected := m.chain[clamp(m.chainCursor, len(m.chain)-1)]
	head := m.chain[0]

	versions := fmt.Sprintf("%d versions", len(m.chain))
	if len(m.chain) == 1 {
		versions = "1 version"
	}
	headerLeft := browseTitleStyle.Render("liner browse › " + head.MemoryID)
	headerRight := browseMutedStyle.Render(fmt.Sprintf("%s · %s", head.ConversationID, versions))
	header := renderHeaderLine(m.width, headerLeft, headerRight)
	lines := make([]string, 0, 20)
	lines = append(lines, header, renderRule(m.width), "")

	lines = append(lines, browseSectionStyle.Render("memory"), renderRule(m.width))
	lines = append(lines, browseFieldLabel.Render(fmt.Sprintf("%-22s %-6s %-12s %-18s %s",
		"CONVERSATION", "TURN", "CONFIDENCE", "CREATED", "INDEXED")))

	indexed := "no"
	if selected.Vector != nil {
		indexed = fmt.Sprintf("yes (%d dims)", len(selected.Vector))
	}
	lines = append(lines, browseFieldValue.Render(fmt.Sprintf("%-22s %-6d %-12.2f %-18s %s",
		truncateText(selected.ConversationID, 22),
		selected.TurnID,
		selected.Confidence,
		formatWhen(selected.Timestamp),
		indexed,
	)))
	if selected.PreviousMemoryID != "" {
		lines = append(lines, browseMutedStyle.Render("supersedes "+selected.PreviousMemoryID))
	}

	lines = append(lines, "")
	lines = append(lines, browseSectionStyle.Render("content"), renderRule(m.width))
	lines = append(lines, wrapText(selected.Content, max(20, m.width-2))...)

	lines = append(lines, "")
	lines = append(lines, browseSectionStyle.Render("versions (newest first)"), renderRule(m.width))
	for i, mem := range m.chain {
		cursor := " "
		if i == m.chainCursor {
			cursor = ">"
		}

		line := fmt.Sprintf("%s %-4s %-14s %-17s %.2f  %s",
			cursor,
			fmt.Sprintf("v%d", len(m.chain)-i),
			truncateText(mem.MemoryID, 14),
			formatWhen(mem.Timestamp),
			mem.Confidence,
			truncateText(collapseSpace(mem.Content), max(m.width-50, 10)),
		)

		if i == m.chainCursor {
			line = browseHighlightStyle.Render(line)
		}

		lines = append(lines, line)
	}

	lines = append(lines, "", m.viewFooter())

	return strings.Join(lines, "\n")
}

func (m browseModel) viewFooter() string {
	return browseMutedStyle.Render(m.help.View(m.keys))
}

func loadMemoriesCmd(store storage.Driver) bubbletea.Cmd {
	return func() bubbletea.Msg {
		memories, err := store.ListAll(context.Background())
		return memoriesLoadedMsg{memories: memories, err: err}
	}
}

func loadChainCmd(store storage.Driver, memoryID string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		chain, err := storage.Chain(context.Background(), store, memoryID)
		return chainLoadedMsg{chain: chain, err: err}
	}
}

// conversationCycle builds the filter cycle: all conversations first, then
// each distinct conversation ID in sorted order.
func conversationCycle(memories []memory.Memory) []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, mem := range memories {
		if mem.ConversationID == "" || seen[mem.ConversationID] {
			continue
		}
		seen[mem.ConversationID] = true
		ids = append(ids, mem.ConversationID)
	}
	sort.Strings(ids)

	return append([]string{""}, ids...)
}

func renderMemoryLine(width int, cursor, id, conversation, turn, confidence, created, indexed, content string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	gap := 2
	cursorWidth := 1
	idWidth := 14
	convWidth := 18
	turnWidth := 4
	confWidth := 5
	createdWidth := 16
	indexedWidth := 3
	baseWidth := cursorWidth + idWidth + convWidth + turnWidth + confWidth + createdWidth + indexedWidth + gap*7
	contentWidth := max(lineWidth-baseWidth, 0)

	columns := []string{
		fitCell(cursor, cursorWidth),
		fitCell(truncateText(id, idWidth), idWidth),
		fitCell(truncateText(conversation, convWidth), convWidth),
		fitCellRight(turn, turnWidth),
		fitCellRight(confidence, confWidth),
		fitCell(created, createdWidth),
		fitCell(indexed, indexedWidth),
	}

	if contentWidth > 0 {
		columns = append(columns, fitCell(truncateText(content, contentWidth), contentWidth))
	} else {
		columns = append(columns, "")
	}

	return strings.Join(columns, "  ")
}

func clamp(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

func truncateText(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func formatWhen(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04")
}

func renderHeaderLine(width int, left, right string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= lineWidth {
		return strings.TrimSpace(left + " " + right)
	}
	spacing := lineWidth - leftWidth - rightWidth
	return left + strings.Repeat(" ", spacing) + right
}

func renderRule(width int) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	return browseDividerStyle.Render(strings.Repeat("─", lineWidth))
}

func fitCell(value string, width int) string {
	if width <= 0 {
		return value
	}
	if lipgloss.Width(value) > width {
		return truncateText(value, width)
	}
	return value + strings.Repeat(" ", width-lipgloss.Width(value))
}

func fitCellRight(value string, width int) string {
	if width <= 0 {
		return value
	}
	if lipgloss.Width(value) >= width {
		return value
	}
	return strings.Repeat(" ", width-lipgloss.Width(value)) + value
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	lines := []string{}
	current := ""
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
			current = current + " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
