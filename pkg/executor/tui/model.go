package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/chain"
	"github.com/entrhq/miru/pkg/types"
)

// model is the popup's state: the committed transcript, whatever is
// streaming for the running turn, and the input box.
type model struct {
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	runtime  *chain.Runtime
	channels *types.AgentChannels
	mode     agent.Mode
	onMode   func(agent.Mode) error
	onSwap   func(*agent.DefaultAgent)

	renderer *renderer
	drafts   *DraftStore
	draftSeq int
	copy     func(string) error

	// Committed conversation, rebuilt from history updates.
	history []*types.Message

	// Transient state of the running turn. Cleared on message_end or when
	// the turn ends.
	pendingInput   string
	messageBuffer  *strings.Builder
	thinkingBuffer *strings.Builder
	activity       []string
	isThinking     bool

	// Shown under the transcript until the next submission.
	turnError string
	notice    string

	agentBusy             bool
	currentLoadingMessage string
	step                  int
	maxSteps              int
	totalTokens           int

	width  int
	height int
	ready  bool
}

// modeSwitchedMsg reports the result of a mode toggle.
type modeSwitchedMsg struct {
	mode agent.Mode
	err  error
}

// draftTickMsg fires after input stops changing; seq identifies the edit.
type draftTickMsg struct {
	seq int
}

// noticeMsg shows a one-line status message.
type noticeMsg struct {
	text string
}

const draftDebounce = 500 * time.Millisecond

func newModel(rt *chain.Runtime, drafts *DraftStore) *model {
	ta := textarea.New()
	ta.Placeholder = "Ask Miru anything..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 6
	ta.SetHeight(1)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = headerStyle

	m := &model{
		viewport:       viewport.New(80, 20),
		textarea:       ta,
		spinner:        sp,
		runtime:        rt,
		renderer:       newRenderer(),
		drafts:         drafts,
		copy:           copyToClipboard,
		messageBuffer:  &strings.Builder{},
		thinkingBuffer: &strings.Builder{},
	}

	if a := rt.Agent(); a != nil {
		m.attach(a)
		m.history = a.History()
	}
	if drafts != nil {
		if draft, err := drafts.Load(); err != nil {
			tuiLog.Warnf("failed to load draft: %v", err)
		} else {
			m.textarea.SetValue(draft)
		}
	}
	return m
}

// attach points the model at a (possibly new) agent.
func (m *model) attach(a *agent.DefaultAgent) {
	m.channels = a.GetChannels()
	m.mode = a.Mode()
}
