package commands

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

var chatPageSize int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Ask questions one after another. Long record lists are paged:
type "next" or "prev" to move through the last result and "exit" to quit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVar(&chatPageSize, "page-size", 0, "records per page (default from config)")
	rootCmd.AddCommand(chatCmd)
}

// chatAction is what one line of chat input asks for.
type chatAction int

const (
	chatAsk chatAction = iota
	chatNext
	chatPrev
	chatExit
	chatSkip
)

func parseChatInput(line string) chatAction {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return chatSkip
	case "next", "n", "more":
		return chatNext
	case "prev", "previous", "p", "back":
		return chatPrev
	case "exit", "quit", "q", "bye":
		return chatExit
	default:
		return chatAsk
	}
}

// chatSession holds the caller-side page cursor for the last question.
type chatSession struct {
	router   *retrieval.Router
	pageSize int

	question string
	page     int
	last     *retrieval.Response
}

// errNoPage is returned when paging is requested with nothing to page.
var errNoPage = errors.New("no more pages")

// ask resolves a fresh question from its first page.
func (s *chatSession) ask(ctx context.Context, question string) (*retrieval.Response, error) {
	resp, err := s.router.Query(ctx, retrieval.Request{Question: question, PageSize: s.pageSize})
	if err != nil {
		return nil, err
	}
	s.question = question
	s.page = 0
	s.last = resp
	return resp, nil
}

// turn moves the cursor by delta pages and re-resolves the last question.
func (s *chatSession) turn(ctx context.Context, delta int) (*retrieval.Response, error) {
	if s.last == nil || s.last.Page == nil {
		return nil, errNoPage
	}
	if (delta > 0 && !s.last.Page.HasNext) || (delta < 0 && !s.last.Page.HasPrev) {
		return nil, errNoPage
	}

	resp, err := s.router.Query(ctx, retrieval.Request{
		Question: s.question,
		Page:     s.page + delta,
		PageSize: s.pageSize,
	})
	if err != nil {
		return nil, err
	}
	if resp.Page != nil {
		s.page = resp.Page.Index
	}
	s.last = resp
	return resp, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	snap := engine.Store.Snapshot()
	ui.Section("Inventory Assistant")
	ui.Info("Catalog loaded: %d records", snap.Catalog.Len())
	ui.Hint(`Type a question, "next"/"prev" to page, "exit" to quit.`)

	session := &chatSession{router: engine.Router, pageSize: chatPageSize}
	reader := ui.NewLineReader(cmd.InOrStdin())

	for {
		line, err := reader.Prompt("You:")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var resp *retrieval.Response
		switch parseChatInput(line) {
		case chatSkip:
			continue
		case chatExit:
			ui.Message("Goodbye.")
			return nil
		case chatNext:
			resp, err = session.turn(ctx, 1)
		case chatPrev:
			resp, err = session.turn(ctx, -1)
		default:
			resp, err = session.ask(ctx, line)
		}

		if errors.Is(err, errNoPage) {
			ui.Warning("Nothing to page through.")
			continue
		}
		if err != nil {
			ui.Error("%v", err)
			continue
		}

		ui.Newline()
		renderResponse(resp)
		if resp.Page != nil && resp.Page.HasNext {
			ui.Hint(`Type "next" for more.`)
		}
		ui.Newline()
	}
}
