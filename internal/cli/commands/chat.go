package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"byproduct-catalog/internal/apierror"
	"byproduct-catalog/internal/chatstream"
	"byproduct-catalog/internal/cli/ui"
	"byproduct-catalog/internal/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "ask the catalog assistant",
	Long: `Ask the catalog assistant. With a question the streamed answer is printed
and the command exits; without one an interactive session starts. An empty
line or Ctrl-D ends the session.`,
	Example: `  $ bpcat chat "do you have okara?"
  $ bpcat chat`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	client, err := newChatClient()
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return reported(err)
	}
	publisher := newPublisher()
	defer closePublisher(publisher)

	out := cmd.OutOrStdout()
	printer := &answerPrinter{w: out}
	opts := []chatstream.ConversationOption{
		chatstream.WithConversationLogger(log),
		chatstream.WithOnUpdate(printer.update),
	}
	if publisher != nil {
		opts = append(opts, chatstream.WithTurnPublisher(publisher))
	}
	conv := chatstream.NewConversation(client, opts...)

	if len(args) > 0 {
		return ask(cmd, conv, printer, strings.Join(args, " "))
	}

	fmt.Fprintln(out, ui.Styles.Accent.Render(chatstream.Greeting))
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, ui.Styles.Bold.Render("› "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return nil
		}
		// Errors were already reported; the session goes on.
		_ = ask(cmd, conv, printer, question)
	}
}

func ask(cmd *cobra.Command, conv *chatstream.Conversation, printer *answerPrinter, question string) error {
	err := conv.Submit(cmd.Context(), question)
	printer.finish()
	switch apierror.KindOf(err) {
	case apierror.KindNone:
	case apierror.KindHTTPStatus, apierror.KindNetwork:
		ui.PrintErrorBox("Chat failed", apierror.Describe("chat", err))
	default:
		ui.PrintError("%v", err)
	}
	return reported(err)
}

// answerPrinter writes the part of the streaming assistant message that has
// not been printed yet.
type answerPrinter struct {
	w       io.Writer
	id      string
	printed int
}

func (p *answerPrinter) update(msgs []model.ChatMessage) {
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant || last.Content == chatstream.Greeting {
		return
	}
	if last.ID != p.id {
		p.id, p.printed = last.ID, 0
	}
	if len(last.Content) > p.printed {
		fmt.Fprint(p.w, last.Content[p.printed:])
		p.printed = len(last.Content)
	}
}

func (p *answerPrinter) finish() {
	if p.printed > 0 {
		fmt.Fprintln(p.w)
	}
	p.id, p.printed = "", 0
}
