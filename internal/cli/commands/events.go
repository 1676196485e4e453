package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"byproduct-catalog/internal/cli/ui"
	"byproduct-catalog/internal/kstream"
)

var eventsFlags struct {
	topic string
	group string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "inspect published search and chat events",
}

var eventsTailCmd = &cobra.Command{
	Use:     "tail",
	Short:   "print events as they are published",
	Example: `  $ bpcat events tail --kafka-broker localhost:9092 --topic ` + kstream.TopicChatTurns,
	Args:    cobra.NoArgs,
	RunE:    runEventsTail,
}

func init() {
	eventsTailCmd.Flags().StringVar(&eventsFlags.topic, "topic", kstream.TopicSearchApplied,
		"topic to read: "+strings.Join(kstream.Topics, ", "))
	eventsTailCmd.Flags().StringVar(&eventsFlags.group, "group", "", "consumer group (default: a fresh one per run)")
	eventsCmd.AddCommand(eventsTailCmd)
}

func runEventsTail(cmd *cobra.Command, args []string) error {
	if cfg.KafkaBroker == "" {
		ui.PrintError("no broker configured, set BPCAT_KAFKA_BROKER or --kafka-broker")
		return reported(errors.New("kafka broker required"))
	}
	group := eventsFlags.group
	if group == "" {
		group = "bpcat-tail-" + uuid.NewString()
	}

	ui.PrintInfo("tailing %s on %s", eventsFlags.topic, cfg.KafkaBroker)
	out := cmd.OutOrStdout()
	return kstream.Tail(cmd.Context(), cfg.KafkaBroker, eventsFlags.topic, group, func(msg kafka.Message) error {
		fmt.Fprintf(out, "%s %s %s\n",
			ui.Styles.Dim.Render(msg.Time.Format("15:04:05.000")),
			ui.Styles.Accent.Render(string(msg.Key)),
			msg.Value)
		return nil
	})
}
