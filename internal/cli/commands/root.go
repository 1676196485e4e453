package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"byproduct-catalog/internal/catalog"
	"byproduct-catalog/internal/chatstream"
	"byproduct-catalog/internal/cli/ui"
	"byproduct-catalog/internal/config"
	"byproduct-catalog/internal/kstream"
	"byproduct-catalog/internal/logging"
)

const version = "0.3.0"

// Settings loaded by the root command before any subcommand runs.
var (
	cfg config.Config
	log *logrus.Logger
)

var rootFlags struct {
	apiURL      string
	logLevel    string
	logFormat   string
	timeout     time.Duration
	kafkaBroker string
}

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "bpcat",
	Short:   "Agricultural by-product catalog CLI",
	Version: version,
	Long: `Search the by-product catalog with keyword and facet filters, inspect
products, ask the catalog assistant, and run a local mock of the catalog API.`,
	Example: `  # Keyword search narrowed to two material categories
  $ bpcat search bran --facet cid=c1,c2

  # Interactive search
  $ bpcat search -i

  # Ask the assistant
  $ bpcat chat "which by-products are high in fiber?"

  # Serve the mock API with random latency
  $ bpcat serve --jitter 800ms`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// ExecuteContext runs the root command under ctx.
func ExecuteContext(ctx context.Context) error {
	rootCmd.SetVersionTemplate(fmt.Sprintf("bpcat version %s\n", version))
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.apiURL, "api-url", "", "catalog API base URL (env BPCAT_API_URL)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "log level (env BPCAT_LOG_LEVEL)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "log format: text or json (env BPCAT_LOG_FORMAT)")
	pf.DurationVar(&rootFlags.timeout, "timeout", 0, "catalog request timeout (env BPCAT_REQUEST_TIMEOUT)")
	pf.StringVar(&rootFlags.kafkaBroker, "kafka-broker", "", "publish events to this broker (env BPCAT_KAFKA_BROKER)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(eventsCmd)

	rootCmd.SetUsageTemplate(usageTemplate())
}

func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if rootFlags.apiURL != "" {
		loaded.APIURL = rootFlags.apiURL
	}
	if rootFlags.logLevel != "" {
		loaded.LogLevel = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		loaded.LogFormat = rootFlags.logFormat
	}
	if rootFlags.timeout > 0 {
		loaded.RequestTimeout = rootFlags.timeout
	}
	if rootFlags.kafkaBroker != "" {
		loaded.KafkaBroker = rootFlags.kafkaBroker
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(loaded.LogLevel, loaded.LogFormat)
	if err != nil {
		return err
	}
	cfg, log = loaded, logger
	return nil
}

func newCatalogClient() (*catalog.Client, error) {
	return catalog.NewClient(cfg.APIURL,
		catalog.WithTimeout(cfg.RequestTimeout),
		catalog.WithLogger(log))
}

func newChatClient() (*chatstream.Client, error) {
	return chatstream.NewClient(cfg.APIURL, chatstream.WithLogger(log))
}

// reportedError marks an error that was already shown to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// IsReported reports whether a command already printed err.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// newPublisher returns nil when no broker is configured.
func newPublisher() *kstream.Publisher {
	if cfg.KafkaBroker == "" {
		return nil
	}
	log.WithField("broker", cfg.KafkaBroker).Debug("publishing events")
	return kstream.NewPublisher(cfg.KafkaBroker, log)
}

func closePublisher(p *kstream.Publisher) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		log.WithError(err).Warn("failed to flush events")
	}
}

func usageTemplate() string {
	return ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}` + ui.Styles.Bold.Render("GLOBAL OPTIONS") + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
