// Package main provides the hark CLI application entry point.
// hark matches spoken, typed or transcribed sentences against phrase commands
// and runs the bound actions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hark/internal/config"
	"hark/internal/logger"
	"hark/internal/version"
)

var (
	cfg          *config.Config
	continuous   bool
	detailedInfo bool
	plainOutput  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hark",
	Short: "hark - voice command matcher",
	Long: `hark matches recognized speech against phrase commands such as
"show me *term" or "hello (there)" and runs the action bound to the first match.
Without a subcommand it starts the interactive shell.`,
	PersistentPreRunE: loadConfig,
	RunE:              runListen,
}

// listenCmd represents the listen command (explicit version of default behavior)
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Start the interactive shell",
	Long: `Start an interactive shell where each typed line is an utterance.
Separate alternative transcripts with the alternatives separator, best first.`,
	RunE: runListen,
}

// batchCmd feeds a transcript file through the session
var batchCmd = &cobra.Command{
	Use:   "batch <transcript>",
	Short: "Process a transcript file non-interactively",
	Long: `Process a transcript file line by line, exactly as if the lines were typed
into the interactive shell. Use "-" to read standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// transcribeCmd recognizes audio files through the OpenAI transcription API
var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio>...",
	Short: "Transcribe audio files and match them against the commands",
	Long: `Transcribe each audio file with the OpenAI transcription API and treat the
transcript as a recognition result. Requires HARK_OPENAI_API_KEY or OPENAI_API_KEY.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscribe,
}

// commandsCmd lists the commands of the configured command file
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands and actions of the command file",
	RunE:  runCommands,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		if detailedInfo {
			fmt.Println(version.GetDetailedVersion())
			return
		}
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.StringP("commands-file", "c", "", "YAML file binding phrases to actions")
	flags.StringP("language", "l", "", "Recognition language (BCP 47 tag) [default: en-US]")
	flags.String("separator", "", "Separator between typed alternatives [default: |]")
	flags.Bool("debug", false, "Log recognition diagnostics")
	flags.Bool("auto-restart", true, "Restart recognition when it ends")
	flags.Bool("paused", false, "Start with command dispatch paused")
	flags.Bool("secure", true, "Run as a secure context (single-shot recognition by default)")
	flags.BoolVar(&continuous, "continuous", false, "Keep recognizing after each result")
	flags.BoolVar(&plainOutput, "plain", false, "Disable colored output")

	// Bind flags to viper
	bindings := map[string]string{
		config.KeyLogLevel:              "log-level",
		config.KeyLogFile:               "log-file",
		config.KeyCommandsFile:          "commands-file",
		config.KeyLanguage:              "language",
		config.KeyAlternativesSeparator: "separator",
		config.KeyDebug:                 "debug",
		config.KeyAutoRestart:           "auto-restart",
		config.KeyPaused:                "paused",
		config.KeySecure:                "secure",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	versionCmd.Flags().BoolVar(&detailedInfo, "detailed", false, "Show detailed build information")

	// Add subcommands
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration and sets up logging before any command runs.
func loadConfig(cmd *cobra.Command, _ []string) error {
	// Continuous is tri-state: unset lets the session derive it from the secure flag.
	if cmd.Flags().Changed("continuous") {
		viper.Set(config.KeyContinuous, continuous)
	}

	loaded, err := config.NewLoader(viper.GetViper()).Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}
	return nil
}
