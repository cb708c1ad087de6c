package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spigell/interview-conductor/internal/client"
	"github.com/spigell/interview-conductor/internal/logger"
	"github.com/spigell/interview-conductor/internal/tui"

	"github.com/charmbracelet/bubbletea"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultServerURL = "http://localhost:5000"

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview against the turn service",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("title", "t", "", "job title to interview for")
	interviewCmd.Flags().String("description", "", "job description the questions are based on")
	interviewCmd.Flags().StringP("server", "s", "", "turn service base URL")

	viper.BindPFlag("client.server-url", interviewCmd.Flags().Lookup("server"))
}

func runInterview(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	jobTitle, err := requiredInput(cmd, "title", "Job title")
	if err != nil {
		logger.Fatal("reading job title", zap.Error(err))
	}

	jobDescription, err := requiredInput(cmd, "description", "Job description")
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	serverURL := defaultServerURL
	if config.Client != nil && strings.TrimSpace(config.Client.ServerURL) != "" {
		serverURL = config.Client.ServerURL
	}
	if flagged := strings.TrimSpace(viper.GetString("client.server-url")); flagged != "" {
		serverURL = flagged
	}

	api := client.New(serverURL)
	orch := client.NewOrchestrator(api, jobTitle, jobDescription, emptyAnswerPolicy(config.Client))

	logger.Debug("starting interview client",
		zap.String("server_url", serverURL),
		zap.String("session_id", orch.SessionID()),
	)

	program := tea.NewProgram(tui.NewModel(orch, api), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Fatal("interview client failed", zap.Error(err))
	}
}

// requiredInput takes the value from the flag when provided, and prompts for
// it otherwise.
func requiredInput(cmd *cobra.Command, flag, label string) (string, error) {
	if value := strings.TrimSpace(cmd.Flag(flag).Value.String()); value != "" {
		return value, nil
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New(strings.ToLower(label) + " must not be empty")
			}
			return nil
		},
	}

	value, err := prompt.Run()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(value), nil
}

func emptyAnswerPolicy(cfg *ClientConfig) client.EmptyAnswerPolicy {
	if cfg == nil {
		return client.EmptyAnswerVoiceOnly
	}

	switch strings.TrimSpace(strings.ToLower(cfg.EmptyAnswers)) {
	case "always":
		return client.EmptyAnswerAllowed
	case "never":
		return client.EmptyAnswerRejected
	default:
		return client.EmptyAnswerVoiceOnly
	}
}
