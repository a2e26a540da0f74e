package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"llmchat/src/app"
	"llmchat/src/components/chat"
	"llmchat/src/config"
	"llmchat/src/logging"
	"llmchat/src/models"
	"llmchat/src/services/api"
	"llmchat/src/services/connectivity"
	"llmchat/src/services/exchange"
	"llmchat/src/services/storage"
	"llmchat/src/services/storage/repositories"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	baseURL    string
	verbose    bool
}

// env is built once per invocation in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
}

func (e *env) setup(flags *globalFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := logging.New(cfg.Logging, flags.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	e.cfg = cfg
	e.logger = logger
	e.client = api.NewClient(cfg.API.BaseURL, api.WithLogger(logger))
	return nil
}

func (e *env) repository() *repositories.RemoteRepository {
	return repositories.NewRemoteRepository(e.client, e.cfg.GetListLimit())
}

// newRootCmd builds the command tree. Running the root command starts the TUI.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	e := &env{}

	root := &cobra.Command{
		Use:           "llmchat",
		Short:         "Terminal client for the LLM chat backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipSetup"] == "true" {
				return nil
			}
			return e.setup(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), e)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "path to the config file")
	pf.StringVar(&flags.baseURL, "base-url", "", "backend base URL (overrides config and LLMCHAT_BASE_URL)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newHealthCmd(e),
		newStatusCmd(e),
		newListCmd(e),
		newShowCmd(e),
		newNewCmd(e),
		newSendCmd(e),
		newDeleteCmd(e),
		newConfigCmd(flags),
	)
	return root
}

func runTUI(ctx context.Context, e *env) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := connectivity.NewMonitor(e.client,
		connectivity.WithInterval(e.cfg.GetHealthInterval()),
		connectivity.WithTimeout(e.cfg.GetHealthTimeout()),
		connectivity.WithLogger(e.logger),
	)
	model := app.New(ctx, app.Options{
		Monitor:     monitor,
		Repository:  e.repository(),
		Sender:      e.client,
		Logger:      e.logger,
		BaseURL:     e.cfg.API.BaseURL,
		SendTimeout: e.cfg.GetSendTimeout(),
		Markdown:    e.cfg.UI.Markdown,
	})
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if e.cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)

	e.logger.Info("starting llmchat", zap.String("version", version), zap.String("base_url", e.cfg.API.BaseURL))
	monitor.Start(ctx)
	defer monitor.Stop()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		e.logger.Error("application failed", zap.Error(err))
		return err
	}
	e.logger.Info("llmchat exited")
	return nil
}

func newHealthCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the backend once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("%s is unreachable: %w", e.client.BaseURL(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable\n", e.client.BaseURL())
			return nil
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend reachability and conversation count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				healthErr error
				page      *models.ConversationPage
				listErr   error
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				healthErr = e.client.Health(ctx)
				return nil
			})
			g.Go(func() error {
				page, listErr = e.client.ListConversations(ctx, 1, 0)
				return nil
			})
			_ = g.Wait()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:       %s\n", e.client.BaseURL())
			if healthErr != nil {
				fmt.Fprintf(out, "health:        unreachable (%v)\n", healthErr)
			} else {
				fmt.Fprintln(out, "health:        ok")
			}
			if listErr != nil {
				fmt.Fprintf(out, "conversations: unavailable (%v)\n", listErr)
			} else {
				fmt.Fprintf(out, "conversations: %d\n", page.Total)
			}
			if healthErr != nil {
				return errors.New("backend unreachable")
			}
			return nil
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := e.client.ListConversations(cmd.Context(), e.cfg.GetListLimit(), offset)
			if err != nil {
				return err
			}
			printConversations(cmd.OutOrStdout(), page)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "number of conversations to skip")
	return cmd
}

func printConversations(w io.Writer, page *models.ConversationPage) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tMESSAGES\tUPDATED")
	for _, c := range page.Conversations {
		updated := string(c.UpdatedAt)
		if t, err := c.UpdatedAt.Time(); err == nil {
			updated = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.DisplayTitle(), len(c.Messages), updated)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d of %d conversations\n", len(page.Conversations), page.Total)
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := e.client.GetConversation(cmd.Context(), args[0])
			if err != nil {
				if models.IsNotFound(err) {
					return fmt.Errorf("conversation %s not found", args[0])
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\n", conv.DisplayTitle(), conv.ID)
			if len(conv.Messages) == 0 {
				fmt.Fprintln(out, "(no messages)")
			}
			for _, m := range conv.Messages {
				printMessage(out, m)
			}
			return nil
		},
	}
}

func printMessage(w io.Writer, m models.Message) {
	if clock := m.Timestamp.Clock(); clock != "" {
		fmt.Fprintf(w, "[%s] ", clock)
	}
	fmt.Fprintf(w, "%s: %s\n", chat.RoleLabel(m.Role), m.Content)
}

func newNewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Create a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := storage.DefaultTitle
			if len(args) == 1 {
				title = args[0]
			}
			conv, err := e.client.CreateConversation(cmd.Context(), title)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conv.ID)
			return nil
		},
	}
}

func newSendCmd(e *env) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "send <text>",
		Short: "Send one message and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewStore(e.repository(), storage.WithLogger(e.logger))
			if conversationID != "" {
				store.SetCurrent(conversationID)
			}
			protocol := exchange.NewProtocol(store, e.client,
				exchange.WithLogger(e.logger),
				exchange.WithSendTimeout(e.cfg.GetSendTimeout()),
			)

			id, err := protocol.Send(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reply, ok := chat.LastReply(store.Thread(id))
			if !ok {
				return fmt.Errorf("backend returned no reply")
			}
			fmt.Fprintln(out, reply.Content)
			if conversationID == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "conversation: %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "continue an existing conversation")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.client.DeleteConversation(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipSetup": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(flags.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", flags.configPath)
			}
			cfg := config.DefaultConfig()
			if flags.baseURL != "" {
				cfg.API.BaseURL = flags.baseURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if err := cfg.Save(flags.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", flags.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}
