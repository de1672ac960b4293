package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teamdash/teamdash/internal/app"
	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/config"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/transport"
)

var rootCmd = &cobra.Command{
	Use:   "teamdash",
	Short: "TeamDash project workspace server",
	Long: `TeamDash runs the project workspace backend:
- serve: HTTP API, websocket feed and MCP endpoint
- mcp: the assistant tools over stdio for local MCP clients
- seed, tools, feed, token: development helpers against the configured database`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(feedCmd())
	rootCmd.AddCommand(tokenCmd())
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return cfg, err
	}
	if level := viper.GetString("log-level"); level != "" {
		if _, err := config.ParseLevel(level); err != nil {
			return cfg, err
		}
		cfg.Log.Level = level
	}
	return cfg, nil
}

// newLogger writes to the configured log file, or to fallback. In stdio mode
// fallback is stderr so stdout stays reserved for JSON-RPC.
func newLogger(cfg config.Config, fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	out, closeFn := fallback, func() {}
	if cfg.Log.Path != "" {
		w, err := newLogFileWriter(cfg.Log.Path, cfg.Log.MaxBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closeFn = w, func() { _ = w.Close() }
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

// withApp loads the configuration and runs fn against a wired application.
func withApp(ctx context.Context, logOut io.Writer, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, websocket hub and MCP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), os.Stdout, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), os.Stderr, func(ctx context.Context, a *app.App) error {
				err := a.MCPServer("stdio").Run(ctx, &sdkmcp.StdioTransport{})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the assistant tool catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := assistant.Catalog()
			if viper.GetBool("json") {
				return printJSON(tools)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Name", "Writes", "Required", "Description"})
			for _, t := range tools {
				tw.AppendRow(table.Row{t.Name, t.Writes, strings.Join(t.Parameters.Required, ","), t.Description})
			}
			tw.Render()
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo project with its team, tasks and assistant thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(owner) == "" {
				return fmt.Errorf("--owner required")
			}
			return withApp(cmd.Context(), os.Stderr, func(ctx context.Context, a *app.App) error {
				res, err := a.Seed(ctx, owner)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("project %s\nthread  %s\n", res.ProjectID, res.ThreadID)
				fmt.Printf("candidates %s\n", strings.Join(res.Candidates, ", "))
				fmt.Printf("assignments %s\n", strings.Join(res.Assignments, ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id")
	return cmd
}

func feedCmd() *cobra.Command {
	var candidateID string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the projects and seats visible to a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(candidateID) == "" {
				return fmt.Errorf("--candidate required")
			}
			return withApp(cmd.Context(), os.Stderr, func(ctx context.Context, a *app.App) error {
				c, err := a.Staffing.GetCandidate(ctx, candidateID)
				if err != nil {
					return err
				}
				sess, err := a.Feeds.Open(ctx, c.Identity())
				if err != nil {
					return err
				}
				feed := sess.Snapshot().Feed()
				if viper.GetBool("json") {
					return printJSON(feed)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("%s (revision %d)", c.DisplayName, feed.Revision)
				tw.AppendHeader(table.Row{"Project", "Assignment", "Profile", "Seniority", "Status", "Bound"})
				for _, entry := range feed.Projects {
					for _, seat := range entry.Assignments {
						tw.AppendRow(table.Row{entry.Project.Title, seat.ID, seat.ProfileID, seat.Seniority, seat.BookingStatus, seat.Bound()})
					}
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate", "", "candidate id")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		p         transport.Principal
		seniority string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			auth, err := transport.NewJWTAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			if err != nil {
				return err
			}
			p.Seniority = staffing.Seniority(seniority)
			token, err := auth.Issue(p, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&p.CandidateID, "candidate", "", "candidate id")
	cmd.Flags().StringVar(&p.ProfileID, "profile", "", "candidate profile id")
	cmd.Flags().StringVar(&seniority, "seniority", "", "candidate seniority")
	cmd.Flags().StringSliceVar(&p.Roles, "role", nil, "role, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
