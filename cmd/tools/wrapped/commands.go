package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/money-wrapped/backend/internal/client/backend"
	"github.com/zhouzirui/money-wrapped/backend/internal/config"
	debatemodel "github.com/zhouzirui/money-wrapped/backend/internal/model/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/story"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/wrapped"
)

// app carries the state shared by every subcommand.
type app struct {
	cfg       *config.Config
	client    *backend.Client
	userID    string
	backend   string
	scheduler story.Scheduler
}

func newRootCmd() *cobra.Command {
	return newAppCmd(&app{scheduler: story.Clock})
}

func newAppCmd(a *app) *cobra.Command {

	rootCmd := &cobra.Command{
		Use:           "wrapped",
		Short:         "Money Wrapped - your financial year in review",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg

			if a.userID == "" {
				a.userID = cfg.Data.DefaultUserID
			}
			baseURL := cfg.Client.BackendURL
			if a.backend != "" {
				baseURL = a.backend
			}
			a.client = backend.New(baseURL, cfg.Client.Timeout)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.userID, "user", "", "User id (1-8), defaults to DEFAULT_USER_ID")
	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", "", "API base URL, defaults to BACKEND_URL")

	rootCmd.AddCommand(newStoryCmd(a))
	rootCmd.AddCommand(newInsightsCmd(a))
	rootCmd.AddCommand(newShareCmd(a))
	rootCmd.AddCommand(newBattleCmd(a))
	rootCmd.AddCommand(newChatCmd(a))

	return rootCmd
}

// loadStore fetches the user's snapshot and applies an optional level override.
func (a *app) loadStore(ctx context.Context, level string) (*wrapped.Store, error) {
	store := wrapped.NewStore(a.client)
	if err := store.Load(ctx, a.userID); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load your year: %w", err)
	}
	if level != "" {
		parsed, err := finance.ParsePrivacyLevel(level)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := store.SetPrivacyLevel(ctx, parsed); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func newStoryCmd(a *app) *cobra.Command {
	var level string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "story",
		Short: "Play your year-in-review story cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.loadStore(ctx, level)
			if err != nil {
				return err
			}
			defer store.Close()

			cards := story.Cards(store.Insights())
			if len(cards) == 0 {
				return errors.New("no story available yet")
			}
			if interval <= 0 {
				interval = a.cfg.Client.StoryInterval
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			stopped := false
			render := func(index int, card story.Card) {
				mu.Lock()
				defer mu.Unlock()
				if stopped {
					return
				}
				renderCard(out, index, len(cards), card)
			}

			// The first card goes out before the auto-advance timer is armed.
			render(0, cards[0])
			presenter := story.NewPresenter(cards, interval, a.scheduler, render)
			defer func() {
				presenter.Close()
				mu.Lock()
				stopped = true
				mu.Unlock()
			}()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				input := strings.ToLower(strings.TrimSpace(scanner.Text()))
				switch input {
				case "q", "quit":
					return nil
				case "", "n", "next":
					presenter.Next()
				case "p", "prev":
					presenter.Prev()
				default:
					n, err := strconv.Atoi(input)
					if err != nil || presenter.JumpTo(n-1) != nil {
						mu.Lock()
						fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("unknown command %q", input)))
						mu.Unlock()
					}
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Privacy level override: high, balanced or detailed")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Auto-advance interval, defaults to STORY_INTERVAL")
	return cmd
}

func newInsightsCmd(a *app) *cobra.Command {
	var level string
	var server bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show what your privacy level reveals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if server {
				parsed := finance.PrivacyBalanced
				if level != "" {
					var err error
					if parsed, err = finance.ParsePrivacyLevel(level); err != nil {
						return err
					}
				}
				in, err := a.client.Insights(ctx, a.userID, parsed)
				if err != nil {
					return err
				}
				renderInsights(cmd.OutOrStdout(), in)
				return nil
			}

			store, err := a.loadStore(ctx, level)
			if err != nil {
				return err
			}
			defer store.Close()
			renderInsights(cmd.OutOrStdout(), store.Insights())
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Privacy level: high, balanced or detailed")
	cmd.Flags().BoolVar(&server, "server", false, "Use the server-side projection")
	return cmd
}

func newShareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share [KIND]",
		Short: "Create a share link for your story",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) == 1 {
				kind = args[0]
			}

			store, err := a.loadStore(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := store.Share(cmd.Context(), kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.ShareURL)
			return nil
		},
	}
}

func newBattleCmd(a *app) *cobra.Command {
	var names []string
	var typing time.Duration

	cmd := &cobra.Command{
		Use:   "battle QUESTION",
		Short: "Let 2-4 personas debate your money question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog := persona.Catalog()

			participants := make([]persona.Persona, 0, len(names))
			for _, name := range names {
				t, ok := persona.ParseType(name)
				if !ok {
					return fmt.Errorf("unknown persona %q", name)
				}
				p, _ := catalog.FindByType(t)
				participants = append(participants, p)
			}

			orchestrator := debate.New(a.client, debate.Config{TurnTimeout: a.cfg.Debate.TurnTimeout})
			session, err := orchestrator.StartDebate(strings.Join(args, " "), participants)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Battle Arena: "+session.Question))

			_, err = orchestrator.Run(ctx, session, func(msg debatemodel.Message) {
				if err := typingPause(ctx, a.scheduler, typing); err != nil {
					return
				}
				speaker := catalog.Lookup(string(msg.PersonaType))
				renderDebateMessage(out, speaker, msg)
			})
			return err
		},
	}

	cmd.Flags().StringSliceVar(&names, "personas", []string{"The Cautious Saver", "The Spontaneous Spender"}, "Participants in speaking order")
	cmd.Flags().DurationVar(&typing, "typing", 800*time.Millisecond, "Typing delay before each statement")
	return cmd
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [PERSONA]",
		Short: "Chat with one of the personas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			personaName := string(persona.DefaultType)
			if len(args) == 1 {
				personaName = args[0]
			}

			svc := chat.NewService(persona.Catalog())
			session, err := svc.CreateSession(ctx, personaName)
			if err != nil {
				return err
			}
			p := persona.Catalog().Lookup(string(session.PersonaType))
			out := cmd.OutOrStdout()

			transcript, _ := svc.LoadTranscript(ctx, session.ID)
			for _, msg := range transcript {
				fmt.Fprintf(out, "%s %s\n", accentStyle(p.Color).Render(p.Character+":"), msg.Content)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, userStyle.Render("you: "))
				if !scanner.Scan() {
					return scanner.Err()
				}
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				if text == "/quit" {
					return nil
				}

				reply, err := svc.Reply(ctx, session.ID, text, a.client)
				if err != nil {
					return err
				}
				line := reply.Content
				if reply.Fallback {
					line = mutedStyle.Render(line)
				}
				fmt.Fprintf(out, "%s %s\n", accentStyle(p.Color).Render(p.Character+":"), line)
			}
		},
	}
}

// typingPause waits d on scheduler unless ctx ends first.
func typingPause(ctx context.Context, scheduler story.Scheduler, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	done := make(chan struct{})
	timer := scheduler.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
