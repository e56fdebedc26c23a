package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openvolunteering/postulate/internal/config"
	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/engine"
	"github.com/openvolunteering/postulate/pkg/model"
	"github.com/openvolunteering/postulate/pkg/postgres"
	"github.com/openvolunteering/postulate/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg    *config.Config
	db     *postgres.DB
	store  *postgres.Store
	eng    *engine.Engine
	logger *zap.Logger
	ctx    context.Context
}

var (
	userID  string
	role    string
	verbose bool
	app     *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "postulate",
		Short: "Postulate CLI - Manage volunteer works, postulations and sessions",
		Long:  `A CLI tool for managing volunteer work offers, postulations, contracts and session attendance.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.logger != nil {
					app.logger.Sync()
				}
				if app.db != nil {
					app.db.Close()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "Acting user ID")
	rootCmd.PersistentFlags().StringVarP(&role, "role", "r", "", "Acting role (volunteer, supplier, admin)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createWorkCmd())
	rootCmd.AddCommand(editWorkCmd())
	rootCmd.AddCommand(deleteWorkCmd())
	rootCmd.AddCommand(listWorksCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(submitCmd())
	rootCmd.AddCommand(editRangeCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(listPostulationsCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(acceptCmd())
	rootCmd.AddCommand(rejectCmd())
	rootCmd.AddCommand(contractsCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(attendanceCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(preferencesCmd())
	rootCmd.AddCommand(setPreferencesCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and engine
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// A .env next to the binary can override the database URL
	godotenv.Load()

	app.cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		app.cfg.DatabaseURL = url
	}

	app.logger, err = logging.InitLogger(app.cfg.Env(), verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.logger.Info("Connecting to database")
	app.db, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	app.store = postgres.NewStore(app.db)
	app.eng = engine.New(app.store, app.logger)
	app.logger.Debug("Engine initialized successfully")

	return nil
}

// actor builds the acting user from the persistent flags
func actor() (model.Actor, error) {
	if userID == "" {
		return model.Actor{}, fmt.Errorf("--user is required for this command")
	}
	switch strings.ToLower(role) {
	case "volunteer":
		return model.Actor{UserID: userID, Role: model.RoleVolunteer}, nil
	case "supplier":
		return model.Actor{UserID: userID, Role: model.RoleSupplier}, nil
	case "admin":
		return model.Actor{UserID: userID, Role: model.RoleAdmin}, nil
	}
	return model.Actor{}, fmt.Errorf("--role must be volunteer, supplier or admin")
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

// parseBlock parses an hour block flag value such as "tue@10:00" or
// "start@14:30".
func parseBlock(s string) (calendar.HourBlock, error) {
	parts := strings.SplitN(s, "@", 2)
	if len(parts) != 2 {
		return calendar.HourBlock{}, fmt.Errorf("invalid hour block %q, expected day@HH:MM", s)
	}
	day, err := calendar.ParseWeekDay(parts[0])
	if err != nil {
		return calendar.HourBlock{}, err
	}
	start, err := calendar.ParseTimeOfDay(parts[1])
	if err != nil {
		return calendar.HourBlock{}, err
	}
	return calendar.HourBlock{Day: day, Start: start}, nil
}

func parseBlocks(values []string) ([]calendar.HourBlock, error) {
	blocks := make([]calendar.HourBlock, 0, len(values))
	for _, v := range values {
		b, err := parseBlock(v)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func parseMonth(yearArg, monthArg string) (engine.MonthWindow, error) {
	year, err := strconv.Atoi(yearArg)
	if err != nil {
		return engine.MonthWindow{}, fmt.Errorf("year must be a number: %w", err)
	}
	month, err := strconv.Atoi(monthArg)
	if err != nil || month < 1 || month > 12 {
		return engine.MonthWindow{}, fmt.Errorf("month must be a number between 1 and 12")
	}
	return engine.MonthWindow{Year: year, Month: time.Month(month)}, nil
}

func workDraftFromFlags(cmd *cobra.Command, name string) (engine.WorkDraft, error) {
	description, _ := cmd.Flags().GetString("description")
	kind, _ := cmd.Flags().GetString("kind")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	capacity, _ := cmd.Flags().GetInt("capacity")
	blockValues, _ := cmd.Flags().GetStringArray("block")
	tags, _ := cmd.Flags().GetStringArray("tag")

	startDate, err := parseDate(start)
	if err != nil {
		return engine.WorkDraft{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return engine.WorkDraft{}, err
	}
	blocks, err := parseBlocks(blockValues)
	if err != nil {
		return engine.WorkDraft{}, err
	}

	return engine.WorkDraft{
		Name:        name,
		Description: description,
		Kind:        model.WorkKind(strings.ToUpper(kind)),
		Range:       model.DateRange{Start: startDate, End: endDate},
		Capacity:    capacity,
		HourBlocks:  blocks,
		Tags:        tags,
	}, nil
}

func addWorkDraftFlags(cmd *cobra.Command) {
	cmd.Flags().String("description", "", "Work description")
	cmd.Flags().String("kind", "RECURRING", "Work kind (SESSION or RECURRING)")
	cmd.Flags().String("start", "", "Work start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Work end date (YYYY-MM-DD)")
	cmd.Flags().Int("capacity", 1, "Number of volunteers needed")
	cmd.Flags().StringArray("block", nil, "Hour block as day@HH:MM (repeatable; use start@HH:MM on SESSION works)")
	cmd.Flags().StringArray("tag", nil, "Work tag (repeatable)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
}

// Command definitions

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.db.RunMigrations(app.ctx); err != nil {
				return err
			}
			fmt.Println("Migrations applied.")
			return nil
		},
	}
}

func createWorkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createWork <name>",
		Short: "Create a new work offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			draft, err := workDraftFromFlags(cmd, args[0])
			if err != nil {
				return err
			}

			work, err := app.eng.CreateWork(app.ctx, who, draft)
			if err != nil {
				return err
			}

			fmt.Printf("\nWork created!\n\n")
			fmt.Printf("Work ID:  %s\n", work.ID)
			fmt.Printf("Kind:     %s\n", work.Kind)
			fmt.Printf("Window:   %s to %s\n", work.StartDate.Format("2006-01-02"), work.EndDate.Format("2006-01-02"))
			fmt.Printf("Capacity: %d\n", work.Capacity)
			for _, b := range work.HourBlocks {
				fmt.Printf("  block: %s\n", b)
			}
			return nil
		},
	}
	addWorkDraftFlags(cmd)
	return cmd
}

func editWorkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editWork <work_id> <name>",
		Short: "Replace a work's definition (only while it has no active postulations)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			draft, err := workDraftFromFlags(cmd, args[1])
			if err != nil {
				return err
			}

			if err := app.eng.EditWork(app.ctx, who, args[0], draft); err != nil {
				return err
			}
			fmt.Println("Work updated.")
			return nil
		},
	}
	addWorkDraftFlags(cmd)
	return cmd
}

func deleteWorkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deleteWork <work_id>",
		Short: "Delete a work and everything attached to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			if err := app.eng.DeleteWork(app.ctx, who, args[0]); err != nil {
				return err
			}
			fmt.Println("Work deleted.")
			return nil
		},
	}
}

func listWorksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listWorks <year> <month>",
		Short: "List works overlapping a month (volunteers see open works, suppliers their own)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			month, err := parseMonth(args[0], args[1])
			if err != nil {
				return err
			}

			if who.Role == model.RoleSupplier {
				works, err := app.eng.SupplierWorks(app.ctx, who, month)
				if err != nil {
					return err
				}
				fmt.Printf("\nFound %d works:\n\n", len(works))
				for _, w := range works {
					printWork(&w, false)
				}
				return nil
			}

			preferredOnly, _ := cmd.Flags().GetBool("preferred")
			var listings []engine.WorkListing
			if preferredOnly {
				listings, err = app.eng.PreferredWorks(app.ctx, who, month)
			} else {
				listings, err = app.eng.OpenWorks(app.ctx, who, month)
			}
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d open works:\n\n", len(listings))
			for _, l := range listings {
				printWork(&l.Work, l.Postulated)
			}
			return nil
		},
	}
	cmd.Flags().Bool("preferred", false, "Filter by hour block preferences")
	return cmd
}

func printWork(w *model.Work, postulated bool) {
	marker := ""
	if postulated {
		marker = " [postulated]"
	}
	fmt.Printf("- %s (%s, %s) %s to %s, capacity %d%s\n",
		w.Name, w.ID, w.Kind,
		w.StartDate.Format("2006-01-02"), w.EndDate.Format("2006-01-02"),
		w.Capacity, marker)
	for _, b := range w.HourBlocks {
		fmt.Printf("    %s\n", b)
	}
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <work_id> <year> <month>",
		Short: "Preview the dates a work occurs on in a month",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonth(args[1], args[2])
			if err != nil {
				return err
			}
			work, err := app.store.GetWork(app.ctx, args[0])
			if err != nil {
				return err
			}
			if work == nil {
				return fmt.Errorf("work %s not found", args[0])
			}

			dates, err := engine.Occurrences(work, month.Range())
			if err != nil {
				return err
			}

			fmt.Printf("\n%s occurs on %d dates:\n\n", work.Name, len(dates))
			for _, d := range dates {
				fmt.Printf("  %s\n", d.Format("2006-01-02 (Monday)"))
			}
			return nil
		},
	}
}

func submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <work_id> <start> <end>",
		Short: "Submit a postulation to a work for a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			start, err := parseDate(args[1])
			if err != nil {
				return err
			}
			end, err := parseDate(args[2])
			if err != nil {
				return err
			}

			p, err := app.eng.Submit(app.ctx, who, args[0], model.DateRange{Start: start, End: end})
			if err != nil {
				return err
			}

			fmt.Printf("\nPostulation submitted!\n\n")
			fmt.Printf("Postulation ID: %s\n", p.ID)
			fmt.Printf("Status:         %s\n", p.Status)
			fmt.Printf("Range:          %s to %s\n", p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))
			return nil
		},
	}
}

func editRangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "editRange <postulation_id> <start> <end>",
		Short: "Change the date range of a pending postulation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			start, err := parseDate(args[1])
			if err != nil {
				return err
			}
			end, err := parseDate(args[2])
			if err != nil {
				return err
			}

			if err := app.eng.EditRange(app.ctx, who, args[0], model.DateRange{Start: start, End: end}); err != nil {
				return err
			}
			fmt.Println("Postulation updated.")
			return nil
		},
	}
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <postulation_id>",
		Short: "Cancel a pending postulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			if err := app.eng.Cancel(app.ctx, who, args[0]); err != nil {
				return err
			}
			fmt.Println("Postulation cancelled.")
			return nil
		},
	}
}

func listPostulationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listPostulations",
		Short: "List your own postulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			ps, err := app.eng.VolunteerPostulations(app.ctx, who)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d postulations:\n\n", len(ps))
			printPostulations(ps)
			return nil
		},
	}
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <work_id>",
		Short: "List the postulations awaiting a decision on your work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			ps, err := app.eng.WorkPendingPostulations(app.ctx, who, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d pending postulations:\n\n", len(ps))
			printPostulations(ps)
			return nil
		},
	}
}

func printPostulations(ps []model.Postulation) {
	for _, p := range ps {
		fmt.Printf("- %s  volunteer %s  work %s  %s to %s  %s\n",
			p.ID, p.VolunteerID, p.WorkID,
			p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"),
			p.Status)
	}
}

func acceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <postulation_id>",
		Short: "Accept a pending postulation and generate its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			inst, err := app.eng.Accept(app.ctx, who, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nPostulation accepted!\n\n")
			fmt.Printf("Contract ID: %s\n", inst.ID)
			fmt.Printf("Volunteer:   %s\n", inst.VolunteerID)
			fmt.Printf("Range:       %s to %s\n", inst.StartDate.Format("2006-01-02"), inst.EndDate.Format("2006-01-02"))
			return nil
		},
	}
}

func rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <postulation_id>",
		Short: "Reject a pending postulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			if err := app.eng.Reject(app.ctx, who, args[0]); err != nil {
				return err
			}
			fmt.Println("Postulation rejected.")
			return nil
		},
	}
}

func contractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "List the contracts you hold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			insts, err := app.eng.VolunteerInstances(app.ctx, who)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d contracts:\n\n", len(insts))
			for _, inst := range insts {
				fmt.Printf("- %s  work %s  %s to %s\n",
					inst.ID, inst.WorkID,
					inst.StartDate.Format("2006-01-02"), inst.EndDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <contract_id>",
		Short: "List the dated sessions of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			sessions, err := app.eng.InstanceSessions(app.ctx, who, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d sessions:\n\n", len(sessions))
			printSessions(sessions)
			return nil
		},
	}
}

func attendanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attendance <work_id> <date> <HH:MM>",
		Short: "List every volunteer's session on one date and hour block of your work",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			date, err := parseDate(args[1])
			if err != nil {
				return err
			}
			start, err := calendar.ParseTimeOfDay(args[2])
			if err != nil {
				return err
			}

			sessions, err := app.eng.WorkSessionsAt(app.ctx, who, args[0], date, start)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d sessions:\n\n", len(sessions))
			printSessions(sessions)
			return nil
		},
	}
}

func printSessions(sessions []model.WorkSession) {
	for _, s := range sessions {
		fmt.Printf("- %s  %s %s at %s  %s\n",
			s.ID, s.Date.Format("2006-01-02"), s.WeekDay, s.Start, s.Status)
	}
}

func recordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <session_id> <attended|absent|pending>",
		Short: "Record attendance for a past session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}

			var status model.SessionStatus
			switch strings.ToLower(args[1]) {
			case "attended":
				status = model.SessionAttended
			case "absent":
				status = model.SessionAbsent
			case "pending":
				status = model.SessionPending
			default:
				return fmt.Errorf("status must be attended, absent or pending")
			}

			if err := app.eng.SetSessionStatus(app.ctx, who, args[0], status); err != nil {
				return err
			}
			fmt.Println("Session recorded.")
			return nil
		},
	}
}

func preferencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preferences",
		Short: "Show your hour block preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			blocks, err := app.eng.Preferences(app.ctx, who)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d preference blocks:\n\n", len(blocks))
			for _, b := range blocks {
				fmt.Printf("  %s\n", b)
			}
			return nil
		},
	}
}

func setPreferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setPreferences",
		Short: "Replace your hour block preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := actor()
			if err != nil {
				return err
			}
			blockValues, _ := cmd.Flags().GetStringArray("block")
			blocks, err := parseBlocks(blockValues)
			if err != nil {
				return err
			}

			if err := app.eng.EditPreferences(app.ctx, who, blocks); err != nil {
				return err
			}
			fmt.Printf("Preferences replaced (%d blocks).\n", len(blocks))
			return nil
		},
	}
	cmd.Flags().StringArray("block", nil, "Hour block as day@HH:MM (repeatable)")
	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reject postulations whose date range has expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			daemon, _ := cmd.Flags().GetBool("daemon")

			if !daemon {
				result, err := app.eng.SweepExpired(app.ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Sweep complete: %d expired, %d failed.\n", result.Expired, result.Failed)
				return nil
			}

			if addr := app.cfg.MetricsAddr; addr != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					app.logger.Info("Serving metrics", zap.String("addr", addr))
					if err := http.ListenAndServe(addr, mux); err != nil {
						app.logger.Error("Metrics server stopped", zap.Error(err))
					}
				}()
			}

			interval := app.cfg.SweepEvery()
			app.logger.Info("Starting sweeper", zap.Duration("interval", interval))
			app.eng.RunSweeper(app.ctx, interval)
			return nil
		},
	}
	cmd.Flags().Bool("daemon", false, "Keep sweeping on the configured interval")
	return cmd
}
