package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sqliteadapter "github.com/mi-xalis/power-scouter/internal/adapters/db/sqlite"
	httpadapter "github.com/mi-xalis/power-scouter/internal/adapters/http"
	rpcadapter "github.com/mi-xalis/power-scouter/internal/adapters/rpcjson"
	"github.com/mi-xalis/power-scouter/internal/application"
	"github.com/mi-xalis/power-scouter/internal/domain"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "powerscouter",
		Usage: "Workout tracking server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			profileCommand(),
			categoriesCommand(),
			exercisesCommand(),
			sessionsCommand(),
			logCommand(),
			reportCommand(),
			setsCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, ":8080", "/tmp/powerscouter.sock", "powerscouter.db", "admin", "admin")
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Value: "/tmp/powerscouter.sock", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Value: "powerscouter.db", Usage: "SQLite database path"},
			&cli.StringFlag{Name: "bootstrap-admin-user", Value: "admin", Usage: "initial admin username"},
			&cli.StringFlag{Name: "bootstrap-admin-password", Value: "admin", Usage: "initial admin password when users are empty"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("addr"), c.String("rpc-socket"), c.String("db-path"), c.String("bootstrap-admin-user"), c.String("bootstrap-admin-password"))
		},
	}
}

func runServer(ctx context.Context, addr, rpcSocket, dbPath, bootstrapUser, bootstrapPassword string) error {
	db, err := sqliteadapter.Open(dbPath)
	if err != nil {
		return err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	repo := sqliteadapter.NewRepository(db)
	service := application.NewWorkoutService(repo)
	if err := service.BootstrapAdmin(ctx, bootstrapUser, bootstrapPassword); err != nil {
		return err
	}
	if err := service.SeedDefaultCategories(ctx); err != nil {
		return err
	}

	router := httpadapter.NewRouter(service)
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(rpcSocket, service)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Printf("json-rpc listening on unix://%s", rpcSocket)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						UserID   uint   `json:"user_id"`
						Username string `json:"username"`
					}
					if err := doRegister(ctx, cfg, c.String("username"), c.String("password"), &out); err != nil {
						return err
					}
					fmt.Printf("registered %s (#%d)\n", out.Username, out.UserID)
					return nil
				},
			},
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds"},
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080"},
					&cli.StringFlag{Name: "socket", Value: "/tmp/powerscouter.sock"},
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token    string `json:"token"`
						Username string `json:"username"`
					}
					err := doLogin(ctx, cfg, c.String("username"), c.String("password"), &out)
					if err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.Username)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						ID       uint   `json:"id"`
						Username string `json:"username"`
						IsAdmin  bool   `json:"is_admin"`
					}
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{
						{"id", uintToString(out.ID)},
						{"username", out.Username},
						{"admin", fmt.Sprintf("%t", out.IsAdmin)},
					})
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Clear local CLI auth token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					_ = doLogout(ctx, cfg)
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Profile commands",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show profile",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Profile
					if err := doProfileGet(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printProfile(out)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "age"},
					&cli.FloatFlag{Name: "weight-kg"},
					&cli.FloatFlag{Name: "height-cm"},
					&cli.StringFlag{Name: "gender"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					fields := map[string]any{}
					if c.IsSet("age") {
						fields["age"] = c.Int("age")
					}
					if c.IsSet("weight-kg") {
						fields["weight_kg"] = c.Float("weight-kg")
					}
					if c.IsSet("height-cm") {
						fields["height_cm"] = c.Float("height-cm")
					}
					if c.IsSet("gender") {
						fields["gender"] = c.String("gender")
					}
					if len(fields) == 0 {
						return fmt.Errorf("nothing to update")
					}
					if err := doProfileUpdate(ctx, cfg, fields); err != nil {
						return err
					}
					fmt.Println("profile updated")
					return nil
				},
			},
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Exercise category commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Category
					if err := doCategoriesList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printCategories(out)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Add a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Category
					if err := doCategoriesAdd(ctx, cfg, c.String("name"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printCategories([]domain.Category{out})
					return nil
				},
			},
		},
	}
}

func exercisesCommand() *cli.Command {
	return &cli.Command{
		Name:  "exercises",
		Usage: "Exercise commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List exercises",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "category-id", Usage: "filter by category id, repeatable"},
					&cli.StringFlag{Name: "q", Usage: "name substring filter"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					categoryIDs, err := parseUintList(c.StringSlice("category-id"))
					if err != nil {
						return err
					}
					var out []domain.Exercise
					if err := doExercisesList(ctx, cfg, categoryIDs, c.String("q"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printExercises(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create exercise (admin only)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringSliceFlag{Name: "category-id", Usage: "link to category id, repeatable"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					categoryIDs, err := parseUintList(c.StringSlice("category-id"))
					if err != nil {
						return err
					}
					var out domain.Exercise
					if err := doExercisesCreate(ctx, cfg, c.String("name"), c.String("description"), categoryIDs, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printExercises([]domain.Exercise{out})
					return nil
				},
			},
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Workout session commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List my sessions",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Session
					if err := doSessionsList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printSessions(out)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Create a session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "notes"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Session
					if err := doSessionsCreate(ctx, cfg, c.String("name"), c.String("date"), c.String("notes"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printSessions([]domain.Session{out})
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a session and its sets",
				Flags: []cli.Flag{&cli.UintFlag{Name: "session-id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doSessionsDelete(ctx, cfg, uint(c.Uint("session-id"))); err != nil {
						return err
					}
					fmt.Println("session deleted")
					return nil
				},
			},
		},
	}
}

func logCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Logbook commands",
		Commands: []*cli.Command{
			{
				Name:  "select",
				Usage: "Select working session (0 starts fresh)",
				Flags: []cli.Flag{&cli.UintFlag{Name: "session-id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Session
					if err := doLogSelect(ctx, cfg, uint(c.Uint("session-id")), &out); err != nil {
						return err
					}
					if out.ID == 0 {
						fmt.Println("started a fresh logbook")
						return nil
					}
					fmt.Printf("working on session #%d (%s)\n", out.ID, out.Name)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Buffer a set for an exercise",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "exercise-id", Required: true},
					&cli.FloatFlag{Name: "weight"},
					&cli.BoolFlag{Name: "bodyweight", Usage: "use profile body weight plus --weight"},
					&cli.IntFlag{Name: "reps", Required: true},
					&cli.IntFlag{Name: "rpe"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.SetEntry
					err = doLogAddSet(ctx, cfg, uint(c.Uint("exercise-id")), c.Bool("bodyweight"), c.Float("weight"), int(c.Int("reps")), int(c.Int("rpe")), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					fmt.Printf("buffered %s x %d @ rpe %d\n", formatWeight(out.Weight), out.Reps, out.RPE)
					return nil
				},
			},
			{
				Name:  "dup",
				Usage: "Duplicate the last buffered set of an exercise",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "exercise-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.SetEntry
					if err := doLogDuplicateLast(ctx, cfg, uint(c.Uint("exercise-id")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					fmt.Printf("buffered %s x %d @ rpe %d\n", formatWeight(out.Weight), out.Reps, out.RPE)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Drop buffered sets of an exercise",
				Flags: []cli.Flag{&cli.UintFlag{Name: "exercise-id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doLogClear(ctx, cfg, uint(c.Uint("exercise-id"))); err != nil {
						return err
					}
					fmt.Println("cleared")
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Show the buffered logbook",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.LogbookView
					if err := doLogShow(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printLogbook(out)
					return nil
				},
			},
			{
				Name:  "save",
				Usage: "Commit the buffered logbook",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						SavedSets int `json:"saved_sets"`
					}
					if err := doLogSave(ctx, cfg, &out); err != nil {
						return err
					}
					fmt.Printf("saved %d sets\n", out.SavedSets)
					return nil
				},
			},
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Progress reports",
		Commands: []*cli.Command{
			{
				Name:  "exercise",
				Usage: "Per-exercise progress over time",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "exercise-id", Required: true},
					&cli.BoolFlag{Name: "sets", Usage: "also list underlying sets"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.ExerciseReport
					if err := doReportExercise(ctx, cfg, uint(c.Uint("exercise-id")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printExerciseReport(out)
					if c.Bool("sets") {
						printSetDetails(out.Sets)
					}
					return nil
				},
			},
			{
				Name:  "session",
				Usage: "Per-session totals and breakdown",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "session-id", Required: true},
					&cli.BoolFlag{Name: "sets", Usage: "also list underlying sets"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.SessionReport
					if err := doReportSession(ctx, cfg, uint(c.Uint("session-id")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printSessionReport(out)
					if c.Bool("sets") {
						printSetDetails(out.Sets)
					}
					return nil
				},
			},
		},
	}
}

func setsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sets",
		Usage: "Saved set commands",
		Commands: []*cli.Command{
			{
				Name:  "delete",
				Usage: "Delete saved sets by id",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Required: true, Usage: "set id, repeatable"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					ids, err := parseUintList(c.StringSlice("id"))
					if err != nil {
						return err
					}
					if err := doSetsDelete(ctx, cfg, ids); err != nil {
						return err
					}
					fmt.Printf("deleted %d sets\n", len(ids))
					return nil
				},
			},
		},
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
