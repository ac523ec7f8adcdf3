// Command viajeia is an interactive terminal client for the ViajeIA
// travel assistant. It signs the user in, enforces the query quota
// locally and keeps favorites on disk.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	cloudfirestore "cloud.google.com/go/firestore"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/viajeia/viajeia-go/internal/config"
	"github.com/viajeia/viajeia-go/pkg/assistant"
	"github.com/viajeia/viajeia-go/pkg/auth"
	"github.com/viajeia/viajeia-go/pkg/export"
	"github.com/viajeia/viajeia-go/pkg/favorites"
	"github.com/viajeia/viajeia-go/pkg/ledger"
	zerologadapter "github.com/viajeia/viajeia-go/pkg/ledger/logger/zerolog"
	"github.com/viajeia/viajeia-go/pkg/session"
	"github.com/viajeia/viajeia-go/store/firestore"
	"github.com/viajeia/viajeia-go/store/memory"
	"github.com/viajeia/viajeia-go/store/postgres"
	"github.com/viajeia/viajeia-go/store/redis"
	"github.com/viajeia/viajeia-go/store/rtdb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "viajeia:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Log)

	backend, journal, profiles, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	loc := time.Local
	if cfg.Quota.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Quota.Timezone)
		if err != nil {
			return err
		}
	}

	led, err := ledger.New(backend, ledger.Config{
		MaxPerMinute: cfg.Quota.MaxPerMinute,
		MaxPerDay:    cfg.Quota.MaxPerDay,
		Location:     loc,
		Logger:       zerologadapter.NewLogger(logger),
	})
	if err != nil {
		return err
	}

	client := assistant.NewClient(assistant.Config{BaseURL: cfg.Assistant.URL})

	sess, err := session.New(session.Config{
		Ledger:  led,
		Planner: client,
		Journal: journal,
		Logger:  zerologadapter.NewLogger(logger),
	})
	if err != nil {
		return err
	}

	favs, err := favorites.Open(cfg.Favorites.Path)
	if err != nil {
		return err
	}
	defer favs.Close()

	var provider auth.Provider
	if cfg.Firebase.APIKey != "" {
		provider, err = auth.NewFirebase(auth.FirebaseConfig{
			APIKey:   cfg.Firebase.APIKey,
			Profiles: profiles,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn().Msg("no firebase api key configured, using local accounts")
		provider = auth.NewFake()
	}

	app := &cli{
		session:   sess,
		favorites: favs,
		auth:      provider,
		logger:    logger,
		out:       os.Stdout,
	}
	return app.loop(ctx, os.Stdin)
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// buildStore wires the configured quota backend. Only the rtdb backend
// doubles as consult journal and profile store.
func buildStore(ctx context.Context, cfg *config.Config) (ledger.Store, session.Journal, auth.ProfileStore, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), nil, nil, noop, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := redis.New(client, redis.Config{})
		if err != nil {
			return nil, nil, nil, noop, err
		}
		return store, nil, nil, func() { _ = client.Close() }, nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			ConnectionString: cfg.Postgres.DSN(),
			MaxConns:         cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, nil, noop, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, nil, noop, err
		}
		return store, nil, nil, store.Close, nil

	case "firestore":
		client, err := cloudfirestore.NewClient(ctx, cfg.Firebase.ProjectID)
		if err != nil {
			return nil, nil, nil, noop, err
		}
		store, err := firestore.New(client, firestore.Config{})
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, noop, err
		}
		return store, nil, nil, func() { _ = client.Close() }, nil

	case "rtdb":
		app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.Firebase.DatabaseURL})
		if err != nil {
			return nil, nil, nil, noop, err
		}
		client, err := app.Database(ctx)
		if err != nil {
			return nil, nil, nil, noop, err
		}
		store, err := rtdb.New(client, rtdb.Config{})
		if err != nil {
			return nil, nil, nil, noop, err
		}
		return store, store, store, noop, nil
	}
	return nil, nil, nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

type cli struct {
	session   *session.Session
	favorites *favorites.Store
	auth      auth.Provider
	logger    zerolog.Logger
	out       *os.File
}

func (c *cli) loop(ctx context.Context, in *os.File) error {
	fmt.Fprintln(c.out, "ViajeIA - your travel planning assistant")
	fmt.Fprintln(c.out, `Type a travel question, or "help" for commands.`)

	scanner := bufio.NewScanner(in)
	for {
		c.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit", "salir":
			fmt.Fprintln(c.out, "Hasta pronto!")
			return nil
		case "help":
			c.printHelp()
		case "login":
			c.login(ctx, fields[1:])
		case "register":
			c.register(ctx, fields[1:])
		case "logout":
			if err := c.auth.SignOut(ctx); err != nil {
				fmt.Fprintln(c.out, "logout failed:", err)
			}
		case "usage":
			c.printUsage(ctx)
		case "favorites":
			c.listFavorites()
		case "save":
			c.saveFavorite(fields[1:])
		case "remove":
			c.removeFavorite(fields[1:])
		case "export":
			c.exportItinerary(fields[1:])
		default:
			c.ask(ctx, line)
		}
	}
}

func (c *cli) prompt() {
	if id, ok := c.auth.CurrentUser(); ok {
		fmt.Fprintf(c.out, "%s> ", id.Email)
		return
	}
	fmt.Fprint(c.out, "> ")
}

func (c *cli) printHelp() {
	fmt.Fprintln(c.out, `Commands:
  login <email> <password>             sign in
  register <name> <email> <password>   create an account
  logout                               sign out
  usage                                show remaining queries
  save <n>                             save answer n from this session
  favorites                            list saved favorites
  remove <id>                          delete a favorite
  export <file.md>                     write favorites as a markdown itinerary
  quit                                 leave`)
}

func (c *cli) userID() string {
	id, ok := c.auth.CurrentUser()
	if !ok {
		return ""
	}
	return id.UID
}

func (c *cli) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "usage: login <email> <password>")
		return
	}
	id, err := c.auth.SignIn(ctx, args[0], args[1])
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fmt.Fprintln(c.out, "Incorrect email or password.")
			return
		}
		fmt.Fprintln(c.out, "login failed:", err)
		return
	}
	fmt.Fprintf(c.out, "Welcome back, %s!\n", id.DisplayName)
}

func (c *cli) register(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.out, "usage: register <name> <email> <password>")
		return
	}
	id, err := c.auth.SignUp(ctx, args[0], args[1], args[2])
	if err != nil {
		if errors.Is(err, auth.ErrEmailInUse) {
			fmt.Fprintln(c.out, "That email is already registered.")
			return
		}
		fmt.Fprintln(c.out, "registration failed:", err)
		return
	}
	fmt.Fprintf(c.out, "Account created. Welcome, %s!\n", id.DisplayName)
}

func (c *cli) printUsage(ctx context.Context) {
	usage := c.session.Usage(ctx, c.userID())
	fmt.Fprintf(c.out, "Last minute: %d used, %d remaining\n",
		usage.CountLastMinute, usage.RemainingThisMinute)
	fmt.Fprintf(c.out, "Today:       %d used, %d remaining\n",
		usage.CountToday, usage.RemainingToday)
}

func (c *cli) ask(ctx context.Context, question string) {
	result, err := c.session.Ask(ctx, c.userID(), question, nil)
	if err != nil {
		fmt.Fprintln(c.out, "Could not answer:", err)
		return
	}
	if !result.Decision.Allowed {
		fmt.Fprintln(c.out, result.Decision.Message)
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, result.Response.Answer)
	if len(result.Response.Photos) > 0 {
		fmt.Fprintln(c.out, "\nPhotos:")
		for _, photo := range result.Response.Photos {
			fmt.Fprintln(c.out, " ", photo)
		}
	}
	fmt.Fprintf(c.out, "\n(answer %d, \"save %d\" to keep it)\n",
		len(c.session.History()), len(c.session.History()))
}

func (c *cli) saveFavorite(args []string) {
	history := c.session.History()
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: save <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(history) {
		fmt.Fprintf(c.out, "pick an answer between 1 and %d\n", len(history))
		return
	}

	entry := history[n-1]
	info := assistant.Extract(entry.Question)
	fav, err := c.favorites.Save(c.userID(), favorites.Favorite{
		Destination:     info.Destination,
		Dates:           info.Dates,
		Question:        entry.Question,
		Answer:          entry.Answer,
		Photos:          entry.Photos,
		DestinationInfo: entry.DestinationInfo,
	})
	if err != nil {
		fmt.Fprintln(c.out, "save failed:", err)
		return
	}
	fmt.Fprintln(c.out, "Saved as", fav.ID)
}

func (c *cli) listFavorites() {
	favs, err := c.favorites.List(c.userID())
	if err != nil {
		fmt.Fprintln(c.out, "listing failed:", err)
		return
	}
	if len(favs) == 0 {
		fmt.Fprintln(c.out, "No favorites yet.")
		return
	}
	for _, fav := range favs {
		dest := fav.Destination
		if dest == "" {
			dest = "(no destination)"
		}
		fmt.Fprintf(c.out, "%s  %s  %s\n", fav.ID, dest, fav.SavedAt)
	}
}

func (c *cli) removeFavorite(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: remove <id>")
		return
	}
	if err := c.favorites.Remove(c.userID(), args[0]); err != nil {
		if errors.Is(err, favorites.ErrNotFound) {
			fmt.Fprintln(c.out, "No favorite with that id.")
			return
		}
		fmt.Fprintln(c.out, "remove failed:", err)
	}
}

func (c *cli) exportItinerary(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: export <file.md>")
		return
	}

	favs, err := c.favorites.List(c.userID())
	if err != nil {
		fmt.Fprintln(c.out, "export failed:", err)
		return
	}

	owner := ""
	if id, ok := c.auth.CurrentUser(); ok {
		owner = id.DisplayName
	}
	doc := export.Markdown(export.Itinerary{
		Title: "Mi itinerario de viaje",
		Owner: owner,
		Items: favs,
	})
	if err := os.WriteFile(args[0], []byte(doc), 0o644); err != nil {
		fmt.Fprintln(c.out, "export failed:", err)
		return
	}
	fmt.Fprintf(c.out, "Wrote %d favorites to %s\n", len(favs), args[0])
}
