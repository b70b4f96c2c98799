package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/pagecache/internal/profile"
	"github.com/hrygo/pagecache/pager"
	"github.com/hrygo/pagecache/store"
	"github.com/hrygo/pagecache/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "pagecache",
	Short:   "Browse a large SQL result set through a prefetching, snapshot-consistent page cache",
	Version: version,
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:              viper.GetString("mode"),
			Data:              viper.GetString("data"),
			DSN:               viper.GetString("dsn"),
			Driver:            viper.GetString("driver"),
			Version:           version,
			PageSize:          viper.GetInt("page-size"),
			PrefetchWindow:    viper.GetInt("prefetch-window"),
			PrefetchWindowMax: viper.GetInt("prefetch-window-max"),
		}
		if err := instanceProfile.Validate(); err != nil {
			return err
		}
		return run(cmd.Context(), instanceProfile, viper.GetInt("seed"))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of the instance, can be "prod", "dev" or "demo"`)
	flags.String("data", "", "data directory")
	flags.String("dsn", "", "database connection string")
	flags.String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	flags.Int("page-size", 100, "elements fetched per page")
	flags.Int("prefetch-window", 1, "initial prefetch window, in pages")
	flags.Int("prefetch-window-max", 10, "prefetch window cap")
	flags.Int("seed", 0, "insert this many demo entries before browsing")

	for _, name := range []string{"mode", "data", "dsn", "driver", "page-size", "prefetch-window", "prefetch-window-max", "seed"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("pagecache")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func run(ctx context.Context, instanceProfile *profile.Profile, seed int) error {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return err
	}
	st := store.New(dbDriver, instanceProfile)
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	if seed > 0 {
		if err := seedEntries(ctx, st, seed); err != nil {
			return err
		}
	}

	return browse(ctx, st, instanceProfile)
}

// seedEntries inserts n demo entries, fanning out over a few workers.
func seedEntries(ctx context.Context, st *store.Store, n int) error {
	start := time.Now()
	base := start.Unix() - int64(n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, err := st.CreateEntry(gctx, &store.Entry{
				Title:     fmt.Sprintf("entry %06d", i),
				Content:   fmt.Sprintf("demo content for entry %d", i),
				Payload:   "{}",
				CreatedTs: base + int64(i),
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("seeded entries", "count", n, "elapsed", time.Since(start))
	return nil
}

// browse walks the whole result sequentially, then probes random indices,
// and reports how well the cache kept up.
func browse(ctx context.Context, st *store.Store, instanceProfile *profile.Profile) error {
	ep, err := st.NewEntryPager(ctx, &store.FindEntry{}, pager.Options{
		PageSize:  int64(instanceProfile.PageSize),
		Window:    int64(instanceProfile.PrefetchWindow),
		MaxWindow: int64(instanceProfile.PrefetchWindowMax),
	})
	if err != nil {
		return err
	}
	defer ep.Close()

	slog.Info("opened pager",
		"snapshot", ep.SnapshotID(),
		"count", ep.Count(),
		"pages", ep.PageCount(),
		"pageSize", ep.PageSize())

	if ep.Count() == 0 {
		slog.Info("nothing to browse; run with --seed to insert demo entries")
		return nil
	}

	start := time.Now()
	for i := int64(0); i < ep.Count(); i++ {
		if _, err := ep.Get(ctx, i); err != nil {
			return err
		}
	}
	sequential := ep.Stats()
	slog.Info("sequential walk done",
		"elapsed", time.Since(start),
		"hits", sequential.Hits,
		"misses", sequential.Misses,
		"window", ep.Window())

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	start = time.Now()
	for i := 0; i < 100; i++ {
		if _, err := ep.Get(ctx, r.Int63n(ep.Count())); err != nil {
			return err
		}
	}
	random := ep.Stats()
	slog.Info("random probes done",
		"elapsed", time.Since(start),
		"hits", random.Hits-sequential.Hits,
		"misses", random.Misses-sequential.Misses,
		"window", ep.Window())
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
