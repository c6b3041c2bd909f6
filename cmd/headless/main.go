package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-worldtree/internal/arena"
	"github.com/lao-tseu-is-alive/go-worldtree/pkg/cell"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

type runStats struct {
	runIndex int
	seed     uint64

	ticks           int
	waves           int
	highScore       int
	lastScore       int
	finalMode       string
	losses          int
	players         int
	enemies         int
	commands        int
	firstBattleTick int
}

func main() {
	var runs, ticks int
	var seedBase uint64
	var configFile, schemaFile string
	var debug bool

	flag.IntVar(&runs, "runs", 3, "number of headless runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run")
	flag.Uint64Var(&seedBase, "seed-base", 42, "random seed of run 1, incremented per run")
	flag.StringVar(&configFile, "config", "", "host configuration, empty for the defaults")
	flag.StringVar(&schemaFile, "schema", "configs/worldtree.schema.json", "JSON schema of the configuration")
	flag.BoolVar(&debug, "debug", false, "print the arena log")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}

	cfg := arena.DefaultConfig()
	if configFile != "" {
		loaded, err := arena.LoadConfig(configFile, schemaFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	catalog, err := cfg.LoadCatalog()
	if err != nil {
		log.Fatal(err)
	}

	var logger golog.Logger = golog.DiscardLogger
	if debug {
		logger = golog.New(golog.DebugLevel, os.Stdout)
	}

	fmt.Printf("=== Headless World Tree Report ===\n")
	fmt.Printf("runs=%d ticks=%d seed_base=%d dt=%s\n\n", runs, ticks, seedBase, cfg.TickDuration())

	ctx := context.Background()
	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + uint64(i)
		stats, err := run(ctx, runConfig(cfg, seed), catalog, logger, ticks)
		if err != nil {
			log.Fatal(err)
		}
		stats.runIndex = i + 1
		all = append(all, stats)
		printRun(stats)
	}
	printAggregate(all)
}

// runConfig copies cfg so runs never share tuning.
func runConfig(cfg *arena.Config, seed uint64) *arena.Config {
	c := *cfg
	physics := *cfg.Physics
	c.Physics = &physics
	c.RandomSeed = seed
	return &c
}

func run(ctx context.Context, cfg *arena.Config, catalog cell.Catalog, logger golog.Logger, ticks int) (runStats, error) {
	stats := runStats{seed: cfg.RandomSeed, firstBattleTick: -1}

	system, err := actor.NewActorSystem(fmt.Sprintf("WorldTreeHeadless%d", cfg.RandomSeed),
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return stats, err
	}
	if err := system.Start(ctx); err != nil {
		return stats, err
	}
	defer system.Stop(ctx)

	pid, err := system.Spawn(ctx, "arena", arena.NewActor(nil, cfg, catalog))
	if err != nil {
		return stats, fmt.Errorf("spawn arena: %w", err)
	}

	var player bot
	dt := cfg.TickDuration()
	prevMode := ""
	for t := 0; t < ticks; t++ {
		status, err := askStatus(ctx, pid)
		if err != nil {
			return stats, err
		}
		mode := status.GetFields()["mode"].GetStringValue()
		if mode != prevMode && mode == arena.ModeLose.String() {
			stats.losses++
		}
		if mode == arena.ModeBattle.String() && stats.firstBattleTick < 0 {
			stats.firstBattleTick = t
		}
		prevMode = mode

		if cmd := player.nextCommand(status); cmd != nil {
			stats.commands++
			if err := actor.Tell(ctx, pid, cmd); err != nil {
				return stats, err
			}
		}
		if err := actor.Tell(ctx, pid, arena.Tick(dt)); err != nil {
			return stats, err
		}
	}

	status, err := askStatus(ctx, pid)
	if err != nil {
		return stats, err
	}
	fields := status.GetFields()
	stats.ticks = int(fields["tick"].GetNumberValue())
	stats.waves = int(fields["wave"].GetNumberValue())
	stats.highScore = int(fields["highScore"].GetNumberValue())
	stats.lastScore = int(fields["lastScore"].GetNumberValue())
	stats.finalMode = fields["mode"].GetStringValue()
	stats.players = int(fields["players"].GetNumberValue())
	stats.enemies = int(fields["enemies"].GetNumberValue())
	return stats, nil
}

func askStatus(ctx context.Context, pid *actor.PID) (*structpb.Struct, error) {
	reply, err := actor.Ask(ctx, pid, arena.StatusRequest(), time.Second)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	status, ok := reply.(*structpb.Struct)
	if !ok {
		return nil, fmt.Errorf("status: unexpected reply %T", reply)
	}
	return status, nil
}

// fusionPatience is how many ticks the bot retries a graft before skipping the seed.
const fusionPatience = 30

// bot plays the arena: take the first offer, graft it on the root, restart
// after a loss. Battles are left to the physics.
type bot struct {
	fusionTicks int
}

func (b *bot) nextCommand(status *structpb.Struct) *structpb.Struct {
	fields := status.GetFields()
	mode := fields["mode"].GetStringValue()
	if mode != arena.ModeFusion.String() {
		b.fusionTicks = 0
	}
	switch mode {
	case arena.ModeSeedSelection.String():
		offers := fields["offers"].GetListValue().GetValues()
		if len(offers) == 0 {
			return nil
		}
		return arena.ChooseCommand(offers[0].GetStringValue())
	case arena.ModeFusion.String():
		b.fusionTicks++
		if b.fusionTicks > fusionPatience {
			// the root stays full, give the seed up
			b.fusionTicks = 0
			return arena.SkipCommand()
		}
		return arena.FuseCommand(cell.NodeID(fields["player"].GetNumberValue()))
	case arena.ModeLose.String():
		return arena.RestartCommand()
	default:
		return nil
	}
}

func printRun(s runStats) {
	fmt.Printf("--- run %d (seed %d) ---\n", s.runIndex, s.seed)
	fmt.Printf("ticks=%d mode=%s waves_cleared=%d high_score=%d last_score=%d losses=%d\n",
		s.ticks, s.finalMode, s.waves, s.highScore, s.lastScore, s.losses)
	fmt.Printf("cells: player=%d enemy=%d | commands=%d first_battle_tick=%d\n\n",
		s.players, s.enemies, s.commands, s.firstBattleTick)
}

func printAggregate(all []runStats) {
	var waves, best, losses int
	for _, s := range all {
		waves += s.waves
		losses += s.losses
		best = max(best, s.highScore)
	}
	fmt.Printf("=== Aggregate over %d runs ===\n", len(all))
	fmt.Printf("mean_waves=%.2f best_high_score=%d total_losses=%d\n",
		float64(waves)/float64(len(all)), best, losses)
}
