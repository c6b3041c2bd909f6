package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-worldtree/internal/arena"
	"github.com/lao-tseu-is-alive/go-worldtree/internal/viewer"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	var configFile, schemaFile string
	var debug bool
	flag.StringVar(&configFile, "config", "configs/worldtree.json", "host configuration, empty for the defaults")
	flag.StringVar(&schemaFile, "schema", "configs/worldtree.schema.json", "JSON schema of the configuration")
	flag.BoolVar(&debug, "debug", false, "log structural changes of the tree")
	flag.Parse()

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

	level := golog.InfoLevel
	if debug {
		level = golog.DebugLevel
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("WorldTree",
		actor.WithLogger(golog.New(level, os.Stdout)),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		log.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer system.Stop(ctx)

	game, err := viewer.NewGame(ctx, cfg, catalog, system)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("World Tree")
	ebiten.SetTPS(cfg.TicksPerSecond)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
