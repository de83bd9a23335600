// terrainbench is a host-side demo binary, not part of the terrain core's
// public contract (§4.9). It mirrors server_main's shape: parse flags,
// construct one long-lived object, drive it in a loop, log periodic status,
// generalized from a network server's accept loop to a headless tick loop
// since there is no socket for this library to serve.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/chewxy/math32"

	"voxelterrain/config"
	"voxelterrain/coord"
	"voxelterrain/engine"
	"voxelterrain/log"
)

func main() {
	var (
		dataDir     string
		seed        int64
		radius      int
		ticks       int
		walkRadius  float64
		reportEvery int
	)

	flag.StringVar(&dataDir, "data-dir", "", "chunk store directory (default: a temp dir, removed on exit)")
	flag.Int64Var(&seed, "seed", 1, "world seed")
	flag.IntVar(&radius, "radius", 512, "SVO half-size, in chunks")
	flag.IntVar(&ticks, "ticks", 600, "number of ticks to run")
	flag.Float64Var(&walkRadius, "walk-radius", 256, "radius of the circular path the simulated viewer walks, in world units")
	flag.IntVar(&reportEvery, "report-every", 60, "log stats every N ticks")
	flag.Parse()

	if ticks < 0 {
		log.Error("invalid argument ticks: %d", ticks)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Seed = seed
	cfg.Radius = int32(radius)

	if dataDir == "" {
		tmp, err := os.MkdirTemp("", "terrainbench-*")
		if err != nil {
			log.Error("MkdirTemp: %v", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)
		dataDir = tmp
	}
	cfg.DataDir = dataDir

	v, err := engine.New(cfg)
	if err != nil {
		log.Error("engine.New: %v", err)
		os.Exit(1)
	}
	defer v.Close()

	log.Info("terrainbench started: seed=%d radius=%d ticks=%d data-dir=%s", cfg.Seed, cfg.Radius, ticks, dataDir)

	start := time.Now()
	for i := 0; i < ticks; i++ {
		// Walk a slowly rotating circle so the cold/warm chunk mix and the
		// eviction path both get exercised over the course of the run,
		// rather than sitting at one fixed center the whole time.
		theta := float32(i) / 200 * 2 * math32.Pi
		x := float32(walkRadius) * math32.Cos(theta)
		z := float32(walkRadius) * math32.Sin(theta)
		v.Tick(coord.Vec3{X: x, Y: 0, Z: z})

		if reportEvery > 0 && (i+1)%reportEvery == 0 {
			stats := v.Stats()
			elapsed := time.Since(start)
			log.Info("tick %d/%d: resident=%d being_loaded=%d elapsed=%s",
				i+1, ticks, stats.ResidentChunks, stats.BeingLoaded, elapsed.Round(time.Millisecond))
		}
	}

	js, err := v.DebugJSON()
	if err != nil {
		log.Error("DebugJSON: %v", err)
	} else {
		log.Info("final stats: %s", js)
	}
	log.Info("terrainbench finished in %s", time.Since(start).Round(time.Millisecond))
}
