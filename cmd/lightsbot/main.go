// Command lightsbot connects a number of wandering players to a server.
// Each bot sends a fresh random input every frame interval and
// periodically logs how much of its surroundings it can see.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lightsout/server/internal/client"
	"github.com/lightsout/server/internal/config"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/geom"
	"github.com/lightsout/server/internal/protocol"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("lightsbot", flag.ExitOnError)
	cfgPath := fs.String("config", config.Path(), "server config, for the map and sight range")
	addr := fs.String("addr", "", "server address (defaults to network.bind_address)")
	bots := fs.Int("bots", 4, "number of bots")
	fps := fs.Int("fps", 60, "inputs per second per bot")
	duration := fs.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr == "" {
		*addr = cfg.Network.BindAddress
	}
	level, err := data.LoadMap(cfg.Game.MapFile, cfg.Game.MapScale)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	if *fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	fog := client.NewFog(level, cfg.Game.Tuning.SightRange)
	interval := time.Second / time.Duration(*fps)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *bots; i++ {
		b := &bot{
			addr:     *addr,
			interval: interval,
			fog:      fog,
			rng:      rand.New(rand.NewSource(time.Now().UnixNano() + int64(i))),
			log:      log.With(zap.Int("bot", i)),
		}
		g.Go(func() error { return b.run(gctx) })
	}
	return g.Wait()
}

type bot struct {
	addr     string
	interval time.Duration
	fog      *client.Fog
	rng      *rand.Rand
	log      *zap.Logger
}

func (b *bot) run(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	c, err := client.Dial(dialCtx, b.addr)
	cancel()
	if err != nil {
		return err
	}
	defer c.Close()
	b.log.Info("connected", zap.String("skin", c.Welcome.Image), zap.Float64s("pos", c.Welcome.Position[:]))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	in := b.randomInput()
	pos := geom.V(c.Welcome.Position[0], c.Welcome.Position[1])
	alive := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-report.C:
			if alive {
				b.log.Info("status", zap.Float64s("pos", []float64{pos.X, pos.Y}), zap.Float64("lit", b.fog.Lit(pos)))
			}
		case <-ticker.C:
			// Keep a direction for a while, like a person would.
			if b.rng.Intn(30) == 0 {
				in = b.randomInput()
			}
			c.SetDeadline(time.Now().Add(5 * time.Second))
			recs, err := c.Send(in)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			me, ok := protocol.Focus(recs)
			if !ok && alive {
				b.log.Info("killed")
			}
			alive = ok
			if ok {
				pos = geom.V(me.Position[0], me.Position[1])
			}
		}
	}
}

func (b *bot) randomInput() protocol.Input {
	key := func() protocol.KeyPair { return protocol.KeyPair{b.rng.Intn(3) == 0, false} }
	return protocol.Input{
		Mouse:   geom.V(b.rng.Float64()*200-100, b.rng.Float64()*200-100),
		Buttons: []bool{b.rng.Intn(10) == 0, false, false},
		Up:      key(),
		Down:    protocol.KeyPair{},
		Left:    key(),
		Right:   key(),
		Sprint:  b.rng.Intn(4) == 0,
		Weapon:  b.rng.Intn(20) == 0,
	}
}
