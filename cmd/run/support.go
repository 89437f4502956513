package main

import (
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/packlab"
	"github.com/zintix-labs/packlab/demo"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/logger"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/sdk/perf"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	maxPlayers        = 100000
	maxPacksPerPlayer = 5000
)

// envConfig PACKLAB_* 環境變數，flag 會覆蓋同名設定。
type envConfig struct {
	Pack    string `env:"PACKLAB_PACK"    envDefault:"standard"`
	Workers int    `env:"PACKLAB_WORKERS" envDefault:"1"`
	Players int    `env:"PACKLAB_PLAYERS" envDefault:"1"`
	Packs   int    `env:"PACKLAB_PACKS"   envDefault:"100000"`
	Seed    string `env:"PACKLAB_SEED"`
	Log     string `env:"PACKLAB_LOG"     envDefault:"silence"`
	PProf   string `env:"PACKLAB_PPROF"`
	Format  string `env:"PACKLAB_FORMAT"`
	Out     string `env:"PACKLAB_OUT"`
}

type config struct {
	pack    spec.PackType
	workers int
	players int
	packs   int
	seed    int64
	hasSeed bool
	log     logger.Mode
	pprof   perf.Mode
	format  string // "" 為表格輸出，否則 json / yaml
	out     string // 非空時另寫出 zstd 壓縮報表
}

func loadConfig(args []string) (*config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return nil, errs.Wrap(err, "parse env").WithCode(errs.CodeConfig)
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&ec.Pack, "pack", ec.Pack, "pack type")
	fs.IntVar(&ec.Workers, "worker", ec.Workers, "number of workers")
	fs.IntVar(&ec.Players, "player", ec.Players, "number of players")
	fs.IntVar(&ec.Packs, "packs", ec.Packs, "packs per player")
	fs.StringVar(&ec.Seed, "seed", ec.Seed, "int64 or string seed (empty for random)")
	fs.StringVar(&ec.Log, "log", ec.Log, "log mode: dev, prod, silence")
	fs.StringVar(&ec.PProf, "p", ec.PProf, "pprof: '', cpu, heap, allocs")
	fs.StringVar(&ec.Format, "format", ec.Format, "report format: '' (table), json, yaml")
	fs.StringVar(&ec.Out, "out", ec.Out, "write a zstd compressed report to this file")
	if err := fs.Parse(args); err != nil {
		return nil, errs.Wrap(err, "parse flags").WithCode(errs.CodeConfig)
	}

	cfg := &config{
		pack:    spec.PackType(ec.Pack).Norm(),
		workers: ec.Workers,
		players: ec.Players,
		packs:   ec.Packs,
		format:  ec.Format,
		out:     ec.Out,
	}
	var err error
	if cfg.log, err = logger.ParseMode(ec.Log); err != nil {
		return nil, err
	}
	if cfg.pprof, err = perf.ParseMode(ec.PProf); err != nil {
		return nil, err
	}
	if ec.Seed != "" {
		cfg.seed, cfg.hasSeed = core.ParseSeed(ec.Seed)
	}
	if cfg.format != "" {
		if _, err := stats.RenderByName(cfg.format); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)

	if cfg.workers < 1 {
		return errs.Configf("value err : workers must > 0")
	}
	if cfg.players < 1 {
		return errs.Configf("value err : players must > 0")
	}
	if cfg.packs < 1 {
		return errs.Configf("value err : packs must > 0")
	}
	if cfg.players > maxPlayers {
		p.Fprintf(os.Stderr, "too much players: %d resized to %d\n", cfg.players, maxPlayers)
		cfg.players = maxPlayers
	}
	// 模擬玩家歷程時，單一玩家開包數有上限（超過即為長期分布，直接模擬單一玩家即可）
	if cfg.players > 1 && cfg.packs > maxPacksPerPlayer {
		p.Fprintf(os.Stderr, "too much packs for each player: %d resized to %d\n", cfg.packs, maxPacksPerPlayer)
		cfg.packs = maxPacksPerPlayer
	}
	return nil
}

// 這裡解析並分支要執行的模擬器
func executeSimulator(cfg *config) error {
	log := logger.New(cfg.log, os.Stderr)
	lab, err := demo.NewPacklab(packlab.WithLogger(log))
	if err != nil {
		return err
	}
	var s *packlab.Simulator
	if cfg.hasSeed {
		s, err = lab.NewSimulatorWithSeed(cfg.pack, cfg.seed)
	} else {
		s, err = lab.NewSimulator(cfg.pack)
	}
	if err != nil {
		return err
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	w := io.Writer(os.Stdout)

	var (
		rep *stats.Report
		est *stats.EstimatorPlayers
	)
	if cfg.players == 1 {
		p.Fprintf(os.Stderr, "%s[WORKERS:%d] [PACK:%s] [SEED:%d] [PACKS:%d]%s\n", green, cfg.workers, cfg.pack, s.Seed(), cfg.packs, reset)
		r, used, err := s.SimMP(cfg.packs, cfg.workers, cfg.format == "")
		if err != nil {
			return err
		}
		rep = r
		if cfg.format == "" {
			rep.StdOut(w, used)
		}
	} else {
		p.Fprintf(os.Stderr, "%s[WORKERS:%d] [PACK:%s] [SEED:%d] [PLAYERS:%d PACKS:%d]%s\n", green, cfg.workers, cfg.pack, s.Seed(), cfg.players, cfg.packs, reset)
		r, e, used, err := s.SimPlayers(cfg.workers, cfg.players, cfg.packs, cfg.format == "")
		if err != nil {
			return err
		}
		rep, est = r, e
		if cfg.format == "" {
			rep.StdOut(w, used)
			est.Out(w)
		}
	}

	if cfg.format != "" {
		rr, _ := stats.RenderByName(cfg.format)
		if err := rep.WriteWith(w, rr); err != nil {
			return err
		}
		if est != nil {
			if err := writeEstimator(w, cfg.format, est); err != nil {
				return err
			}
		}
	}
	if cfg.out != "" {
		if err := writeCompressed(cfg, rep); err != nil {
			return err
		}
		log.Info("compressed report written", slog.String("path", cfg.out))
	}
	return nil
}

func writeEstimator(w io.Writer, format string, est *stats.EstimatorPlayers) error {
	var er stats.EstimatorRender = &stats.JsonEstimatorRender{}
	if format != "json" {
		er = &stats.YAMLEstimatorRender{}
	}
	return er.Write(w, est)
}

func writeCompressed(cfg *config, rep *stats.Report) error {
	format := cfg.format
	if format == "" {
		format = "json"
	}
	rr, err := stats.RenderByName(format)
	if err != nil {
		return err
	}
	f, err := os.Create(cfg.out)
	if err != nil {
		return errs.Wrap(err, "create report file")
	}
	defer f.Close()
	return rep.WriteCompressed(f, rr)
}
