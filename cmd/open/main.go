// open 為示範玩家開包，並把每包的逐項檢查結果（紅綠燈）、嘗試紀錄與重播 token 輸出成 JSON / YAML。
//
// Usage like:
//
//	go run ./cmd/open -pack premium -count 3 -seed 42
//	PACKLAB_FORMAT=json go run ./cmd/open -batch -count 10
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/packlab"
	"github.com/zintix-labs/packlab/demo"
	"github.com/zintix-labs/packlab/errs"
	"github.com/zintix-labs/packlab/history"
	"github.com/zintix-labs/packlab/logger"
	"github.com/zintix-labs/packlab/pack"
	"github.com/zintix-labs/packlab/pity"
	"github.com/zintix-labs/packlab/sdk/core"
	"github.com/zintix-labs/packlab/spec"
	"github.com/zintix-labs/packlab/validate"
	"gopkg.in/yaml.v3"
)

type envConfig struct {
	Player string `env:"PACKLAB_PLAYER" envDefault:"demo-player"`
	Pack   string `env:"PACKLAB_PACK"   envDefault:"standard"`
	Count  int    `env:"PACKLAB_COUNT"  envDefault:"1"`
	Seed   string `env:"PACKLAB_SEED"`
	Format string `env:"PACKLAB_FORMAT" envDefault:"yaml"`
	Log    string `env:"PACKLAB_LOG"    envDefault:"dev"`
	Batch  bool   `env:"PACKLAB_BATCH"`
}

// opened 單包輸出。
type opened struct {
	Pack     *pack.Pack             `json:"pack"     yaml:"pack"`
	Token    string                 `json:"token"    yaml:"token"`
	Attempts []packlab.AttemptMeta  `json:"attempts" yaml:"attempts"`
	Checks   []validate.CheckResult `json:"checks"   yaml:"checks"`
	Pity     pity.State             `json:"pity"     yaml:"pity"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errs.CodeOf(err) == errs.CodeConfig {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, w io.Writer) error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return errs.Wrap(err, "parse env").WithCode(errs.CodeConfig)
	}
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.StringVar(&ec.Player, "player", ec.Player, "player id")
	fs.StringVar(&ec.Pack, "pack", ec.Pack, "pack type")
	fs.IntVar(&ec.Count, "count", ec.Count, "number of packs")
	fs.StringVar(&ec.Seed, "seed", ec.Seed, "int64 or string seed (empty for random)")
	fs.StringVar(&ec.Format, "format", ec.Format, "output format: json, yaml")
	fs.StringVar(&ec.Log, "log", ec.Log, "log mode: dev, prod, silence")
	fs.BoolVar(&ec.Batch, "batch", ec.Batch, "preview a batch without committing pity")
	if err := fs.Parse(args); err != nil {
		return errs.Wrap(err, "parse flags").WithCode(errs.CodeConfig)
	}

	mode, err := logger.ParseMode(ec.Log)
	if err != nil {
		return err
	}
	enc, err := encoder(ec.Format, w)
	if err != nil {
		return err
	}
	log, async := logger.NewAsync(mode, os.Stderr, 256)
	defer async.Close()

	lab, err := demo.NewPacklab(packlab.WithLogger(log))
	if err != nil {
		return err
	}
	pt := spec.PackType(ec.Pack)
	var seed *int64
	if v, ok := core.ParseSeed(ec.Seed); ok {
		seed = &v
	}

	if ec.Batch {
		res, err := lab.GeneratePacks(packlab.BatchRequest{PackType: pt, Seed: seed, Count: ec.Count})
		if err != nil {
			return report(enc, err)
		}
		return enc(res)
	}
	return openAll(lab, enc, ec.Player, pt, seed, ec.Count)
}

// openAll 以記憶體保底與歷史連續開包；指定 seed 時第 i 包使用衍生 seed。
func openAll(lab *packlab.Packlab, enc func(any) error, player string, pt spec.PackType, seed *int64, count int) error {
	if count < 1 {
		return errs.Configf("count must be positive: %d", count)
	}
	op, err := packlab.NewOpener(lab, pity.NewMemoryStore(), history.NewMemoryStore(256))
	if err != nil {
		return err
	}
	ctx := context.Background()
	out := make([]opened, 0, count)
	for i := 0; i < count; i++ {
		var s *int64
		if seed != nil {
			v := core.DeriveSeed(*seed, -i)
			if i == 0 {
				v = *seed
			}
			s = &v
		}
		res, err := op.Open(ctx, packlab.OpenRequest{PlayerID: player, PackType: pt, Seed: s})
		if err != nil {
			if encErr := enc(out); encErr != nil {
				return encErr
			}
			return report(enc, err)
		}
		tok, err := packlab.EncodeReplayToken(res.Pack)
		if err != nil {
			return err
		}
		out = append(out, opened{
			Pack:     res.Pack,
			Token:    tok,
			Attempts: res.Attempts,
			Checks:   res.LastValidation.Checks,
			Pity:     res.Pity,
		})
	}
	return enc(out)
}

// report 生成失敗時把完整的失敗資訊（含最後一次逐項檢查）輸出後回傳錯誤。
func report(enc func(any) error, err error) error {
	var gf *packlab.GenerationFailure
	if errors.As(err, &gf) {
		if encErr := enc(gf); encErr != nil {
			return encErr
		}
	}
	return err
}

func encoder(format string, w io.Writer) (func(any) error, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		je := json.NewEncoder(w)
		je.SetIndent("", "  ")
		return je.Encode, nil
	case "yaml", "yml":
		return func(v any) error {
			ye := yaml.NewEncoder(w)
			ye.SetIndent(2)
			if err := ye.Encode(v); err != nil {
				return errs.Wrap(err, "encode yaml")
			}
			return ye.Close()
		}, nil
	default:
		return nil, errs.Configf("unknown output format: %q", format)
	}
}
