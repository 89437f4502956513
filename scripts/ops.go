// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ops 取代 Makefile 的任務入口。
//
//	go run ./scripts test         # 只顯示 ok / FAIL
//	go run ./scripts test-detail  # 完整輸出，略過 [no test files]
//	go run ./scripts cover        # 產出 build/cover.out 並列出總覆蓋率
//	go run ./scripts vet
//	go run ./scripts sim [args]   # 轉給 ./cmd/run
//	go run ./scripts open [args]  # 轉給 ./cmd/open
package main

import (
	"fmt"
	"os"
)

type task struct {
	desc string
	run  func(args []string) error
}

var tasks = map[string]task{
	"test":        {"go test ./... (ok / FAIL only)", func([]string) error { return runTest(false) }},
	"test-detail": {"go test ./... -v", func([]string) error { return runTest(true) }},
	"cover":       {"coverage profile to build/cover.out", func([]string) error { return runCover() }},
	"vet":         {"go vet ./...", func([]string) error { return goPassthrough("vet", "./...") }},
	"sim":         {"run the simulation CLI", func(a []string) error { return goPassthrough(append([]string{"run", "./cmd/run"}, a...)...) }},
	"open":        {"run the pack opening CLI", func(a []string) error { return goPassthrough(append([]string{"run", "./cmd/open"}, a...)...) }},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		PrintYellow(fmt.Sprintf("Unknown task: %s", os.Args[1]))
		usage()
		os.Exit(1)
	}
	if err := t.run(os.Args[2:]); err != nil {
		PrintRed(err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts [task] [args...]")
	for _, name := range []string{"test", "test-detail", "cover", "vet", "sim", "open"} {
		fmt.Printf("  %-12s %s\n", name, tasks[name].desc)
	}
}
