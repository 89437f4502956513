package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runTest 清除 test cache 後執行全部測試。
// detail=false 時只保留 ok / FAIL 與建置錯誤，等同 `2>&1 | grep -E '^(ok|FAIL)'`。
func runTest(detail bool) error {
	PrintBlue("running tests")
	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		PrintYellow(fmt.Sprintf("go clean -testcache failed: %v", err))
	}
	args := []string{"test", "./...", "-cover", "-count=1"}
	if detail {
		args = []string{"test", "./...", "-v", "-count=1"}
	}
	return goFiltered(args, func(line string) {
		switch {
		case strings.Contains(line, "[no test files]"):
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(line, "--- FAIL"):
			PrintRed(line)
		case strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
			PrintRed(line)
		case detail:
			fmt.Println(line)
		}
	})
}

// runCover 產出覆蓋率檔並印出總計那一行。
func runCover() error {
	if err := os.MkdirAll("build", 0o755); err != nil {
		return err
	}
	if err := goPassthrough("test", "./...", "-count=1", "-coverprofile=build/cover.out"); err != nil {
		return err
	}
	return goFiltered([]string{"tool", "cover", "-func=build/cover.out"}, func(line string) {
		if strings.HasPrefix(line, "total:") {
			PrintGreen(line)
		}
	})
}

// goFiltered 執行 go 指令，stdout / stderr 合併後逐行交給 fn。
func goFiltered(args []string, fn func(line string)) error {
	cmd := exec.Command("go", args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go %s: %w", args[0], err)
	}
	sc := bufio.NewScanner(pipe)
	for sc.Scan() {
		fn(sc.Text())
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("go %s finished with errors: %w", args[0], err)
	}
	return sc.Err()
}

func goPassthrough(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}
