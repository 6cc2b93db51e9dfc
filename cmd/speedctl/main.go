package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/calvinmclean/speedctl"
	"github.com/calvinmclean/speedctl/controller"
	"github.com/calvinmclean/speedctl/ui"
)

func main() {
	var listPorts, version bool
	flag.BoolVar(&listPorts, "ports", false, "List USB serial ports and exit")
	flag.BoolVar(&version, "version", false, "Print the version and exit")
	flag.Parse()

	switch {
	case version:
		fmt.Println(speedctl.Version)
		return
	case listPorts:
		printPorts()
		return
	}

	if os.Getenv("ENABLE_UI") == "true" {
		runUI()
		return
	}

	runCLI()
}

func printPorts() {
	ports, err := controller.GetSerialPorts()
	if errors.Is(err, controller.ErrNoUSBSerial) {
		fmt.Println("no USB serial ports found")
		return
	}
	if err != nil {
		panic(err)
	}

	for _, port := range ports {
		fmt.Println(port)
	}
}

func runUI() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := controller.LoadConfig()
	if err != nil {
		panic(err)
	}

	panelUI := ui.NewPanelUI()
	panelUI.Run(ctx, cfg)
}

func runCLI() {
	c, err := controller.NewFromEnv()
	if err != nil {
		panic(err)
	}
	defer c.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFilePath(),
	})
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, w := io.Pipe()
	go readlineLoop(cancel, rl, w)

	err = c.Run(ctx, r, rl.Stdout())
	if err != nil {
		panic(err)
	}
}

// readlineLoop forwards lines to w until EOF or Ctrl+C
func readlineLoop(cancel context.CancelFunc, rl *readline.Instance, w *io.PipeWriter) {
	defer w.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel()
			return
		}
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		_, err = io.WriteString(w, line+"\n")
		if err != nil {
			return
		}
	}
}

// historyFilePath returns the path for the console history file, or an empty string to disable it
func historyFilePath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}

	dir := filepath.Join(cacheDir, "speedctl")
	_ = os.MkdirAll(dir, 0o750)
	return filepath.Join(dir, "history")
}
