package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pixelvm/pixelvm/config"
	"github.com/pixelvm/pixelvm/emulator"
	"github.com/pixelvm/pixelvm/examples"
	"github.com/pixelvm/pixelvm/gui"
)

// open resolves a program by file path first, then by built-in name.
func open(name string) (io.ReadCloser, error) {
	inf, err := os.Open(name)
	if err == nil {
		return inf, nil
	}

	builtin, berr := examples.Open(name)
	if berr != nil {
		return nil, err
	}
	return builtin, nil
}

func main() {
	var compile string
	var cfgPath string
	var saveCfg bool
	var headless bool
	var list bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file or built-in program to assemble and run")
	flag.StringVar(&cfgPath, "config", "config.json", "configuration file")
	flag.BoolVar(&saveCfg, "save-config", false, "write the active configuration back to the configuration file")
	flag.BoolVar(&headless, "headless", false, "run without a display window")
	flag.BoolVar(&list, "list", false, "list the built-in programs and exit")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: unknown arguments: %v", os.Args[0], flag.Args())
	}

	if list {
		for name := range examples.Names() {
			fmt.Println(name)
		}
		return
	}

	if len(compile) == 0 {
		log.Fatalf("%v: no program given (-c file.asm)", os.Args[0])
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("%v: using default configuration", cfgPath)
	}
	if headless {
		cfg.Display = false
	}
	cfg = cfg.Normalize()

	if saveCfg {
		if err := cfg.Save(cfgPath); err != nil {
			log.Fatalf("%v: %v", cfgPath, err)
		}
	}

	inf, err := open(compile)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	emu := emulator.New(cfg)
	emu.Verbose = verbose

	err = emu.Load(inf)
	inf.Close()
	if err != nil {
		// Assembly errors carry their source line; no program was produced.
		log.Fatalf("%v: %v", compile, err)
	}

	if cfg.Display {
		err = gui.Run(emu)
	} else {
		err = emu.Run(nil)
	}
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if cfg.TextDebug {
		log.Printf("executed %d instructions", emu.CPU.InstructionCount)
	}
}
