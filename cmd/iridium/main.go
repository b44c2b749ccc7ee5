package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bradford-hamilton/iridium/pkg/assembler"
	"github.com/bradford-hamilton/iridium/pkg/config"
	"github.com/bradford-hamilton/iridium/pkg/repl"
	"github.com/bradford-hamilton/iridium/pkg/vm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "iridium",
		Short: "Assembler and virtual machine for the iridium register machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return repl.New(cfg).Run()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "iridium.toml", "path to a TOML config file")

	root.AddCommand(newRunCmd(), newAssembleCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Assemble a source file and execute it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			asm := assembler.New()
			artifact, err := assembleFile(asm, args[0])
			if err != nil {
				return err
			}

			machine := vm.New()
			if err := machine.LoadProgram(artifact); err != nil {
				return err
			}
			machine.SetROData(asm.RO())
			if err := machine.Run(); err != nil {
				return err
			}

			fmt.Println("Registers after execution:")
			fmt.Println(machine.Registers)
			return nil
		},
	}
}

func newAssembleCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "assemble <file>",
		Short: "Assemble a source file into a PIE object file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			artifact, err := assembleFile(assembler.New(), args[0])
			if err != nil {
				return err
			}

			out := outPath
			if out == "" {
				out = defaultOutputPath(args[0])
			}
			if err := os.WriteFile(out, artifact, 0o644); err != nil {
				return errors.Wrapf(err, "writing object file %q", out)
			}
			log.WithField("path", out).Info("wrote object file")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output object file path (default: input with .bin extension)")
	return cmd
}

func assembleFile(asm *assembler.Assembler, path string) ([]byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading source file %q", path)
	}
	artifact, err := asm.Assemble(string(source))
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyLogging()
	return cfg, nil
}

func defaultOutputPath(in string) string {
	if idx := strings.LastIndex(in, "."); idx > 0 {
		return in[:idx] + ".bin"
	}
	return in + ".bin"
}
