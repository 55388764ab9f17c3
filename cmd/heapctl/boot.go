package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/kernel"
	"github.com/joshuapare/heapkit/kernel/uart"
)

var (
	bootRAMSize   uint64
	bootImageSize uint64
	bootInput     string
)

// stdin feeds the console in boot. Tests swap it.
var stdin io.Reader = os.Stdin

func init() {
	def := kernel.DefaultConfig()
	cmd := newBootCmd()
	cmd.Flags().Uint64Var(&bootRAMSize, "ram-size", uint64(def.RAMEnd-def.RAMBase), "RAM size in bytes")
	cmd.Flags().Uint64Var(&bootImageSize, "image-size", def.ImageSize, "Bytes of RAM taken by the kernel image")
	cmd.Flags().StringVar(&bootInput, "input", "", "Read console input from this file instead of stdin")
	rootCmd.AddCommand(cmd)
}

func newBootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Boot the kernel with the console on stdin/stdout",
		Long: `The boot command boots the kernel on simulated RAM. The UART is bridged
to stdin and stdout: after the heap self-test every byte typed is echoed back.
Boot ends when input is exhausted or on interrupt.

Example:
  heapctl boot
  heapctl boot --ram-size 0x100000 --input keys.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runBoot(ctx)
		},
	}
	return cmd
}

func runBoot(ctx context.Context) error {
	cfg := kernel.DefaultConfig()
	cfg.RAMEnd = cfg.RAMBase + mem.Addr(bootRAMSize)
	cfg.ImageSize = bootImageSize
	cfg.Default = true

	in := stdin
	if bootInput != "" {
		f, err := os.Open(bootInput)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	dev := uart.NewDevice(in, stdout)
	k, err := kernel.New(cfg, dev)
	if err != nil {
		return err
	}
	defer k.Close()
	dev.Start(ctx)

	printVerbose("Booting with %d bytes of RAM at %s\n", bootRAMSize, cfg.RAMBase)
	err = k.Boot(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err == nil {
		err = dev.Err()
	}
	return err
}
