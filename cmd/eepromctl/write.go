// cmd/eepromctl/write.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamzrod/eepromfs/internal/fileindex"
	"github.com/tamzrod/eepromfs/internal/hostfs"
)

func newWriteCmd(a *app) *cobra.Command {
	var (
		dir   string
		erase bool
	)

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write every parameter file in a directory to the EEPROM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if dir == "" {
				dir = a.cfg.Files.InputDir
			}

			files, err := hostfs.LoadDir(dir, a.cfg.Files.Extension)
			if err != nil {
				return err
			}

			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			// --------------------
			// Optional full erase
			// --------------------

			if erase {
				fmt.Fprintf(out, "erasing %d bytes...\n", a.cfg.Device.TotalSize)
				err := dev.EraseAll(func(done, total int) {
					fmt.Fprintf(out, "\rerase: %3d%%", done*100/total)
				})
				fmt.Fprintln(out)
				if err != nil {
					return fmt.Errorf("erase failed: %w", err)
				}
			}

			// --------------------
			// Payloads + directory
			// --------------------

			idx := fileindex.New(dev, a.log.Named("fileindex"))
			entries, err := idx.WriteFiles(files)
			if err != nil {
				return err
			}

			if err := dev.WaitReady(a.cfg.ReadyTimeout()); err != nil {
				return err
			}

			for _, e := range entries {
				fmt.Fprintf(out, "  %s\n", e)
			}
			fmt.Fprintf(out, "%d file(s) written\n", len(entries))

			if len(entries) == 0 {
				return errors.New("no files written")
			}

			last := entries[len(entries)-1]
			fmt.Fprintf(out, "payload range: 0x%04X - 0x%04X\n", fileindex.DataStart, last.End()-1)

			a.log.Info("write complete", zap.String("dir", dir), zap.Int("files", len(entries)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "input directory (default from config)")
	cmd.Flags().BoolVar(&erase, "erase", false, "erase the whole device before writing")
	return cmd
}
