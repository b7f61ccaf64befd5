// cmd/eepromctl/read.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamzrod/eepromfs/internal/fileindex"
	"github.com/tamzrod/eepromfs/internal/hostfs"
)

func newReadCmd(a *app) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Restore the indexed files from the EEPROM into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if outDir == "" {
				outDir = a.cfg.Files.OutputDir
			}

			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			idx := fileindex.New(dev, a.log.Named("fileindex"))

			dir, err := idx.ReadIndex()
			if err != nil {
				return fmt.Errorf("no valid directory on device: %w", err)
			}
			fmt.Fprintf(out, "directory v%d: %d file(s)\n", dir.Header.Version, len(dir.Entries))

			res, err := idx.ReadFiles(dir.Entries)
			if err != nil {
				return err
			}

			if err := hostfs.SaveFiles(outDir, res.Files); err != nil {
				return err
			}

			for _, f := range res.Files {
				fmt.Fprintf(out, "  ok    %s (%d bytes)\n", f.Name, len(f.Data))
			}
			for _, fe := range res.Failed {
				fmt.Fprintf(out, "  FAIL  %v\n", fe)
			}
			fmt.Fprintf(out, "%d/%d file(s) restored to %s\n", len(res.Files), len(dir.Entries), outDir)

			a.log.Info("read complete",
				zap.Int("ok", len(res.Files)),
				zap.Int("failed", len(res.Failed)),
			)

			if len(res.Files) == 0 {
				if len(res.Failed) > 0 {
					return res.Failed[0]
				}
				return errors.New("no files restored")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	return cmd
}
