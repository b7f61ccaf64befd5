// cmd/eepromctl/device.go
package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/eepromfs/internal/fileindex"
	"github.com/tamzrod/eepromfs/internal/selftest"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the directory stored on the EEPROM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			dir, err := fileindex.New(dev, a.log.Named("fileindex")).ReadIndex()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS\tSIZE\tCHECKSUM")
			for _, e := range dir.Entries {
				fmt.Fprintf(tw, "%s\t0x%04X\t%d\t0x%02X\n", e.Name, e.Address, e.Size, e.Checksum)
			}
			fmt.Fprintf(tw, "%d file(s), %d payload bytes\n", len(dir.Entries), dir.Header.TotalSize)
			return tw.Flush()
		},
	}
}

func newEraseCmd(a *app) *cobra.Command {
	var (
		all    bool
		addr   uint16
		length int
	)

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Fill a range (or the whole device) with 0xFF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && length == 0 {
				return errors.New("give --all or --len")
			}

			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			out := cmd.OutOrStdout()
			if all {
				err = dev.EraseAll(func(done, total int) {
					fmt.Fprintf(out, "\rerase: %3d%%", done*100/total)
				})
				fmt.Fprintln(out)
			} else {
				err = dev.Erase(addr, length)
			}
			if err != nil {
				return err
			}
			return dev.WaitReady(a.cfg.ReadyTimeout())
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "erase the whole device")
	cmd.Flags().Uint16Var(&addr, "addr", 0, "start address (decimal or 0x hex)")
	cmd.Flags().IntVar(&length, "len", 0, "number of bytes")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the device configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			info, err := dev.Info()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:      %s\n", a.cfg.Device.Backend)
			fmt.Fprintf(out, "bus:          %s\n", info.Bus)
			fmt.Fprintf(out, "address:      0x%02X\n", info.DeviceAddr)
			fmt.Fprintf(out, "page size:    %d bytes\n", info.PageSize)
			fmt.Fprintf(out, "total size:   %d bytes\n", info.TotalSize)
			fmt.Fprintf(out, "write delay:  %s\n", info.WriteDelay)
			return nil
		},
	}
}

func newSelftestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run the read/write/erase self-test (overwrites the test areas)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			rep := selftest.New(dev, a.cfg.ReadyTimeout(), a.log.Named("selftest")).Run()

			out := cmd.OutOrStdout()
			for _, r := range rep.Results {
				status := "PASS"
				if !r.Passed() {
					status = "FAIL"
				}
				fmt.Fprintf(out, "%-4s %-18s %4d B  write %8s (%7.0f B/s)  read %8s (%7.0f B/s)\n",
					status, r.Name, r.Bytes,
					r.WriteTime, selftest.Rate(r.Bytes, r.WriteTime),
					r.ReadTime, selftest.Rate(r.Bytes, r.ReadTime),
				)
				if r.Err != nil {
					fmt.Fprintf(out, "     %v\n", r.Err)
				}
			}
			fmt.Fprintf(out, "%d/%d passed\n", rep.Passed(), len(rep.Results))

			if !rep.OK() {
				for _, r := range rep.Results {
					if r.Err != nil {
						return r.Err
					}
				}
			}
			return nil
		},
	}
}
