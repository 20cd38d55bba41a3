package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/model"
)

type compareFlags struct {
	year    int
	gp      string
	session string
	driver1 string
	driver2 string
	lap     int
}

func (f *compareFlags) add(cmd *cobra.Command, kind compare.Kind) {
	cmd.Flags().IntVar(&f.year, "year", 0, "championship year")
	cmd.Flags().StringVar(&f.gp, "gp", "", "grand prix name, location or round number")
	cmd.Flags().StringVar(&f.driver1, "driver1", "", "three letter code of the first driver")
	cmd.Flags().StringVar(&f.driver2, "driver2", "", "three letter code of the second driver")
	for _, name := range []string{"year", "gp", "driver1", "driver2"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}
	if kind == compare.KindRace {
		cmd.Flags().IntVar(&f.lap, "lap", 0, "race lap to compare, 0 for the fastest race lap")
		return
	}
	cmd.Flags().StringVar(&f.session, "session", string(model.Qualifying),
		"session (FP1, FP2, FP3, Q, S, SS, SQ, R)")
}

func newLapsCmd() *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "laps",
		Short: "circuit map and channel comparison of the fastest laps of two drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), compare.KindLaps, f, cmd.OutOrStdout())
		},
	}
	f.add(cmd, compare.KindLaps)
	return cmd
}

func newFastestCmd() *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "fastest",
		Short: "channel comparison and dominance map of the fastest laps of two drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), compare.KindFastest, f, cmd.OutOrStdout())
		},
	}
	f.add(cmd, compare.KindFastest)
	return cmd
}

func newRaceCmd() *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "race",
		Short: "channel comparison and dominance map of a race lap of two drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), compare.KindRace, f, cmd.OutOrStdout())
		},
	}
	f.add(cmd, compare.KindRace)
	return cmd
}

func runCompare(ctx context.Context, kind compare.Kind, f *compareFlags, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := model.Race
	if kind != compare.KindRace {
		var err error
		if st, err = model.ParseSessionType(f.session); err != nil {
			return err
		}
	}
	s, err := newService()
	if err != nil {
		return err
	}
	report, err := s.Compare(ctx, kind, f.year, f.gp, st,
		strings.ToUpper(f.driver1), strings.ToUpper(f.driver2), f.lap)
	if err != nil {
		return err
	}
	return printReport(out, report)
}

func printReport(out io.Writer, r *compare.Report) error {
	if _, err := fmt.Fprintf(out, "%s\n%s\n%s", r.Title, r.Summary(), r.Table()); err != nil {
		return err
	}
	for _, f := range r.Files {
		if _, err := fmt.Fprintf(out, "%s: %s\n", f.Type, f.Path); err != nil {
			return err
		}
	}
	return nil
}
