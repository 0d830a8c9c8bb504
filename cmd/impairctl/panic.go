package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openimpair/controlplane/pkg/emergency"
	"github.com/openimpair/controlplane/pkg/resource"
)

// panicCmd is the operator's blast-radius limiter: this CLI-level feature
// disables the filter and every impairment on an explicit set of flows,
// either immediately or once a stop file / SIGINT-SIGTERM fires.
var panicCmd = &cobra.Command{
	Use:   "panic",
	Short: "Disable the filter and all impairments on one or more flows",
}

var panicNowCmd = &cobra.Command{
	Use:   "now <testerId>/<moduleId>/<portId>/<flowId> [...]",
	Args:  cobra.MinimumNArgs(1),
	Short: "Immediately disable the given flows",
	RunE:  runPanicNow,
}

var panicWatchCmd = &cobra.Command{
	Use:   "watch <testerId>/<moduleId>/<portId>/<flowId> [...]",
	Args:  cobra.MinimumNArgs(1),
	Short: "Watch a stop file and SIGINT/SIGTERM, disabling the given flows once triggered",
	RunE:  runPanicWatch,
}

func init() {
	for _, c := range []*cobra.Command{panicNowCmd, panicWatchCmd} {
		c.Flags().String("username", "cli", "reservation session identity")
	}
	panicWatchCmd.Flags().String("stop-file", "/tmp/impairctl-emergency-stop", "path polled for an emergency stop request")

	panicCmd.AddCommand(panicNowCmd, panicWatchCmd)
	rootCmd.AddCommand(panicCmd)
}

func disableFlow(ctx context.Context, flow *resource.FlowManager) error {
	var errs []error
	if err := flow.Filter.Disable(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, mgr := range []interface {
		Stop(context.Context) error
	}{flow.Drop, flow.Misordering, flow.LatencyJitter, flow.Duplication, flow.Corruption, flow.Policer, flow.Shaper} {
		if err := mgr.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d error(s), first: %w", len(errs), errs[0])
	}
	return nil
}

func runPanicNow(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	ctx := context.Background()

	var failed int
	for _, target := range args {
		testerID, moduleID, portID, flowID, err := parseFlowTarget(target)
		if err != nil {
			return err
		}
		flow, err := resolveFlow(ctx, testerID, username, moduleID, portID, flowID)
		if err != nil {
			fmt.Printf("%s: %v\n", target, err)
			failed++
			continue
		}
		if err := disableFlow(ctx, flow); err != nil {
			fmt.Printf("%s: %v\n", target, err)
			failed++
			continue
		}
		fmt.Printf("%s: disabled\n", target)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d target(s) failed", failed, len(args))
	}
	return nil
}

func runPanicWatch(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	stopFile, _ := cmd.Flags().GetString("stop-file")

	targets := append([]string(nil), args...)
	ctrl := emergency.New(emergency.Config{
		StopFile:             stopFile,
		PollInterval:         time.Second,
		EnableSignalHandlers: true,
	})
	ctrl.OnStop(func(ctx context.Context) error {
		var errs []error
		for _, target := range targets {
			testerID, moduleID, portID, flowID, err := parseFlowTarget(target)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			flow, err := resolveFlow(ctx, testerID, username, moduleID, portID, flowID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := disableFlow(ctx, flow); err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Printf("%s: disabled\n", target)
		}
		if len(errs) > 0 {
			return fmt.Errorf("%d of %d target(s) failed", len(errs), len(targets))
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Watch(ctx)

	fmt.Printf("watching for emergency stop (stop file: %s, or SIGINT/SIGTERM)\n", stopFile)
	<-ctrl.Done()
	return nil
}

func parseFlowTarget(target string) (testerID string, moduleID, portID, flowID int, err error) {
	parts := strings.Split(target, "/")
	if len(parts) != 4 {
		err = fmt.Errorf("invalid target %q, expected testerId/moduleId/portId/flowId", target)
		return
	}
	testerID = parts[0]
	moduleID, err = parseInt(parts[1])
	if err != nil {
		return
	}
	portID, err = parseInt(parts[2])
	if err != nil {
		return
	}
	flowID, err = parseInt(parts[3])
	return
}
