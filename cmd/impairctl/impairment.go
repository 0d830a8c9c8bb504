package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openimpair/controlplane/pkg/distribution"
	"github.com/openimpair/controlplane/pkg/impairment"
	"github.com/openimpair/controlplane/pkg/resource"
)

var impairmentCmd = &cobra.Command{
	Use:   "impairment",
	Short: "Inspect and configure a flow's distribution-bearing impairments ",
}

var impairmentStatusCmd = &cobra.Command{
	Use:   "status <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Show an impairment's current configuration",
	RunE:  runImpairmentStatus,
}

var impairmentSetCmd = &cobra.Command{
	Use:   "set <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Install a distribution on an impairment and enable it",
	RunE:  runImpairmentSet,
}

var impairmentDisableCmd = &cobra.Command{
	Use:   "disable <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Disable an impairment without clearing its distribution",
	RunE:  runImpairmentDisable,
}

func init() {
	for _, c := range []*cobra.Command{impairmentStatusCmd, impairmentSetCmd, impairmentDisableCmd} {
		c.Flags().String("kind", "", "drop|misordering|latencyJitter|duplication|corruption")
		c.Flags().String("username", "cli", "reservation session identity")
		c.MarkFlagRequired("kind")
	}
	impairmentSetCmd.Flags().String("variant", "", "distribution variant, e.g. fixedBurst, uniform, gaussian")
	impairmentSetCmd.Flags().StringArray("param", nil, "variant parameter as key=value, repeatable")
	impairmentSetCmd.Flags().Uint32("repeat-period", 0, "non-zero schedules a repeat instead of one-shot/continuous")
	impairmentSetCmd.Flags().Uint32("repeat-duration", 1, "duration half of repeatPattern, for non-burst variants")
	impairmentSetCmd.Flags().String("corruption-type", "", "Eth|IP|TCP|UDP, only meaningful with --kind corruption")
	impairmentSetCmd.MarkFlagRequired("variant")

	impairmentCmd.AddCommand(impairmentStatusCmd, impairmentSetCmd, impairmentDisableCmd)
}

func resolveFlow(ctx context.Context, testerID, username string, moduleID, portID, flowID int) (*resource.FlowManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return nil, err
	}

	tm, err := ctrl.UseTester(ctx, testerID, username, false, verbose)
	if err != nil {
		return nil, err
	}
	port, err := tm.UsePort(ctx, moduleID, portID, false)
	if err != nil {
		return nil, err
	}
	return port.Flow(flowID)
}

func impairmentManager(flow *resource.FlowManager, kind string) (*impairment.Manager, error) {
	switch impairment.Kind(kind) {
	case impairment.Drop:
		return flow.Drop, nil
	case impairment.Misordering:
		return flow.Misordering, nil
	case impairment.LatencyJitter:
		return flow.LatencyJitter, nil
	case impairment.Duplication:
		return flow.Duplication, nil
	case impairment.Corruption:
		return flow.Corruption, nil
	default:
		return nil, fmt.Errorf("unknown impairment kind %q", kind)
	}
}

func runImpairmentStatus(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	username, _ := cmd.Flags().GetString("username")
	moduleID, portID, flowID, err := parseFlowArgs(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	flow, err := resolveFlow(ctx, args[0], username, moduleID, portID, flowID)
	if err != nil {
		return err
	}
	mgr, err := impairmentManager(flow, kind)
	if err != nil {
		return err
	}

	cfg, err := mgr.Get(ctx)
	if err != nil {
		return fmt.Errorf("get %s: %w", kind, err)
	}

	fmt.Printf("enable: %s\n", cfg.Enable)
	if cfg.CorruptionType != "" {
		fmt.Printf("corruptionType: %s\n", cfg.CorruptionType)
	}
	if cfg.CurrentDistribution != nil {
		fmt.Printf("variant: %s\n", cfg.CurrentDistribution.Variant())
		sched := cfg.CurrentDistribution.Schedule()
		fmt.Printf("schedule: duration=%d period=%d\n", sched.Duration, sched.Period)
	} else {
		fmt.Println("variant: (none set)")
	}
	return nil
}

func runImpairmentDisable(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	username, _ := cmd.Flags().GetString("username")
	moduleID, portID, flowID, err := parseFlowArgs(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	flow, err := resolveFlow(ctx, args[0], username, moduleID, portID, flowID)
	if err != nil {
		return err
	}
	mgr, err := impairmentManager(flow, kind)
	if err != nil {
		return err
	}

	if err := mgr.Stop(ctx); err != nil {
		return fmt.Errorf("disable %s: %w", kind, err)
	}
	fmt.Printf("%s disabled\n", kind)
	return nil
}

func runImpairmentSet(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	username, _ := cmd.Flags().GetString("username")
	variant, _ := cmd.Flags().GetString("variant")
	params, _ := cmd.Flags().GetStringArray("param")
	repeatPeriod, _ := cmd.Flags().GetUint32("repeat-period")
	repeatDuration, _ := cmd.Flags().GetUint32("repeat-duration")
	corruptionType, _ := cmd.Flags().GetString("corruption-type")
	moduleID, portID, flowID, err := parseFlowArgs(args)
	if err != nil {
		return err
	}

	paramMap, err := parseParams(params)
	if err != nil {
		return err
	}

	d, err := buildDistribution(distribution.Variant(variant), paramMap, repeatDuration, repeatPeriod)
	if err != nil {
		return err
	}

	ctx := context.Background()
	flow, err := resolveFlow(ctx, args[0], username, moduleID, portID, flowID)
	if err != nil {
		return err
	}
	mgr, err := impairmentManager(flow, kind)
	if err != nil {
		return err
	}

	cfg := &impairment.Config{}
	if err := cfg.SetDistribution(impairment.Kind(kind), d); err != nil {
		return fmt.Errorf("set %s: %w", kind, err)
	}
	if corruptionType != "" {
		cfg.CorruptionType = impairment.CorruptionType(corruptionType)
	}
	if err := mgr.Start(ctx, cfg); err != nil {
		return fmt.Errorf("start %s: %w", kind, err)
	}
	fmt.Printf("%s set to %s and enabled\n", kind, variant)
	return nil
}

func parseFlowArgs(args []string) (moduleID, portID, flowID int, err error) {
	moduleID, err = parseInt(args[1])
	if err != nil {
		return
	}
	portID, err = parseInt(args[2])
	if err != nil {
		return
	}
	flowID, err = parseInt(args[3])
	return
}

func parseParams(raw []string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --param %q: %w", kv, err)
		}
		out[parts[0]] = v
	}
	return out, nil
}
