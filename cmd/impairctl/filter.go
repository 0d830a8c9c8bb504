package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openimpair/controlplane/pkg/filter"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage a flow's shadow filter ",
}

var filterEnableCmd = &cobra.Command{
	Use:   "enable <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Enable the flow's filter master switch",
	RunE:  filterLifecycle((*filter.Manager).Enable),
}

var filterDisableCmd = &cobra.Command{
	Use:   "disable <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Disable the flow's filter master switch",
	RunE:  filterLifecycle((*filter.Manager).Disable),
}

var filterClearCmd = &cobra.Command{
	Use:   "clear <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Reset the shadow copy to defaults",
	RunE:  filterLifecycle((*filter.Manager).Clear),
}

var filterApplyCmd = &cobra.Command{
	Use:   "apply <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Atomically promote shadow to working",
	RunE:  filterLifecycle((*filter.Manager).Apply),
}

var filterCancelCmd = &cobra.Command{
	Use:   "cancel <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Discard shadow and reload it from working",
	RunE:  filterLifecycle((*filter.Manager).Cancel),
}

var filterExtendedCmd = &cobra.Command{
	Use:   "extended",
	Short: "Configure the extended-mode shadow filter ",
}

var filterExtendedSetCmd = &cobra.Command{
	Use:   "set <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Switch to extended mode and replace the segment sequence",
	RunE:  runFilterExtendedSet,
}

var filterExtendedGetCmd = &cobra.Command{
	Use:   "get <testerId> <moduleId> <portId> <flowId>",
	Args:  cobra.ExactArgs(4),
	Short: "Show the current extended-mode segment sequence",
	RunE:  runFilterExtendedGet,
}

func init() {
	for _, c := range []*cobra.Command{filterEnableCmd, filterDisableCmd, filterClearCmd,
		filterApplyCmd, filterCancelCmd, filterExtendedSetCmd, filterExtendedGetCmd} {
		c.Flags().String("username", "cli", "reservation session identity")
	}
	filterExtendedSetCmd.Flags().StringArray("segment", nil,
		"segment as type:value:mask, repeatable, in sequence order (e.g. Ethernet:aabbccddeeff:ffffffffffff)")
	filterExtendedSetCmd.MarkFlagRequired("segment")

	filterExtendedCmd.AddCommand(filterExtendedSetCmd, filterExtendedGetCmd)
	filterCmd.AddCommand(filterEnableCmd, filterDisableCmd, filterClearCmd,
		filterApplyCmd, filterCancelCmd, filterExtendedCmd)
}

func filterLifecycle(op func(*filter.Manager, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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
		if err := op(flow.Filter, ctx); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		fmt.Println("ok")
		return nil
	}
}

func runFilterExtendedSet(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	raw, _ := cmd.Flags().GetStringArray("segment")
	moduleID, portID, flowID, err := parseFlowArgs(args)
	if err != nil {
		return err
	}

	segments := make([]filter.Segment, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("invalid --segment %q, expected type:value:mask", s)
		}
		segments = append(segments, filter.Segment{
			Type:  filter.SegmentType(parts[0]),
			Value: parts[1],
			Mask:  parts[2],
		})
	}

	ctx := context.Background()
	flow, err := resolveFlow(ctx, args[0], username, moduleID, portID, flowID)
	if err != nil {
		return err
	}

	cfgtor, err := flow.Filter.UseExtendedMode(ctx)
	if err != nil {
		return fmt.Errorf("switch to extended mode: %w", err)
	}
	if err := cfgtor.Set(ctx, filter.ExtendedConfig{Segments: segments}); err != nil {
		return fmt.Errorf("set extended filter: %w", err)
	}
	fmt.Printf("extended filter set with %d segment(s)\n", len(segments))
	return nil
}

func runFilterExtendedGet(cmd *cobra.Command, args []string) error {
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

	cfgtor, err := flow.Filter.UseExtendedMode(ctx)
	if err != nil {
		return fmt.Errorf("switch to extended mode: %w", err)
	}
	cfg, err := cfgtor.Get(ctx)
	if err != nil {
		return fmt.Errorf("get extended filter: %w", err)
	}

	for i, seg := range cfg.Segments {
		fmt.Printf("%d: %s value=%s mask=%s\n", i, seg.Type, seg.Value, seg.Mask)
	}
	return nil
}
