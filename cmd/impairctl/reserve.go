package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Reserve or release testers, modules, and ports ",
}

var reserveTesterCmd = &cobra.Command{
	Use:   "tester <testerId>",
	Args:  cobra.ExactArgs(1),
	Short: "Reserve a tester",
	RunE:  runReserveTester,
}

var reserveModuleCmd = &cobra.Command{
	Use:   "module <testerId> <moduleId>",
	Args:  cobra.ExactArgs(2),
	Short: "Reserve a module",
	RunE:  runReserveModule,
}

var reservePortCmd = &cobra.Command{
	Use:   "port <testerId> <moduleId> <portId>",
	Args:  cobra.ExactArgs(3),
	Short: "Reserve a port",
	RunE:  runReservePort,
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release a previously-reserved tester, module, or port",
}

var releaseTesterCmd = &cobra.Command{
	Use:   "tester <testerId>",
	Args:  cobra.ExactArgs(1),
	Short: "Release a tester",
	RunE:  runReleaseTester,
}

var releaseModuleCmd = &cobra.Command{
	Use:   "module <testerId> <moduleId>",
	Args:  cobra.ExactArgs(2),
	Short: "Release a module",
	RunE:  runReleaseModule,
}

var releasePortCmd = &cobra.Command{
	Use:   "port <testerId> <moduleId> <portId>",
	Args:  cobra.ExactArgs(3),
	Short: "Release a port",
	RunE:  runReleasePort,
}

func init() {
	for _, c := range []*cobra.Command{reserveTesterCmd, reserveModuleCmd, reservePortCmd,
		releaseTesterCmd, releaseModuleCmd, releasePortCmd} {
		c.Flags().String("username", "cli", "reservation session identity")
	}

	reserveCmd.AddCommand(reserveTesterCmd, reserveModuleCmd, reservePortCmd)
	releaseCmd.AddCommand(releaseTesterCmd, releaseModuleCmd, releasePortCmd)
	rootCmd.AddCommand(releaseCmd)
}

func runReserveTester(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx := context.Background()
	mgr, err := ctrl.UseTester(ctx, args[0], username, true, verbose)
	if err != nil {
		return fmt.Errorf("reserve tester: %w", err)
	}
	fmt.Printf("reserved tester %s\n", mgr.ID())
	return nil
}

func runReleaseTester(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx := context.Background()
	mgr, err := ctrl.UseTester(ctx, args[0], username, false, verbose)
	if err != nil {
		return err
	}
	if err := mgr.Release(ctx); err != nil {
		return fmt.Errorf("release tester: %w", err)
	}
	fmt.Printf("released tester %s\n", args[0])
	return nil
}

func runReserveModule(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	moduleID, err := parseInt(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx := context.Background()
	tm, err := ctrl.UseTester(ctx, args[0], username, false, verbose)
	if err != nil {
		return err
	}
	if _, err := tm.UseModule(ctx, moduleID, true); err != nil {
		return fmt.Errorf("reserve module: %w", err)
	}
	fmt.Printf("reserved module %d on tester %s\n", moduleID, args[0])
	return nil
}

func runReleaseModule(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	moduleID, err := parseInt(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx := context.Background()
	tm, err := ctrl.UseTester(ctx, args[0], username, false, verbose)
	if err != nil {
		return err
	}
	mod, err := tm.UseModule(ctx, moduleID, false)
	if err != nil {
		return err
	}
	if err := mod.Release(ctx); err != nil {
		return fmt.Errorf("release module: %w", err)
	}
	fmt.Printf("released module %d on tester %s\n", moduleID, args[0])
	return nil
}

func runReservePort(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	moduleID, portID, err := parseTwoInts(args[1], args[2])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx := context.Background()
	tm, err := ctrl.UseTester(ctx, args[0], username, false, verbose)
	if err != nil {
		return err
	}
	if _, err := tm.UsePort(ctx, moduleID, portID, true); err != nil {
		return fmt.Errorf("reserve port: %w", err)
	}
	fmt.Printf("reserved port %d/%d on tester %s\n", moduleID, portID, args[0])
	return nil
}

func runReleasePort(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	moduleID, portID, err := parseTwoInts(args[1], args[2])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	ctx := context.Background()
	tm, err := ctrl.UseTester(ctx, args[0], username, false, verbose)
	if err != nil {
		return err
	}
	port, err := tm.UsePort(ctx, moduleID, portID, false)
	if err != nil {
		return err
	}
	if err := port.Release(ctx); err != nil {
		return fmt.Errorf("release port: %w", err)
	}
	fmt.Printf("released port %d/%d on tester %s\n", moduleID, portID, args[0])
	return nil
}
