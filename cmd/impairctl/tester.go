package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openimpair/controlplane/pkg/controller"
)

var testerCmd = &cobra.Command{
	Use:   "tester",
	Short: "Manage registered testers (spec's MainController addTester/removeTester/listTesters)",
}

var testerAddCmd = &cobra.Command{
	Use:   "add",
	Args:  cobra.NoArgs,
	Short: "Register a new tester",
	RunE:  runTesterAdd,
}

var testerRemoveCmd = &cobra.Command{
	Use:   "remove <testerId>",
	Args:  cobra.ExactArgs(1),
	Short: "Remove a registered tester",
	RunE:  runTesterRemove,
}

var testerListCmd = &cobra.Command{
	Use:   "list",
	Args:  cobra.NoArgs,
	Short: "List registered testers",
	RunE:  runTesterList,
}

func init() {
	testerAddCmd.Flags().String("product", "", "chassis product (Valkyrie, Chimera, Simulator)")
	testerAddCmd.Flags().String("host", "", "tester host/IP")
	testerAddCmd.Flags().Uint16("port", 22611, "tester port")
	testerAddCmd.Flags().String("password", "", "tester password")
	testerAddCmd.MarkFlagRequired("product")
	testerAddCmd.MarkFlagRequired("host")

	testerCmd.AddCommand(testerAddCmd, testerRemoveCmd, testerListCmd)
}

func runTesterAdd(cmd *cobra.Command, args []string) error {
	product, _ := cmd.Flags().GetString("product")
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetUint16("port")
	password, _ := cmd.Flags().GetString("password")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	id, err := ctrl.AddTester(context.Background(), controller.Credentials{
		Product:  controller.Product(product),
		Host:     host,
		Port:     port,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("add tester: %w", err)
	}

	fmt.Println(id)
	return nil
}

func runTesterRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	if err := ctrl.RemoveTester(args[0]); err != nil {
		return fmt.Errorf("remove tester: %w", err)
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}

func runTesterList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	for _, info := range ctrl.ListTesters() {
		fmt.Printf("%s\t%s\t%s\t%s\n",
			info.ID, info.Credentials.Product, info.Credentials.Host,
			strconv.FormatUint(uint64(info.Credentials.Port), 10))
	}
	return nil
}
