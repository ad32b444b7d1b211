package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledgerlens/internal/cli"
	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/spf13/cobra"
)

func contractsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Review stored recurring contracts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored contracts for a tenant",
		Args:  cobra.NoArgs,
		RunE:  runContractsList,
	}
	list.Flags().String("tenant", defaultTenant, "Tenant to list")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a contract and its sample transactions",
		Args:  cobra.ExactArgs(1),
		RunE:  runContractsShow,
	}

	selectCmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Mark a contract as selected for import",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setSelected(cmd, args[0], true) },
	}

	deselect := &cobra.Command{
		Use:   "deselect <id>",
		Short: "Exclude a contract from import",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setSelected(cmd, args[0], false) },
	}

	cmd.AddCommand(list, show, selectCmd, deselect)
	return cmd
}

func runContractsList(cmd *cobra.Command, _ []string) error {
	tenantID, _ := cmd.Flags().GetString("tenant")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	contracts, err := store.ListContracts(cmd.Context(), tenantID)
	if err != nil {
		return err
	}
	return cli.RenderContracts(cmd.OutOrStdout(), contracts)
}

func runContractsShow(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	contract, err := store.GetContract(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("No contract with id %s", args[0]), err)
		}
		return err
	}

	samples, err := store.GetTransactionsByIDs(cmd.Context(), contract.TenantID, contract.SampleIDs)
	if err != nil {
		return err
	}
	return cli.RenderSamples(cmd.OutOrStdout(), *contract, samples)
}

func setSelected(cmd *cobra.Command, id string, selected bool) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetContractSelected(cmd.Context(), id, selected); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("No contract with id %s", id), err)
		}
		return err
	}

	state := "selected"
	if !selected {
		state = "deselected"
	}
	slog.Debug("Contract updated", "id", id, "selected", selected)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Contract %s %s", id, state)))
	return err
}
