package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
)

// ErrNoPolicy is returned when no policy id is given and
// PERMANENT_POLICY_ID is empty.
var ErrNoPolicy = errors.New("cli: no policy id")

// PolicyResult is printed by policy ensure and revoke.
type PolicyResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created,omitempty"`
	Revoked bool   `json:"revoked,omitempty"`
}

// NewPolicyCommand creates the policy command group. Revoking the policy
// invalidates every permanent link issued under it.
func NewPolicyCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the stored access policy behind permanent links",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "ensure [id]",
		Short:         "Create the read-only policy if it is missing",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, id, err := root.policyTarget(args)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			created, err := rt.Account.Primary().EnsurePolicy(cmd.Context(), id, rt.Clock.Now())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), PolicyResult{ID: id, Created: created})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show [id]",
		Short:         "Print the stored policy",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, id, err := root.policyTarget(args)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			policy, err := rt.Account.Primary().GetPolicy(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), policy)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "revoke [id]",
		Short:         "Delete the policy, revoking all permanent links",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, id, err := root.policyTarget(args)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			ctx := cmd.Context()
			if err := rt.ConnectRedis(ctx); err != nil {
				return err
			}
			if err := rt.Account.Primary().DeletePolicy(ctx, id); err != nil {
				return err
			}
			// Without Redis nothing caches the policy, so the delete alone
			// revokes it everywhere.
			if rt.Policies != nil {
				if err := rt.Policies.Forget(ctx, id); err != nil {
					rt.Logger.WarnContext(ctx, "cached policy not cleared", slog.String("policy", id), slog.Any("error", err))
				}
			}
			return writeJSON(cmd.OutOrStdout(), PolicyResult{ID: id, Revoked: true})
		},
	})

	return cmd
}

// policyTarget builds the runtime and resolves the policy id from args or
// the configured permanent policy.
func (o *RootOptions) policyTarget(args []string) (*Runtime, string, error) {
	rt, err := o.build()
	if err != nil {
		return nil, "", err
	}

	id := rt.Config.Access.PermanentPolicyID
	if len(args) == 1 {
		id = args[0]
	}
	if id == "" {
		_ = rt.Close(context.Background())
		return nil, "", ErrNoPolicy
	}
	return rt, id, nil
}
